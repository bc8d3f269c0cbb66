package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	AI      AIConfig
	Shopify ShopifyConfig
	Chat    ChatConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // vacío = cualquier origen
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AIConfig proveedor de completions y sus credenciales.
type AIConfig struct {
	Provider        string // openai | anthropic | gemini
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string
	Timeout         time.Duration
}

// ShopifyConfig acceso al catálogo de la tienda.
type ShopifyConfig struct {
	StoreDomain     string // mi-tienda.myshopify.com
	StorefrontToken string
	APIVersion      string
	PublicURL       string // dominio público usado para los enlaces de producto, sin "/" final
	Timeout         time.Duration
}

// ChatConfig parámetros del orquestador y contenido estático.
type ChatConfig struct {
	FallbackQueryMax int
	FAQFile          string // vacío = respuestas embebidas
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, AI_PROVIDER, SHOPIFY_STORE_DOMAIN, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "asistente-tienda"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Host:           getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:           getInt(v, "HTTP_PORT", 8080),
			AllowedOrigins: getList(v, "CORS_ALLOWED_ORIGINS"),
		},
		AI: AIConfig{
			Provider:        strings.ToLower(getString(v, "AI_PROVIDER", "openai")),
			OpenAIAPIKey:    getString(v, "OPENAI_API_KEY", ""),
			OpenAIModel:     getString(v, "OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL:   getString(v, "OPENAI_BASE_URL", ""),
			AnthropicAPIKey: getString(v, "ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getString(v, "ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
			GeminiAPIKey:    getString(v, "GEMINI_API_KEY", ""),
			GeminiModel:     getString(v, "GEMINI_MODEL", "gemini-1.5-flash"),
			Timeout:         time.Duration(getInt(v, "AI_HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Shopify: ShopifyConfig{
			StoreDomain:     getString(v, "SHOPIFY_STORE_DOMAIN", ""),
			StorefrontToken: getString(v, "SHOPIFY_STOREFRONT_TOKEN", ""),
			APIVersion:      getString(v, "SHOPIFY_API_VERSION", "2024-07"),
			PublicURL:       strings.TrimRight(getString(v, "STORE_PUBLIC_URL", ""), "/"),
			Timeout:         time.Duration(getInt(v, "CATALOG_HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Chat: ChatConfig{
			FallbackQueryMax: getInt(v, "CHAT_FALLBACK_QUERY_MAX", 120),
			FAQFile:          getString(v, "FAQ_FILE", ""),
		},
	}

	switch cfg.AI.Provider {
	case "openai", "anthropic", "gemini":
	default:
		return nil, fmt.Errorf("config: AI_PROVIDER %q no soportado (openai | anthropic | gemini)", cfg.AI.Provider)
	}
	if cfg.Shopify.StoreDomain == "" {
		return nil, fmt.Errorf("config: SHOPIFY_STORE_DOMAIN es obligatorio")
	}
	if cfg.Shopify.PublicURL == "" {
		cfg.Shopify.PublicURL = "https://" + strings.TrimPrefix(cfg.Shopify.StoreDomain, "https://")
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

// getList separa por comas y descarta elementos vacíos.
func getList(v *viper.Viper, key string) []string {
	var out []string
	for _, s := range strings.Split(getString(v, key, ""), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
