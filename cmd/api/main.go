package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/asistente-tienda-api/internal/application/catalog"
	"github.com/jhoicas/asistente-tienda-api/internal/application/chat"
	"github.com/jhoicas/asistente-tienda-api/internal/application/ports"
	"github.com/jhoicas/asistente-tienda-api/internal/application/tools"
	infraai "github.com/jhoicas/asistente-tienda-api/internal/infrastructure/ai"
	"github.com/jhoicas/asistente-tienda-api/internal/infrastructure/faq"
	"github.com/jhoicas/asistente-tienda-api/internal/infrastructure/metrics"
	"github.com/jhoicas/asistente-tienda-api/internal/infrastructure/shopify"
	httpRouter "github.com/jhoicas/asistente-tienda-api/internal/interfaces/http"
	"github.com/jhoicas/asistente-tienda-api/pkg/config"
	"github.com/jhoicas/asistente-tienda-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("ai_provider", cfg.AI.Provider).
		Msg("iniciando aplicación")

	faqEntries, err := faq.Load(cfg.Chat.FAQFile)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar FAQ")
	}

	recorder := metrics.NewRecorder()

	shop := shopify.NewClient(shopify.Config{
		StoreDomain:     cfg.Shopify.StoreDomain,
		StorefrontToken: cfg.Shopify.StorefrontToken,
		APIVersion:      cfg.Shopify.APIVersion,
		PublicURL:       cfg.Shopify.PublicURL,
		Timeout:         cfg.Shopify.Timeout,
	})
	gateway := metrics.InstrumentCatalog(shop, recorder)

	var llm ports.LLMService
	switch cfg.AI.Provider {
	case "anthropic":
		llm = infraai.NewAnthropicService(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel, cfg.AI.Timeout)
	case "gemini":
		llm = infraai.NewGeminiService(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, cfg.AI.Timeout)
	default:
		llm = infraai.NewOpenAIService(cfg.AI.OpenAIAPIKey, cfg.AI.OpenAIModel, cfg.AI.OpenAIBaseURL, cfg.AI.Timeout)
	}
	llm = metrics.InstrumentLLM(llm, recorder)

	registry, err := tools.NewRegistry()
	if err != nil {
		log.Fatal().Err(err).Msg("registro de herramientas")
	}
	router := tools.NewRouter(registry, gateway, catalog.NewVariantResolver(gateway), faqEntries, log)
	orchestrator := chat.NewOrchestrator(llm, router, chat.Config{
		FallbackQueryMax: cfg.Chat.FallbackQueryMax,
	}, recorder, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.AI.Timeout*2 + cfg.Shopify.Timeout*2,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Chat:           orchestrator,
		Metrics:        recorder.Handler(),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Log:            log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
