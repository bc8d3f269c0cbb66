package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/asistente-tienda-api/internal/application/ports"
)

// Verificar en tiempo de compilación que Client implementa CatalogGateway.
var _ ports.CatalogGateway = (*Client)(nil)

const maxResponseBytes = 2 << 20

// Config datos de conexión con la tienda.
type Config struct {
	StoreDomain     string // mi-tienda.myshopify.com (o URL completa en pruebas)
	StorefrontToken string
	APIVersion      string // 2024-07
	PublicURL       string // dominio público de la tienda, base de las URLs de producto
	Timeout         time.Duration
}

// Client adaptador del catálogo: Storefront GraphQL para búsqueda y el endpoint público
// /products/{handle}.js para el detalle de variantes.
// Usa net/http de la librería estándar, igual que los adaptadores de IA.
type Client struct {
	graphqlURL string
	token      string
	publicURL  string
	httpClient *http.Client
}

// NewClient construye el adaptador. PublicURL se guarda sin "/" final para que
// la URL canónica sea exactamente PublicURL + "/products/" + handle.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	base := strings.TrimRight(cfg.StoreDomain, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return &Client{
		graphqlURL: fmt.Sprintf("%s/api/%s/graphql.json", base, cfg.APIVersion),
		token:      cfg.StorefrontToken,
		publicURL:  strings.TrimRight(cfg.PublicURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ProductURL URL canónica del producto. Única fuente de enlaces que ve el modelo.
func (c *Client) ProductURL(handle string) string {
	return c.publicURL + "/products/" + handle
}

// postGraphQL envía la consulta y deja el cuerpo crudo de la respuesta para el parser.
func (c *Client) postGraphQL(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return nil, fmt.Errorf("shopify: serializar consulta: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("shopify: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.token)
	return c.do(req)
}

func (c *Client) getJSON(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("shopify: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// do ejecuta la petición. Los estados no exitosos se devuelven como *statusError
// para que cada ruta decida su clasificación (404 en detalle = NotFound).
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable("llamada HTTP fallida: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, unavailable("leer respuesta: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode, body: truncate(string(raw), 300)}
	}
	return raw, nil
}

func detailURL(publicURL, handle string) string {
	return publicURL + "/products/" + url.PathEscape(handle) + ".js"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
