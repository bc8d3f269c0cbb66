package shopify_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/asistente-tienda-api/internal/domain"
	"github.com/jhoicas/asistente-tienda-api/internal/infrastructure/shopify"
)

const publicURL = "https://www.tienda.test"

// productEdge arma un nodo de producto GraphQL con n variantes.
func productEdge(handle string, variants int) map[string]any {
	edges := make([]map[string]any, 0, variants)
	for i := 0; i < variants; i++ {
		edges = append(edges, map[string]any{"node": map[string]any{
			"id":               fmt.Sprintf("gid://shopify/ProductVariant/%d", i+1),
			"title":            fmt.Sprintf("Variante %d", i+1),
			"availableForSale": true,
			"price":            map[string]any{"amount": "15900.0", "currencyCode": "COP"},
			"selectedOptions":  []map[string]any{{"name": "Color", "value": "Blanco"}},
		}})
	}
	return map[string]any{"node": map[string]any{
		"id":          "gid://shopify/Product/" + handle,
		"title":       strings.ToUpper(handle),
		"handle":      handle,
		"vendor":      "Marca",
		"productType": "Limpieza",
		"variants":    map[string]any{"edges": edges},
	}}
}

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *shopify.Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := shopify.NewClient(shopify.Config{
		StoreDomain:     srv.URL,
		StorefrontToken: "token-test",
		APIVersion:      "2024-07",
		PublicURL:       publicURL + "/",
	})
	return srv, c
}

func TestSearch_URLCanonicaDesdeHandle(t *testing.T) {
	var gotBody map[string]any
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2024-07/graphql.json", r.URL.Path)
		assert.Equal(t, "token-test", r.Header.Get("X-Shopify-Storefront-Access-Token"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"search": map[string]any{
			"edges": []any{productEdge("quita-moho", 2), productEdge("cloro-gel", 1)},
		}}})
	})

	products, err := c.Search(context.Background(), "quitar moho")
	require.NoError(t, err)
	require.Len(t, products, 2)

	for _, p := range products {
		assert.Equal(t, publicURL+"/products/"+p.Handle, p.URL, "la URL debe construirse solo con el handle")
	}
	assert.Equal(t, "COP", products[0].Variants[0].Price.CurrencyCode)
	assert.Equal(t, "15900", products[0].Variants[0].Price.Amount.String())
	assert.Equal(t, map[string]string{"Color": "Blanco"}, products[0].Variants[0].SelectedOptions)

	vars, _ := gotBody["variables"].(map[string]any)
	assert.Equal(t, "quitar moho", vars["query"])
	assert.EqualValues(t, 5, vars["first"])
	assert.EqualValues(t, 50, vars["variants"])
}

func TestSearch_LimitaProductosYVariantes(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		edges := []any{}
		for i := 0; i < 7; i++ {
			edges = append(edges, productEdge(fmt.Sprintf("p-%d", i), 60))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"search": map[string]any{"edges": edges}}})
	})

	products, err := c.Search(context.Background(), "todo")
	require.NoError(t, err)
	assert.Len(t, products, 5)
	assert.Len(t, products[0].Variants, 50)
}

func TestSearch_DescartaNodosQueNoSonProductos(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"search": map[string]any{
			"edges": []any{map[string]any{"node": map[string]any{}}, productEdge("esponja", 1)},
		}}})
	})

	products, err := c.Search(context.Background(), "esponja")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "esponja", products[0].Handle)
}

func TestSearch_EstadoNoExitosoEsUpstreamUnavailable(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Search(context.Background(), "cloro")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestSearch_ErroresGraphQLSonProtocolError(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Throttled"}]}`))
	})

	_, err := c.Search(context.Background(), "cloro")
	assert.ErrorIs(t, err, domain.ErrUpstreamProtocol)
	assert.Contains(t, err.Error(), "Throttled")
}

func TestSearch_TransporteCaidoEsUpstreamUnavailable(t *testing.T) {
	srv, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.Search(context.Background(), "cloro")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

// ── Detalle de producto ──────────────────────────────────────────────────────

func newDetailServer(t *testing.T, handler http.HandlerFunc) *shopify.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return shopify.NewClient(shopify.Config{StoreDomain: srv.URL, APIVersion: "2024-07", PublicURL: srv.URL})
}

func TestFetchVariantDetail_OpcionesPosicionales(t *testing.T) {
	c := newDetailServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/pintura-antihongos.js", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": 1, "title": "Pintura", "handle": "pintura-antihongos",
			"options": [{"name": "Color"}, {"name": "Tamaño"}],
			"variants": [
				{"id": 987654321, "title": "Blanco / Galón", "available": true, "option1": "Blanco", "option2": "Galón", "option3": null, "price": 8990000}
			]
		}`))
	})

	d, err := c.FetchVariantDetail(context.Background(), "pintura-antihongos")
	require.NoError(t, err)

	assert.Equal(t, []string{"Color", "Tamaño"}, d.OptionNames)
	require.Len(t, d.Variants, 1)
	v := d.Variants[0]
	assert.Equal(t, int64(987654321), v.ID)
	assert.Equal(t, "Blanco", v.Option1)
	assert.Equal(t, "Galón", v.Option2)
	assert.Empty(t, v.Option3)
	assert.Equal(t, "89900", v.Price.String())
}

func TestFetchVariantDetail_OpcionesComoTexto(t *testing.T) {
	c := newDetailServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 2, "handle": "jabon", "options": ["Aroma"], "variants": []}`))
	})

	d, err := c.FetchVariantDetail(context.Background(), "jabon")
	require.NoError(t, err)
	assert.Equal(t, []string{"Aroma"}, d.OptionNames)
	assert.Empty(t, d.Variants)
}

func TestFetchVariantDetail_404EsNotFound(t *testing.T) {
	c := newDetailServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.FetchVariantDetail(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestFetchVariantDetail_500EsUpstreamUnavailable(t *testing.T) {
	c := newDetailServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.FetchVariantDetail(context.Background(), "jabon")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
