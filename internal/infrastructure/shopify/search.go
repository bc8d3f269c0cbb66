package shopify

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/asistente-tienda-api/internal/application/ports"
	"github.com/jhoicas/asistente-tienda-api/internal/domain/entity"
)

const searchQuery = `query BuscarProductos($query: String!, $first: Int!, $variants: Int!) {
  search(query: $query, first: $first, types: PRODUCT) {
    edges {
      node {
        ... on Product {
          id
          title
          handle
          vendor
          productType
          variants(first: $variants) {
            edges {
              node {
                id
                title
                availableForSale
                price { amount currencyCode }
                selectedOptions { name value }
              }
            }
          }
        }
      }
    }
  }
}`

// ── Respuesta GraphQL ─────────────────────────────────────────────────────────

type searchResponse struct {
	Data *struct {
		Search struct {
			Edges []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
		} `json:"search"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type productNode struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	Vendor      string `json:"vendor"`
	ProductType string `json:"productType"`
	Variants    struct {
		Edges []struct {
			Node variantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

type variantNode struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	AvailableForSale bool   `json:"availableForSale"`
	Price            struct {
		Amount       decimal.Decimal `json:"amount"`
		CurrencyCode string          `json:"currencyCode"`
	} `json:"price"`
	SelectedOptions []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"selectedOptions"`
}

// Search consulta el catálogo con texto libre. Los nodos que no son productos
// (páginas, artículos) llegan vacíos y se descartan.
func (c *Client) Search(ctx context.Context, query string) ([]entity.CatalogProduct, error) {
	raw, err := c.postGraphQL(ctx, searchQuery, map[string]any{
		"query":    query,
		"first":    ports.MaxSearchResults,
		"variants": ports.MaxVariantsPerItem,
	})
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, protocolError("deserializar búsqueda: %v", err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, protocolError("%s", strings.Join(msgs, "; "))
	}
	if resp.Data == nil {
		return nil, protocolError("respuesta sin data")
	}

	products := make([]entity.CatalogProduct, 0, ports.MaxSearchResults)
	for _, edge := range resp.Data.Search.Edges {
		if edge.Node.Handle == "" {
			continue
		}
		products = append(products, c.toProduct(edge.Node))
		if len(products) == ports.MaxSearchResults {
			break
		}
	}
	return products, nil
}

func (c *Client) toProduct(n productNode) entity.CatalogProduct {
	p := entity.CatalogProduct{
		ID:          n.ID,
		Title:       n.Title,
		Handle:      n.Handle,
		URL:         c.ProductURL(n.Handle),
		Vendor:      n.Vendor,
		ProductType: n.ProductType,
		Variants:    make([]entity.CatalogVariant, 0, len(n.Variants.Edges)),
	}
	for _, ve := range n.Variants.Edges {
		if len(p.Variants) == ports.MaxVariantsPerItem {
			break
		}
		v := ve.Node
		opts := make(map[string]string, len(v.SelectedOptions))
		for _, o := range v.SelectedOptions {
			opts[o.Name] = o.Value
		}
		p.Variants = append(p.Variants, entity.CatalogVariant{
			ID:               v.ID,
			Title:            v.Title,
			AvailableForSale: v.AvailableForSale,
			Price:            entity.Money{Amount: v.Price.Amount, CurrencyCode: v.Price.CurrencyCode},
			SelectedOptions:  opts,
		})
	}
	return p
}
