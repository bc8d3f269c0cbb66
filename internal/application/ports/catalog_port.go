package ports

import (
	"context"

	"github.com/jhoicas/asistente-tienda-api/internal/domain/entity"
)

// Límites de la búsqueda en catálogo.
const (
	MaxSearchResults   = 5
	MaxVariantsPerItem = 50
)

// CatalogGateway puerto de lectura del catálogo remoto. No cachea: cada turno vuelve a consultar.
type CatalogGateway interface {
	// Search devuelve como máximo MaxSearchResults productos, cada uno con su URL canónica.
	// Falla con domain.ErrUpstreamUnavailable o domain.ErrUpstreamProtocol.
	Search(ctx context.Context, query string) ([]entity.CatalogProduct, error)
	// FetchVariantDetail lee la proyección pública del producto con option1..option3.
	// Falla con domain.ErrNotFound o domain.ErrUpstreamUnavailable.
	FetchVariantDetail(ctx context.Context, handle string) (*entity.ProductDetail, error)
}
