package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/jhoicas/asistente-tienda-api/internal/application/ports"
	"github.com/jhoicas/asistente-tienda-api/internal/domain"
	"github.com/jhoicas/asistente-tienda-api/internal/domain/entity"
)

// VariantResolver elige la variante comprable que mejor coincide con las opciones pedidas.
type VariantResolver struct {
	gateway ports.CatalogGateway
}

// NewVariantResolver construye el resolvedor sobre el gateway de catálogo.
func NewVariantResolver(gateway ports.CatalogGateway) *VariantResolver {
	return &VariantResolver{gateway: gateway}
}

// Resolve busca la primera variante (en orden de catálogo) cuyo título u opciones posicionales
// contienen todos los valores deseados. Coincidencia por subcadena, sin distinguir mayúsculas
// ni espacios extremos: "blanco" coincide con "Blanco brillante".
// Sin coincidencia devuelve la primera variante disponible y, si no hay ninguna, la primera.
func (r *VariantResolver) Resolve(ctx context.Context, handle string, desired map[string]string) (*entity.VariantSelection, error) {
	detail, err := r.gateway.FetchVariantDetail(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("resolver variante %q: %w", handle, err)
	}
	if detail == nil || len(detail.Variants) == 0 {
		return nil, fmt.Errorf("resolver variante %q: %w", handle, domain.ErrNoVariantsAvailable)
	}

	fold := cases.Fold()
	wanted := normalizeDesired(fold, desired)

	chosen := pickVariant(fold, detail.Variants, wanted)
	return &entity.VariantSelection{
		VariantID:    strconv.FormatInt(chosen.ID, 10),
		VariantTitle: chosen.Title,
	}, nil
}

func pickVariant(fold cases.Caser, variants []entity.VariantDetail, wanted []string) entity.VariantDetail {
	if len(wanted) > 0 {
		for _, v := range variants {
			if matches(comparisonSet(fold, v), wanted) {
				return v
			}
		}
	}
	for _, v := range variants {
		if v.Available {
			return v
		}
	}
	return variants[0]
}

// matches AND entre valores deseados, OR entre los campos de la variante.
func matches(fields, wanted []string) bool {
	for _, w := range wanted {
		found := false
		for _, f := range fields {
			if strings.Contains(f, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func comparisonSet(fold cases.Caser, v entity.VariantDetail) []string {
	out := make([]string, 0, 4)
	out = append(out, normalize(fold, v.Title))
	for _, opt := range v.Options() {
		if n := normalize(fold, opt); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// normalizeDesired descarta valores vacíos. El orden del mapa no importa: la coincidencia es AND.
func normalizeDesired(fold cases.Caser, desired map[string]string) []string {
	out := make([]string, 0, len(desired))
	for _, v := range desired {
		if n := normalize(fold, v); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func normalize(fold cases.Caser, s string) string {
	return strings.TrimSpace(fold.String(s))
}
