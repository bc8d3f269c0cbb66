package shopify

import (
	"fmt"

	"github.com/jhoicas/asistente-tienda-api/internal/domain"
)

// statusError respuesta HTTP no exitosa del catálogo.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("shopify: HTTP %d: %s", e.code, e.body)
}

// Unwrap clasifica cualquier estado no exitoso como servicio no disponible.
func (e *statusError) Unwrap() error {
	return domain.ErrUpstreamUnavailable
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("shopify: %w: %s", domain.ErrUpstreamUnavailable, fmt.Sprintf(format, args...))
}

func protocolError(format string, args ...any) error {
	return fmt.Errorf("shopify: %w: %s", domain.ErrUpstreamProtocol, fmt.Sprintf(format, args...))
}
