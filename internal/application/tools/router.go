package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/jhoicas/asistente-tienda-api/internal/application/ports"
	"github.com/jhoicas/asistente-tienda-api/internal/domain/entity"
	"github.com/jhoicas/asistente-tienda-api/pkg/logger"
)

// VariantResolver puerto del resolvedor de variantes usado por getVariantByOptions.
type VariantResolver interface {
	Resolve(ctx context.Context, handle string, desired map[string]string) (*entity.VariantSelection, error)
}

// SearchPayload resultado de searchProducts enviado al modelo.
type SearchPayload struct {
	Products []entity.CatalogProduct `json:"products"`
}

// FAQPayload resultado de getFAQ.
type FAQPayload struct {
	Answer string `json:"answer"`
}

// Router despacha una invocación del modelo a su manejador.
// Argumentos inválidos y nombres desconocidos no fallan el turno: devuelven un payload neutro.
type Router struct {
	registry *Registry
	gateway  ports.CatalogGateway
	resolver VariantResolver
	faq      *entity.FAQ
	log      *logger.Logger
}

// NewRouter construye el router. registry y faq son de solo lectura y se comparten entre peticiones.
func NewRouter(registry *Registry, gateway ports.CatalogGateway, resolver VariantResolver, faq *entity.FAQ, log *logger.Logger) *Router {
	if log == nil {
		log = logger.Nop()
	}
	return &Router{
		registry: registry,
		gateway:  gateway,
		resolver: resolver,
		faq:      faq,
		log:      log.Component("tools"),
	}
}

// Registry expone las declaraciones y la clasificación servidor/navegador.
func (r *Router) Registry() *Registry {
	return r.registry
}

// Dispatch ejecuta la herramienta pedida. Solo los fallos del catálogo o del resolvedor
// se devuelven como error.
func (r *Router) Dispatch(ctx context.Context, call entity.ToolCallRequest) (entity.ToolResult, error) {
	switch call.ToolName {
	case ToolSearchProducts:
		var in SearchProductsArgs
		if !r.bind(call, &in) {
			return r.neutral(call), nil
		}
		products, err := r.gateway.Search(ctx, in.Query)
		if err != nil {
			return entity.ToolResult{}, fmt.Errorf("%s: %w", ToolSearchProducts, err)
		}
		if products == nil {
			products = []entity.CatalogProduct{}
		}
		return serverResult(call, SearchPayload{Products: products}), nil

	case ToolGetVariantByOptions:
		var in GetVariantByOptionsArgs
		if !r.bind(call, &in) {
			return r.neutral(call), nil
		}
		in.Handle = strings.TrimSpace(in.Handle)
		if in.Handle == "" {
			r.log.Warn().Str("tool", call.ToolName).Str("call_id", call.CallID).Msg("handle vacío, se responde neutro")
			return r.neutral(call), nil
		}
		sel, err := r.resolver.Resolve(ctx, in.Handle, in.Options)
		if err != nil {
			return entity.ToolResult{}, fmt.Errorf("%s: %w", ToolGetVariantByOptions, err)
		}
		return serverResult(call, *sel), nil

	case ToolGetFAQ:
		var in GetFAQArgs
		if !r.bind(call, &in) {
			return r.neutral(call), nil
		}
		return serverResult(call, FAQPayload{Answer: r.faq.Answer(in.Topic)}), nil

	case ToolAddToCartClient:
		// Solo un JSON ilegible impide la delegación; campos con tipo inesperado quedan en cero.
		args, err := r.registry.ParseArguments(call.ToolName, call.Arguments)
		if err != nil {
			r.log.Warn().Err(err).Str("tool", call.ToolName).Str("call_id", call.CallID).Msg("argumentos inválidos, se responde neutro")
			return r.neutral(call), nil
		}
		var in AddToCartClientArgs
		if err := decodeArgs(args, &in); err != nil {
			r.log.Warn().Err(err).Str("tool", call.ToolName).Str("call_id", call.CallID).Msg("argumentos parciales, se delega con valores por defecto")
		}
		in.VariantID = strings.TrimSpace(in.VariantID)
		if in.Quantity < 1 {
			in.Quantity = 1
		}
		return entity.ToolResult{
			Kind:     entity.ClientDelegation,
			CallID:   call.CallID,
			ToolName: call.ToolName,
			Arguments: map[string]any{
				"variantId": in.VariantID,
				"quantity":  in.Quantity,
			},
		}, nil

	default:
		r.log.Warn().Str("tool", call.ToolName).Str("call_id", call.CallID).Msg("herramienta desconocida, se responde vacío")
		return serverResult(call, map[string]any{}), nil
	}
}

// bind valida los argumentos contra el esquema y los decodifica en out.
func (r *Router) bind(call entity.ToolCallRequest, out any) bool {
	args, err := r.registry.ParseArguments(call.ToolName, call.Arguments)
	if err == nil {
		err = decodeArgs(args, out)
	}
	if err != nil {
		r.log.Warn().Err(err).Str("tool", call.ToolName).Str("call_id", call.CallID).Msg("argumentos inválidos, se responde neutro")
		return false
	}
	return true
}

func (r *Router) neutral(call entity.ToolCallRequest) entity.ToolResult {
	return serverResult(call, r.registry.Neutral(call.ToolName))
}

// decodeArgs convierte el mapa en el struct tipado. Acepta números donde se espera texto y
// viceversa ({"tamaño": 500} → "500", "quantity": "2" → 2); las claves desconocidas se ignoran.
// Ante un error los campos válidos quedan asignados.
func decodeArgs(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func serverResult(call entity.ToolCallRequest, payload any) entity.ToolResult {
	return entity.ToolResult{
		Kind:     entity.ServerResult,
		CallID:   call.CallID,
		ToolName: call.ToolName,
		Payload:  payload,
	}
}
