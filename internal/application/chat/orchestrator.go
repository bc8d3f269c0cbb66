package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/asistente-tienda-api/internal/application/ports"
	"github.com/jhoicas/asistente-tienda-api/internal/application/tools"
	"github.com/jhoicas/asistente-tienda-api/internal/domain"
	"github.com/jhoicas/asistente-tienda-api/internal/domain/entity"
	"github.com/jhoicas/asistente-tienda-api/pkg/logger"
)

// DefaultFallbackQueryMax longitud máxima (en caracteres) de la búsqueda forzada.
const DefaultFallbackQueryMax = 120

// Request entrada de un turno. ToolResult llega cuando el navegador reporta el resultado
// de una acción delegada; en ese caso Message se ignora.
type Request struct {
	Message    string
	ToolResult map[string]any
}

// Reply salida de un turno: texto final o una delegación al navegador, nunca ambos.
type Reply struct {
	Text       string
	Delegation *entity.ToolResult
}

// Config parámetros ajustables del orquestador.
type Config struct {
	FallbackQueryMax int
}

// Orchestrator conduce el intercambio de dos pasos con el modelo.
// No guarda estado entre peticiones: el router, el registro y el FAQ son de solo lectura.
type Orchestrator struct {
	llm         ports.LLMService
	router      *tools.Router
	metrics     ports.Metrics
	log         *logger.Logger
	fallbackMax int
	newCallID   func() string
}

// NewOrchestrator construye el orquestador.
func NewOrchestrator(llm ports.LLMService, router *tools.Router, cfg Config, metrics ports.Metrics, log *logger.Logger) *Orchestrator {
	if cfg.FallbackQueryMax <= 0 {
		cfg.FallbackQueryMax = DefaultFallbackQueryMax
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		llm:         llm,
		router:      router,
		metrics:     metrics,
		log:         log.Component("chat"),
		fallbackMax: cfg.FallbackQueryMax,
		newCallID:   func() string { return "fallback_" + uuid.NewString() },
	}
}

// ── Máquina de estados ───────────────────────────────────────────────────────

type turnState int

const (
	stateAwaitingModel turnState = iota
	stateDirectAnswer
	stateGroundingFallback
	stateToolsRequested
	stateExecuting
	stateClientDelegationPending
	stateResultsReady
	stateFinalAnswer
	stateClarify
)

var stateNames = [...]string{
	"awaiting_model", "direct_answer", "grounding_fallback", "tools_requested", "executing",
	"client_delegation_pending", "results_ready", "final_answer", "clarify",
}

func (s turnState) String() string { return stateNames[s] }

// turn estado de un único turno; se descarta al responder.
type turn struct {
	state      turnState
	message    string
	completion *ports.Completion
	executed   []entity.ToolCallRequest
	results    []entity.ToolResult
	delegation *entity.ToolResult
	text       string
}

// Handle ejecuta un turno completo. Los errores del LLM se devuelven sin reintentos;
// la capa HTTP traduce domain.ErrQuotaExceeded a un mensaje amable.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (*Reply, error) {
	var (
		reply   *Reply
		err     error
		outcome string
	)
	if req.ToolResult != nil {
		reply, err = o.confirm(ctx, req.ToolResult)
		outcome = "confirmation"
	} else {
		if strings.TrimSpace(req.Message) == "" {
			return nil, fmt.Errorf("chat: %w: message es obligatorio", domain.ErrInvalidInput)
		}
		var t *turn
		t, err = o.run(ctx, &turn{state: stateAwaitingModel, message: req.Message})
		if err == nil {
			reply = &Reply{Text: t.text, Delegation: t.delegation}
			outcome = t.state.String()
		}
	}

	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		o.metrics.ObserveTurn("quota")
	case err != nil:
		o.metrics.ObserveTurn("error")
	default:
		o.metrics.ObserveTurn(outcome)
	}
	return reply, err
}

// run avanza el turno hasta un estado terminal: final_answer, client_delegation_pending o clarify.
func (o *Orchestrator) run(ctx context.Context, t *turn) (*turn, error) {
	for {
		o.log.Debug().Str("state", t.state.String()).Msg("turno")

		switch t.state {
		case stateAwaitingModel:
			c, err := o.llm.Complete(ctx, ports.CompletionRequest{
				Messages: []ports.ChatMessage{
					{Role: ports.RoleSystem, Content: systemPrompt},
					{Role: ports.RoleUser, Content: t.message},
				},
				Tools:      o.router.Registry().Declarations(),
				ToolChoice: ports.ToolChoiceAuto,
			})
			if err != nil {
				return nil, fmt.Errorf("chat: llamada al modelo: %w", err)
			}
			t.completion = c
			if c.HasToolCalls() {
				t.state = stateToolsRequested
			} else {
				t.state = stateDirectAnswer
			}

		case stateDirectAnswer:
			// La respuesta directa nunca se entrega sin antes intentar anclarla al catálogo.
			o.log.Info().Msg("el modelo respondió sin herramientas, se fuerza búsqueda")
			t.state = stateGroundingFallback

		case stateGroundingFallback:
			if o.forceSearch(ctx, t) {
				t.state = stateResultsReady
			} else {
				t.text = ClarifyMessage
				t.state = stateClarify
			}

		case stateToolsRequested:
			t.state = stateExecuting

		case stateExecuting:
			if err := o.execute(ctx, t, t.completion.ToolCalls); err != nil {
				return nil, err
			}
			if t.delegation != nil {
				t.state = stateClientDelegationPending
			} else {
				t.state = stateResultsReady
			}

		case stateResultsReady:
			text, err := o.answerFromResults(ctx, t)
			if err != nil {
				return nil, err
			}
			t.text = text
			t.state = stateFinalAnswer

		case stateClientDelegationPending, stateFinalAnswer, stateClarify:
			return t, nil
		}
	}
}

// execute despacha las llamadas en el orden del modelo. Las llamadas de servidor consecutivas
// corren en paralelo; la primera delegación al navegador detiene el procesamiento.
func (o *Orchestrator) execute(ctx context.Context, t *turn, calls []entity.ToolCallRequest) error {
	registry := o.router.Registry()
	var pending []entity.ToolCallRequest

	for _, call := range calls {
		if registry.Kind(call.ToolName) != entity.ClientDelegation {
			pending = append(pending, call)
			continue
		}
		if err := o.flush(ctx, t, pending); err != nil {
			return err
		}
		pending = nil

		res, err := o.dispatch(ctx, call)
		if err != nil {
			return err
		}
		if res.IsDelegation() {
			o.bindResolvedVariant(&res, t.results)
			t.delegation = &res
			o.log.Info().Str("tool", res.ToolName).Str("call_id", res.CallID).Msg("acción delegada al navegador")
			return nil
		}
		t.executed = append(t.executed, call)
		t.results = append(t.results, res)
	}
	return o.flush(ctx, t, pending)
}

// flush ejecuta en paralelo un grupo de llamadas de servidor y guarda los resultados en orden.
func (o *Orchestrator) flush(ctx context.Context, t *turn, calls []entity.ToolCallRequest) error {
	if len(calls) == 0 {
		return nil
	}
	results := make([]entity.ToolResult, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			res, err := o.dispatch(gctx, call)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	t.executed = append(t.executed, calls...)
	t.results = append(t.results, results...)
	return nil
}

func (o *Orchestrator) dispatch(ctx context.Context, call entity.ToolCallRequest) (entity.ToolResult, error) {
	res, err := o.router.Dispatch(ctx, call)
	if err != nil {
		return entity.ToolResult{}, fmt.Errorf("chat: herramienta %s: %w", call.ToolName, err)
	}
	o.metrics.ObserveToolCall(call.ToolName, res.Kind.String())
	o.log.Info().Str("tool", call.ToolName).Str("call_id", call.CallID).Str("kind", res.Kind.String()).Msg("herramienta ejecutada")
	return res, nil
}

// bindResolvedVariant completa el variantId de la delegación con la última variante resuelta
// en la misma respuesta del modelo, solo si el modelo no lo envió. Si no hay ninguna la
// delegación sale igual con variantId vacío y el navegador decide.
func (o *Orchestrator) bindResolvedVariant(res *entity.ToolResult, prior []entity.ToolResult) {
	if id, _ := res.Arguments["variantId"].(string); id != "" {
		return
	}
	for i := len(prior) - 1; i >= 0; i-- {
		if sel, ok := prior[i].Payload.(entity.VariantSelection); ok && sel.VariantID != "" {
			res.Arguments["variantId"] = sel.VariantID
			return
		}
	}
	o.log.Warn().Str("tool", res.ToolName).Str("call_id", res.CallID).Msg("delegación sin variantId")
}

// forceSearch busca en el catálogo con el mensaje del usuario cuando el modelo no usó herramientas.
// Cualquier fallo o cero resultados se reporta como false, nunca como error.
func (o *Orchestrator) forceSearch(ctx context.Context, t *turn) bool {
	query := truncateRunes(strings.TrimSpace(t.message), o.fallbackMax)
	args, err := json.Marshal(tools.SearchProductsArgs{Query: query})
	if err != nil {
		return false
	}
	call := entity.ToolCallRequest{CallID: o.newCallID(), ToolName: tools.ToolSearchProducts, Arguments: string(args)}

	res, err := o.dispatch(ctx, call)
	if err != nil {
		o.log.Warn().Err(err).Msg("búsqueda forzada fallida, se pide aclaración")
		return false
	}
	payload, ok := res.Payload.(tools.SearchPayload)
	if !ok || len(payload.Products) == 0 {
		o.log.Info().Str("query", query).Msg("búsqueda forzada sin resultados, se pide aclaración")
		return false
	}
	t.executed = []entity.ToolCallRequest{call}
	t.results = []entity.ToolResult{res}
	return true
}

// answerFromResults segundo paso: el modelo solo ve los resultados ya obtenidos y no tiene herramientas.
func (o *Orchestrator) answerFromResults(ctx context.Context, t *turn) (string, error) {
	messages := make([]ports.ChatMessage, 0, 3+len(t.results))
	messages = append(messages,
		ports.ChatMessage{Role: ports.RoleSystem, Content: answerPrompt},
		ports.ChatMessage{Role: ports.RoleUser, Content: t.message},
		ports.ChatMessage{Role: ports.RoleAssistant, ToolCalls: t.executed},
	)
	for _, r := range t.results {
		messages = append(messages, ports.ChatMessage{
			Role:       ports.RoleTool,
			ToolCallID: r.CallID,
			ToolName:   r.ToolName,
			Content:    encodePayload(r.Payload),
		})
	}

	c, err := o.llm.Complete(ctx, ports.CompletionRequest{Messages: messages, ToolChoice: ports.ToolChoiceNone})
	if err != nil {
		return "", fmt.Errorf("chat: segunda llamada al modelo: %w", err)
	}
	if strings.TrimSpace(c.Text) == "" {
		return ClarifyMessage, nil
	}
	return c.Text, nil
}

// confirm sub-protocolo sin herramientas: el navegador reporta el resultado de una acción delegada.
func (o *Orchestrator) confirm(ctx context.Context, toolResult map[string]any) (*Reply, error) {
	raw, err := json.Marshal(toolResult)
	if err != nil {
		return nil, fmt.Errorf("chat: %w: toolResult no serializable: %v", domain.ErrInvalidInput, err)
	}
	c, err := o.llm.Complete(ctx, ports.CompletionRequest{
		Messages: []ports.ChatMessage{
			{Role: ports.RoleSystem, Content: confirmPrompt},
			{Role: ports.RoleUser, Content: string(raw)},
		},
		ToolChoice: ports.ToolChoiceNone,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: confirmación: %w", err)
	}
	return &Reply{Text: c.Text}, nil
}

func encodePayload(payload any) string {
	if payload == nil {
		return "{}"
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
