package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/asistente-tienda-api/internal/application/chat"
	"github.com/jhoicas/asistente-tienda-api/internal/application/dto"
	"github.com/jhoicas/asistente-tienda-api/internal/domain"
	"github.com/jhoicas/asistente-tienda-api/pkg/logger"
)

// ChatService contrato del orquestador que necesita el handler.
// Lo implementa *chat.Orchestrator.
type ChatService interface {
	Handle(ctx context.Context, req chat.Request) (*chat.Reply, error)
}

// ChatHandler expone el turno de conversación.
type ChatHandler struct {
	svc ChatService
	log *logger.Logger
}

// NewChatHandler construye el handler.
func NewChatHandler(svc ChatService, log *logger.Logger) *ChatHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ChatHandler{svc: svc, log: log.Component("http")}
}

// Chat POST /chat.
//
// Respuestas:
//   - 200 {text} respuesta final, pregunta aclaratoria o aviso de cuota.
//   - 200 {toolCalls:[{id,name,arguments}]} acción que debe ejecutar el navegador.
//   - 400 cuerpo inválido o sin message ni toolResult.
//   - 500 {error, code:"INTERNAL"} cualquier otro fallo.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "INVALID_BODY", Error: "cuerpo de la petición inválido",
		})
	}

	reply, err := h.svc.Handle(c.Context(), chat.Request{
		Message:    req.Message,
		ToolResult: req.ToolResult,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrQuotaExceeded):
			h.log.Warn().Err(err).Str("request_id", requestID(c)).Msg("cuota del proveedor LLM excedida")
			return c.JSON(dto.ChatResponse{Text: chat.QuotaMessage})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Code: "VALIDATION", Error: err.Error(),
			})
		default:
			h.log.Error().Err(err).Str("request_id", requestID(c)).Msg("turno de chat fallido")
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Code: "INTERNAL", Error: err.Error(),
			})
		}
	}

	if d := reply.Delegation; d != nil {
		return c.JSON(dto.ChatResponse{ToolCalls: []dto.ToolCallDTO{{
			ID:        d.CallID,
			Name:      d.ToolName,
			Arguments: d.Arguments,
		}}})
	}
	return c.JSON(dto.ChatResponse{Text: reply.Text})
}

// Health GET /health.
func Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{OK: true})
}
