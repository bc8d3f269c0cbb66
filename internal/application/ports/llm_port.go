package ports

import (
	"context"

	"github.com/jhoicas/asistente-tienda-api/internal/domain/entity"
)

// Roles de mensaje del protocolo de chat.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolChoice política de selección de herramientas enviada al proveedor.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = "auto"
	ToolChoiceNone ToolChoice = "none"
)

// ChatMessage mensaje con rol. ToolCalls se llena en mensajes del asistente que pidieron
// herramientas; ToolCallID y ToolName en mensajes de rol tool con el resultado.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCalls  []entity.ToolCallRequest
	ToolCallID string
	ToolName   string
}

// CompletionRequest petición al proveedor. Sin Tools el modelo solo puede responder texto.
type CompletionRequest struct {
	Messages   []ChatMessage
	Tools      []entity.ToolDeclaration
	ToolChoice ToolChoice
}

// Completion respuesta del modelo: texto directo o llamadas a herramientas.
type Completion struct {
	Text      string
	ToolCalls []entity.ToolCallRequest
}

// HasToolCalls indica si el modelo pidió ejecutar herramientas.
func (c *Completion) HasToolCalls() bool {
	return c != nil && len(c.ToolCalls) > 0
}

// LLMService define el puerto de salida hacia el proveedor de completions.
// Cualquier adaptador (OpenAI, Anthropic, mock) debe implementar esta interfaz.
// Los errores de cuota se reportan envueltos en domain.ErrQuotaExceeded; nunca se reintenta.
type LLMService interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
