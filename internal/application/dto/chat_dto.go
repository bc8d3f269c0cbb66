package dto

// ChatRequest cuerpo de POST /chat. Con toolResult el turno es una confirmación
// de la acción que ejecutó el navegador y message se ignora.
type ChatRequest struct {
	Message    string         `json:"message,omitempty"`
	ToolResult map[string]any `json:"toolResult,omitempty"`
}

// ChatResponse respuesta de POST /chat: texto final o acciones para el navegador.
type ChatResponse struct {
	Text      string        `json:"text,omitempty"`
	ToolCalls []ToolCallDTO `json:"toolCalls,omitempty"`
}

// ToolCallDTO acción que el navegador debe ejecutar y reportar con toolResult.id = ID.
type ToolCallDTO struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}
