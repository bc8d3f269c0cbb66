package entity

import "encoding/json"

// ToolDeclaration contrato de una herramienta ofrecida al modelo en cada turno.
// Se construye una vez al arrancar y no se modifica.
type ToolDeclaration struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"` // JSON Schema (type=object)
}

// ToolCallRequest invocación de herramienta emitida por el modelo.
// Arguments es el string JSON tal como llega del proveedor; se valida antes del despacho.
type ToolCallRequest struct {
	CallID    string `json:"id"`
	ToolName  string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResultKind discrimina el resultado de una herramienta.
type ToolResultKind int

const (
	// ServerResult el servidor ejecutó la herramienta y tiene el payload.
	ServerResult ToolResultKind = iota + 1
	// ClientDelegation la acción debe ejecutarse en el navegador (carrito).
	ClientDelegation
)

// String nombre legible del tipo, usado en logs y métricas.
func (k ToolResultKind) String() string {
	switch k {
	case ServerResult:
		return "server"
	case ClientDelegation:
		return "client"
	default:
		return "unknown"
	}
}

// ToolResult unión etiquetada: Payload solo aplica a ServerResult y Arguments solo a ClientDelegation.
// Un ClientDelegation termina el turno; nunca vuelve al modelo.
type ToolResult struct {
	Kind      ToolResultKind
	CallID    string
	ToolName  string
	Payload   any
	Arguments map[string]any
}

// IsDelegation indica si el resultado debe entregarse al navegador.
func (r ToolResult) IsDelegation() bool {
	return r.Kind == ClientDelegation
}
