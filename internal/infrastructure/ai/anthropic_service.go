package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/asistente-tienda-api/internal/application/ports"
	"github.com/jhoicas/asistente-tienda-api/internal/domain"
	"github.com/jhoicas/asistente-tienda-api/internal/domain/entity"
)

// Verificar en tiempo de compilación que AnthropicService implementa LLMService.
var _ ports.LLMService = (*AnthropicService)(nil)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"
	anthropicMaxTokens   = 1024
)

// AnthropicService adaptador que implementa LLMService usando la API REST de Anthropic (Claude).
// Usa net/http de la librería estándar de Go; no requiere el SDK oficial.
type AnthropicService struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

// NewAnthropicService construye el adaptador.
// model suele ser "claude-3-5-haiku-20241022".
// Si apiKey está vacío las llamadas devuelven error descriptivo en lugar de panic.
func NewAnthropicService(apiKey, model string, timeout time.Duration) *AnthropicService {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &AnthropicService{
		apiKey:     apiKey,
		model:      model,
		url:        anthropicMessagesURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithURL cambia el endpoint de mensajes (proxy corporativo o servidor de pruebas).
func (s *AnthropicService) WithURL(url string) *AnthropicService {
	s.url = url
	return s
}

// ── Estructuras internas del protocolo Anthropic Messages API ─────────────────

type anthropicRequest struct {
	Model      string               `json:"model"`
	MaxTokens  int                  `json:"max_tokens"`
	System     string               `json:"system,omitempty"`
	Messages   []anthropicMessage   `json:"messages"`
	Tools      []anthropicTool      `json:"tools,omitempty"`
	ToolChoice *anthropicToolChoice `json:"tool_choice,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

// anthropicBlock bloque de contenido: text, tool_use o tool_result.
type anthropicBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicToolChoice struct {
	Type string `json:"type"`
}

type anthropicResponse struct {
	Content []anthropicBlock `json:"content"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// Complete traduce la conversación al formato de bloques de Anthropic: los mensajes de sistema
// van en "system" y los resultados de herramientas en bloques tool_result del rol user.
// Sin herramientas ofrecidas la API rechaza bloques tool_use/tool_result, así que el historial
// de herramientas se envía como texto.
func (s *AnthropicService) Complete(ctx context.Context, in ports.CompletionRequest) (*ports.Completion, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: ANTHROPIC_API_KEY no configurado")
	}

	offerTools := len(in.Tools) > 0 && in.ToolChoice != ports.ToolChoiceNone
	system, messages := toAnthropicMessages(in.Messages, !offerTools)
	payload := anthropicRequest{
		Model:     s.model,
		MaxTokens: anthropicMaxTokens,
		System:    system,
		Messages:  messages,
	}
	if offerTools {
		for _, d := range in.Tools {
			payload.Tools = append(payload.Tools, anthropicTool{
				Name:        d.Name,
				Description: d.Description,
				InputSchema: d.Parameters,
			})
		}
		payload.ToolChoice = &anthropicToolChoice{Type: "auto"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("AI: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("AI: %w: timeout o cancelación: %v", domain.ErrUpstreamUnavailable, ctx.Err())
		}
		return nil, fmt.Errorf("AI: %w: llamada HTTP fallida: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("AI: %w: leer respuesta: %v", domain.ErrUpstreamUnavailable, err)
	}

	// Manejar errores HTTP de la API de Anthropic
	if resp.StatusCode != http.StatusOK {
		var errResp anthropicResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error != nil {
			if resp.StatusCode == http.StatusTooManyRequests || errResp.Error.Type == "rate_limit_error" {
				return nil, fmt.Errorf("AI: %w: %s", domain.ErrQuotaExceeded, errResp.Error.Message)
			}
			return nil, fmt.Errorf("AI: %w: Anthropic error (%s): %s", domain.ErrUpstreamUnavailable, errResp.Error.Type, errResp.Error.Message)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("AI: %w: HTTP 429", domain.ErrQuotaExceeded)
		}
		return nil, fmt.Errorf("AI: %w: Anthropic HTTP %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, string(rawBody))
	}

	var anthResp anthropicResponse
	if err := json.Unmarshal(rawBody, &anthResp); err != nil {
		return nil, fmt.Errorf("AI: %w: deserializar respuesta Anthropic: %v", domain.ErrUpstreamProtocol, err)
	}
	if len(anthResp.Content) == 0 {
		return nil, fmt.Errorf("AI: %w: Claude devolvió respuesta vacía", domain.ErrUpstreamProtocol)
	}

	out := &ports.Completion{}
	var texts []string
	for _, b := range anthResp.Content {
		switch b.Type {
		case "text":
			texts = append(texts, b.Text)
		case "tool_use":
			args := string(b.Input)
			if args == "" {
				args = "{}"
			}
			out.ToolCalls = append(out.ToolCalls, entity.ToolCallRequest{
				CallID:    b.ID,
				ToolName:  b.Name,
				Arguments: args,
			})
		}
	}
	out.Text = strings.TrimSpace(strings.Join(texts, "\n"))
	return out, nil
}

// toAnthropicMessages separa los mensajes de sistema y agrupa resultados de herramientas
// consecutivos en un único mensaje user, como exige la API. Con flatten las llamadas y sus
// resultados se convierten en bloques de texto.
func toAnthropicMessages(msgs []ports.ChatMessage, flatten bool) (string, []anthropicMessage) {
	var system []string
	out := make([]anthropicMessage, 0, len(msgs))
	prevTool := false
	for _, m := range msgs {
		isTool := m.Role == ports.RoleTool
		switch m.Role {
		case ports.RoleSystem:
			system = append(system, m.Content)
			isTool = prevTool
		case ports.RoleTool:
			block := anthropicBlock{Type: "tool_result", ToolUseID: m.ToolCallID, Content: m.Content}
			if flatten {
				block = anthropicBlock{Type: "text", Text: fmt.Sprintf("Resultado de %s (%s): %s", toolLabel(m.ToolName), m.ToolCallID, m.Content)}
			}
			if n := len(out); n > 0 && prevTool {
				out[n-1].Content = append(out[n-1].Content, block)
				break
			}
			out = append(out, anthropicMessage{Role: ports.RoleUser, Content: []anthropicBlock{block}})
		case ports.RoleAssistant:
			var blocks []anthropicBlock
			if m.Content != "" {
				blocks = append(blocks, anthropicBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				if flatten {
					blocks = append(blocks, anthropicBlock{Type: "text", Text: fmt.Sprintf("Llamada a %s (%s) con %s", tc.ToolName, tc.CallID, tc.Arguments)})
					continue
				}
				input := json.RawMessage(tc.Arguments)
				if !json.Valid(input) {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, anthropicBlock{Type: "tool_use", ID: tc.CallID, Name: tc.ToolName, Input: input})
			}
			if len(blocks) == 0 {
				isTool = prevTool
				break
			}
			out = append(out, anthropicMessage{Role: ports.RoleAssistant, Content: blocks})
		default:
			out = append(out, anthropicMessage{Role: ports.RoleUser, Content: []anthropicBlock{{Type: "text", Text: m.Content}}})
		}
		prevTool = isTool
	}
	return strings.Join(system, "\n\n"), out
}

func toolLabel(name string) string {
	if name == "" {
		return "herramienta"
	}
	return name
}
