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

// Verificar en tiempo de compilación que OpenAIService implementa LLMService.
var _ ports.LLMService = (*OpenAIService)(nil)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIService adaptador que implementa LLMService con la API de chat completions
// (OpenAI o cualquier servicio compatible). Usa net/http de la librería estándar; no requiere SDK.
type OpenAIService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIService construye el adaptador. model suele ser "gpt-4o-mini".
// Con baseURL vacío usa la API pública de OpenAI.
func NewOpenAIService(apiKey, model, baseURL string, timeout time.Duration) *OpenAIService {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &OpenAIService{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ── Estructuras internas del protocolo chat completions ───────────────────────

type openAIRequest struct {
	Model      string          `json:"model"`
	Messages   []openAIMessage `json:"messages"`
	Tools      []openAITool    `json:"tools,omitempty"`
	ToolChoice string          `json:"tool_choice,omitempty"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *openAIError `json:"error"`
}

type openAIError struct {
	Type    string `json:"type"`
	Code    any    `json:"code"`
	Message string `json:"message"`
}

// quota indica si el error corresponde a límite de cuota o de tasa.
func (e *openAIError) quota() bool {
	code := fmt.Sprint(e.Code)
	return e.Type == "insufficient_quota" || code == "insufficient_quota" ||
		e.Type == "rate_limit_exceeded" || code == "rate_limit_exceeded"
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// Complete envía los mensajes y, si hay, las declaraciones de herramientas con tool_choice.
func (s *OpenAIService) Complete(ctx context.Context, in ports.CompletionRequest) (*ports.Completion, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: OPENAI_API_KEY no configurado")
	}

	payload := openAIRequest{
		Model:    s.model,
		Messages: toOpenAIMessages(in.Messages),
	}
	if len(in.Tools) > 0 {
		payload.Tools = toOpenAITools(in.Tools)
		payload.ToolChoice = string(in.ToolChoice)
		if payload.ToolChoice == "" {
			payload.ToolChoice = string(ports.ToolChoiceAuto)
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("AI: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

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

	var oaResp openAIResponse
	jsonErr := json.Unmarshal(rawBody, &oaResp)

	if resp.StatusCode != http.StatusOK {
		if jsonErr == nil && oaResp.Error != nil {
			if resp.StatusCode == http.StatusTooManyRequests || oaResp.Error.quota() {
				return nil, fmt.Errorf("AI: %w: %s", domain.ErrQuotaExceeded, oaResp.Error.Message)
			}
			return nil, fmt.Errorf("AI: %w: OpenAI error (%s): %s", domain.ErrUpstreamUnavailable, oaResp.Error.Type, oaResp.Error.Message)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("AI: %w: HTTP 429", domain.ErrQuotaExceeded)
		}
		return nil, fmt.Errorf("AI: %w: OpenAI HTTP %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	if jsonErr != nil {
		return nil, fmt.Errorf("AI: %w: deserializar respuesta OpenAI: %v", domain.ErrUpstreamProtocol, jsonErr)
	}
	if oaResp.Error != nil {
		return nil, fmt.Errorf("AI: %w: %s", domain.ErrUpstreamProtocol, oaResp.Error.Message)
	}
	if len(oaResp.Choices) == 0 {
		return nil, fmt.Errorf("AI: %w: OpenAI devolvió respuesta vacía", domain.ErrUpstreamProtocol)
	}

	msg := oaResp.Choices[0].Message
	out := &ports.Completion{}
	if msg.Content != nil {
		out.Text = strings.TrimSpace(*msg.Content)
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, entity.ToolCallRequest{
			CallID:    tc.ID,
			ToolName:  tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func toOpenAIMessages(msgs []ports.ChatMessage) []openAIMessage {
	out := make([]openAIMessage, 0, len(msgs))
	for _, m := range msgs {
		content := m.Content
		om := openAIMessage{Role: m.Role, Content: &content, ToolCallID: m.ToolCallID}
		if m.Role == ports.RoleAssistant && len(m.ToolCalls) > 0 {
			if content == "" {
				om.Content = nil
			}
			for _, tc := range m.ToolCalls {
				call := openAIToolCall{ID: tc.CallID, Type: "function"}
				call.Function.Name = tc.ToolName
				call.Function.Arguments = tc.Arguments
				om.ToolCalls = append(om.ToolCalls, call)
			}
		}
		out = append(out, om)
	}
	return out
}

func toOpenAITools(decls []entity.ToolDeclaration) []openAITool {
	out := make([]openAITool, 0, len(decls))
	for _, d := range decls {
		out = append(out, openAITool{
			Type: "function",
			Function: openAIFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return out
}
