package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/asistente-tienda-api/internal/application/ports"
	"github.com/jhoicas/asistente-tienda-api/internal/domain"
	"github.com/jhoicas/asistente-tienda-api/internal/domain/entity"
)

// Verificar en tiempo de compilación que GeminiService implementa LLMService.
var _ ports.LLMService = (*GeminiService)(nil)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiService adaptador que implementa LLMService llamando a la API REST de Google Gemini
// (generateContent con function calling).
type GeminiService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiService construye el adaptador. model suele ser "gemini-1.5-flash".
func NewGeminiService(apiKey, model string, timeout time.Duration) *GeminiService {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &GeminiService{
		apiKey:     apiKey,
		model:      model,
		baseURL:    geminiBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithURL cambia la URL base (servidor de pruebas).
func (s *GeminiService) WithURL(base string) *GeminiService {
	s.baseURL = strings.TrimRight(base, "/")
	return s
}

// ── Estructuras internas para la API de Gemini ────────────────────────────────

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	Tools             []geminiTool    `json:"tools,omitempty"`
	ToolConfig        *geminiToolCfg  `json:"toolConfig,omitempty"`
	GenerationConfig  genConfig       `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type geminiFunctionResponse struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDecl `json:"functionDeclarations"`
}

type geminiFunctionDecl struct {
	Name                 string          `json:"name"`
	Description          string          `json:"description,omitempty"`
	ParametersJSONSchema json.RawMessage `json:"parametersJsonSchema,omitempty"`
}

type geminiToolCfg struct {
	FunctionCallingConfig struct {
		Mode string `json:"mode"`
	} `json:"functionCallingConfig"`
}

type genConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// Complete envía la conversación a generateContent. Los mensajes de sistema van en
// systemInstruction; los resultados de herramientas como functionResponse del rol user.
func (s *GeminiService) Complete(ctx context.Context, in ports.CompletionRequest) (*ports.Completion, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: GEMINI_API_KEY no configurado")
	}

	system, contents := toGeminiContents(in.Messages)
	payload := geminiRequest{
		Contents: contents,
		GenerationConfig: genConfig{
			Temperature:     0.2,
			MaxOutputTokens: 1024,
		},
	}
	if system != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	if len(in.Tools) > 0 && in.ToolChoice != ports.ToolChoiceNone {
		decls := make([]geminiFunctionDecl, 0, len(in.Tools))
		for _, d := range in.Tools {
			decls = append(decls, geminiFunctionDecl{Name: d.Name, Description: d.Description, ParametersJSONSchema: d.Parameters})
		}
		payload.Tools = []geminiTool{{FunctionDeclarations: decls}}
		payload.ToolConfig = &geminiToolCfg{}
		payload.ToolConfig.FunctionCallingConfig.Mode = "AUTO"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("AI: serializar request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, url.PathEscape(s.model), url.QueryEscape(s.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("AI: %w: timeout o cancelación: %v", domain.ErrUpstreamUnavailable, ctx.Err())
		}
		// El error de url.Error incluye la URL con la clave; no se propaga.
		return nil, fmt.Errorf("AI: %w: llamada HTTP a Gemini fallida", domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("AI: %w: leer respuesta: %v", domain.ErrUpstreamUnavailable, err)
	}

	var gemResp geminiResponse
	jsonErr := json.Unmarshal(rawBody, &gemResp)

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests ||
			(jsonErr == nil && gemResp.Error != nil && gemResp.Error.Status == "RESOURCE_EXHAUSTED") {
			return nil, fmt.Errorf("AI: %w: Gemini HTTP %d", domain.ErrQuotaExceeded, resp.StatusCode)
		}
		if jsonErr == nil && gemResp.Error != nil {
			return nil, fmt.Errorf("AI: %w: Gemini error %d: %s", domain.ErrUpstreamUnavailable, gemResp.Error.Code, gemResp.Error.Message)
		}
		return nil, fmt.Errorf("AI: %w: Gemini HTTP %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	if jsonErr != nil {
		return nil, fmt.Errorf("AI: %w: deserializar respuesta Gemini: %v", domain.ErrUpstreamProtocol, jsonErr)
	}
	if len(gemResp.Candidates) == 0 {
		return nil, fmt.Errorf("AI: %w: Gemini devolvió respuesta vacía", domain.ErrUpstreamProtocol)
	}

	out := &ports.Completion{}
	var text []string
	for _, p := range gemResp.Candidates[0].Content.Parts {
		if p.FunctionCall != nil {
			id := p.FunctionCall.ID
			if id == "" {
				id = "gemini_" + uuid.NewString()
			}
			args := string(p.FunctionCall.Args)
			if args == "" || args == "null" {
				args = "{}"
			}
			out.ToolCalls = append(out.ToolCalls, entity.ToolCallRequest{CallID: id, ToolName: p.FunctionCall.Name, Arguments: args})
			continue
		}
		if p.Text != "" {
			text = append(text, p.Text)
		}
	}
	out.Text = strings.TrimSpace(strings.Join(text, ""))
	return out, nil
}

// toGeminiContents separa el texto de sistema y agrupa resultados de herramientas consecutivos
// en un único contenido del rol user.
func toGeminiContents(msgs []ports.ChatMessage) (string, []geminiContent) {
	var system []string
	out := make([]geminiContent, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case ports.RoleSystem:
			system = append(system, m.Content)

		case ports.RoleAssistant:
			c := geminiContent{Role: "model"}
			if m.Content != "" {
				c.Parts = append(c.Parts, geminiPart{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				c.Parts = append(c.Parts, geminiPart{FunctionCall: &geminiFunctionCall{
					ID: tc.CallID, Name: tc.ToolName, Args: rawObject(tc.Arguments),
				}})
			}
			out = append(out, c)

		case ports.RoleTool:
			part := geminiPart{FunctionResponse: &geminiFunctionResponse{
				ID: m.ToolCallID, Name: m.ToolName, Response: rawObject(m.Content),
			}}
			if n := len(out); n > 0 && out[n-1].Role == "user" && out[n-1].Parts[0].FunctionResponse != nil {
				out[n-1].Parts = append(out[n-1].Parts, part)
				continue
			}
			out = append(out, geminiContent{Role: "user", Parts: []geminiPart{part}})

		default:
			out = append(out, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	return strings.Join(system, "\n\n"), out
}

// rawObject devuelve s si es un objeto JSON; si no, lo envuelve en {"content": s}.
// Gemini solo acepta objetos en args y response.
func rawObject(s string) json.RawMessage {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	b, _ := json.Marshal(map[string]string{"content": s})
	return b
}
