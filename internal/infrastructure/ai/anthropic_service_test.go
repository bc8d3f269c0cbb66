package ai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/asistente-tienda-api/internal/application/ports"
	"github.com/jhoicas/asistente-tienda-api/internal/domain"
	"github.com/jhoicas/asistente-tienda-api/internal/domain/entity"
	"github.com/jhoicas/asistente-tienda-api/internal/infrastructure/ai"
)

func anthropicServer(t *testing.T, status int, body string, capture *map[string]any) *ai.AnthropicService {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))
		if capture != nil {
			raw, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(raw, capture))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return ai.NewAnthropicService("sk-ant-test", "claude-3-5-haiku-20241022", 0).WithURL(srv.URL)
}

func TestAnthropic_ParseaToolUse(t *testing.T) {
	var sent map[string]any
	svc := anthropicServer(t, http.StatusOK, `{"content":[
		{"type":"text","text":"Voy a buscar."},
		{"type":"tool_use","id":"toolu_1","name":"searchProducts","input":{"query":"moho"}}
	]}`, &sent)

	out, err := svc.Complete(context.Background(), ports.CompletionRequest{
		Messages:   []ports.ChatMessage{{Role: ports.RoleSystem, Content: "sistema"}, {Role: ports.RoleUser, Content: "moho"}},
		Tools:      []entity.ToolDeclaration{searchDecl},
		ToolChoice: ports.ToolChoiceAuto,
	})
	require.NoError(t, err)

	require.Len(t, out.ToolCalls, 1)
	assert.Equal(t, "toolu_1", out.ToolCalls[0].CallID)
	assert.JSONEq(t, `{"query":"moho"}`, out.ToolCalls[0].Arguments)
	assert.Equal(t, "Voy a buscar.", out.Text)

	assert.Equal(t, "sistema", sent["system"])
	assert.Equal(t, map[string]any{"type": "auto"}, sent["tool_choice"])
	msgs := sent["messages"].([]any)
	require.Len(t, msgs, 1, "el mensaje de sistema no viaja en messages")
}

func toolHistory() []ports.ChatMessage {
	return []ports.ChatMessage{
		{Role: ports.RoleUser, Content: "moho y envíos"},
		{Role: ports.RoleAssistant, ToolCalls: []entity.ToolCallRequest{
			{CallID: "t1", ToolName: "searchProducts", Arguments: `{"query":"moho"}`},
			{CallID: "t2", ToolName: "getFAQ", Arguments: `{"topic":"envios"}`},
		}},
		{Role: ports.RoleTool, ToolCallID: "t1", ToolName: "searchProducts", Content: `{"products":[]}`},
		{Role: ports.RoleTool, ToolCallID: "t2", ToolName: "getFAQ", Content: `{"answer":"x"}`},
	}
}

func blockTypes(msg any) []string {
	var types []string
	for _, b := range msg.(map[string]any)["content"].([]any) {
		types = append(types, b.(map[string]any)["type"].(string))
	}
	return types
}

func TestAnthropic_SinHerramientasAplanaElHistorial(t *testing.T) {
	var sent map[string]any
	svc := anthropicServer(t, http.StatusOK, `{"content":[{"type":"text","text":"Aquí tienes."}]}`, &sent)

	_, err := svc.Complete(context.Background(), ports.CompletionRequest{
		Messages:   toolHistory(),
		ToolChoice: ports.ToolChoiceNone,
	})
	require.NoError(t, err)

	assert.NotContains(t, sent, "tools")
	assert.NotContains(t, sent, "tool_choice")
	msgs := sent["messages"].([]any)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"text", "text"}, blockTypes(msgs[1]))

	results := msgs[2].(map[string]any)
	assert.Equal(t, "user", results["role"])
	assert.Equal(t, []string{"text", "text"}, blockTypes(results))
	second := results["content"].([]any)[1].(map[string]any)
	assert.Contains(t, second["text"], "getFAQ")
	assert.Contains(t, second["text"], `{"answer":"x"}`)
	assert.NotContains(t, second, "tool_use_id")
}

func TestAnthropic_ConHerramientasConservaBloques(t *testing.T) {
	var sent map[string]any
	svc := anthropicServer(t, http.StatusOK, `{"content":[{"type":"text","text":"Aquí tienes."}]}`, &sent)

	_, err := svc.Complete(context.Background(), ports.CompletionRequest{
		Messages:   toolHistory(),
		Tools:      []entity.ToolDeclaration{searchDecl},
		ToolChoice: ports.ToolChoiceAuto,
	})
	require.NoError(t, err)

	require.Len(t, sent["tools"], 1)
	msgs := sent["messages"].([]any)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"tool_use", "tool_use"}, blockTypes(msgs[1]))
	assert.Equal(t, []string{"tool_result", "tool_result"}, blockTypes(msgs[2]))
	assert.Equal(t, "t2", msgs[2].(map[string]any)["content"].([]any)[1].(map[string]any)["tool_use_id"])
}

func TestAnthropic_RateLimitEsCuota(t *testing.T) {
	svc := anthropicServer(t, http.StatusTooManyRequests,
		`{"type":"error","error":{"type":"rate_limit_error","message":"Number of request tokens has exceeded your rate limit"}}`, nil)

	_, err := svc.Complete(context.Background(), ports.CompletionRequest{Messages: []ports.ChatMessage{{Role: ports.RoleUser, Content: "hola"}}})
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestAnthropic_Sobrecarga(t *testing.T) {
	svc := anthropicServer(t, 529, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, nil)

	_, err := svc.Complete(context.Background(), ports.CompletionRequest{Messages: []ports.ChatMessage{{Role: ports.RoleUser, Content: "hola"}}})
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
