package anthropic

import (
	"context"
	"encoding/json"
	"testing"

	testhelpers "mercator-hq/relay/internal/providers"
	"mercator-hq/relay/pkg/providers"
)

func TestAdapter_SendChat(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/messages", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockAnthropicResponse("Hello from Claude!", "claude-3-5-sonnet"),
	})

	adapter, err := NewAdapter(testhelpers.TestConfigWithURL("anthropic", "anthropic", mock.URL()+"/v1"))
	testhelpers.AssertNoError(t, err)

	client := providers.NewHTTPClient(providers.ClientConfig{})
	resp, err := client.SendChat(context.Background(), adapter, testhelpers.TestMessages(), "claude-3-5-sonnet", nil, adapter.Config().DefaultTimeouts())
	testhelpers.AssertNoError(t, err)

	if resp.Choice.Content != "Hello from Claude!" {
		t.Errorf("expected content %q, got %q", "Hello from Claude!", resp.Choice.Content)
	}
	if resp.Choice.FinishReason != providers.FinishReasonStop {
		t.Errorf("expected stop, got %q", resp.Choice.FinishReason)
	}
	if resp.Usage.PromptTokens != 10 || resp.Usage.CompletionTokens != 20 || resp.Usage.TotalTokens != 30 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}

	req, _ := mock.LastRequest()
	if err := testhelpers.ExpectHeader(req, "x-api-key", "test-key"); err != nil {
		t.Error(err)
	}
	if err := testhelpers.ExpectHeader(req, "anthropic-version", APIVersion); err != nil {
		t.Error(err)
	}
	if req.Headers.Get("Authorization") != "" {
		t.Error("expected no bearer header")
	}

	body := req.JSON()
	if body["system"] != "You are terse." {
		t.Errorf("expected system prompt to be hoisted, got %v", body["system"])
	}
	if body["max_tokens"] != float64(defaultMaxTokens) {
		t.Errorf("expected default max_tokens, got %v", body["max_tokens"])
	}
	if body["temperature"] != defaultTemperature {
		t.Errorf("expected default temperature, got %v", body["temperature"])
	}
}

func TestBuildRequestBody(t *testing.T) {
	adapter, _ := NewAdapter(providers.ProviderConfig{Name: "anthropic", APIKey: "k"})

	messages := []providers.Message{
		{Role: providers.RoleSystem, Content: "rule one"},
		{Role: providers.RoleUser, Content: "hi"},
		{Role: "tool", Content: "tool output"},
		{Role: providers.RoleAssistant, Content: "hello"},
		{Role: providers.RoleSystem, Content: "rule two"},
		{Role: providers.RoleUser, Content: "bye"},
	}

	payload, err := adapter.BuildRequestBody(messages, "claude", providers.Params{
		"max_tokens":  256,
		"temperature": 0.0,
		"stop":        []any{"END"},
		"frequency":   1,
	})
	testhelpers.AssertNoError(t, err)

	data, _ := json.Marshal(payload)
	var body map[string]interface{}
	_ = json.Unmarshal(data, &body)

	if body["system"] != "rule one\n\nrule two" {
		t.Errorf("expected joined system prompt, got %q", body["system"])
	}
	if body["max_tokens"] != float64(256) {
		t.Errorf("expected max_tokens 256, got %v", body["max_tokens"])
	}
	if body["temperature"] != float64(0) {
		t.Errorf("expected explicit zero temperature to be sent, got %v", body["temperature"])
	}
	if _, ok := body["frequency"]; ok {
		t.Error("expected unknown params to be dropped")
	}

	msgs := body["messages"].([]interface{})
	if len(msgs) != 3 {
		t.Fatalf("expected 3 alternating messages, got %d: %v", len(msgs), msgs)
	}
	first := msgs[0].(map[string]interface{})
	if first["role"] != "user" || first["content"] != "hi\n\ntool output" {
		t.Errorf("expected merged user turn, got %v", first)
	}
}

func TestNormalizeStopReason(t *testing.T) {
	tests := map[string]string{
		"end_turn":      providers.FinishReasonStop,
		"stop_sequence": providers.FinishReasonStop,
		"tool_use":      providers.FinishReasonStop,
		"max_tokens":    providers.FinishReasonLength,
		"refusal":       providers.FinishReasonContentFilter,
		"":              providers.FinishReasonUnknown,
		"weird":         providers.FinishReasonUnknown,
	}

	for in, want := range tests {
		if got := normalizeStopReason(in); got != want {
			t.Errorf("normalizeStopReason(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseResponse_MissingUsage(t *testing.T) {
	adapter, _ := NewAdapter(providers.ProviderConfig{Name: "anthropic"})

	resp, err := adapter.ParseResponse([]byte(`{"content":[{"type":"text","text":"a"},{"type":"text","text":"b"}],"stop_reason":"max_tokens"}`))
	testhelpers.AssertNoError(t, err)

	if resp.Choice.Content != "ab" {
		t.Errorf("expected concatenated text, got %q", resp.Choice.Content)
	}
	if resp.Usage.TotalTokens != providers.UsageUnknown {
		t.Errorf("expected sentinel total, got %d", resp.Usage.TotalTokens)
	}
	if resp.Choice.FinishReason != providers.FinishReasonLength {
		t.Errorf("expected length, got %q", resp.Choice.FinishReason)
	}
}

func TestParseModelList(t *testing.T) {
	adapter, _ := NewAdapter(providers.ProviderConfig{Name: "anthropic"})

	current := adapter.ParseModelList([]byte(`{"data":[{"id":"claude-3-5-sonnet","display_name":"Claude 3.5 Sonnet","type":"model"}]}`))
	if len(current) != 1 || current[0].DisplayName != "Claude 3.5 Sonnet" {
		t.Errorf("unexpected listing %+v", current)
	}

	legacy := adapter.ParseModelList([]byte(`{"models":[{"id":"claude-2","name":"Claude 2","description":"older"}]}`))
	if len(legacy) != 1 || legacy[0].Description != "older" {
		t.Errorf("unexpected legacy listing %+v", legacy)
	}

	if got := adapter.ParseModelList([]byte(`{}`)); len(got) != 0 {
		t.Errorf("expected empty listing, got %+v", got)
	}
}

func TestParseError(t *testing.T) {
	adapter, _ := NewAdapter(providers.ProviderConfig{Name: "anthropic"})

	msg := adapter.ParseError(400, []byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens: field required"}}`))
	if msg != "max_tokens: field required" {
		t.Errorf("unexpected message %q", msg)
	}
}
