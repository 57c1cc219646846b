package openai

import (
	"context"
	"net/http"
	"testing"

	gpt "github.com/sashabaranov/go-openai"

	testhelpers "mercator-hq/relay/internal/providers"
	"mercator-hq/relay/pkg/providers"
)

func TestAdapter_SendChat(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockOpenAIResponse("Hello, world!", "gpt-4"),
	})

	adapter, err := NewAdapter(testhelpers.TestConfigWithURL("openai", "openai", mock.URL()+"/v1"))
	testhelpers.AssertNoError(t, err)

	client := providers.NewHTTPClient(providers.ClientConfig{})
	resp, err := client.SendChat(context.Background(), adapter, testhelpers.TestMessages(), "gpt-4",
		providers.Params{"temperature": 0.3, "seed": 42}, adapter.Config().DefaultTimeouts())
	testhelpers.AssertNoError(t, err)

	if resp.Choice.Content != "Hello, world!" {
		t.Errorf("expected content %q, got %q", "Hello, world!", resp.Choice.Content)
	}
	if resp.Choice.Role != providers.RoleAssistant {
		t.Errorf("expected assistant role, got %q", resp.Choice.Role)
	}
	if resp.Choice.FinishReason != providers.FinishReasonStop {
		t.Errorf("expected finish reason stop, got %q", resp.Choice.FinishReason)
	}
	if resp.Usage.TotalTokens != 30 {
		t.Errorf("expected total tokens 30, got %d", resp.Usage.TotalTokens)
	}
	if resp.Model != "gpt-4" {
		t.Errorf("expected model gpt-4, got %q", resp.Model)
	}

	req, _ := mock.LastRequest()
	if err := testhelpers.ExpectHeader(req, "Authorization", "Bearer test-key"); err != nil {
		t.Error(err)
	}
	body := req.JSON()
	if body["seed"] != float64(42) {
		t.Errorf("expected unknown params to pass through, got %v", body["seed"])
	}
	if body["model"] != "gpt-4" {
		t.Errorf("expected model in body, got %v", body["model"])
	}
	messages, _ := body["messages"].([]interface{})
	if len(messages) != 2 {
		t.Fatalf("expected system message to stay in messages, got %d", len(messages))
	}
}

func TestAdapter_Endpoints(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		chat   string
		models string
	}{
		{"base ends in v1", "https://api.openai.com/v1", "https://api.openai.com/v1/chat/completions", "https://api.openai.com/v1/models"},
		{"bare host", "https://api.deepseek.com", "https://api.deepseek.com/v1/chat/completions", "https://api.deepseek.com/v1/models"},
		{"default base", "", "https://api.openai.com/v1/chat/completions", "https://api.openai.com/v1/models"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := NewAdapter(providers.ProviderConfig{Name: "openai", BaseURL: tt.base})
			testhelpers.AssertNoError(t, err)

			if got := adapter.ChatEndpoint("any"); got != tt.chat {
				t.Errorf("expected chat endpoint %q, got %q", tt.chat, got)
			}
			if got := adapter.ModelsEndpoint(); got != tt.models {
				t.Errorf("expected models endpoint %q, got %q", tt.models, got)
			}
		})
	}
}

func TestAdapter_ParseResponseDefaults(t *testing.T) {
	adapter, _ := NewAdapter(testhelpers.TestConfig("openai", "openai"))

	t.Run("missing usage", func(t *testing.T) {
		resp, err := adapter.ParseResponse([]byte(`{"choices":[{"message":{"role":"assistant","content":"x"},"finish_reason":"stop"}]}`))
		testhelpers.AssertNoError(t, err)
		if resp.Usage != providers.UnknownUsage() {
			t.Errorf("expected sentinel usage, got %+v", resp.Usage)
		}
	})

	t.Run("partial usage", func(t *testing.T) {
		tests := []struct {
			name string
			body string
			want providers.Usage
		}{
			{
				name: "prompt only",
				body: `{"usage":{"prompt_tokens":5}}`,
				want: providers.Usage{PromptTokens: 5, CompletionTokens: -1, TotalTokens: -1},
			},
			{
				name: "total derived from parts",
				body: `{"usage":{"prompt_tokens":5,"completion_tokens":7}}`,
				want: providers.Usage{PromptTokens: 5, CompletionTokens: 7, TotalTokens: 12},
			},
			{
				name: "vendor total wins",
				body: `{"usage":{"completion_tokens":7,"total_tokens":20}}`,
				want: providers.Usage{PromptTokens: -1, CompletionTokens: 7, TotalTokens: 20},
			},
			{
				name: "empty block",
				body: `{"usage":{}}`,
				want: providers.UnknownUsage(),
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp, err := adapter.ParseResponse([]byte(tt.body))
				testhelpers.AssertNoError(t, err)
				if resp.Usage != tt.want {
					t.Errorf("expected %+v, got %+v", tt.want, resp.Usage)
				}
			})
		}
	})

	t.Run("null content", func(t *testing.T) {
		resp, err := adapter.ParseResponse([]byte(`{"choices":[{"message":{"role":"assistant","content":null},"finish_reason":"tool_calls"}]}`))
		testhelpers.AssertNoError(t, err)
		if resp.Choice.Content != "" {
			t.Errorf("expected empty content, got %q", resp.Choice.Content)
		}
		if resp.Choice.FinishReason != providers.FinishReasonStop {
			t.Errorf("expected tool_calls to map to stop, got %q", resp.Choice.FinishReason)
		}
	})

	t.Run("no choices", func(t *testing.T) {
		resp, err := adapter.ParseResponse([]byte(`{"id":"x"}`))
		testhelpers.AssertNoError(t, err)
		if resp.Choice.FinishReason != providers.FinishReasonUnknown {
			t.Errorf("expected unknown finish reason, got %q", resp.Choice.FinishReason)
		}
	})

	t.Run("not json", func(t *testing.T) {
		_, err := adapter.ParseResponse([]byte("upstream error"))
		testhelpers.AssertKind(t, err, providers.KindMalformedResponse)
	})
}

func TestNormalizeFinishReason(t *testing.T) {
	tests := []struct {
		in   gpt.FinishReason
		want string
	}{
		{gpt.FinishReasonStop, providers.FinishReasonStop},
		{gpt.FinishReasonLength, providers.FinishReasonLength},
		{gpt.FinishReasonFunctionCall, providers.FinishReasonStop},
		{gpt.FinishReasonContentFilter, providers.FinishReasonContentFilter},
		{"", providers.FinishReasonUnknown},
		{"eos", providers.FinishReasonUnknown},
	}

	for _, tt := range tests {
		if got := normalizeFinishReason(tt.in); got != tt.want {
			t.Errorf("normalizeFinishReason(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAdapter_VendorError(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", testhelpers.MockAuthError())

	adapter, _ := NewAdapter(testhelpers.TestConfigWithURL("openai", "openai", mock.URL()+"/v1"))
	client := providers.NewHTTPClient(providers.ClientConfig{})
	_, err := client.SendChat(context.Background(), adapter, testhelpers.TestMessages(), "gpt-4", nil, adapter.Config().DefaultTimeouts())

	testhelpers.AssertVendorError(t, err, http.StatusUnauthorized, "invalid key")
	if mock.GetRequestCount() != 1 {
		t.Errorf("expected a single request, got %d", mock.GetRequestCount())
	}
}

func TestAdapter_ParseErrorFallback(t *testing.T) {
	adapter, _ := NewAdapter(testhelpers.TestConfig("openai", "openai"))

	if got := adapter.ParseError(404, []byte(`{"error":"no such model"}`)); got != "no such model" {
		t.Errorf("expected string error to be extracted, got %q", got)
	}
	if got := adapter.ParseError(502, []byte("bad gateway")); got != "bad gateway" {
		t.Errorf("expected raw text, got %q", got)
	}
}

func TestAdapter_ParseModelList(t *testing.T) {
	adapter, _ := NewAdapter(testhelpers.TestConfig("openai", "openai"))

	t.Run("listing", func(t *testing.T) {
		models := adapter.ParseModelList([]byte(`{"data":[{"id":"gpt-4o","created":1700000000,"owned_by":"openai"},{"id":"gpt-4o-mini"},{"object":"model"}]}`))
		if len(models) != 2 {
			t.Fatalf("expected 2 models, got %d", len(models))
		}
		if models[0].ID != "gpt-4o" || models[0].Created != 1700000000 {
			t.Errorf("unexpected first model %+v", models[0])
		}
	})

	t.Run("unknown shape", func(t *testing.T) {
		models := adapter.ParseModelList([]byte(`<html></html>`))
		if models == nil || len(models) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", models)
		}
	})
}

func TestAdapter_CredentialOptionalVariant(t *testing.T) {
	adapter, err := NewVariantAdapter(providers.ProviderConfig{Name: "local", BaseURL: "http://localhost:8000/v1"},
		Variant{ID: "generic", CredentialOptional: true, VersionPrefix: true})
	testhelpers.AssertNoError(t, err)

	if adapter.RequiresCredential() {
		t.Error("expected credential to be optional")
	}
	if _, ok := adapter.BuildHeaders()["Authorization"]; ok {
		t.Error("expected no Authorization header without a key")
	}
}

func TestNewVariantAdapter_Validation(t *testing.T) {
	if _, err := NewVariantAdapter(providers.ProviderConfig{}, Standard); err == nil {
		t.Error("expected error for missing name")
	}
	_, err := NewVariantAdapter(providers.ProviderConfig{Name: "x"}, Variant{ID: "custom"})
	testhelpers.AssertKind(t, err, providers.KindConfiguration)
}
