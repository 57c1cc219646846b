package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"mercator-hq/relay/pkg/config"
)

func newTestLogger(t *testing.T, custom ...config.RedactPattern) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := New(Config{
		LoggingConfig: config.LoggingConfig{Level: "debug", Format: "json", RedactPatterns: custom},
		Writer:        &buf,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return logger, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		wantErr bool
	}{
		{"json", config.LoggingConfig{Level: "info", Format: "json"}, false},
		{"text", config.LoggingConfig{Level: "warn", Format: "text"}, false},
		{"empty defaults", config.LoggingConfig{}, false},
		{"bad level", config.LoggingConfig{Level: "verbose"}, true},
		{"bad format", config.LoggingConfig{Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Config{LoggingConfig: tt.cfg, Writer: &bytes.Buffer{}})
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{LoggingConfig: config.LoggingConfig{Level: "warn"}, Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn to be logged, got %q", buf.String())
	}
}

func TestRedactingHandler_Attributes(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  string
	}{
		{"openai key in value", "detail", "using sk-abcdefghijklmnop", "using sk-***"},
		{"anthropic key", "detail", "key sk-ant-api03-xyz", "key sk-ant-***"},
		{"google key", "url", "https://x/v1?key=AIzaSyA1234567890abcdefghij&alt=json", "https://x/v1?key=***&alt=json"},
		{"bearer", "header", "Bearer abc.def", "Bearer ***"},
		{"sensitive key name", "api_key", "plain-value", "plai***"},
		{"error value", "error", errors.New("auth failed for sk-0123456789abcdef"), "auth failed for sk-***"},
		{"untouched", "model", "gpt-4", "gpt-4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTestLogger(t)
			logger.Info("msg", tt.key, tt.value)

			entry := decodeLine(t, buf)
			if got := entry[tt.key]; got != tt.want {
				t.Errorf("expected %q, got %v", tt.want, got)
			}
		})
	}
}

func TestRedactingHandler_MessageAndGroups(t *testing.T) {
	logger, buf := newTestLogger(t)
	logger.With("authorization", "Bearer secret-token").
		WithGroup("provider").
		Info("calling with sk-abcdefghijklmnop", slog.Group("auth", slog.String("token", "tok-123456")))

	out := buf.String()
	for _, leaked := range []string{"secret-token", "abcdefghijklmnop", "tok-123456"} {
		if strings.Contains(out, leaked) {
			t.Errorf("expected %q to be redacted in %s", leaked, out)
		}
	}
}

func TestRedactingHandler_CustomPattern(t *testing.T) {
	logger, buf := newTestLogger(t, config.RedactPattern{Name: "ticket", Pattern: `TKT-\d+`, Replacement: "TKT-?"})
	logger.Info("msg", "detail", "see TKT-4411")

	entry := decodeLine(t, buf)
	if entry["detail"] != "see TKT-?" {
		t.Errorf("expected custom pattern to apply, got %v", entry["detail"])
	}
}

func TestRedactingHandler_ContextFields(t *testing.T) {
	logger, buf := newTestLogger(t)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithProvider(ctx, "openai")
	ctx = WithModel(ctx, "gpt-4")
	logger.InfoContext(ctx, "dispatch")

	entry := decodeLine(t, buf)
	for key, want := range map[string]string{"request_id": "req-1", "provider": "openai", "model": "gpt-4"} {
		if entry[key] != want {
			t.Errorf("expected %s=%q, got %v", key, want, entry[key])
		}
	}
}

func TestContextHelpers_Empty(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" || GetProvider(ctx) != "" || GetModel(ctx) != "" {
		t.Error("expected empty values from a bare context")
	}
}

func TestRedactAPIKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"sk-1234567890", "sk-1***"},
		{"abcd", "***"},
		{"", "***"},
	}
	for _, tt := range tests {
		if got := RedactAPIKey(tt.in); got != tt.want {
			t.Errorf("RedactAPIKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
