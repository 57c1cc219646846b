package secrets

import (
	"context"
	"errors"
	"testing"
	"time"
)

// staticSource serves a fixed map and counts lookups.
type staticSource struct {
	values map[string]string
	calls  int
	err    error
}

func (s *staticSource) Lookup(ctx context.Context, name string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if v, ok := s.values[name]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (s *staticSource) Name() string { return "static" }

func TestResolver_Resolve(t *testing.T) {
	t.Setenv("RELAY_TEST_KEY", "sk-env")

	source := &staticSource{values: map[string]string{"openai-api-key": "sk-secret"}}
	resolver := NewResolver([]Source{source}, CacheConfig{TTL: time.Minute})

	tests := []struct {
		name       string
		input      string
		want       string
		unresolved []string
	}{
		{name: "literal", input: "sk-literal", want: "sk-literal"},
		{name: "env", input: "${RELAY_TEST_KEY}", want: "sk-env"},
		{name: "secret", input: "${secret:openai-api-key}", want: "sk-secret"},
		{name: "embedded", input: "Bearer ${RELAY_TEST_KEY}", want: "Bearer sk-env"},
		{name: "missing env", input: "${RELAY_TEST_MISSING}", want: "${RELAY_TEST_MISSING}", unresolved: []string{"${RELAY_TEST_MISSING}"}},
		{name: "missing secret", input: "${secret:nope}", want: "${secret:nope}", unresolved: []string{"${secret:nope}"}},
		{name: "empty name", input: "${}", want: "${}", unresolved: []string{"${}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(context.Background(), tt.input)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}

			if tt.unresolved == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var unresolvedErr *UnresolvedError
			if !errors.As(err, &unresolvedErr) {
				t.Fatalf("expected UnresolvedError, got %v", err)
			}
			if len(unresolvedErr.Placeholders) != len(tt.unresolved) || unresolvedErr.Placeholders[0] != tt.unresolved[0] {
				t.Errorf("expected %v, got %v", tt.unresolved, unresolvedErr.Placeholders)
			}
		})
	}
}

func TestResolver_SourceOrderAndCache(t *testing.T) {
	first := &staticSource{values: map[string]string{}}
	second := &staticSource{values: map[string]string{"k": "from-second"}}
	resolver := NewResolver([]Source{first, second}, CacheConfig{TTL: time.Minute})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		v, err := resolver.Secret(ctx, "k")
		if err != nil || v != "from-second" {
			t.Fatalf("expected from-second, got %q %v", v, err)
		}
	}
	if second.calls != 1 {
		t.Errorf("expected one lookup thanks to the cache, got %d", second.calls)
	}

	if err := resolver.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := resolver.Secret(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if second.calls != 2 {
		t.Errorf("expected refresh to clear the cache, got %d calls", second.calls)
	}
}

func TestResolver_SourceFailure(t *testing.T) {
	broken := &staticSource{err: errors.New("permission denied")}
	resolver := NewResolver([]Source{broken}, CacheConfig{})

	_, err := resolver.Secret(context.Background(), "k")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected the source failure to surface, got %v", err)
	}
}

func TestHasPlaceholder(t *testing.T) {
	if !HasPlaceholder("${X}") || !HasPlaceholder("a ${secret:y} b") {
		t.Error("expected placeholders to be detected")
	}
	if HasPlaceholder("sk-plain") || HasPlaceholder("$X") {
		t.Error("expected plain values to pass")
	}
}

func TestRedactName(t *testing.T) {
	if got := redactName("abc"); got != "***" {
		t.Errorf("got %q", got)
	}
	if got := redactName("openai-api-key"); got != "op...ey" {
		t.Errorf("got %q", got)
	}
}
