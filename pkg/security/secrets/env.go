package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvSource reads secrets from environment variables.
//
// A secret name is upper-cased, has '-' and '.' replaced by '_', and is
// prefixed with Prefix:
//
//	prefix "RELAY_SECRET_", name "openai-api-key" -> RELAY_SECRET_OPENAI_API_KEY
type EnvSource struct {
	Prefix string
}

// NewEnvSource creates an environment source.
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{Prefix: prefix}
}

// Lookup reads the variable for name. Unset and empty variables are both
// reported as not found.
func (s *EnvSource) Lookup(ctx context.Context, name string) (string, error) {
	variable := s.variable(name)

	value, ok := os.LookupEnv(variable)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s (env var %s)", ErrNotFound, name, variable)
	}
	return value, nil
}

// Name returns "env".
func (s *EnvSource) Name() string {
	return "env"
}

// List returns the secret names visible under Prefix.
func (s *EnvSource) List() []string {
	var names []string
	for _, kv := range os.Environ() {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, s.Prefix) || key == s.Prefix {
			continue
		}
		names = append(names, strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, s.Prefix), "_", "-")))
	}
	return names
}

func (s *EnvSource) variable(name string) string {
	r := strings.NewReplacer("-", "_", ".", "_")
	return s.Prefix + strings.ToUpper(r.Replace(name))
}
