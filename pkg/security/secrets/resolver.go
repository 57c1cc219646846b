package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// placeholderRegex matches ${secret:name} and ${VAR}.
var placeholderRegex = regexp.MustCompile(`\$\{(secret:)?([^}]*)\}`)

// UnresolvedError lists the placeholders a value still contains after
// resolution.
type UnresolvedError struct {
	Placeholders []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved placeholder(s): %s", strings.Join(e.Placeholders, ", "))
}

// Resolver expands credential placeholders.
//
// ${VAR} reads the environment variable VAR. ${secret:name} asks each
// Source in order and caches the first value found. A placeholder that
// cannot be resolved is left in place and reported through
// *UnresolvedError.
type Resolver struct {
	sources []Source
	cache   *Cache
	getenv  func(string) (string, bool)
}

// NewResolver creates a resolver over sources.
func NewResolver(sources []Source, cache CacheConfig) *Resolver {
	return &Resolver{
		sources: sources,
		cache:   NewCache(cache),
		getenv:  os.LookupEnv,
	}
}

// Secret returns the named secret from the first source that has it.
func (r *Resolver) Secret(ctx context.Context, name string) (string, error) {
	if value, ok := r.cache.Get(name); ok {
		return value, nil
	}

	var lastErr error
	for _, source := range r.sources {
		value, err := source.Lookup(ctx, name)
		if err == nil {
			r.cache.Set(name, value)
			slog.Debug("secret resolved", "source", source.Name(), "name", redactName(name))
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			lastErr = err
			slog.Warn("secret source failed", "source", source.Name(), "name", redactName(name), "error", err)
		}
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to resolve secret %q: %w", name, lastErr)
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Resolve expands every placeholder in input.
func (r *Resolver) Resolve(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var unresolved []string
	output := placeholderRegex.ReplaceAllStringFunc(input, func(match string) string {
		groups := placeholderRegex.FindStringSubmatch(match)
		isSecret, name := groups[1] != "", strings.TrimSpace(groups[2])

		if name == "" {
			unresolved = append(unresolved, match)
			return match
		}

		if isSecret {
			value, err := r.Secret(ctx, name)
			if err != nil {
				unresolved = append(unresolved, match)
				return match
			}
			return value
		}

		value, ok := r.getenv(name)
		if !ok || value == "" {
			unresolved = append(unresolved, match)
			return match
		}
		return value
	})

	if len(unresolved) > 0 {
		return output, &UnresolvedError{Placeholders: unresolved}
	}
	return output, nil
}

// Refresh drops the resolver cache and every refreshable source's cache.
func (r *Resolver) Refresh(ctx context.Context) error {
	var errs []error
	for _, source := range r.sources {
		if refresher, ok := source.(Refresher); ok {
			if err := refresher.Refresh(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", source.Name(), err))
			}
		}
	}
	r.cache.Clear()
	return errors.Join(errs...)
}

// HasPlaceholder reports whether s contains a placeholder.
func HasPlaceholder(s string) bool {
	return placeholderRegex.MatchString(s)
}

// redactName keeps secret names recognizable in logs without printing them
// in full.
func redactName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
