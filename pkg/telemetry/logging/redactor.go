package logging

import (
	"regexp"
	"strings"

	"mercator-hq/relay/pkg/config"
)

// Redactor masks credentials in log values.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternAnthropicKey = "anthropic_key"
	PatternOpenAIKey    = "openai_key"
	PatternGoogleKey    = "google_key"
	PatternBearerToken  = "bearer_token"
	PatternQueryKey     = "query_key"
)

// defaultPatterns are applied in order; the Anthropic key pattern must
// run before the generic sk- one.
var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	{PatternAnthropicKey, `sk-ant-[A-Za-z0-9_\-]+`, "sk-ant-***"},
	{PatternOpenAIKey, `sk-[A-Za-z0-9_\-]{8,}`, "sk-***"},
	{PatternGoogleKey, `AIza[0-9A-Za-z_\-]{20,}`, "AIza***"},
	{PatternBearerToken, `Bearer\s+[A-Za-z0-9\-._~+/]+=*`, "Bearer ***"},
	{PatternQueryKey, `([?&]key=)[^&\s"]+`, "${1}***"},
}

// sensitiveKeys mark attributes whose whole value is masked.
var sensitiveKeys = []string{
	"api_key", "apikey", "x-api-key",
	"authorization", "token", "secret", "password",
}

// NewRedactor creates a redactor with the built-in patterns plus custom
// ones. Invalid custom patterns are skipped; config validation reports
// them.
func NewRedactor(custom []config.RedactPattern) *Redactor {
	r := &Redactor{}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}
	for _, p := range custom {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, redactPattern{name: p.Name, regex: regex, replacement: p.Replacement})
	}
	return r
}

// RedactString masks every credential found in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// IsSensitiveKey reports whether an attribute key names a credential.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// RedactAPIKey keeps the first four characters of a key.
func RedactAPIKey(apiKey string) string {
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}
