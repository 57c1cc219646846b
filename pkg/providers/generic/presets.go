package generic

import (
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/providers/openai"
)

// DeepSeek speaks the OpenAI wire format unchanged.
var DeepSeek = openai.Variant{
	ID:             "deepseek",
	DefaultBaseURL: "https://api.deepseek.com/",
	ChatPath:       "chat/completions",
	ModelsPath:     "models",
	VersionPrefix:  true,
}

// OpenRouter adds attribution headers and richer model metadata.
var OpenRouter = openai.Variant{
	ID:             "openrouter",
	DefaultBaseURL: "https://openrouter.ai/api/v1/",
	ChatPath:       "chat/completions",
	ModelsPath:     "models",
	VersionPrefix:  true,
	Headers: func(cfg providers.ProviderConfig) map[string]string {
		return map[string]string{
			"HTTP-Referer": cfg.HTTPReferer,
			"X-Title":      cfg.AppName,
		}
	},
	DescribeModel: describeOpenRouterModel,
}

// Doubao (Volcano Engine Ark) serves the OpenAI routes under /api/v3.
var Doubao = openai.Variant{
	ID:             "doubao",
	DefaultBaseURL: "https://ark.cn-beijing.volces.com/api/v3/",
	ChatPath:       "chat/completions",
	ModelsPath:     "models",
}

// Qwen uses DashScope's OpenAI-compatible mode. The native DashScope
// protocol lives in package qwen.
var Qwen = openai.Variant{
	ID:             "qwen",
	DefaultBaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1/",
	ChatPath:       "chat/completions",
	ModelsPath:     "models",
	VersionPrefix:  true,
}

// Compatible is any self-hosted OpenAI-compatible server (vLLM, LM Studio,
// LocalAI). It has no default base URL and the API key is optional.
var Compatible = openai.Variant{
	ID:                 "generic",
	ChatPath:           "chat/completions",
	ModelsPath:         "models",
	VersionPrefix:      true,
	CredentialOptional: true,
}

// NewDeepSeek creates a DeepSeek adapter.
func NewDeepSeek(config providers.ProviderConfig) (*openai.Adapter, error) {
	return openai.NewVariantAdapter(config, DeepSeek)
}

// NewOpenRouter creates an OpenRouter adapter.
func NewOpenRouter(config providers.ProviderConfig) (*openai.Adapter, error) {
	return openai.NewVariantAdapter(config, OpenRouter)
}

// NewDoubao creates a Doubao adapter.
func NewDoubao(config providers.ProviderConfig) (*openai.Adapter, error) {
	return openai.NewVariantAdapter(config, Doubao)
}

// NewQwen creates a Qwen adapter over DashScope's compatible mode.
func NewQwen(config providers.ProviderConfig) (*openai.Adapter, error) {
	return openai.NewVariantAdapter(config, Qwen)
}

// NewAdapter creates a generic OpenAI-compatible adapter. A base URL is
// required since there is no sensible default.
func NewAdapter(config providers.ProviderConfig) (*openai.Adapter, error) {
	return openai.NewVariantAdapter(config, Compatible)
}

func describeOpenRouterModel(raw map[string]any, info *providers.ModelInfo) {
	if name, ok := raw["name"].(string); ok {
		info.DisplayName = name
	}
	if desc, ok := raw["description"].(string); ok {
		info.Description = desc
	}

	if info.Extra == nil {
		info.Extra = make(map[string]any)
	}
	if v, ok := raw["context_length"]; ok {
		info.Extra["context_length"] = v
	}
	if v, ok := raw["pricing"]; ok {
		info.Extra["pricing"] = v
	}
	if p, ok := raw["provider"].(map[string]any); ok {
		if name, ok := p["name"].(string); ok {
			info.Extra["provider_name"] = name
		}
	}
}
