// Package generic holds the OpenAI-compatible vendor presets.
//
// Each preset is an openai.Variant; the adapter implementation is shared.
//
//   - DeepSeek: OpenAI wire format, https://api.deepseek.com
//   - OpenRouter: adds HTTP-Referer (http_referer) and X-Title (app_name)
//     headers; model listings carry context_length and pricing
//   - Qwen: DashScope compatible mode under /compatible-mode/v1. Configs
//     that target the native /api/v1 text-generation endpoint must set
//     type: dashscope, which selects package qwen
//   - Doubao: Volcano Engine Ark, routes under /api/v3 without a v1 prefix
//   - Compatible: self-hosted servers such as vLLM or LM Studio, where the
//     API key is optional
//
// # Basic Usage
//
//	config := providers.ProviderConfig{
//	    Name:        "openrouter",
//	    APIKey:      os.Getenv("OPENROUTER_API_KEY"),
//	    HTTPReferer: "https://example.com",
//	    AppName:     "relay",
//	}
//
//	adapter, err := generic.NewOpenRouter(config)
package generic
