// Package openai implements the OpenAI-compatible provider adapter.
//
// One Adapter type serves the OpenAI API and every vendor that speaks the
// same wire format. Vendor differences (endpoint paths, the "v1/" prefix,
// extra headers, optional credentials, model listing metadata) are
// captured in a Variant; see package generic for the presets.
//
// # Basic Usage
//
//	config := providers.ProviderConfig{
//	    Name:    "openai",
//	    BaseURL: "https://api.openai.com/v1",
//	    APIKey:  os.Getenv("OPENAI_API_KEY"),
//	}
//
//	adapter, err := openai.NewAdapter(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client := providers.NewHTTPClient(providers.ClientConfig{})
//	resp, err := client.SendChat(ctx, adapter, []providers.Message{
//	    {Role: "user", Content: "Hello!"},
//	}, "gpt-4o-mini", nil, config.DefaultTimeouts())
//
// # Request Transformation
//
//   - Messages are passed through as-is, system messages included
//   - Parameters are forwarded verbatim; unknown keys are not filtered
//
// # Response Transformation
//
//   - Content of the first choice; multi-part content is flattened
//   - Finish reasons stop, tool_calls and function_call map to stop
//   - A missing usage block yields providers.UsageUnknown counts
//
// # Errors
//
// Non-2xx bodies are read through the OpenAI error envelope
// ({"error":{"message":...}}) and fall back to the generic extraction.
package openai
