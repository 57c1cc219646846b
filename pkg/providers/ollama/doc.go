// Package ollama implements the adapter for a local Ollama daemon.
//
// Requests go to /api/chat with stream disabled. temperature, top_p,
// top_k, seed and stop are moved into options; max_tokens becomes
// num_predict. prompt_eval_count and eval_count are reported as prompt
// and completion usage.
//
// Ollama needs no API key, so a provider using this adapter is available
// without one.
package ollama
