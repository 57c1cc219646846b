// Relay sends chat completions to any configured LLM vendor through one
// interface.
//
// It wraps the dispatcher: provider resolution, parameter merging,
// timeout shaping and retries of transport failures. It also manages the
// long-term memory store.
//
// Usage:
//
//	# One-shot completion with the default provider
//	relay complete "Summarize RFC 2119 in one sentence"
//
//	# Chat with an explicit provider, model and parameters
//	relay chat --provider anthropic --model claude-3-5-haiku-latest \
//	    --system "Be terse." --param temperature=0.2 "Hello"
//
//	# List configured providers and their models
//	relay providers
//	relay models openai
//
//	# Probe every provider, or keep probing
//	relay health
//	relay health --watch 30s
//
//	# Long-term memory
//	relay memory put idea '{"title":"smart lamp"}' --priority high --tag product
//	relay memory search lamp
package main

func main() {
	Execute()
}
