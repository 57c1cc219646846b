// Package anthropic implements the Anthropic Messages API adapter.
//
// # Request Transformation
//
//   - System messages are removed from the conversation and joined into
//     the top-level system field
//   - Roles other than assistant are sent as user; consecutive turns with
//     the same role are merged
//   - max_tokens defaults to 1024 and temperature to 0.7
//   - stop maps to stop_sequences
//
// # Response Transformation
//
//   - Text content blocks are concatenated
//   - stop_reason end_turn, stop_sequence and tool_use map to stop,
//     max_tokens to length, refusal to content_filter
//   - usage.input_tokens and usage.output_tokens become prompt and
//     completion counts; the total is derived
//
// Authentication uses the x-api-key header together with
// anthropic-version: 2023-06-01.
package anthropic
