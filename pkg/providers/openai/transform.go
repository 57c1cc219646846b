package openai

import (
	"encoding/json"
	"log/slog"
	"strings"

	gpt "github.com/sashabaranov/go-openai"

	"mercator-hq/relay/pkg/providers"
)

// chatMessage is the request-side message. Content is always sent, even
// when empty, which gpt.ChatCompletionMessage would omit.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletion is the response envelope. Usage is a pointer so an absent
// block can be told apart from zero counts.
type chatCompletion struct {
	ID      string                     `json:"id"`
	Model   string                     `json:"model"`
	Choices []gpt.ChatCompletionChoice `json:"choices"`
	Usage   *usage                     `json:"usage"`
}

// usage keeps each count optional so unreported fields stay unknown.
type usage struct {
	PromptTokens     *int `json:"prompt_tokens"`
	CompletionTokens *int `json:"completion_tokens"`
	TotalTokens      *int `json:"total_tokens"`
}

// BuildRequestBody passes params through and sets model and messages.
func (a *Adapter) BuildRequestBody(messages []providers.Message, model string, params providers.Params) (any, error) {
	body := make(map[string]any, len(params)+2)
	for k, v := range params {
		body[k] = v
	}

	wire := make([]chatMessage, len(messages))
	for i, msg := range messages {
		wire[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}

	body["model"] = model
	body["messages"] = wire
	return body, nil
}

// ParseResponse normalizes a chat completion.
func (a *Adapter) ParseResponse(body []byte) (*providers.ChatResponse, error) {
	var wire chatCompletion
	if err := a.Decode(body, &wire); err != nil {
		return nil, err
	}

	resp := providers.NewChatResponse(wire.Model)
	resp.ID = wire.ID

	if len(wire.Choices) > 0 {
		choice := wire.Choices[0]
		resp.Choice.Content = messageText(choice.Message)
		resp.Choice.FinishReason = normalizeFinishReason(choice.FinishReason)
	}

	if wire.Usage != nil {
		resp.Usage = providers.NewUsage(count(wire.Usage.PromptTokens), count(wire.Usage.CompletionTokens))
		if wire.Usage.TotalTokens != nil {
			resp.Usage.TotalTokens = *wire.Usage.TotalTokens
		}
	}

	return resp, nil
}

// messageText flattens multi-part content into plain text.
func messageText(msg gpt.ChatCompletionMessage) string {
	if msg.Content != "" || len(msg.MultiContent) == 0 {
		return msg.Content
	}
	var sb strings.Builder
	for _, part := range msg.MultiContent {
		if part.Type == gpt.ChatMessagePartTypeText {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// ParseError prefers the OpenAI error envelope, then the generic cascade.
func (a *Adapter) ParseError(statusCode int, body []byte) string {
	var envelope gpt.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return providers.ExtractErrorMessage(statusCode, body)
}

// ParseModelList reads the data[] listing.
func (a *Adapter) ParseModelList(body []byte) []providers.ModelInfo {
	var listing struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := a.Decode(body, &listing); err != nil {
		slog.Debug("unreadable model listing", "provider", a.Name(), "error", err)
		return []providers.ModelInfo{}
	}

	models := make([]providers.ModelInfo, 0, len(listing.Data))
	for _, raw := range listing.Data {
		var model gpt.Model
		if err := json.Unmarshal(raw, &model); err != nil || model.ID == "" {
			continue
		}

		info := providers.ModelInfo{
			ID:      model.ID,
			Created: model.CreatedAt,
		}
		if model.OwnedBy != "" {
			info.Extra = map[string]any{"owned_by": model.OwnedBy}
		}

		if a.variant.DescribeModel != nil {
			var fields map[string]any
			if err := json.Unmarshal(raw, &fields); err == nil {
				a.variant.DescribeModel(fields, &info)
			}
		}

		models = append(models, info)
	}
	return models
}

// normalizeFinishReason normalizes OpenAI finish reasons to canonical values.
func normalizeFinishReason(reason gpt.FinishReason) string {
	switch reason {
	case gpt.FinishReasonStop, gpt.FinishReasonToolCalls, gpt.FinishReasonFunctionCall:
		return providers.FinishReasonStop
	case gpt.FinishReasonLength:
		return providers.FinishReasonLength
	case gpt.FinishReasonContentFilter:
		return providers.FinishReasonContentFilter
	case "error":
		return providers.FinishReasonError
	default:
		return providers.FinishReasonUnknown
	}
}

func count(v *int) int {
	if v == nil {
		return providers.UsageUnknown
	}
	return *v
}
