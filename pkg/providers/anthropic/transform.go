package anthropic

import (
	"strings"

	"mercator-hq/relay/pkg/providers"
)

// messagesRequest is the Messages API request body.
type messagesRequest struct {
	Model         string    `json:"model"`
	Messages      []message `json:"messages"`
	System        string    `json:"system,omitempty"`
	MaxTokens     int       `json:"max_tokens"`
	Temperature   *float64  `json:"temperature,omitempty"`
	TopP          *float64  `json:"top_p,omitempty"`
	TopK          *int      `json:"top_k,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      *usage         `json:"usage"`
}

type usage struct {
	InputTokens  *int `json:"input_tokens"`
	OutputTokens *int `json:"output_tokens"`
}

// BuildRequestBody hoists system messages into the system field and maps
// every non-assistant role to user. Consecutive turns with the same role
// are merged since the API requires alternation.
func (a *Adapter) BuildRequestBody(messages []providers.Message, model string, params providers.Params) (any, error) {
	req := &messagesRequest{
		Model:     model,
		Messages:  make([]message, 0, len(messages)),
		MaxTokens: defaultMaxTokens,
	}

	var system []string
	for _, msg := range messages {
		if msg.Role == providers.RoleSystem {
			system = append(system, msg.Content)
			continue
		}

		role := providers.RoleUser
		if msg.Role == providers.RoleAssistant {
			role = providers.RoleAssistant
		}

		if n := len(req.Messages); n > 0 && req.Messages[n-1].Role == role {
			req.Messages[n-1].Content += "\n\n" + msg.Content
			continue
		}
		req.Messages = append(req.Messages, message{Role: role, Content: msg.Content})
	}
	req.System = strings.Join(system, "\n\n")

	if v, ok := params.Int("max_tokens"); ok && v > 0 {
		req.MaxTokens = v
	}

	temperature := defaultTemperature
	if v, ok := params.Float("temperature"); ok {
		temperature = v
	}
	req.Temperature = &temperature

	if v, ok := params.Float("top_p"); ok {
		req.TopP = &v
	}
	if v, ok := params.Int("top_k"); ok {
		req.TopK = &v
	}
	if v, ok := params.Strings("stop"); ok {
		req.StopSequences = v
	}

	return req, nil
}

// ParseResponse normalizes a Messages API response.
func (a *Adapter) ParseResponse(body []byte) (*providers.ChatResponse, error) {
	var wire messagesResponse
	if err := a.Decode(body, &wire); err != nil {
		return nil, err
	}

	resp := providers.NewChatResponse(wire.Model)
	resp.ID = wire.ID

	var sb strings.Builder
	for _, block := range wire.Content {
		if block.Type == "text" || block.Type == "" {
			sb.WriteString(block.Text)
		}
	}
	resp.Choice.Content = sb.String()

	resp.Choice.FinishReason = normalizeStopReason(wire.StopReason)

	if wire.Usage != nil {
		resp.Usage = providers.NewUsage(count(wire.Usage.InputTokens), count(wire.Usage.OutputTokens))
	}

	return resp, nil
}

// ParseModelList accepts both the data[] listing of the Models API and
// the older models[] shape.
func (a *Adapter) ParseModelList(body []byte) []providers.ModelInfo {
	type entry struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	var listing struct {
		Data   []entry `json:"data"`
		Models []entry `json:"models"`
	}
	if err := a.Decode(body, &listing); err != nil {
		return []providers.ModelInfo{}
	}

	entries := listing.Data
	if len(entries) == 0 {
		entries = listing.Models
	}

	models := make([]providers.ModelInfo, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		name := e.DisplayName
		if name == "" {
			name = e.Name
		}
		models = append(models, providers.ModelInfo{
			ID:          e.ID,
			DisplayName: name,
			Description: e.Description,
		})
	}
	return models
}

// normalizeStopReason maps Anthropic stop reasons to canonical values.
func normalizeStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence", "tool_use", "pause_turn":
		return providers.FinishReasonStop
	case "max_tokens":
		return providers.FinishReasonLength
	case "refusal":
		return providers.FinishReasonContentFilter
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
