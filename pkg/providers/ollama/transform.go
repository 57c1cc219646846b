package ollama

import (
	"mercator-hq/relay/pkg/providers"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	DoneReason      string      `json:"done_reason"`
	PromptEvalCount *int        `json:"prompt_eval_count"`
	EvalCount       *int        `json:"eval_count"`
}

// optionNames maps canonical parameter names to Ollama option names.
var optionNames = map[string]string{
	"temperature":    "temperature",
	"top_p":          "top_p",
	"top_k":          "top_k",
	"max_tokens":     "num_predict",
	"stop":           "stop",
	"seed":           "seed",
	"repeat_penalty": "repeat_penalty",
	"num_ctx":        "num_ctx",
}

// BuildRequestBody disables streaming and moves sampling params into options.
func (a *Adapter) BuildRequestBody(messages []providers.Message, model string, params providers.Params) (any, error) {
	req := &chatRequest{
		Model:    model,
		Messages: make([]chatMessage, len(messages)),
	}
	for i, msg := range messages {
		req.Messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}

	for key, name := range optionNames {
		v, ok := params[key]
		if !ok {
			continue
		}
		if req.Options == nil {
			req.Options = make(map[string]any)
		}
		if key == "stop" {
			if stops, ok := params.Strings("stop"); ok {
				v = stops
			}
		}
		req.Options[name] = v
	}

	return req, nil
}

// ParseResponse normalizes a non-streaming chat reply.
func (a *Adapter) ParseResponse(body []byte) (*providers.ChatResponse, error) {
	var wire chatResponse
	if err := a.Decode(body, &wire); err != nil {
		return nil, err
	}

	resp := providers.NewChatResponse(wire.Model)
	resp.Choice.Content = wire.Message.Content
	resp.Choice.FinishReason = normalizeDoneReason(wire.DoneReason, wire.Done)

	if wire.PromptEvalCount != nil || wire.EvalCount != nil {
		resp.Usage = providers.NewUsage(count(wire.PromptEvalCount), count(wire.EvalCount))
	}

	return resp, nil
}

// ParseModelList reads the locally installed models from /api/tags.
func (a *Adapter) ParseModelList(body []byte) []providers.ModelInfo {
	var listing struct {
		Models []struct {
			Name       string         `json:"name"`
			Model      string         `json:"model"`
			Size       int64          `json:"size"`
			ModifiedAt string         `json:"modified_at"`
			Details    map[string]any `json:"details"`
		} `json:"models"`
	}
	if err := a.Decode(body, &listing); err != nil {
		return []providers.ModelInfo{}
	}

	models := make([]providers.ModelInfo, 0, len(listing.Models))
	for _, m := range listing.Models {
		id := m.Name
		if id == "" {
			id = m.Model
		}
		if id == "" {
			continue
		}
		extra := map[string]any{"size": m.Size}
		if m.ModifiedAt != "" {
			extra["modified_at"] = m.ModifiedAt
		}
		if len(m.Details) > 0 {
			extra["details"] = m.Details
		}
		models = append(models, providers.ModelInfo{ID: id, Extra: extra})
	}
	return models
}

func normalizeDoneReason(reason string, done bool) string {
	switch reason {
	case "stop":
		return providers.FinishReasonStop
	case "length":
		return providers.FinishReasonLength
	case "":
		if done {
			return providers.FinishReasonStop
		}
	}
	return providers.FinishReasonUnknown
}

func count(v *int) int {
	if v == nil {
		return providers.UsageUnknown
	}
	return *v
}
