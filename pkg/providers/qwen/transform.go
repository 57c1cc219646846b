package qwen

import (
	"mercator-hq/relay/pkg/providers"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generationRequest struct {
	Model      string         `json:"model"`
	Input      input          `json:"input"`
	Parameters map[string]any `json:"parameters"`
}

type input struct {
	Messages []message `json:"messages"`
}

type generationResponse struct {
	RequestID string `json:"request_id"`
	Output    struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
		Choices      []struct {
			Message      message `json:"message"`
			FinishReason string  `json:"finish_reason"`
		} `json:"choices"`
	} `json:"output"`
	Usage *struct {
		InputTokens  *int `json:"input_tokens"`
		OutputTokens *int `json:"output_tokens"`
		TotalTokens  *int `json:"total_tokens"`
	} `json:"usage"`
}

// parameterNames lists the parameters DashScope accepts.
var parameterNames = []string{
	"temperature", "top_p", "top_k", "max_tokens", "seed", "stop",
	"repetition_penalty", "presence_penalty", "enable_search",
}

// BuildRequestBody nests messages under input and known sampling settings
// under parameters. result_format is pinned to "message" so the reply
// carries choices.
func (a *Adapter) BuildRequestBody(messages []providers.Message, model string, params providers.Params) (any, error) {
	req := &generationRequest{
		Model:      model,
		Input:      input{Messages: make([]message, len(messages))},
		Parameters: map[string]any{"result_format": "message"},
	}
	for i, msg := range messages {
		req.Input.Messages[i] = message{Role: msg.Role, Content: msg.Content}
	}
	for _, name := range parameterNames {
		if v, ok := params[name]; ok {
			req.Parameters[name] = v
		}
	}
	return req, nil
}

// ParseResponse reads output.choices, falling back to the plain
// output.text form.
func (a *Adapter) ParseResponse(body []byte) (*providers.ChatResponse, error) {
	var wire generationResponse
	if err := a.Decode(body, &wire); err != nil {
		return nil, err
	}

	resp := providers.NewChatResponse("")
	resp.ID = wire.RequestID

	if len(wire.Output.Choices) > 0 {
		choice := wire.Output.Choices[0]
		resp.Choice.Content = choice.Message.Content
		resp.Choice.FinishReason = normalizeFinishReason(choice.FinishReason)
	} else if wire.Output.Text != "" {
		resp.Choice.Content = wire.Output.Text
		resp.Choice.FinishReason = normalizeFinishReason(wire.Output.FinishReason)
	}

	if u := wire.Usage; u != nil {
		resp.Usage = providers.NewUsage(count(u.InputTokens), count(u.OutputTokens))
		if u.TotalTokens != nil {
			resp.Usage.TotalTokens = *u.TotalTokens
		}
	}

	return resp, nil
}

// ParseError reads the top-level message, then code.
func (a *Adapter) ParseError(statusCode int, body []byte) string {
	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := a.Decode(body, &envelope); err == nil {
		switch {
		case envelope.Message != "":
			return envelope.Message
		case envelope.Code != "":
			return envelope.Code
		}
	}
	return providers.ExtractErrorMessage(statusCode, body)
}

// ParseModelList reads data.models[].
func (a *Adapter) ParseModelList(body []byte) []providers.ModelInfo {
	var listing struct {
		Data struct {
			Models []struct {
				Model string `json:"model"`
				Name  string `json:"name"`
			} `json:"models"`
		} `json:"data"`
	}
	if err := a.Decode(body, &listing); err != nil {
		return []providers.ModelInfo{}
	}

	models := make([]providers.ModelInfo, 0, len(listing.Data.Models))
	for _, m := range listing.Data.Models {
		if m.Model == "" {
			continue
		}
		models = append(models, providers.ModelInfo{ID: m.Model, DisplayName: m.Name})
	}
	return models
}

// normalizeFinishReason maps DashScope finish reasons. It is only called
// when a choice or text is present, so "null" or a missing reason on a
// complete reply means the generation stopped normally.
func normalizeFinishReason(reason string) string {
	switch reason {
	case "stop", "null", "":
		return providers.FinishReasonStop
	case "length":
		return providers.FinishReasonLength
	case "content_filter", "data_inspection_failed":
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
