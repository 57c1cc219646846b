package gemini

import (
	"fmt"
	"strings"

	"mercator-hq/relay/pkg/providers"
)

const (
	defaultTemperature     = 0.7
	defaultTopP            = 1.0
	defaultMaxOutputTokens = 1024
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64  `json:"temperature"`
	TopP            float64  `json:"topP"`
	TopK            *int     `json:"topK,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     *int `json:"promptTokenCount"`
		CandidatesTokenCount *int `json:"candidatesTokenCount"`
		TotalTokenCount      *int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
	ResponseID   string `json:"responseId"`
}

// BuildRequestBody maps assistant to model and system to user; Gemini
// only knows those two roles.
func (a *Adapter) BuildRequestBody(messages []providers.Message, model string, params providers.Params) (any, error) {
	req := &generateRequest{
		Contents: make([]content, 0, len(messages)),
		GenerationConfig: generationConfig{
			Temperature:     defaultTemperature,
			TopP:            defaultTopP,
			MaxOutputTokens: defaultMaxOutputTokens,
		},
	}

	for _, msg := range messages {
		role := "user"
		if msg.Role == providers.RoleAssistant {
			role = "model"
		}
		req.Contents = append(req.Contents, content{
			Role:  role,
			Parts: []part{{Text: msg.Content}},
		})
	}

	if v, ok := params.Float("temperature"); ok {
		req.GenerationConfig.Temperature = v
	}
	if v, ok := params.Float("top_p"); ok {
		req.GenerationConfig.TopP = v
	}
	if v, ok := params.Int("top_k"); ok {
		req.GenerationConfig.TopK = &v
	}
	if v, ok := params.Int("max_tokens"); ok && v > 0 {
		req.GenerationConfig.MaxOutputTokens = v
	}
	if v, ok := params.Strings("stop"); ok {
		req.GenerationConfig.StopSequences = v
	}

	return req, nil
}

// ParseResponse normalizes the first candidate.
func (a *Adapter) ParseResponse(body []byte) (*providers.ChatResponse, error) {
	var wire generateResponse
	if err := a.Decode(body, &wire); err != nil {
		return nil, err
	}

	resp := providers.NewChatResponse(wire.ModelVersion)
	resp.ID = wire.ResponseID

	if len(wire.Candidates) > 0 {
		candidate := wire.Candidates[0]
		var sb strings.Builder
		for _, p := range candidate.Content.Parts {
			sb.WriteString(p.Text)
		}
		resp.Choice.Content = sb.String()
		resp.Choice.FinishReason = normalizeFinishReason(candidate.FinishReason)
	}

	if u := wire.UsageMetadata; u != nil {
		resp.Usage = providers.NewUsage(count(u.PromptTokenCount), count(u.CandidatesTokenCount))
		if u.TotalTokenCount != nil {
			resp.Usage.TotalTokens = *u.TotalTokenCount
		}
	}

	return resp, nil
}

// ParseError formats {"error":{"message":...,"code":...}} as "message (Code: code)".
func (a *Adapter) ParseError(statusCode int, body []byte) string {
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := a.Decode(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		if envelope.Error.Code != 0 {
			return fmt.Sprintf("%s (Code: %d)", envelope.Error.Message, envelope.Error.Code)
		}
		return envelope.Error.Message
	}
	return providers.ExtractErrorMessage(statusCode, body)
}

// ParseModelList keeps models that support generateContent. The id is the
// last segment of the resource name.
func (a *Adapter) ParseModelList(body []byte) []providers.ModelInfo {
	var listing struct {
		Models []struct {
			Name                       string   `json:"name"`
			DisplayName                string   `json:"displayName"`
			Description                string   `json:"description"`
			InputTokenLimit            int      `json:"inputTokenLimit"`
			OutputTokenLimit           int      `json:"outputTokenLimit"`
			SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
		} `json:"models"`
	}
	if err := a.Decode(body, &listing); err != nil {
		return []providers.ModelInfo{}
	}

	models := make([]providers.ModelInfo, 0, len(listing.Models))
	for _, m := range listing.Models {
		if !supportsGeneration(m.SupportedGenerationMethods) {
			continue
		}
		id := m.Name[strings.LastIndex(m.Name, "/")+1:]
		if id == "" {
			continue
		}
		models = append(models, providers.ModelInfo{
			ID:          id,
			DisplayName: m.DisplayName,
			Description: m.Description,
			Extra: map[string]any{
				"input_token_limit":  m.InputTokenLimit,
				"output_token_limit": m.OutputTokenLimit,
			},
		})
	}
	return models
}

func supportsGeneration(methods []string) bool {
	for _, m := range methods {
		if m == "generateContent" || m == "generativeModel" {
			return true
		}
	}
	return false
}

// normalizeFinishReason maps Gemini finish reasons to canonical values.
func normalizeFinishReason(reason string) string {
	switch reason {
	case "STOP":
		return providers.FinishReasonStop
	case "MAX_TOKENS":
		return providers.FinishReasonLength
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII", "IMAGE_SAFETY":
		return providers.FinishReasonContentFilter
	case "MALFORMED_FUNCTION_CALL":
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
