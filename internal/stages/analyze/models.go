// internal/stages/analyze/models.go
package analyze

// chatRequest is the inference service's chat-completion payload.
type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

const systemPrompt = `You are a senior consultant analyzing a company's data-capability
assessment. Write a concise, structured analysis of the scores you are given:
key strengths, the most pressing gaps, and three concrete recommendations.
Use plain business language and refer to categories by name.`
