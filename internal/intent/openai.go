package intent

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient asks a chat-completion model to classify against the fixed
// taxonomy. One blocking round trip, no retry; callers fall back to rules on
// any error.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("intent: openai api key required")
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, text string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.3,
		MaxTokens:   20,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: classificationPrompt(text)},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("intent: empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func classificationPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Extract the primary customer intent from this text. Choose ONE of the following intent categories:\n")
	b.WriteString("- schedule_callback: Customer wants to schedule a callback or be contacted later\n")
	b.WriteString("- create_ticket: Customer wants to report an issue or create a support ticket\n")
	b.WriteString("- speak_agent: Customer wants to speak with a human agent or supervisor\n")
	b.WriteString("- resolve_issue: Customer is confirming an issue is resolved or fixed\n")
	b.WriteString("- general_inquiry: Customer has a general question or other intent\n\n")
	b.WriteString("Text: \"" + text + "\"\n\nIntent:")
	return b.String()
}

// MockLLM stands in for the model in mock mode. It derives the label from
// keywords in the transcript, mirroring what the hosted prompt is expected to
// produce.
type MockLLM struct{}

func (MockLLM) Complete(_ context.Context, text string) (string, error) {
	text = strings.ToLower(text)
	switch {
	case strings.Contains(text, "callback") || strings.Contains(text, "call back") || strings.Contains(text, "call later"):
		return string(LabelScheduleCallback), nil
	case strings.Contains(text, "ticket") || strings.Contains(text, "issue") || strings.Contains(text, "problem"):
		return string(LabelCreateTicket), nil
	case strings.Contains(text, "agent") || strings.Contains(text, "person") || strings.Contains(text, "human"):
		return string(LabelSpeakAgent), nil
	case strings.Contains(text, "resolve") || strings.Contains(text, "fix") || strings.Contains(text, "solved"):
		return string(LabelResolveIssue), nil
	default:
		return string(LabelGeneralInquiry), nil
	}
}
