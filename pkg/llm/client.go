package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/traceline/traceline/pkg/sdk"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gpt-4o-mini"

// Client is the text-completion collaborator the session service delegates
// to for summarization and Q&A
type Client interface {
	// Summarize produces a concise summary of the ordered session context
	Summarize(ctx context.Context, sessionID string, documents []sdk.SessionDocument) (string, error)

	// Answer responds to a free-text question about the session, given the
	// ordered context and the conversation so far
	Answer(ctx context.Context, sessionID, question string, documents []sdk.SessionDocument, history []sdk.ChatMessage) (string, error)
}

// OpenAIClient implements Client over the OpenAI chat completion API
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-backed Client. The API key is required;
// the model falls back to DefaultModel when unset.
func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not configured, set it in the environment before starting the service")
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Summarize produces a concise summary of the ordered session context
func (c *OpenAIClient) Summarize(ctx context.Context, sessionID string, documents []sdk.SessionDocument) (string, error) {
	return c.complete(ctx, []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleUser,
		Content: buildSummaryPrompt(sessionID, documents),
	}})
}

// Answer responds to a free-text question about the session
func (c *OpenAIClient) Answer(ctx context.Context, sessionID, question string, documents []sdk.SessionDocument, history []sdk.ChatMessage) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleSystem,
		Content: "You are an assistant that answers questions about a specific session. " +
			"Use only the provided session context and the conversation history shared by the user.",
	})
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: buildQuestionPrompt(sessionID, question, documents, formatHistory(history)),
	})

	return c.complete(ctx, messages)
}

func (c *OpenAIClient) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
