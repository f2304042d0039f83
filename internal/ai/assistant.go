package ai

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4o-mini"

// Assistant wraps the OpenAI API for generating study help: recall hints
// and example sentences for cards.
type Assistant struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// New creates an assistant from the environment. OPENAI_API_KEY is
// required, OPENAI_BASE_URL and OPENAI_MODEL are optional.
func New() (*Assistant, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultModel
	}

	return &Assistant{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   120,
		temperature: 0.7,
	}, nil
}

// GenerateHint produces a one-sentence clue that nudges the learner
// toward the back of the card without giving it away.
func (a *Assistant) GenerateHint(ctx context.Context, front, back string) (string, error) {
	system := "You help a learner recall flashcard answers. " +
		"Reply with a single short hint in the language of the answer. " +
		"Never include the answer itself or any part of it."
	prompt := fmt.Sprintf("Card front: %q. The answer is %q. Give a hint.", front, back)
	return a.chat(ctx, system, prompt)
}

// GenerateExample produces one example sentence using the front of the
// card in context.
func (a *Assistant) GenerateExample(ctx context.Context, front, back string) (string, error) {
	system := "You write short, natural example sentences for language learners. " +
		"Reply with exactly one sentence, no translation, no commentary."
	prompt := fmt.Sprintf("Write an example sentence with %q (meaning: %q).", front, back)
	return a.chat(ctx, system, prompt)
}

// HintWithFallback returns an AI hint, the stored hint when the API
// fails, or an empty string when there is nothing to show.
func (a *Assistant) HintWithFallback(ctx context.Context, front, back, stored string) string {
	hint, err := a.GenerateHint(ctx, front, back)
	if err == nil && hint != "" {
		return hint
	}
	return stored
}

func (a *Assistant) chat(ctx context.Context, system, prompt string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call OpenAI: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
