package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ChatClient is the slice of the OpenAI API the summarizer needs; satisfied
// by *openai.Client and by fakes in tests.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ErrEmptyCompletion indicates the model returned no usable content.
var ErrEmptyCompletion = errors.New("empty completion")

const summarySystemPrompt = "You are an expert news analyst. Analyze the article " +
	"and provide key insights."

// Summarizer writes short per-article insights through an OpenAI-compatible
// chat API. Threshold gates which articles are worth a model call.
type Summarizer struct {
	client    ChatClient
	model     string
	threshold float64
	log       *zap.Logger
}

// NewSummarizer builds a Summarizer. A nil client disables it.
func NewSummarizer(client ChatClient, model string, threshold float64, log *zap.Logger) *Summarizer {
	return &Summarizer{client: client, model: model, threshold: threshold, log: log}
}

// Enabled reports whether the summarizer has a backing client.
func (s *Summarizer) Enabled() bool {
	return s != nil && s.client != nil
}

// Annotate fills Insight on every ranked article scoring at or above the
// threshold. A failed model call skips that article and keeps going; LLM
// decoration must never sink a run that already has the data.
func (s *Summarizer) Annotate(ctx context.Context, scored []Scored) {
	if !s.Enabled() {
		return
	}
	for i := range scored {
		if scored[i].Score < s.threshold {
			continue
		}
		insight, err := s.Summarize(ctx, scored[i])
		if err != nil {
			s.log.Warn("article summary failed",
				zap.String("title", scored[i].Article.Title), zap.Error(err))
			continue
		}
		scored[i].Insight = insight
	}
}

// Summarize asks the model for a 2-3 sentence significance analysis of one
// article.
func (s *Summarizer) Summarize(ctx context.Context, item Scored) (string, error) {
	user := fmt.Sprintf(
		"Article Title: %s\nDescription: %s\n\nProvide a brief analysis of this article's significance (2-3 sentences).",
		item.Article.Title, item.Article.Snippet)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.7,
		N:           1,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}
