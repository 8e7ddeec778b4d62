package analyzer

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/newscheck/newscheck/internal/search"
)

type capturingClient struct {
	requests []openai.ChatCompletionRequest
	content  string
	err      error
}

func (c *capturingClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: c.content,
			},
		}},
	}, nil
}

func TestSummarizeBuildsPrompt(t *testing.T) {
	t.Parallel()

	client := &capturingClient{content: "This matters because of X."}
	s := NewSummarizer(client, "gpt-4o-mini", 0.1, zap.NewNop())

	out, err := s.Summarize(context.Background(), Scored{Article: search.Article{
		Title:   "AI lab announces new model",
		Snippet: "The lab said on Tuesday...",
	}})
	require.NoError(t, err)
	require.Equal(t, "This matters because of X.", out)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	require.Equal(t, "gpt-4o-mini", req.Model)
	require.Len(t, req.Messages, 2)
	require.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	require.Contains(t, req.Messages[1].Content, "AI lab announces new model")
	require.Contains(t, req.Messages[1].Content, "The lab said on Tuesday...")
}

func TestSummarizeEmptyCompletion(t *testing.T) {
	t.Parallel()

	s := NewSummarizer(&capturingClient{content: "   "}, "m", 0, zap.NewNop())
	_, err := s.Summarize(context.Background(), Scored{})
	require.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestAnnotateRespectsThresholdAndErrors(t *testing.T) {
	t.Parallel()

	client := &capturingClient{content: "insightful"}
	s := NewSummarizer(client, "m", 0.5, zap.NewNop())

	scored := []Scored{
		{Score: 0.9, Article: search.Article{Title: "above"}},
		{Score: 0.2, Article: search.Article{Title: "below"}},
	}
	s.Annotate(context.Background(), scored)
	require.Equal(t, "insightful", scored[0].Insight)
	require.Empty(t, scored[1].Insight)
	require.Len(t, client.requests, 1)
}

func TestAnnotateSurvivesClientFailure(t *testing.T) {
	t.Parallel()

	client := &capturingClient{err: errors.New("rate limited")}
	s := NewSummarizer(client, "m", 0, zap.NewNop())

	scored := []Scored{{Score: 1, Article: search.Article{Title: "t"}}}
	s.Annotate(context.Background(), scored)
	require.Empty(t, scored[0].Insight)
}

func TestSummarizerDisabledWithoutClient(t *testing.T) {
	t.Parallel()

	s := NewSummarizer(nil, "m", 0, zap.NewNop())
	require.False(t, s.Enabled())
	s.Annotate(context.Background(), []Scored{{Score: 1}})
}
