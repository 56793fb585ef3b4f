package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// LLMConfig configures the chat-completion commentary adapter. The key
// comes from the environment; it is never embedded in source or snapshots.
type LLMConfig struct {
	BaseURL string // OpenAI-compatible endpoint
	APIKey  string
	Model   string
	Timeout time.Duration
}

// LLMCommentary implements CommentaryProvider over an OpenAI-compatible
// chat completions API. Output is prose for humans; nothing downstream
// parses it and it never feeds classification.
type LLMCommentary struct {
	client *resty.Client
	cfg    LLMConfig
}

// NewLLMCommentary builds the adapter.
func NewLLMCommentary(cfg LLMConfig) *LLMCommentary {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &LLMCommentary{client: client, cfg: cfg}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Commentary implements CommentaryProvider.
func (l *LLMCommentary) Commentary(ctx context.Context, prompt string) (string, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: l.cfg.Model,
			Messages: []chatMessage{
				{Role: "system", Content: "You summarize market scan results for a human reader in two or three sentences."},
				{Role: "user", Content: prompt},
			},
		}).
		Post(l.cfg.BaseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("llm status %d: %s", resp.StatusCode(), resp.String())
	}

	content := gjson.GetBytes(resp.Body(), "choices.0.message.content").String()
	if content == "" {
		return "", fmt.Errorf("llm returned empty completion")
	}
	return content, nil
}

// NoCommentary is the null CommentaryProvider used when no LLM is
// configured; scans run identically without commentary.
type NoCommentary struct{}

func (NoCommentary) Commentary(ctx context.Context, prompt string) (string, error) {
	return "", nil
}
