// Package openai implements the judge contract over OpenAI-compatible chat
// completion APIs.
package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/searchforge/rank_aggregator/judge"
)

const defaultModel = openai.GPT4oMini

// Config groups the client settings.
type Config struct {
	APIKey string
	// BaseURL points at an OpenAI-compatible endpoint; empty means the
	// official API.
	BaseURL     string
	Model       string
	Temperature float32
}

// Client is a judge backed by chat completions.
type Client struct {
	client *openai.Client
	model  string
	temp   float32
}

// New constructs the judge client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("api key required")
	}

	var c *openai.Client
	if cfg.BaseURL != "" {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
		c = openai.NewClientWithConfig(clientConfig)
	} else {
		c = openai.NewClient(cfg.APIKey)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Client{client: c, model: model, temp: cfg.Temperature}, nil
}

// Judge renders the prompt fields into a chat completion and parses the
// model's reply into the expected verdict kind.
func (c *Client) Judge(ctx context.Context, p judge.Prompt) (judge.Verdict, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temp,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(p)},
			{Role: openai.ChatMessageRoleUser, Content: renderFields(p)},
		},
	})
	if err != nil {
		return judge.Verdict{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return judge.Verdict{}, fmt.Errorf("no choices returned")
	}

	return judge.ParseVerdict(resp.Choices[0].Message.Content, p)
}

func systemPrompt(p judge.Prompt) string {
	var b strings.Builder
	b.WriteString(p.Instruction)
	switch p.Want {
	case judge.KindRankedIndices:
		fmt.Fprintf(&b, "\n\nReply with a JSON array of 0-based candidate indices ordered from most to least relevant, e.g. [2, 0, 1]. Indices must be below %d.", p.Candidates)
	case judge.KindScoredJustification:
		fmt.Fprintf(&b, "\n\nStart your reply with a single number between %g and %g, then explain briefly.", p.Range.Min, p.Range.Max)
	default:
		fmt.Fprintf(&b, "\n\nReply with a single number between %g and %g.", p.Range.Min, p.Range.Max)
	}
	return b.String()
}

func renderFields(p judge.Prompt) string {
	var b strings.Builder
	for i, f := range p.Fields {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(f.Name)
		b.WriteString(":\n")
		b.WriteString(f.Value)
	}
	return b.String()
}
