package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/juriscope/internal/domain/ai"
	"github.com/bryanwahyu/juriscope/internal/infra/ai/prompt"
)

const (
	maxTokens    = 4096
	defaultModel = "gpt-4o-mini"
)

// Client talks to any OpenAI-compatible chat completion endpoint. One SDK
// client is built per API key; Keys picks which one serves each call.
type Client struct {
	Model   string
	Keys    *KeyRing
	clients map[string]*openai.Client
}

var _ ai.Client = (*Client)(nil)

// NewClient builds a client for every key in the ring. baseURL may be empty
// for the public OpenAI API.
func NewClient(keys *KeyRing, baseURL, model string) *Client {
	c := &Client{Model: model, Keys: keys, clients: make(map[string]*openai.Client, keys.Len())}
	for _, k := range keys.Keys() {
		cfg := openai.DefaultConfig(k)
		if baseURL != "" {
			cfg.BaseURL = strings.TrimRight(baseURL, "/")
		}
		c.clients[k] = openai.NewClientWithConfig(cfg)
	}
	return c
}

// Generate implements ai.Client.
func (c *Client) Generate(ctx context.Context, userPrompt string, expectJSON bool) (string, error) {
	model := c.Model
	if model == "" {
		model = defaultModel
	}
	cli, ok := c.clients[c.Keys.Next()]
	if !ok {
		return "", fmt.Errorf("%w: no api key configured", ai.ErrProvider)
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}
	if expectJSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := cli.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ai.ErrProvider)
	}
	return resp.Choices[0].Message.Content, nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ai.ErrTimeout, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: failed to create chat completion: %v", ai.ErrProvider, err)
}
