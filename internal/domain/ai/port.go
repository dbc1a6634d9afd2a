package ai

import "context"

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks . Client

// Client is the LLM capability. Output is untrusted text; callers validate it.
type Client interface {
	Generate(ctx context.Context, prompt string, expectJSON bool) (string, error)
}
