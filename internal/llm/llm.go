// Package llm wraps the Cohere chat API behind a small interface so
// generators can be exercised without network access.
package llm

import (
	"context"
	"strings"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// Chatter sends one prompt under a persona preamble and returns the
// model's first response verbatim.
type Chatter interface {
	Chat(ctx context.Context, preamble, message string) (string, error)
}

// Reason explains why a generation is unavailable.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonNoKey means no API credential is configured.
	ReasonNoKey
	// ReasonQuota means the credential is present but the provider
	// rejected the call for a quota or billing reason.
	ReasonQuota
	// ReasonRequestFailed covers every other call failure.
	ReasonRequestFailed
)

// Classify maps a call error to an unavailability reason.
func Classify(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "quota") || strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "billing") {
		return ReasonQuota
	}
	return ReasonRequestFailed
}

const defaultModel = "command-r-plus"

type Client struct {
	co    *cohereclient.Client
	model string
}

func NewClient(token string) *Client {
	return &Client{
		co:    cohereclient.NewClient(cohereclient.WithToken(token)),
		model: defaultModel,
	}
}

func (c *Client) Chat(ctx context.Context, preamble, message string) (string, error) {
	resp, err := c.co.Chat(ctx, &cohere.ChatRequest{
		Message:     message,
		Model:       cohere.String(c.model),
		Preamble:    cohere.String(preamble),
		Temperature: cohere.Float64(0.8),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
