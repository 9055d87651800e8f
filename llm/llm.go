// Package llm defines the reasoning-model client contract shared by every
// component that talks to a text-generation backend, along with small helpers
// for invoking it and decoding its loosely structured output.
package llm

import (
	"context"
	"fmt"

	"github.com/carecost/carecost/message"
)

// Client is implemented by model providers (OpenAI, Claude, Gemini).
type Client interface {
	// Generate produces a single non-streaming completion.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest bundles inputs for a non-streaming model invocation.
type GenerateRequest struct {
	Messages []*message.Message
}

// GenerateResponse captures the model reply for non-streaming calls.
type GenerateResponse struct {
	Message *message.Message
}

// Invoke is a convenience wrapper for the common system-instruction plus
// user-content call shape. It returns the raw response text; callers that
// expect JSON should pass the text through DecodeJSON, which tolerates
// markdown code fences.
func Invoke(ctx context.Context, c Client, system, user string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("llm client is nil")
	}

	msgs := make([]*message.Message, 0, 2)
	if system != "" {
		msgs = append(msgs, message.NewMessage(message.RoleSystem, system))
	}
	msgs = append(msgs, message.NewMessage(message.RoleUser, user))

	resp, err := c.Generate(ctx, &GenerateRequest{Messages: msgs})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Message == nil {
		return "", fmt.Errorf("model returned empty response")
	}
	return resp.Message.Text(), nil
}
