// Package classifier decides whether a question concerns recycling before any
// retrieval or answer generation is attempted.
package classifier

import (
	"context"
	"fmt"
	"strings"

	"recyclebot/internal/domain"
)

const (
	systemInstruction = "You are a helpful assistant that determines if a given question is related to recycling or not."
	questionTemplate  = "Is the following question related to recycling or what can be recycled? '%s'"
)

// Policy turns the model's free-text reply into an on-topic decision.
type Policy func(reply string) bool

// SubstringPolicy treats a reply as on topic unless it contains "no" anywhere,
// case-insensitively. This is crude: "not", "know" and "No. 2 plastic" all
// read as a refusal, and a refusal phrased without "no" reads as acceptance.
// It is kept for parity with the deployed behavior.
func SubstringPolicy(reply string) bool {
	return !strings.Contains(strings.ToLower(reply), "no")
}

// Classifier asks a generative model whether a question is about recycling.
type Classifier struct {
	gen    domain.Generator
	policy Policy
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithPolicy replaces SubstringPolicy.
func WithPolicy(p Policy) Option {
	return func(c *Classifier) { c.policy = p }
}

func New(gen domain.Generator, opts ...Option) *Classifier {
	c := &Classifier{gen: gen, policy: SubstringPolicy}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsOnTopic classifies question at zero temperature. Errors are not retried.
func (c *Classifier) IsOnTopic(ctx context.Context, question string) (bool, error) {
	reply, err := c.gen.Complete(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: systemInstruction},
		{Role: domain.RoleUser, Content: fmt.Sprintf(questionTemplate, question)},
	}, 0)
	if err != nil {
		return false, fmt.Errorf("classify question: %w", err)
	}
	return c.policy(reply), nil
}

// AllowAll accepts every question. Used by the demo variant and when the
// gate is disabled.
type AllowAll struct{}

func (AllowAll) IsOnTopic(context.Context, string) (bool, error) { return true, nil }
