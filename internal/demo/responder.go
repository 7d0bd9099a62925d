// Package demo answers a few common questions from a fixed table so the app
// can run without any hosted services.
package demo

import (
	"context"
	"strings"

	"recyclebot/internal/domain"
)

// FallbackAnswer is returned when no keyword matches.
const FallbackAnswer = "I'm not sure about that. Please check the official Framingham recycling website."

type entry struct {
	keyword string
	answer  string
}

// Checked in order; the first keyword found in the question wins.
var answers = []entry{
	{"pizza", "Yes, clean pizza boxes can be recycled in Framingham. However, if they're heavily soiled with grease or food residue, they should go in the trash."},
	{"plastic", "In Framingham, you can recycle plastic containers numbered 1, 2, and 5. Please make sure they're clean and dry before recycling."},
	{"paper", "Most clean paper products can be recycled, including newspapers, magazines, office paper, and cardboard boxes."},
}

// Responder matches keywords case-insensitively. It never fails and returns no chunks.
type Responder struct{}

func NewResponder() *Responder { return &Responder{} }

func (r *Responder) Answer(_ context.Context, question string, memory *domain.Memory) (domain.Answer, error) {
	text := Lookup(question)
	memory.Append(question, text)
	return domain.Answer{Text: text}, nil
}

// Lookup returns the canned answer for question.
func Lookup(question string) string {
	q := strings.ToLower(question)
	for _, e := range answers {
		if strings.Contains(q, e.keyword) {
			return e.answer
		}
	}
	return FallbackAnswer
}
