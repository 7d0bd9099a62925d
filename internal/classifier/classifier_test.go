package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recyclebot/internal/domain"
)

type stubGenerator struct {
	reply       string
	err         error
	messages    []domain.ChatMessage
	temperature float32
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) Complete(_ context.Context, messages []domain.ChatMessage, temperature float32) (string, error) {
	s.messages = messages
	s.temperature = temperature
	return s.reply, s.err
}

func TestIsOnTopicSubstringPolicy(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  bool
	}{
		{"affirmative", "Yes, this is recycling-related.", true},
		{"negative", "No, this is not related.", false},
		// "not" contains "no": known quirk of the substring rule.
		{"contains not", "Of course not a problem", false},
		{"no. 2 plastic", "Yes, No. 2 plastic is recyclable.", false},
		{"refusal without no", "That is unrelated to recycling.", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{reply: tt.reply}
			ok, err := New(gen).IsOnTopic(context.Background(), "Can I recycle pizza boxes?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestIsOnTopicPrompt(t *testing.T) {
	gen := &stubGenerator{reply: "Yes"}
	_, err := New(gen).IsOnTopic(context.Background(), "Can I recycle pizza boxes?")
	require.NoError(t, err)

	require.Len(t, gen.messages, 2)
	assert.Equal(t, domain.RoleSystem, gen.messages[0].Role)
	assert.Equal(t, domain.RoleUser, gen.messages[1].Role)
	assert.Contains(t, gen.messages[1].Content, "'Can I recycle pizza boxes?'")
	assert.Zero(t, gen.temperature)
}

func TestIsOnTopicPropagatesErrors(t *testing.T) {
	boom := errors.New("transport down")
	_, err := New(&stubGenerator{err: boom}).IsOnTopic(context.Background(), "glass?")
	assert.ErrorIs(t, err, boom)
}

func TestWithPolicy(t *testing.T) {
	strict := func(reply string) bool { return reply == "true" }
	c := New(&stubGenerator{reply: "Not sure, but generally no"}, WithPolicy(strict))
	ok, err := c.IsOnTopic(context.Background(), "q")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllowAll(t *testing.T) {
	ok, err := AllowAll{}.IsOnTopic(context.Background(), "what's the weather?")
	require.NoError(t, err)
	assert.True(t, ok)
}
