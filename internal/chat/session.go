package chat

import (
	"context"
	"html/template"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"recyclebot/internal/domain"
)

// Fixed assistant replies.
const (
	OffTopicMessage = "Your question does not seem to be related to recycling. This app can only answer questions about the Framingham recycling program."
	ApologyMessage  = "I apologize, but I'm having trouble generating a response right now. Please try again later."
)

// Classifier gates questions before any retrieval happens.
type Classifier interface {
	IsOnTopic(ctx context.Context, question string) (bool, error)
}

// Responder answers an on-topic question, recording the turn in memory on success.
type Responder interface {
	Answer(ctx context.Context, question string, memory *domain.Memory) (domain.Answer, error)
}

// OutcomeKind says how a submission ended.
type OutcomeKind int

const (
	OutcomeIgnored OutcomeKind = iota
	OutcomeRefused
	OutcomeAnswered
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeRefused:
		return "refused"
	case OutcomeAnswered:
		return "answered"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one Submit call.
// Reply is the assistant message appended to the history (empty when ignored).
// Answer holds the plain answer and its chunks when Kind is OutcomeAnswered.
// Err is the underlying failure when Kind is OutcomeFailed.
type Outcome struct {
	Kind   OutcomeKind
	Reply  string
	Answer domain.Answer
	Err    error
}

// Accepted reports whether the submission added a turn to the history.
func (o Outcome) Accepted() bool { return o.Kind != OutcomeIgnored }

// Session is one conversation: its transcript, the model memory and the
// collaborators that produce replies. Submissions are serialized.
type Session struct {
	ID string

	classifier Classifier
	responder  Responder
	log        zerolog.Logger

	mu      sync.Mutex
	history History
	memory  domain.Memory
}

func NewSession(id string, classifier Classifier, responder Responder, log zerolog.Logger) *Session {
	return &Session{
		ID:         id,
		classifier: classifier,
		responder:  responder,
		log:        log.With().Str("session_id", id).Logger(),
	}
}

// Submit runs one turn. Whitespace-only input is ignored. Otherwise exactly one
// user message and one assistant message are appended, whatever happens
// downstream: an off-topic notice, the answer with its sources, or an apology.
func (s *Session) Submit(ctx context.Context, input string) Outcome {
	if strings.TrimSpace(input) == "" {
		return Outcome{Kind: OutcomeIgnored}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.respond(ctx, input)
	s.history.appendTurn(input, out.Reply)
	return out
}

func (s *Session) respond(ctx context.Context, question string) Outcome {
	onTopic, err := s.classifier.IsOnTopic(ctx, question)
	if err != nil {
		s.log.Warn().Err(err).Msg("classification failed")
		return Outcome{Kind: OutcomeFailed, Reply: ApologyMessage, Err: err}
	}
	if !onTopic {
		s.log.Debug().Msg("question refused as off topic")
		return Outcome{Kind: OutcomeRefused, Reply: OffTopicMessage}
	}
	ans, err := s.responder.Answer(ctx, question, &s.memory)
	if err != nil {
		s.log.Warn().Err(err).Msg("answer failed")
		return Outcome{Kind: OutcomeFailed, Reply: ApologyMessage, Err: err}
	}
	s.log.Debug().Int("chunks", len(ans.Chunks)).Msg("question answered")
	return Outcome{Kind: OutcomeAnswered, Reply: ans.Text + FormatSources(ans.Chunks), Answer: ans}
}

// History returns a copy of the transcript.
func (s *Session) History() []Message { return s.history.Snapshot() }

// Transcript renders the current transcript as HTML.
func (s *Session) Transcript() template.HTML { return Render(s.history.Snapshot()) }

// Memory returns the turns remembered for the model.
func (s *Session) Memory() []domain.Turn { return s.memory.Turns() }
