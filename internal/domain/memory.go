package domain

import "sync"

// Turn is one question and its plain answer.
type Turn struct {
	Question string
	Answer   string
}

// Memory accumulates the turns fed back to the generator so follow-up
// questions can be resolved. It never holds citation markup.
type Memory struct {
	mu    sync.Mutex
	turns []Turn
}

// Append records a completed turn.
func (m *Memory) Append(question, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, Turn{Question: question, Answer: answer})
}

// Turns returns a copy of the recorded turns in conversation order.
func (m *Memory) Turns() []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}
