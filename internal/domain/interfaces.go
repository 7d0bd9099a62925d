package domain

import "context"

// Document represents a single guidance file loaded into the index.
type Document struct {
	ID      string
	Path    string
	Source  string
	Content string
}

// Chunk is an excerpt of a document used for indexing and citation.
// Source is the label shown next to the excerpt when it is cited.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Source     string
	Text       string
	Index      int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// VectorStore persists vectors and supports similarity search.
// Search returns results ranked by descending score.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Clear(ctx context.Context) error
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of a prompt sent to a Generator.
type ChatMessage struct {
	Role    Role
	Content string
}

// Generator is a hosted chat-completion model.
type Generator interface {
	Name() string
	Complete(ctx context.Context, messages []ChatMessage, temperature float32) (string, error)
}

// Answer is the result of a retrieval-augmented generation call.
// Text is the plain answer; Chunks are the excerpts it was grounded on, in rank order.
type Answer struct {
	Text   string
	Chunks []Chunk
}
