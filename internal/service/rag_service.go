package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"recyclebot/internal/domain"
)

// Failure kinds wrapped into Answer errors; test with errors.Is.
var (
	ErrEmbedding  = errors.New("embedding failed")
	ErrRetrieval  = errors.New("retrieval failed")
	ErrGeneration = errors.New("generation failed")
)

// DefaultTopK is the number of excerpts used to ground an answer.
const DefaultTopK = 3

// DefaultSystemPrompt instructs the model to stay within the retrieved excerpts.
const DefaultSystemPrompt = `You are Recyclebot, an assistant that answers questions about the Framingham, Massachusetts recycling program.
Answer using only the excerpts below, which come from the city's recycling guidance.
If the excerpts do not contain the answer, say that you don't know. Never invent recycling rules.
Answer in the same language as the question.`

const condensePrompt = `Given the conversation so far and a follow-up question, rewrite the follow-up as a standalone question in its original language. Reply with the question only.`

// Options tunes a RAGService.
type Options struct {
	TopK                int
	SystemPrompt        string
	CondenseQuestion    bool
	SummaryMaxSentences int
}

// RAGService retrieves guidance excerpts and asks the generator to answer from them.
type RAGService struct {
	chunker             domain.Chunker
	embedder            domain.Embedder
	store               domain.VectorStore
	summarizer          domain.Summarizer
	generator           domain.Generator
	topK                int
	systemPrompt        string
	condense            bool
	summaryMaxSentences int

	mu     sync.RWMutex
	chunks []domain.Chunk
}

func NewRAGService(chunker domain.Chunker, embedder domain.Embedder, store domain.VectorStore, summarizer domain.Summarizer, generator domain.Generator, opts Options) *RAGService {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if strings.TrimSpace(opts.SystemPrompt) == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	return &RAGService{
		chunker:             chunker,
		embedder:            embedder,
		store:               store,
		summarizer:          summarizer,
		generator:           generator,
		topK:                opts.TopK,
		systemPrompt:        opts.SystemPrompt,
		condense:            opts.CondenseQuestion,
		summaryMaxSentences: opts.SummaryMaxSentences,
	}
}

// IngestDocuments replaces the index contents with chunks of the given
// .txt/.md files (globs allowed) and returns an extractive corpus summary.
func (s *RAGService) IngestDocuments(ctx context.Context, paths []string) (string, error) {
	documents, err := readDocuments(paths)
	if err != nil {
		return "", err
	}
	var allChunks []domain.Chunk
	var allTexts []string
	var corpus strings.Builder
	for _, d := range documents {
		chunks, err := s.chunker.Chunk(d)
		if err != nil {
			return "", fmt.Errorf("chunk %s: %w", d.Path, err)
		}
		for _, ch := range chunks {
			allChunks = append(allChunks, ch)
			allTexts = append(allTexts, ch.Text)
		}
		corpus.WriteString("\n")
		corpus.WriteString(d.Content)
	}
	if len(allChunks) == 0 {
		return "", errors.New("documents contain no text")
	}
	if err := s.embedder.Prepare(allTexts); err != nil {
		return "", fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	vectors := make([][]float64, len(allChunks))
	for i := range allChunks {
		vec, err := s.embedder.Embed(ctx, allChunks[i].Text)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrEmbedding, err)
		}
		vectors[i] = vec
	}
	if err := s.store.Clear(ctx); err != nil {
		return "", err
	}
	if err := s.store.Init(ctx, len(vectors[0])); err != nil {
		return "", err
	}
	if err := s.store.Upsert(ctx, allChunks, vectors); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.chunks = allChunks
	s.mu.Unlock()

	if s.summarizer == nil {
		return "", nil
	}
	return s.summarizer.Summarize(corpus.String(), s.summaryMaxSentences)
}

// Query returns the topK chunks most similar to query. When the embedding
// carries no signal (no known terms) and local chunks are available, it falls
// back to lexical overlap ranking.
func (s *RAGService) Query(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = s.topK
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if isZero(vec) && s.hasLocalChunks() {
		return s.lexicalSearch(query, topK), nil
	}
	res, err := s.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	return res, nil
}

// Answer retrieves excerpts for question, asks the generator to answer using
// them and the prior turns in memory, and records the turn in memory.
// Memory is left untouched on failure.
func (s *RAGService) Answer(ctx context.Context, question string, memory *domain.Memory) (domain.Answer, error) {
	turns := memory.Turns()
	standalone := question
	if s.condense && len(turns) > 0 {
		rewritten, err := s.condenseQuestion(ctx, question, turns)
		if err != nil {
			return domain.Answer{}, err
		}
		standalone = rewritten
	}

	results, err := s.Query(ctx, standalone, s.topK)
	if err != nil {
		return domain.Answer{}, err
	}
	chunks := make([]domain.Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}

	text, err := s.generator.Complete(ctx, BuildPrompt(s.systemPrompt, chunks, turns, standalone), 0)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Answer{}, fmt.Errorf("%w: empty answer", ErrGeneration)
	}
	memory.Append(question, text)
	return domain.Answer{Text: text, Chunks: chunks}, nil
}

// BuildPrompt assembles system instructions with the excerpts as grounding
// context, the prior turns, and the new question.
func BuildPrompt(systemPrompt string, chunks []domain.Chunk, turns []domain.Turn, question string) []domain.ChatMessage {
	var sys strings.Builder
	sys.WriteString(systemPrompt)
	sys.WriteString("\n\nExcerpts:\n")
	if len(chunks) == 0 {
		sys.WriteString("(none)\n")
	}
	for i, ch := range chunks {
		label := ch.Source
		if label == "" {
			label = fmt.Sprintf("Source %d", i+1)
		}
		fmt.Fprintf(&sys, "[%d] (%s)\n%s\n\n", i+1, label, strings.TrimSpace(ch.Text))
	}
	messages := make([]domain.ChatMessage, 0, 2+2*len(turns))
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: strings.TrimRight(sys.String(), "\n")})
	for _, t := range turns {
		messages = append(messages,
			domain.ChatMessage{Role: domain.RoleUser, Content: t.Question},
			domain.ChatMessage{Role: domain.RoleAssistant, Content: t.Answer},
		)
	}
	return append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: question})
}

func (s *RAGService) condenseQuestion(ctx context.Context, question string, turns []domain.Turn) (string, error) {
	var transcript strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&transcript, "Human: %s\nAssistant: %s\n", t.Question, t.Answer)
	}
	out, err := s.generator.Complete(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: condensePrompt},
		{Role: domain.RoleUser, Content: fmt.Sprintf("Conversation:\n%s\nFollow-up question: %s", transcript.String(), question)},
	}, 0)
	if err != nil {
		return "", fmt.Errorf("%w: condense question: %w", ErrGeneration, err)
	}
	if out = strings.TrimSpace(out); out == "" {
		return question, nil
	}
	return out, nil
}

func readDocuments(paths []string) ([]domain.Document, error) {
	var documents []domain.Document
	for _, p := range paths {
		matches, _ := filepath.Glob(p)
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			ext := strings.ToLower(filepath.Ext(m))
			if ext != ".txt" && ext != ".md" {
				continue
			}
			data, err := os.ReadFile(m)
			if err != nil {
				return nil, err
			}
			documents = append(documents, domain.Document{
				ID:      hashString(m),
				Path:    m,
				Source:  filepath.Base(m),
				Content: string(data),
			})
		}
	}
	if len(documents) == 0 {
		return nil, errors.New("no .txt or .md documents found")
	}
	return documents, nil
}

func (s *RAGService) hasLocalChunks() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks) > 0
}

var unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\d+`)

func (s *RAGService) lexicalSearch(query string, topK int) []domain.SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qset := toTokenSet(query)
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(s.chunks))
	for i, ch := range s.chunks {
		scores[i] = pair{i, overlapOchiai(qset, ch.Text)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if topK > len(scores) {
		topK = len(scores)
	}
	out := make([]domain.SearchResult, 0, topK)
	for _, p := range scores[:topK] {
		out = append(out, domain.SearchResult{Chunk: s.chunks[p.idx], Score: p.score})
	}
	return out
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// overlapOchiai is |A∩B| / sqrt(|A||B|) over distinct tokens.
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	seen := toTokenSet(text)
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	inter := 0
	for t := range seen {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}

func isZero(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
