package pinecone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"recyclebot/internal/domain"
)

// Storage queries an existing Pinecone index through its data-plane REST API.
// Indexes are created out of band; Init only checks the dimension.
type Storage struct {
	namespace string
	http      *resty.Client
}

// upsertBatchSize keeps each request well under Pinecone's 1000 vector and 2 MB limits.
const upsertBatchSize = 100

type Config struct {
	Host      string
	APIKey    string
	Namespace string
	Timeout   time.Duration
}

type vector struct {
	ID       string         `json:"id"`
	Values   []float64      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type queryRequest struct {
	Vector          []float64 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
	Namespace       string    `json:"namespace,omitempty"`
}

type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

type statsResponse struct {
	Dimension int `json:"dimension"`
}

func NewStorage(cfg Config) (*Storage, error) {
	host := strings.TrimRight(cfg.Host, "/")
	if host == "" {
		return nil, errors.New("pinecone: index host is required")
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(host).
		SetHeader("Content-Type", "application/json").
		SetHeader("Api-Key", cfg.APIKey).
		SetTimeout(timeout)
	return &Storage{namespace: cfg.Namespace, http: client}, nil
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	var stats statsResponse
	resp, err := s.http.R().SetContext(ctx).SetBody(map[string]any{}).SetResult(&stats).Post("/describe_index_stats")
	if err != nil {
		return fmt.Errorf("pinecone stats: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("pinecone stats (%d): %s", resp.StatusCode(), resp.String())
	}
	if stats.Dimension != 0 && stats.Dimension != dimension {
		return fmt.Errorf("pinecone index dimension is %d, embedder produces %d", stats.Dimension, dimension)
	}
	return nil
}

func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	for start := 0; start < len(chunks); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(chunks))
		if err := s.upsertBatch(ctx, chunks[start:end], vectors[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) upsertBatch(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	batch := make([]vector, len(chunks))
	for i, ch := range chunks {
		batch[i] = vector{
			ID:     ch.ChunkID,
			Values: vectors[i],
			Metadata: map[string]any{
				"document_id": ch.DocumentID,
				"index":       ch.Index,
				"source":      ch.Source,
				"text":        ch.Text,
			},
		}
	}
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"vectors": batch, "namespace": s.namespace}).
		Post("/vectors/upsert")
	if err != nil {
		return fmt.Errorf("pinecone upsert: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("pinecone upsert (%d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vec []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 3
	}
	var out queryResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(queryRequest{Vector: vec, TopK: topK, IncludeMetadata: true, Namespace: s.namespace}).
		SetResult(&out).
		Post("/query")
	if err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pinecone query (%d): %s", resp.StatusCode(), resp.String())
	}
	results := make([]domain.SearchResult, 0, len(out.Matches))
	for _, m := range out.Matches {
		chunk := domain.Chunk{ChunkID: m.ID}
		if v, ok := m.Metadata["source"].(string); ok {
			chunk.Source = v
		}
		if v, ok := m.Metadata["text"].(string); ok {
			chunk.Text = v
		}
		if v, ok := m.Metadata["document_id"].(string); ok {
			chunk.DocumentID = v
		}
		if v, ok := m.Metadata["index"].(float64); ok {
			chunk.Index = int(v)
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: m.Score})
	}
	return results, nil
}

// Clear deletes every vector in the configured namespace. A namespace that
// does not exist yet is already clear.
func (s *Storage) Clear(ctx context.Context) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"deleteAll": true, "namespace": s.namespace}).
		Post("/vectors/delete")
	if err != nil {
		return fmt.Errorf("pinecone delete: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("pinecone delete (%d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}
