package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"recyclebot/internal/domain"
)

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection if missing.
type Storage struct {
	collection string
	http       *resty.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float64      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type searchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if cfg.APIKey != "" {
		client.SetHeader("api-key", cfg.APIKey)
	}
	return &Storage{collection: cfg.Collection, http: client}
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	resp, err := s.http.R().SetContext(ctx).SetBody(body).Put(s.path(""))
	if err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}
	// 409 means the collection already exists
	if resp.IsError() && resp.StatusCode() != http.StatusConflict {
		return fmt.Errorf("qdrant create collection (%d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (s *Storage) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	points := make([]point, len(chunks))
	for i, ch := range chunks {
		points[i] = point{
			// Qdrant only accepts unsigned integers or UUIDs as point IDs.
			ID:     uuid.NewSHA1(uuid.NameSpaceURL, []byte(ch.ChunkID)).String(),
			Vector: vectors[i],
			Payload: map[string]any{
				"document_id": ch.DocumentID,
				"chunk_id":    ch.ChunkID,
				"index":       ch.Index,
				"source":      ch.Source,
				"text":        ch.Text,
			},
		}
	}
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("wait", "true").
		SetBody(map[string]any{"points": points}).
		Put(s.path("/points"))
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("qdrant upsert (%d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 3
	}
	var out searchResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"vector":       vector,
			"limit":        topK,
			"with_payload": true,
		}).
		SetResult(&out).
		Post(s.path("/points/search"))
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("qdrant search (%d): %s", resp.StatusCode(), resp.String())
	}
	results := make([]domain.SearchResult, 0, len(out.Result))
	for _, r := range out.Result {
		results = append(results, domain.SearchResult{Chunk: chunkFromPayload(r.Payload), Score: r.Score})
	}
	return results, nil
}

// Clear drops the collection; Init must be called again before Upsert.
func (s *Storage) Clear(ctx context.Context) error {
	resp, err := s.http.R().SetContext(ctx).Delete(s.path(""))
	if err != nil {
		return fmt.Errorf("qdrant drop collection: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("qdrant drop collection (%d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func (s *Storage) path(suffix string) string {
	return "/collections/" + s.collection + suffix
}

func chunkFromPayload(p map[string]any) domain.Chunk {
	chunk := domain.Chunk{}
	if v, ok := p["document_id"].(string); ok {
		chunk.DocumentID = v
	}
	if v, ok := p["chunk_id"].(string); ok {
		chunk.ChunkID = v
	}
	if v, ok := p["index"].(float64); ok {
		chunk.Index = int(v)
	}
	if v, ok := p["source"].(string); ok {
		chunk.Source = v
	}
	if v, ok := p["text"].(string); ok {
		chunk.Text = v
	} else if v, ok := p["page_content"].(string); ok {
		chunk.Text = v
	}
	return chunk
}
