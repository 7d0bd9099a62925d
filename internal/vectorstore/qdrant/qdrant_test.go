package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recyclebot/internal/domain"
)

type recorded struct {
	method string
	path   string
	query  string
	apiKey string
	body   map[string]any
}

func newFake(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, apiKey: r.Header.Get("api-key")}
		if r.ContentLength > 0 {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&rec.body))
		}
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSearch(t *testing.T) {
	srv, calls := newFake(t, http.StatusOK, `{"result":[
		{"score":0.91,"payload":{"source":"RecyclingGuide2023","text":"Clean pizza boxes are recyclable.","index":2}},
		{"score":0.80,"payload":{"page_content":"Greasy boxes go in the trash."}}
	]}`)
	s := NewStorage(Config{URL: srv.URL + "/", APIKey: "secret", Collection: "recycle-info"})

	res, err := s.Search(context.Background(), []float64{0.1, 0.2}, 0)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "RecyclingGuide2023", res[0].Chunk.Source)
	assert.Equal(t, 2, res[0].Chunk.Index)
	assert.InDelta(t, 0.91, res[0].Score, 1e-9)
	assert.Equal(t, "Greasy boxes go in the trash.", res[1].Chunk.Text)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/collections/recycle-info/points/search", call.path)
	assert.Equal(t, "secret", call.apiKey)
	assert.EqualValues(t, 3, call.body["limit"])
	assert.Equal(t, true, call.body["with_payload"])
}

func TestSearchError(t *testing.T) {
	srv, _ := newFake(t, http.StatusServiceUnavailable, `{"status":"unavailable"}`)
	s := NewStorage(Config{URL: srv.URL, Collection: "recycle-info"})
	_, err := s.Search(context.Background(), []float64{1}, 3)
	assert.Error(t, err)
}

func TestInitToleratesExistingCollection(t *testing.T) {
	srv, calls := newFake(t, http.StatusConflict, `{"status":{"error":"already exists"}}`)
	s := NewStorage(Config{URL: srv.URL, Collection: "recycle-info"})

	require.NoError(t, s.Init(context.Background(), 4))
	assert.Error(t, s.Init(context.Background(), 0))

	require.Len(t, *calls, 1)
	assert.Equal(t, http.MethodPut, (*calls)[0].method)
	vectors := (*calls)[0].body["vectors"].(map[string]any)
	assert.EqualValues(t, 4, vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestUpsertUsesUUIDPointIDs(t *testing.T) {
	srv, calls := newFake(t, http.StatusOK, `{"result":{"status":"completed"}}`)
	s := NewStorage(Config{URL: srv.URL, Collection: "recycle-info"})

	chunks := []domain.Chunk{{DocumentID: "doc", ChunkID: "doc:0", Source: "guide.txt", Text: "Paper."}}
	require.NoError(t, s.Upsert(context.Background(), chunks, [][]float64{{1, 0}}))
	assert.Error(t, s.Upsert(context.Background(), chunks, nil))

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/collections/recycle-info/points", call.path)
	assert.Equal(t, "wait=true", call.query)
	points := call.body["points"].([]any)
	require.Len(t, points, 1)
	p := points[0].(map[string]any)
	assert.Len(t, p["id"], 36)
	assert.Equal(t, "guide.txt", p["payload"].(map[string]any)["source"])
}

func TestClearIgnoresMissingCollection(t *testing.T) {
	srv, calls := newFake(t, http.StatusNotFound, `{}`)
	s := NewStorage(Config{URL: srv.URL, Collection: "recycle-info"})
	require.NoError(t, s.Clear(context.Background()))
	assert.Equal(t, http.MethodDelete, (*calls)[0].method)
}
