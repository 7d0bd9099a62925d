package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedRequiresPrepare(t *testing.T) {
	_, err := NewEmbedder().Embed(context.Background(), "pizza boxes")
	assert.Error(t, err)
}

func TestPrepareRejectsEmptyCorpus(t *testing.T) {
	assert.Error(t, NewEmbedder().Prepare(nil))
	assert.Error(t, NewEmbedder().Prepare([]string{"the and of"}))
}

func TestEmbedIsNormalized(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{
		"Clean pizza boxes are recyclable.",
		"Plastic containers numbered 1, 2 and 5 are accepted.",
	}))

	vec, err := e.Embed(context.Background(), "Can I recycle pizza boxes?")
	require.NoError(t, err)
	assert.Len(t, vec, e.Dimension())

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbedUnknownTermsIsZero(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"glass bottles and jars"}))

	vec, err := e.Embed(context.Background(), "batteries")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}
