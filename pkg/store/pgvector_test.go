package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/quickstart/internal/models"
)

func getTestConfig(t *testing.T) VectorStoreConfig {
	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return VectorStoreConfig{
		ConnString: connString,
		TableName:  "test_quickstart_samples",
		VectorDim:  3,
	}
}

func TestVectorStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewWithConfig(ctx, getTestConfig(t))
	require.NoError(t, err)
	defer s.Close()

	docs := []models.Document{
		{Name: "go-api", Prompt: "A Go API", Code: "package main", Embedding: []float32{1, 0, 0}},
		{Name: "unembedded", Prompt: "No vector"},
		{Name: "node-app", Prompt: "A Node app", Embedding: []float32{0, 1, 0}},
		{Name: "mixed", Prompt: "Mixed", Embedding: []float32{0.7, 0.7, 0}},
	}

	skipped, err := s.Store(ctx, 0, docs)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)

	_, err = s.Prune(ctx, []string{"go-api", "node-app", "mixed"})
	require.NoError(t, err)

	results, err := s.Query(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "go-api", results[0].Document.Name)
	assert.Equal(t, "package main", results[0].Document.Code)
	assert.Equal(t, []float32{1, 0, 0}, results[0].Document.Embedding)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.Equal(t, "mixed", results[1].Document.Name)
	assert.Equal(t, 3, results[1].Index)

	_, err = s.Query(ctx, []float32{1, 0}, 2)
	assert.Error(t, err)
}

func TestNewWithConfigRejectsTableName(t *testing.T) {
	_, err := NewWithConfig(context.Background(), VectorStoreConfig{TableName: "samples; DROP TABLE users"})
	assert.Error(t, err)
}

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"héllo wörld", "héllo wörld"},
		{"bad \xff byte", "bad  byte"},
		{"nul\x00byte", "nulbyte"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeUTF8(tt.in))
	}
}
