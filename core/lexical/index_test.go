package lexical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initIndex(t *testing.T) *Index {
	t.Helper()

	index, err := NewIndex()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = index.Close()
	})

	documents := []Document{
		{
			DocumentID: "doc-aws-infra",
			Title:      "AWS Infrastructure Ownership",
			Summary:    "The AWS infrastructure is managed by the SRE platform team.",
			Source:     "confluence",
		},
		{
			DocumentID: "doc-incident-runbook",
			Title:      "High Severity Incident Runbook",
			Summary:    "Runbook outlining steps to mitigate high severity incidents.",
			Source:     "notion",
		},
	}
	for _, document := range documents {
		require.NoError(t, index.Add(document))
	}
	return index
}

func TestIndex_Add(t *testing.T) {
	t.Run("Add rejects empty document IDs", func(t *testing.T) {
		index, err := NewIndex()
		require.NoError(t, err)
		defer index.Close()

		err = index.Add(Document{Title: "No ID"})

		assert.Error(t, err, "Expected add without document ID to fail")
	})
}

func TestIndex_Search(t *testing.T) {
	t.Run("Search finds matching documents", func(t *testing.T) {
		index := initIndex(t)

		results, err := index.Search(context.Background(), "incident runbook", nil)

		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "doc-incident-runbook", results[0].DocumentID)
	})

	t.Run("Search normalizes scores to the best hit", func(t *testing.T) {
		index := initIndex(t)

		results, err := index.Search(context.Background(), "infrastructure", nil)

		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, 1.0, results[0].Score, "Expected the best hit to score 1")
		for _, result := range results {
			assert.GreaterOrEqual(t, result.Score, 0.0)
			assert.LessOrEqual(t, result.Score, 1.0)
		}
	})

	t.Run("Search carries stored fields as metadata", func(t *testing.T) {
		index := initIndex(t)

		results, err := index.Search(context.Background(), "infrastructure", nil)

		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "AWS Infrastructure Ownership", results[0].Metadata.String("title", ""))
		assert.Equal(t, "confluence", results[0].Metadata.String("source", ""))
		assert.NotContains(t, results[0].Metadata, "document_id", "Expected the ID to stay out of the metadata")
	})

	t.Run("Search without matches returns nothing", func(t *testing.T) {
		index := initIndex(t)

		results, err := index.Search(context.Background(), "kubernetes", nil)

		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
