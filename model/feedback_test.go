package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeedbackSignal(t *testing.T) {
	t.Run("Create signal with defaults", func(t *testing.T) {
		signal := NewFeedbackSignal("deploy query", "doc-1", "user-1", true, 1.0, "", nil)

		require.NotNil(t, signal)
		assert.NotEqual(t, uuid.Nil, signal.RID, "Expected a fresh RID")
		assert.Equal(t, "ui", signal.Channel, "Expected empty channel to default to ui")
		assert.False(t, signal.CreatedAt.IsZero(), "Expected creation time to be set")
	})

	t.Run("Create signal with explicit channel", func(t *testing.T) {
		signal := NewFeedbackSignal("deploy query", "doc-1", "user-1", false, 0.0, "api", nil)

		assert.Equal(t, "api", signal.Channel)
		assert.False(t, signal.Helpful)
	})
}

func TestFeedbackSignal_ComponentScores(t *testing.T) {
	t.Run("Extract typed component scores", func(t *testing.T) {
		signal := NewFeedbackSignal("q", "doc-1", "user-1", true, 1.0, "ui", Metadata{
			MetadataKeyComponentScores: map[string]float64{SourceVector: 0.8, SourceGraph: 0.2},
		})

		scores := signal.ComponentScores()

		require.NotNil(t, scores)
		assert.Equal(t, 0.8, scores[SourceVector])
		assert.Equal(t, 0.2, scores[SourceGraph])
	})

	t.Run("Extract scores after JSON round trip", func(t *testing.T) {
		// JSONB read-back yields map[string]interface{} with float64 values
		signal := NewFeedbackSignal("q", "doc-1", "user-1", true, 1.0, "ui", Metadata{
			MetadataKeyComponentScores: map[string]interface{}{SourceVector: 0.8, SourceText: 0.1},
		})

		scores := signal.ComponentScores()

		require.NotNil(t, scores)
		assert.Equal(t, 0.8, scores[SourceVector])
		assert.Equal(t, 0.1, scores[SourceText])
	})

	t.Run("Missing scores return nil", func(t *testing.T) {
		signal := NewFeedbackSignal("q", "doc-1", "user-1", true, 1.0, "ui", nil)

		assert.Nil(t, signal.ComponentScores())
	})
}
