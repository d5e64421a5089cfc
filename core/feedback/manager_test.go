package feedback

import (
	"fmt"
	"testing"
	"time"

	"github.com/siherrmann/fuser/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore simulates an unreachable durable store
type failingStore struct {
	inserts int
}

func (s *failingStore) InsertFeedback(signal *model.FeedbackSignal) error {
	s.inserts++
	return fmt.Errorf("store unreachable")
}

func (s *failingStore) SelectRecentFeedback(limit int) ([]*model.FeedbackSignal, error) {
	return nil, fmt.Errorf("store unreachable")
}

func TestNewManager(t *testing.T) {
	t.Run("Create manager with defaults", func(t *testing.T) {
		manager := NewManager(nil, 0, nil)

		require.NotNil(t, manager)
		assert.Equal(t, 500, manager.bufferSize, "Expected buffer size to default to 500")
	})
}

func TestManager_Record(t *testing.T) {
	t.Run("Record buffers without a store", func(t *testing.T) {
		manager := NewManager(nil, 10, nil)

		manager.Record(model.NewFeedbackSignal("q", "doc-1", "user-1", true, 1.0, "ui", nil))

		recent := manager.Recent(10)
		require.Len(t, recent, 1)
		assert.Equal(t, "doc-1", recent[0].DocumentID)
	})

	t.Run("Record buffers on store failure", func(t *testing.T) {
		store := &failingStore{}
		manager := NewManager(store, 10, nil)

		manager.Record(model.NewFeedbackSignal("q", "doc-1", "user-1", true, 1.0, "ui", nil))

		assert.Equal(t, 1, store.inserts, "Expected the store to be tried first")
		recent := manager.Recent(10)
		require.Len(t, recent, 1, "Expected the signal to land in the buffer")
	})

	t.Run("Buffer evicts oldest beyond capacity", func(t *testing.T) {
		manager := NewManager(nil, 3, nil)

		for i := 0; i < 5; i++ {
			signal := model.NewFeedbackSignal("q", fmt.Sprintf("doc-%d", i), "user-1", true, 1.0, "ui", nil)
			signal.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
			manager.Record(signal)
		}

		recent := manager.Recent(10)
		require.Len(t, recent, 3, "Expected the buffer to hold at most its capacity")
		assert.Equal(t, "doc-4", recent[0].DocumentID, "Expected the newest signal first")
		for _, signal := range recent {
			assert.NotEqual(t, "doc-0", signal.DocumentID, "Expected the oldest signals to be evicted")
			assert.NotEqual(t, "doc-1", signal.DocumentID, "Expected the oldest signals to be evicted")
		}
	})
}

func TestManager_Recent(t *testing.T) {
	t.Run("Recent orders by descending creation time", func(t *testing.T) {
		manager := NewManager(nil, 10, nil)

		old := model.NewFeedbackSignal("q", "doc-old", "user-1", true, 1.0, "ui", nil)
		old.CreatedAt = time.Now().UTC().Add(-time.Hour)
		manager.Record(old)
		manager.Record(model.NewFeedbackSignal("q", "doc-new", "user-1", true, 1.0, "ui", nil))

		recent := manager.Recent(10)
		require.Len(t, recent, 2)
		assert.Equal(t, "doc-new", recent[0].DocumentID)
		assert.Equal(t, "doc-old", recent[1].DocumentID)
	})

	t.Run("Recent truncates to the limit", func(t *testing.T) {
		manager := NewManager(nil, 10, nil)
		for i := 0; i < 5; i++ {
			manager.Record(model.NewFeedbackSignal("q", fmt.Sprintf("doc-%d", i), "user-1", true, 1.0, "ui", nil))
		}

		assert.Len(t, manager.Recent(2), 2)
	})

	t.Run("Recent with non-positive limit returns nothing", func(t *testing.T) {
		manager := NewManager(nil, 10, nil)
		manager.Record(model.NewFeedbackSignal("q", "doc-1", "user-1", true, 1.0, "ui", nil))

		assert.Nil(t, manager.Recent(0))
	})
}

func TestManager_AggregateComponentFeedback(t *testing.T) {
	t.Run("Helpful and unhelpful signals average per source", func(t *testing.T) {
		manager := NewManager(nil, 10, nil)
		manager.Record(model.NewFeedbackSignal("q", "doc-1", "user-1", true, 1.0, "ui", model.Metadata{
			model.MetadataKeyComponentScores: map[string]float64{model.SourceVector: 0.8},
		}))
		manager.Record(model.NewFeedbackSignal("q", "doc-2", "user-1", false, 0.0, "ui", model.Metadata{
			model.MetadataKeyComponentScores: map[string]float64{model.SourceVector: 0.4},
		}))

		deltas := manager.AggregateComponentFeedback(10)

		require.Contains(t, deltas, model.SourceVector)
		// (0.8 - 0.4) / 2
		assert.InDelta(t, 0.2, deltas[model.SourceVector], 1e-9)
	})

	t.Run("Sources without recorded scores are omitted", func(t *testing.T) {
		manager := NewManager(nil, 10, nil)
		manager.Record(model.NewFeedbackSignal("q", "doc-1", "user-1", true, 1.0, "ui", model.Metadata{
			model.MetadataKeyComponentScores: map[string]float64{model.SourceVector: 0.8},
		}))

		deltas := manager.AggregateComponentFeedback(10)

		assert.NotContains(t, deltas, model.SourceGraph)
		assert.NotContains(t, deltas, model.SourceText)
	})

	t.Run("Signals without component scores are skipped", func(t *testing.T) {
		manager := NewManager(nil, 10, nil)
		manager.Record(model.NewFeedbackSignal("q", "doc-1", "user-1", true, 1.0, "ui", nil))

		assert.Empty(t, manager.AggregateComponentFeedback(10))
	})
}

func TestManager_RecommendWeights(t *testing.T) {
	t.Run("Base unchanged without component feedback", func(t *testing.T) {
		manager := NewManager(nil, 10, nil)
		base := model.DefaultWeightVector()

		recommended := manager.RecommendWeights(base, 0.1, 10)

		assert.Equal(t, base, recommended)
	})

	t.Run("Helpful vector feedback increases the vector share", func(t *testing.T) {
		manager := NewManager(nil, 10, nil)
		manager.Record(model.NewFeedbackSignal("q", "doc-1", "user-1", true, 1.0, "ui", model.Metadata{
			model.MetadataKeyComponentScores: map[string]float64{model.SourceVector: 1.0},
		}))

		base := model.DefaultWeightVector()
		recommended := manager.RecommendWeights(base, 0.1, 10)

		assert.Greater(t, recommended[model.SourceVector], base[model.SourceVector])
		assert.InDelta(t, 1.0, recommended.Sum(), 1e-9, "Expected recommended weights to sum to 1")
	})

	t.Run("Unhelpful feedback never drives a weight negative", func(t *testing.T) {
		manager := NewManager(nil, 10, nil)
		manager.Record(model.NewFeedbackSignal("q", "doc-1", "user-1", false, 0.0, "ui", model.Metadata{
			model.MetadataKeyComponentScores: map[string]float64{model.SourceText: 1.0},
		}))

		recommended := manager.RecommendWeights(model.WeightVector{
			model.SourceGraph:  0.5,
			model.SourceVector: 0.45,
			model.SourceText:   0.05,
		}, 0.5, 10)

		assert.Equal(t, 0.0, recommended[model.SourceText], "Expected the text weight to clamp at zero")
		assert.InDelta(t, 1.0, recommended.Sum(), 1e-9)
	})
}
