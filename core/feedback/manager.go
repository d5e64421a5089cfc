package feedback

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/siherrmann/fuser/model"
)

// Store persists feedback signals durably
type Store interface {
	InsertFeedback(signal *model.FeedbackSignal) error
	SelectRecentFeedback(limit int) ([]*model.FeedbackSignal, error)
}

// Manager records feedback signals and aggregates them into per-source
// weight recommendations.
//
// Signals go to the durable store when one is reachable; otherwise they
// land in a bounded in-memory buffer that evicts oldest-first. Data loss
// of buffered signals on restart is an accepted trade-off.
type Manager struct {
	store      Store
	bufferSize int
	log        *slog.Logger

	mu     sync.Mutex
	buffer []*model.FeedbackSignal
}

// NewManager creates a new feedback manager. The store may be nil for a
// purely in-memory manager. A bufferSize <= 0 defaults to 500.
func NewManager(store Store, bufferSize int, logger *slog.Logger) *Manager {
	if bufferSize <= 0 {
		bufferSize = 500
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:      store,
		bufferSize: bufferSize,
		log:        logger,
	}
}

// Record appends a signal to the durable store if reachable, otherwise to
// the bounded in-memory buffer. Record never fails; persistence errors
// are logged and the signal is buffered instead.
func (m *Manager) Record(signal *model.FeedbackSignal) {
	if m.store != nil {
		err := m.store.InsertFeedback(signal)
		if err == nil {
			return
		}
		m.log.Warn("Failed to persist feedback signal, buffering in memory",
			slog.String("document_id", signal.DocumentID),
			slog.String("error", err.Error()),
		)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.buffer = append(m.buffer, signal)
	if len(m.buffer) > m.bufferSize {
		// Oldest evicted first
		m.buffer = m.buffer[len(m.buffer)-m.bufferSize:]
	}
}

// Recent returns the most recently created limit signals, descending by
// creation time
func (m *Manager) Recent(limit int) []*model.FeedbackSignal {
	if limit <= 0 {
		return nil
	}

	var signals []*model.FeedbackSignal
	if m.store != nil {
		stored, err := m.store.SelectRecentFeedback(limit)
		if err == nil {
			signals = stored
		} else {
			m.log.Warn("Failed to read feedback from store, falling back to buffer",
				slog.String("error", err.Error()),
			)
		}
	}

	if signals == nil {
		m.mu.Lock()
		signals = make([]*model.FeedbackSignal, len(m.buffer))
		copy(signals, m.buffer)
		m.mu.Unlock()
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].CreatedAt.After(signals[j].CreatedAt)
	})

	if len(signals) > limit {
		signals = signals[:limit]
	}

	return signals
}

// AggregateComponentFeedback averages component score deltas over the
// most recent limit signals. Helpful signals contribute positively,
// unhelpful ones negatively. Only signals whose metadata actually records
// a score for a source count towards that source; sources with zero
// qualifying samples are omitted.
func (m *Manager) AggregateComponentFeedback(limit int) map[string]float64 {
	signals := m.Recent(limit)
	if len(signals) == 0 {
		return map[string]float64{}
	}

	totals := map[string]float64{}
	counts := map[string]int{}

	for _, signal := range signals {
		components := signal.ComponentScores()
		if components == nil {
			continue
		}

		modifier := -1.0
		if signal.Helpful {
			modifier = 1.0
		}

		for _, source := range model.Sources {
			if componentScore, recorded := components[source]; recorded {
				totals[source] += componentScore * modifier
				counts[source]++
			}
		}
	}

	deltas := map[string]float64{}
	for source, count := range counts {
		deltas[source] = totals[source] / float64(count)
	}

	return deltas
}

// RecommendWeights returns base adjusted by recent feedback and
// normalized to sum 1. Sources absent from the aggregate keep their base
// weight. Base is returned unchanged when no feedback carries component
// scores.
func (m *Manager) RecommendWeights(base model.WeightVector, learningRate float64, sampleSize int) model.WeightVector {
	deltas := m.AggregateComponentFeedback(sampleSize)
	if len(deltas) == 0 {
		return base
	}

	adjusted := base.Clone()
	for source, delta := range deltas {
		adjusted[source] = max(0.0, adjusted[source]+learningRate*delta)
	}

	return adjusted.Normalized()
}
