package model

import (
	"time"

	"github.com/google/uuid"
)

// MetadataKeyComponentScores is the metadata field carrying the per-source
// scores that produced the original ranking of the rated document.
const MetadataKeyComponentScores = "component_scores"

// FeedbackSignal is a user's judgment on one retrieval result.
// Signals are append-only and never mutated once recorded.
type FeedbackSignal struct {
	RID        uuid.UUID `json:"rid"`
	Query      string    `json:"query"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	Helpful    bool      `json:"helpful"`
	Score      float64   `json:"score"`
	Channel    string    `json:"channel"`
	Metadata   Metadata  `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewFeedbackSignal creates a signal with a fresh RID and creation time.
// An empty channel defaults to "ui".
func NewFeedbackSignal(query, documentID, userID string, helpful bool, score float64, channel string, metadata Metadata) *FeedbackSignal {
	if channel == "" {
		channel = "ui"
	}
	return &FeedbackSignal{
		RID:        uuid.New(),
		Query:      query,
		DocumentID: documentID,
		UserID:     userID,
		Helpful:    helpful,
		Score:      score,
		Channel:    channel,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
}

// ComponentScores extracts the recorded per-source scores from the signal
// metadata. Returns nil if none were recorded. Both in-memory maps and
// JSONB round-tripped maps are handled.
func (s *FeedbackSignal) ComponentScores() map[string]float64 {
	if s.Metadata == nil {
		return nil
	}

	switch raw := s.Metadata[MetadataKeyComponentScores].(type) {
	case map[string]float64:
		return raw
	case map[string]interface{}:
		scores := make(map[string]float64, len(raw))
		for source, value := range raw {
			switch number := value.(type) {
			case float64:
				scores[source] = number
			case int:
				scores[source] = float64(number)
			}
		}
		if len(scores) == 0 {
			return nil
		}
		return scores
	default:
		return nil
	}
}
