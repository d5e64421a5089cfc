package model

import "time"

// Citation is the provenance record attached to a surfaced document.
// Every citation derives from exactly one RetrievalDocument.
type Citation struct {
	SourceID        string    `json:"source_id"`
	DocumentName    string    `json:"document_name"`
	PageNumber      *int      `json:"page_number,omitempty"`
	ConfidenceScore float64   `json:"confidence_score"`
	Timestamp       time.Time `json:"timestamp"`
	DirectLink      string    `json:"direct_link"`
}

// RetrievalDocument is one externally visible retrieval result.
// Score is the unbounded fused score; Confidence is always in [0, 1].
// Immutable after creation.
type RetrievalDocument struct {
	DocumentID      string             `json:"document_id"`
	Score           float64            `json:"score"`
	Confidence      float64            `json:"confidence"`
	ComponentScores map[string]float64 `json:"component_scores"`
	Metadata        Metadata           `json:"metadata,omitempty"`
	Citations       []Citation         `json:"citations"`
}

// RetrievalSummary is the full response of one retrieval round.
type RetrievalSummary struct {
	Documents   []*RetrievalDocument      `json:"documents"`
	Precision   float64                   `json:"precision"`
	Recall      float64                   `json:"recall"`
	Sources     []Citation                `json:"sources"`
	Weights     WeightVector              `json:"weights"`
	Experiments []RankingExperimentResult `json:"experiments,omitempty"`
}
