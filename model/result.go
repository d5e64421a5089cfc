package model

// SearchResult is one (document, score, metadata) tuple returned by a
// vector or text search provider. Scores are expected in [0, 1].
type SearchResult struct {
	DocumentID string   `json:"document_id"`
	Score      float64  `json:"score"`
	Metadata   Metadata `json:"metadata,omitempty"`
}
