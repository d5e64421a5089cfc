package model

// CandidateRecord is a per-fusion-round accumulator for one document.
// Records live only for the duration of one ranking call; the ranker
// merges per-source scores and metadata into them before scoring.
type CandidateRecord struct {
	DocumentID  string   `json:"document_id"`
	GraphScore  float64  `json:"graph_score"`
	VectorScore float64  `json:"vector_score"`
	TextScore   float64  `json:"text_score"`
	Score       float64  `json:"score"`
	Confidence  float64  `json:"confidence"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

// ComponentScores returns the per-source scores keyed by source name.
func (c *CandidateRecord) ComponentScores() map[string]float64 {
	return map[string]float64{
		SourceGraph:  c.GraphScore,
		SourceVector: c.VectorScore,
		SourceText:   c.TextScore,
	}
}
