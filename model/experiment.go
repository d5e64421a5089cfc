package model

// RankingExperimentResult holds the outcome metrics for a single weight
// experiment. Results are returned for observability and never persisted
// beyond the triggering retrieval.
type RankingExperimentResult struct {
	Weights      WeightVector `json:"weights"`
	Score        float64      `json:"score"`
	Coverage     float64      `json:"coverage"`
	Diversity    float64      `json:"diversity"`
	TopDocuments []string     `json:"top_documents"`
}
