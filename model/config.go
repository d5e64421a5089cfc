package model

// EngineConfig represents configuration for the retrieval engine
type EngineConfig struct {
	// Retrieval parameters
	TopK int `json:"top_k"`

	// Result filtering: a candidate is dropped only when both its fused
	// score and its confidence fall at or below these floors
	ScoreFloor      float64 `json:"score_floor"`
	ConfidenceFloor float64 `json:"confidence_floor"`

	// Weight experimentation parameters
	ExperimentInterval int `json:"experiment_interval"`
	ExperimentTopK     int `json:"experiment_top_k"`

	// Feedback adaptation parameters
	LearningRate       float64 `json:"learning_rate"`
	FeedbackSampleSize int     `json:"feedback_sample_size"`
	FeedbackBufferSize int     `json:"feedback_buffer_size"`

	// Initial fusion weights
	Weights WeightVector `json:"weights"`
}

// DefaultEngineConfig returns a sensible default configuration
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TopK:               5,
		ScoreFloor:         0.05,
		ConfidenceFloor:    0.1,
		ExperimentInterval: 25,
		ExperimentTopK:     5,
		LearningRate:       0.1,
		FeedbackSampleSize: 100,
		FeedbackBufferSize: 500,
		Weights:            DefaultWeightVector(),
	}
}
