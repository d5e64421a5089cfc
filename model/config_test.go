package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultEngineConfig(t *testing.T) {
	t.Run("Default configuration", func(t *testing.T) {
		config := DefaultEngineConfig()

		assert.Equal(t, 5, config.TopK)
		assert.Equal(t, 0.05, config.ScoreFloor)
		assert.Equal(t, 0.1, config.ConfidenceFloor)
		assert.Equal(t, 25, config.ExperimentInterval)
		assert.Equal(t, 5, config.ExperimentTopK)
		assert.Equal(t, 0.1, config.LearningRate)
		assert.Equal(t, 100, config.FeedbackSampleSize)
		assert.Equal(t, 500, config.FeedbackBufferSize)
		assert.Equal(t, DefaultWeightVector(), config.Weights)
	})
}
