package embedding

import (
	"context"
	"strings"
)

// localModulus folds token character sums into a stable [0, 1) range
const localModulus = 997

// LocalEmbedder is a deterministic, offline embedding generator for
// development and testing. Identical texts always produce identical
// vectors; no model download is needed.
type LocalEmbedder struct {
	dimensions int
}

// NewLocalEmbedder creates a local embedder. A dimensions value <= 0
// defaults to 32.
func NewLocalEmbedder(dimensions int) *LocalEmbedder {
	if dimensions <= 0 {
		dimensions = 32
	}
	return &LocalEmbedder{dimensions: dimensions}
}

// Dimensions returns the embedding dimensionality
func (e *LocalEmbedder) Dimensions() int {
	return e.dimensions
}

// Generate produces one embedding per input text; empty input yields
// empty output
func (e *LocalEmbedder) Generate(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	embeddings := make([][]float32, 0, len(texts))
	for _, text := range texts {
		embeddings = append(embeddings, e.encode(text))
	}
	return embeddings, nil
}

// encode folds each of the first dimensions tokens into one vector slot
func (e *LocalEmbedder) encode(text string) []float32 {
	vector := make([]float32, e.dimensions)
	tokens := strings.Fields(strings.ToLower(text))

	for index, token := range tokens {
		if index >= e.dimensions {
			break
		}
		tokenValue := 0
		for _, character := range token {
			tokenValue += int(character)
		}
		vector[index] = float32(tokenValue%localModulus) / localModulus
	}

	return vector
}
