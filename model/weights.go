package model

// Source names for the three retrieval signals.
const (
	SourceGraph  = "graph"
	SourceVector = "vector"
	SourceText   = "text"
)

// Sources lists all ranking sources in canonical order.
var Sources = []string{SourceGraph, SourceVector, SourceText}

// WeightVector maps a source name to its non-negative fusion weight.
// The active vector held by the ranker is always normalized to sum 1;
// replacement is whole-vector, never per-field.
type WeightVector map[string]float64

// DefaultWeightVector returns the initial fusion weights.
func DefaultWeightVector() WeightVector {
	return WeightVector{
		SourceGraph:  0.35,
		SourceVector: 0.5,
		SourceText:   0.15,
	}
}

// Sum returns the total of all weights.
func (w WeightVector) Sum() float64 {
	total := 0.0
	for _, value := range w {
		total += value
	}
	return total
}

// Clone returns an independent copy of the vector.
func (w WeightVector) Clone() WeightVector {
	cloned := make(WeightVector, len(w))
	for source, value := range w {
		cloned[source] = value
	}
	return cloned
}

// Normalized returns a new vector scaled to sum 1.
// A zero-sum vector is returned as an unscaled copy.
func (w WeightVector) Normalized() WeightVector {
	total := w.Sum()
	if total == 0 {
		total = 1.0
	}
	normalized := make(WeightVector, len(w))
	for source, value := range w {
		normalized[source] = value / total
	}
	return normalized
}
