package ranking

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/siherrmann/fuser/model"
)

// weightEpsilon guards the confidence division against zero-sum weights
const weightEpsilon = 1e-6

// relationshipWeight is the contribution of one graph relationship relative
// to one graph node when scoring graph context
const relationshipWeight = 0.5

// JudgeFunc scores a ranked top-k list with a caller-supplied objective.
// When supplied to RunExperiments it replaces the built-in objective
// entirely and coverage/diversity are reported as 0.
type JudgeFunc func(ranked []*model.CandidateRecord) float64

// ExperimentConfig represents configuration for a weight experiment run
type ExperimentConfig struct {
	// CandidateWeights overrides the generated candidate grid when set
	CandidateWeights []model.WeightVector
	// Judge replaces the built-in objective when set
	Judge JudgeFunc
	// TopK is the number of top results scored per candidate
	TopK int
}

// Ranker combines scores from graph, vector, and text sources into one
// ranked candidate list and tunes its fusion weights over time.
//
// The active WeightVector is held behind an atomic pointer: readers take
// a snapshot per fusion call, writers install a brand-new normalized
// vector. There is no in-place mutation and no rollback.
type Ranker struct {
	weights atomic.Pointer[model.WeightVector]
}

// NewRanker creates a new ranker with the given default weights.
// Nil or empty defaults fall back to model.DefaultWeightVector.
func NewRanker(defaults model.WeightVector) *Ranker {
	if len(defaults) == 0 {
		defaults = model.DefaultWeightVector()
	}
	ranker := &Ranker{}
	normalized := defaults.Normalized()
	ranker.weights.Store(&normalized)
	return ranker
}

// Weights returns a snapshot copy of the active weight vector
func (r *Ranker) Weights() model.WeightVector {
	return (*r.weights.Load()).Clone()
}

// UpdateDefaultWeights normalizes the given weights to sum 1 and installs
// them as the new active vector, replacing the previous one wholesale
func (r *Ranker) UpdateDefaultWeights(weights model.WeightVector) {
	normalized := weights.Normalized()
	r.weights.Store(&normalized)
}

// Rank merges the three candidate streams into one scored, confidence
// annotated list, ordered by descending fused score with ties broken by
// ascending document ID.
//
// Graph scores are counted per context entry as nodes + 0.5*relationships
// and normalized to [0, 1] against the round maximum; vector and text
// scores are taken verbatim. Weights are used as supplied, without
// renormalization. Metadata merges fill gaps only, in the order
// vector, text, graph.
func (r *Ranker) Rank(
	graphContext []*model.GraphContextEntry,
	vectorResults []*model.SearchResult,
	textResults []*model.SearchResult,
	weights model.WeightVector,
) []*model.CandidateRecord {
	if weights == nil {
		weights = r.Weights()
	}

	graphScores := scoreGraph(graphContext)
	candidates := map[string]*model.CandidateRecord{}

	for _, result := range vectorResults {
		if result.DocumentID == "" {
			continue
		}
		candidate := ensureCandidate(candidates, result.DocumentID)
		candidate.VectorScore = result.Score
		candidate.Metadata.FillFrom(result.Metadata)
	}

	for _, result := range textResults {
		if result.DocumentID == "" {
			continue
		}
		candidate := ensureCandidate(candidates, result.DocumentID)
		candidate.TextScore = result.Score
		candidate.Metadata.FillFrom(result.Metadata)
	}

	for documentID, score := range graphScores {
		candidate := ensureCandidate(candidates, documentID)
		candidate.GraphScore = score
	}
	for _, entry := range graphContext {
		if entry.DocumentID == "" {
			continue
		}
		if candidate, exists := candidates[entry.DocumentID]; exists {
			candidate.Metadata.FillFrom(entry.Metadata)
		}
	}

	totalWeight := weights.Sum()
	ranked := make([]*model.CandidateRecord, 0, len(candidates))
	for _, candidate := range candidates {
		components := candidate.ComponentScores()
		score := 0.0
		for source, componentScore := range components {
			score += componentScore * weights[source]
		}
		candidate.Score = score
		candidate.Confidence = computeConfidence(components, weights, totalWeight)
		ranked = append(ranked, candidate)
	}

	// Descending by fused score, ties by ascending document ID
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].DocumentID < ranked[j].DocumentID
	})

	return ranked
}

// RunExperiments evaluates candidate weight vectors against the given
// streams and installs the best one as the new active vector. All
// evaluated candidates are returned for observability.
//
// Without explicit candidates, a grid of per-axis deltas {-0.1, 0, +0.1}
// around the active weights is generated, clamped to >= 0, normalized to
// sum 1 and deduplicated.
func (r *Ranker) RunExperiments(
	graphContext []*model.GraphContextEntry,
	vectorResults []*model.SearchResult,
	textResults []*model.SearchResult,
	config *ExperimentConfig,
) []model.RankingExperimentResult {
	if config == nil {
		config = &ExperimentConfig{}
	}
	topK := config.TopK
	if topK <= 0 {
		topK = 5
	}

	candidates := config.CandidateWeights
	if len(candidates) == 0 {
		candidates = r.generateCandidateWeights(0.1)
	}

	experiments := make([]model.RankingExperimentResult, 0, len(candidates))
	for _, candidate := range candidates {
		ranked := r.Rank(graphContext, vectorResults, textResults, candidate)
		if len(ranked) > topK {
			ranked = ranked[:topK]
		}

		score, coverage, diversity := evaluate(ranked, graphContext, config.Judge)

		topDocuments := make([]string, 0, len(ranked))
		for _, record := range ranked {
			topDocuments = append(topDocuments, record.DocumentID)
		}

		experiments = append(experiments, model.RankingExperimentResult{
			Weights:      candidate.Clone(),
			Score:        score,
			Coverage:     coverage,
			Diversity:    diversity,
			TopDocuments: topDocuments,
		})
	}

	if len(experiments) > 0 {
		best := experiments[0]
		for _, experiment := range experiments[1:] {
			if experiment.Score > best.Score {
				best = experiment
			}
		}
		r.UpdateDefaultWeights(best.Weights)
	}

	return experiments
}

// scoreGraph counts nodes and relationships per document and normalizes
// the counts to [0, 1] against the round maximum. Entries without a
// document ID are ignored.
func scoreGraph(graphContext []*model.GraphContextEntry) map[string]float64 {
	scores := map[string]float64{}
	maxScore := 0.0
	for _, entry := range graphContext {
		if entry.DocumentID == "" {
			continue
		}
		score := float64(len(entry.Nodes)) + relationshipWeight*float64(len(entry.Relationships))
		scores[entry.DocumentID] += score
		if scores[entry.DocumentID] > maxScore {
			maxScore = scores[entry.DocumentID]
		}
	}

	if maxScore > 0 {
		for documentID := range scores {
			scores[documentID] /= maxScore
		}
	}

	return scores
}

// computeConfidence maps the weighted evidence into [0, 1]. Negative
// component scores contribute nothing.
func computeConfidence(components map[string]float64, weights model.WeightVector, totalWeight float64) float64 {
	weightedSum := 0.0
	for source, weight := range weights {
		weightedSum += max(components[source], 0.0) * weight
	}

	confidence := weightedSum / max(totalWeight, weightEpsilon)
	return min(max(confidence, 0.0), 1.0)
}

// evaluate scores a ranked top-k list. With a judge only the score is
// meaningful; otherwise the built-in objective combines mean confidence,
// graph coverage and source diversity as 0.5/0.3/0.2.
func evaluate(ranked []*model.CandidateRecord, graphContext []*model.GraphContextEntry, judge JudgeFunc) (float64, float64, float64) {
	if judge != nil {
		return judge(ranked), 0.0, 0.0
	}

	if len(ranked) == 0 {
		return 0.0, 0.0, 0.0
	}

	graphDocuments := map[string]bool{}
	for _, entry := range graphContext {
		if entry.DocumentID != "" {
			graphDocuments[entry.DocumentID] = true
		}
	}

	hits := 0
	confidenceTotal := 0.0
	sources := map[string]bool{}
	for _, record := range ranked {
		if graphDocuments[record.DocumentID] {
			hits++
		}
		confidenceTotal += record.Confidence
		if source := record.Metadata.String("source", ""); source != "" {
			sources[source] = true
		}
	}

	coverage := float64(hits) / float64(len(ranked))
	diversity := float64(len(sources)) / float64(len(ranked))
	quality := confidenceTotal / float64(len(ranked))
	score := quality*0.5 + coverage*0.3 + diversity*0.2

	return score, coverage, diversity
}

// generateCandidateWeights builds the default candidate grid around the
// active weights, one delta per axis, deduplicated after normalization
func (r *Ranker) generateCandidateWeights(step float64) []model.WeightVector {
	base := r.Weights()
	deltas := []float64{-step, 0.0, step}

	var candidates []model.WeightVector
	seen := map[string]bool{}

	for _, deltaGraph := range deltas {
		for _, deltaVector := range deltas {
			for _, deltaText := range deltas {
				candidate := model.WeightVector{
					model.SourceGraph:  max(0.0, base[model.SourceGraph]+deltaGraph),
					model.SourceVector: max(0.0, base[model.SourceVector]+deltaVector),
					model.SourceText:   max(0.0, base[model.SourceText]+deltaText),
				}
				normalized := candidate.Normalized()

				key := weightKey(normalized)
				if seen[key] {
					continue
				}
				seen[key] = true
				candidates = append(candidates, normalized)
			}
		}
	}

	return candidates
}

// weightKey builds a stable dedup key over the canonical source order
func weightKey(weights model.WeightVector) string {
	parts := make([]string, 0, len(model.Sources))
	for _, source := range model.Sources {
		parts = append(parts, fmt.Sprintf("%s=%.9f", source, weights[source]))
	}
	return strings.Join(parts, ",")
}

// ensureCandidate returns the record for documentID, creating it on first use
func ensureCandidate(candidates map[string]*model.CandidateRecord, documentID string) *model.CandidateRecord {
	if candidate, exists := candidates[documentID]; exists {
		return candidate
	}
	candidate := &model.CandidateRecord{
		DocumentID: documentID,
		Metadata:   model.Metadata{},
	}
	candidates[documentID] = candidate
	return candidate
}
