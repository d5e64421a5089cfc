package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/siherrmann/fuser/core/feedback"
	"github.com/siherrmann/fuser/core/ranking"
	"github.com/siherrmann/fuser/model"
)

// Engine drives one retrieval round end-to-end: it collects the three
// candidate streams from the providers, fuses them with the active
// weights, periodically triggers weight experiments and applies
// feedback-driven weight replacements.
//
// Engines are safe for concurrent use; the only cross-call state is the
// ranker's active weight vector and the query counter.
type Engine struct {
	graph    GraphContextProvider
	vectors  VectorSearcher
	embedder EmbeddingProvider
	texts    TextSearcher
	ranker   *ranking.Ranker
	feedback *feedback.Manager
	config   model.EngineConfig
	log      *slog.Logger

	queries         atomic.Uint64
	experimentsRun  atomic.Uint64
	experimentsSync bool
}

// NewEngine creates a new retrieval engine. The graph, vector and
// embedding providers are required; a nil text searcher falls back to a
// substring match over the graph context.
func NewEngine(
	graph GraphContextProvider,
	vectors VectorSearcher,
	embedder EmbeddingProvider,
	texts TextSearcher,
	ranker *ranking.Ranker,
	feedbackManager *feedback.Manager,
	config model.EngineConfig,
	logger *slog.Logger,
) (*Engine, error) {
	if graph == nil || vectors == nil || embedder == nil {
		return nil, fmt.Errorf("graph, vector and embedding providers are required")
	}
	if texts == nil {
		texts = NewContextTextSearcher()
	}
	if ranker == nil {
		ranker = ranking.NewRanker(config.Weights)
	}
	if feedbackManager == nil {
		feedbackManager = feedback.NewManager(nil, config.FeedbackBufferSize, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		graph:    graph,
		vectors:  vectors,
		embedder: embedder,
		texts:    texts,
		ranker:   ranker,
		feedback: feedbackManager,
		config:   config,
		log:      logger,
	}, nil
}

// Ranker returns the engine's rank fusion component
func (e *Engine) Ranker() *ranking.Ranker {
	return e.ranker
}

// Feedback returns the engine's feedback manager
func (e *Engine) Feedback() *feedback.Manager {
	return e.feedback
}

// Weights returns a snapshot of the active weight vector
func (e *Engine) Weights() model.WeightVector {
	return e.ranker.Weights()
}

// ExperimentRuns returns the number of experiment passes triggered by
// the query cadence so far
func (e *Engine) ExperimentRuns() uint64 {
	return e.experimentsRun.Load()
}

// Retrieve runs one retrieval round for the query and returns the fused,
// filtered and cited result set. It fails with a KnowledgeNotFoundError
// when no documents survive weighting and filtering; provider failures
// propagate unchanged.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int) (*model.RetrievalSummary, error) {
	if topK <= 0 {
		topK = e.config.TopK
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Graph expansion feeds text search on one track; embedding feeds
	// vector search on the other. The tracks run concurrently and join
	// before fusion.
	var (
		graphContext  []*model.GraphContextEntry
		textResults   []*model.SearchResult
		vectorResults []*model.SearchResult
		graphErr      error
		vectorErr     error
		wg            sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		graphContext, graphErr = e.graph.Expand(ctx, query)
		if graphErr != nil {
			cancel()
			return
		}
		textResults, graphErr = e.texts.Search(ctx, query, graphContext)
		if graphErr != nil {
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		var embedding []float32
		embedding, vectorErr = e.embedQuery(ctx, query)
		if vectorErr != nil {
			cancel()
			return
		}
		vectorResults, vectorErr = e.vectors.Search(ctx, embedding, topK)
		if vectorErr != nil {
			cancel()
		}
	}()
	wg.Wait()

	if graphErr != nil {
		return nil, graphErr
	}
	if vectorErr != nil {
		return nil, vectorErr
	}

	weights := e.ranker.Weights()
	ranked := e.ranker.Rank(graphContext, vectorResults, textResults, weights)

	e.maybeRunExperiments(graphContext, vectorResults, textResults)

	if len(ranked) == 0 {
		return nil, &KnowledgeNotFoundError{Query: query}
	}

	documents := e.buildDocuments(ranked)
	if len(documents) == 0 {
		return nil, &KnowledgeNotFoundError{Query: query}
	}

	precision, recall := calculateMetrics(documents, graphContext)

	return &model.RetrievalSummary{
		Documents: documents,
		Precision: precision,
		Recall:    recall,
		Sources:   flattenCitations(documents),
		Weights:   weights,
	}, nil
}

// VectorOnly retrieves with vector search alone, bypassing the graph and
// text streams. Used for baseline comparison; an empty result set is
// returned as-is, not as an error.
func (e *Engine) VectorOnly(ctx context.Context, query string, topK int) (*model.RetrievalSummary, error) {
	if topK <= 0 {
		topK = e.config.TopK
	}

	embedding, err := e.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	vectorResults, err := e.vectors.Search(ctx, embedding, topK)
	if err != nil {
		return nil, err
	}

	ranked := make([]*model.CandidateRecord, 0, len(vectorResults))
	for _, result := range vectorResults {
		if result.DocumentID == "" {
			continue
		}
		metadata := model.Metadata{}
		metadata.FillFrom(result.Metadata)
		ranked = append(ranked, &model.CandidateRecord{
			DocumentID:  result.DocumentID,
			VectorScore: result.Score,
			Score:       result.Score,
			Confidence:  min(max(result.Score, 0.0), 1.0),
			Metadata:    metadata,
		})
	}

	documents := e.buildDocuments(ranked)
	precision, recall := calculateMetrics(documents, nil)

	return &model.RetrievalSummary{
		Documents: documents,
		Precision: precision,
		Recall:    recall,
		Sources:   flattenCitations(documents),
		Weights:   model.WeightVector{model.SourceVector: 1.0},
	}, nil
}

// RecordFeedback records the signal and immediately replaces the active
// weight vector with the feedback-adjusted recommendation. Adaptation is
// effective starting with the next Retrieve call.
func (e *Engine) RecordFeedback(signal *model.FeedbackSignal) {
	e.feedback.Record(signal)

	recommended := e.feedback.RecommendWeights(e.ranker.Weights(), e.config.LearningRate, e.config.FeedbackSampleSize)
	e.ranker.UpdateDefaultWeights(recommended)
}

// RunExperiments evaluates candidate weight vectors against the streams
// of a fresh retrieval round for the query and installs the best one
func (e *Engine) RunExperiments(ctx context.Context, query string, config *ranking.ExperimentConfig) ([]model.RankingExperimentResult, error) {
	graphContext, err := e.graph.Expand(ctx, query)
	if err != nil {
		return nil, err
	}
	textResults, err := e.texts.Search(ctx, query, graphContext)
	if err != nil {
		return nil, err
	}
	embedding, err := e.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	vectorResults, err := e.vectors.Search(ctx, embedding, e.config.TopK)
	if err != nil {
		return nil, err
	}

	return e.ranker.RunExperiments(graphContext, vectorResults, textResults, config), nil
}

// maybeRunExperiments fires a detached experiment pass every
// ExperimentInterval queries. The pass never blocks or fails retrieval;
// its weight replacement commits only after the full pass completes.
func (e *Engine) maybeRunExperiments(
	graphContext []*model.GraphContextEntry,
	vectorResults []*model.SearchResult,
	textResults []*model.SearchResult,
) {
	interval := e.config.ExperimentInterval
	if interval <= 0 {
		return
	}
	if e.queries.Add(1)%uint64(interval) != 0 {
		return
	}

	e.experimentsRun.Add(1)

	run := func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				e.log.Error("Weight experiment pass failed", slog.Any("panic", recovered))
			}
		}()

		started := time.Now()
		experiments := e.ranker.RunExperiments(graphContext, vectorResults, textResults, &ranking.ExperimentConfig{
			TopK: e.config.ExperimentTopK,
		})
		e.log.Info("Completed weight experiment pass",
			slog.Int("candidates", len(experiments)),
			slog.Duration("took", time.Since(started)),
		)
	}

	if e.experimentsSync {
		run()
		return
	}
	go run()
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := e.embedder.Generate(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, nil
	}
	return embeddings[0], nil
}

// buildDocuments turns ranked candidates into externally visible
// documents. A candidate is dropped only when both its fused score and
// its confidence fall at or below the configured floors.
func (e *Engine) buildDocuments(ranked []*model.CandidateRecord) []*model.RetrievalDocument {
	now := time.Now().UTC()

	documents := make([]*model.RetrievalDocument, 0, len(ranked))
	for _, candidate := range ranked {
		if candidate.Score <= e.config.ScoreFloor && candidate.Confidence <= e.config.ConfidenceFloor {
			continue
		}

		citation := model.Citation{
			SourceID:        candidate.DocumentID,
			DocumentName:    candidate.Metadata.String("title", "Unknown"),
			PageNumber:      metadataPageNumber(candidate.Metadata),
			ConfidenceScore: candidate.Score,
			Timestamp:       now,
			DirectLink:      candidate.Metadata.String("direct_link", ""),
		}

		documents = append(documents, &model.RetrievalDocument{
			DocumentID:      candidate.DocumentID,
			Score:           candidate.Score,
			Confidence:      candidate.Confidence,
			ComponentScores: candidate.ComponentScores(),
			Metadata:        candidate.Metadata,
			Citations:       []model.Citation{citation},
		})
	}

	return documents
}

// calculateMetrics computes precision and recall against the document
// IDs the graph context declared. An empty declared set reports 0/0 by
// convention.
func calculateMetrics(documents []*model.RetrievalDocument, graphContext []*model.GraphContextEntry) (float64, float64) {
	if len(documents) == 0 {
		return 0.0, 0.0
	}

	relevant := map[string]bool{}
	for _, entry := range graphContext {
		if entry.DocumentID != "" {
			relevant[entry.DocumentID] = true
		}
	}
	if len(relevant) == 0 {
		return 0.0, 0.0
	}

	hits := 0
	for _, document := range documents {
		if relevant[document.DocumentID] {
			hits++
		}
	}

	precision := float64(hits) / float64(len(documents))
	recall := float64(hits) / float64(len(relevant))
	return precision, recall
}

func flattenCitations(documents []*model.RetrievalDocument) []model.Citation {
	citations := make([]model.Citation, 0, len(documents))
	for _, document := range documents {
		citations = append(citations, document.Citations...)
	}
	return citations
}

// metadataPageNumber extracts an optional page number, handling both
// in-memory ints and JSONB round-tripped floats
func metadataPageNumber(metadata model.Metadata) *int {
	switch value := metadata["page_number"].(type) {
	case int:
		return &value
	case float64:
		page := int(value)
		return &page
	default:
		return nil
	}
}
