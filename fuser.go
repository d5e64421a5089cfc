package fuser

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/fuser/core/embedding"
	"github.com/siherrmann/fuser/core/feedback"
	"github.com/siherrmann/fuser/core/lexical"
	"github.com/siherrmann/fuser/core/ranking"
	"github.com/siherrmann/fuser/core/retrieval"
	"github.com/siherrmann/fuser/database"
	"github.com/siherrmann/fuser/helper"
	"github.com/siherrmann/fuser/model"
	loadSql "github.com/siherrmann/fuser/sql"
)

// hugotEmbeddingDim is the dimensionality of the default
// all-MiniLM-L6-v2 sentence transformer embeddings
const hugotEmbeddingDim = 384

// Fuser provides a unified interface to hybrid retrieval with
// feedback-tuned rank fusion
type Fuser struct {
	DB       *helper.Database
	Feedback *database.FeedbackDBHandler
	Vectors  *database.VectorsDBHandler
	Memory   *retrieval.InMemoryVectorStore
	Lexical  *lexical.Index
	Engine   *retrieval.Engine
	// Embedding
	embedder retrieval.EmbeddingProvider
	// Logging
	log *slog.Logger
}

// NewFuser creates a Fuser backed by PostgreSQL: feedback signals and
// document embeddings are stored durably, embeddings come from the
// default hugot sentence transformer. The graph context provider is an
// external capability and must be supplied; a nil text searcher falls
// back to substring matching over the graph context.
func NewFuser(
	dbConfig *helper.DatabaseConfiguration,
	engineConfig model.EngineConfig,
	graph retrieval.GraphContextProvider,
	texts retrieval.TextSearcher,
) (*Fuser, error) {
	if graph == nil {
		return nil, helper.NewError("provider validation", fmt.Errorf("graph context provider is required"))
	}

	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("fuser", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	feedbackHandler, err := database.NewFeedbackDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create feedback handler", err)
	}

	vectorsHandler, err := database.NewVectorsDBHandler(db, hugotEmbeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create vectors handler", err)
	}

	embedder, err := embedding.DefaultEmbedder()
	if err != nil {
		return nil, helper.NewError("create default embedder", err)
	}

	ranker := ranking.NewRanker(engineConfig.Weights)
	feedbackManager := feedback.NewManager(feedbackHandler, engineConfig.FeedbackBufferSize, logger)

	engine, err := retrieval.NewEngine(graph, vectorsHandler, embedder, texts, ranker, feedbackManager, engineConfig, logger)
	if err != nil {
		return nil, helper.NewError("create retrieval engine", err)
	}

	return &Fuser{
		DB:       db,
		Feedback: feedbackHandler,
		Vectors:  vectorsHandler,
		Engine:   engine,
		embedder: embedder,
		log:      logger,
	}, nil
}

// NewOfflineFuser creates a fully in-memory Fuser seeded with the
// built-in fallback knowledge base: deterministic local embeddings, an
// in-memory vector store and a bleve lexical index. No database or model
// download is needed; intended for development and testing.
func NewOfflineFuser(engineConfig model.EngineConfig) (*Fuser, error) {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	knowledge := retrieval.FallbackKnowledgeBase()
	embedder := embedding.NewLocalEmbedder(0)
	graph := retrieval.NewInMemoryGraphProvider(knowledge)

	store := retrieval.NewInMemoryVectorStore()
	err := retrieval.SeedVectorStore(context.Background(), store, embedder, knowledge)
	if err != nil {
		return nil, helper.NewError("seed vector store", err)
	}

	index, err := lexical.NewIndex()
	if err != nil {
		return nil, helper.NewError("create lexical index", err)
	}
	for _, item := range knowledge {
		err := index.Add(lexical.Document{
			DocumentID: item.DocumentID,
			Title:      item.Title,
			Summary:    item.Summary,
			Source:     item.Source,
			DirectLink: item.DirectLink,
			Entities:   item.Entities,
			PageNumber: item.PageNumber,
		})
		if err != nil {
			return nil, helper.NewError("index knowledge item", err)
		}
	}

	ranker := ranking.NewRanker(engineConfig.Weights)
	feedbackManager := feedback.NewManager(nil, engineConfig.FeedbackBufferSize, logger)

	engine, err := retrieval.NewEngine(graph, store, embedder, index, ranker, feedbackManager, engineConfig, logger)
	if err != nil {
		return nil, helper.NewError("create retrieval engine", err)
	}

	return &Fuser{
		Memory:   store,
		Lexical:  index,
		Engine:   engine,
		embedder: embedder,
		log:      logger,
	}, nil
}

// Retrieve answers a query with the fused, confidence-scored result set
func (f *Fuser) Retrieve(ctx context.Context, query string, topK int) (*model.RetrievalSummary, error) {
	return f.Engine.Retrieve(ctx, query, topK)
}

// VectorSearch answers a query with vector similarity alone, as a
// baseline against the fused retrieval
func (f *Fuser) VectorSearch(ctx context.Context, query string, topK int) (*model.RetrievalSummary, error) {
	return f.Engine.VectorOnly(ctx, query, topK)
}

// RecordFeedback records a user judgment and adapts the active fusion
// weights. Fire-and-forget: it never fails on store availability.
func (f *Fuser) RecordFeedback(signal *model.FeedbackSignal) {
	f.Engine.RecordFeedback(signal)
}

// RecentFeedback returns the most recently recorded feedback signals
func (f *Fuser) RecentFeedback(limit int) []*model.FeedbackSignal {
	return f.Engine.Feedback().Recent(limit)
}

// RunExperiments evaluates alternative weight vectors against a fresh
// retrieval round for the query and installs the best one
func (f *Fuser) RunExperiments(ctx context.Context, query string, config *ranking.ExperimentConfig) ([]model.RankingExperimentResult, error) {
	return f.Engine.RunExperiments(ctx, query, config)
}

// UpdateDefaultWeights normalizes and installs new fusion weights
func (f *Fuser) UpdateDefaultWeights(weights model.WeightVector) {
	f.Engine.Ranker().UpdateDefaultWeights(weights)
}

// Weights returns a snapshot of the active fusion weights
func (f *Fuser) Weights() model.WeightVector {
	return f.Engine.Weights()
}

// IndexDocument embeds the given text and stores it for vector search,
// also adding it to the lexical index when one is configured
func (f *Fuser) IndexDocument(ctx context.Context, documentID string, text string, metadata model.Metadata) error {
	embeddings, err := f.embedder.Generate(ctx, []string{text})
	if err != nil {
		return helper.NewError("generate embedding", err)
	}
	if len(embeddings) == 0 {
		return helper.NewError("generate embedding", fmt.Errorf("no embedding generated"))
	}

	switch {
	case f.Vectors != nil:
		err = f.Vectors.InsertVector(documentID, embeddings[0], metadata)
		if err != nil {
			return helper.NewError("insert vector", err)
		}
	case f.Memory != nil:
		f.Memory.Upsert(documentID, embeddings[0], metadata)
	default:
		return helper.NewError("index document", fmt.Errorf("no vector store configured"))
	}

	if f.Lexical != nil {
		err = f.Lexical.Add(lexical.Document{
			DocumentID: documentID,
			Title:      metadata.String("title", ""),
			Summary:    metadata.String("summary", text),
			Source:     metadata.String("source", ""),
			DirectLink: metadata.String("direct_link", ""),
		})
		if err != nil {
			return helper.NewError("index document text", err)
		}
	}

	f.log.Info("Indexed document", slog.String("document_id", documentID))

	return nil
}

// Close releases the lexical index, the embedder and the database
// connection
func (f *Fuser) Close() error {
	if f.Lexical != nil {
		if err := f.Lexical.Close(); err != nil {
			return err
		}
	}
	if closer, ok := f.embedder.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	if f.DB != nil && f.DB.Instance != nil {
		return f.DB.Instance.Close()
	}
	return nil
}
