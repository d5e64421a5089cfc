package retrieval

import (
	"context"

	"github.com/siherrmann/fuser/model"
)

// EmbeddingProvider generates one embedding per input text.
// Empty input yields empty output; dimensionality must stay consistent
// across calls for a given deployment.
type EmbeddingProvider interface {
	Generate(ctx context.Context, texts []string) ([][]float32, error)
}

// GraphContextProvider expands a query into candidate documents with
// their entity and relationship neighborhood. May return an empty list
// for queries with no graph match.
type GraphContextProvider interface {
	Expand(ctx context.Context, query string) ([]*model.GraphContextEntry, error)
}

// VectorSearcher performs similarity search over stored embeddings
type VectorSearcher interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]*model.SearchResult, error)
}

// TextSearcher performs lexical search for a query, optionally informed
// by the graph context of the same retrieval round
type TextSearcher interface {
	Search(ctx context.Context, query string, graphContext []*model.GraphContextEntry) ([]*model.SearchResult, error)
}
