package lexical

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/siherrmann/fuser/model"
)

// defaultSearchSize caps the number of hits returned per lexical search
const defaultSearchSize = 10

// Document is one entry of the lexical corpus
type Document struct {
	DocumentID string   `json:"document_id"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Source     string   `json:"source"`
	DirectLink string   `json:"direct_link"`
	Entities   []string `json:"entities"`
	PageNumber int      `json:"page_number"`
}

// Index is a bleve-backed in-process text searcher. Scores are
// normalized to [0, 1] against the best hit of each search, so they fuse
// cleanly with the graph and vector signals.
type Index struct {
	index bleve.Index
	size  int
}

// NewIndex creates an empty in-memory lexical index
func NewIndex() (*Index, error) {
	mapping := bleve.NewIndexMapping()
	index, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create lexical index: %w", err)
	}
	return &Index{index: index, size: defaultSearchSize}, nil
}

// Add indexes one document
func (i *Index) Add(document Document) error {
	if document.DocumentID == "" {
		return fmt.Errorf("document ID must not be empty")
	}
	return i.index.Index(document.DocumentID, document)
}

// Search runs a match query over the indexed corpus. The graph context
// is not consulted; the index carries its own corpus.
func (i *Index) Search(ctx context.Context, query string, graphContext []*model.GraphContextEntry) ([]*model.SearchResult, error) {
	request := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	request.Size = i.size
	request.Fields = []string{"*"}

	result, err := i.index.SearchInContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("lexical search failed: %w", err)
	}

	if len(result.Hits) == 0 {
		return nil, nil
	}

	maxScore := result.Hits[0].Score
	for _, hit := range result.Hits {
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}

	results := make([]*model.SearchResult, 0, len(result.Hits))
	for _, hit := range result.Hits {
		score := 0.0
		if maxScore > 0 {
			score = hit.Score / maxScore
		}

		metadata := model.Metadata{}
		for field, value := range hit.Fields {
			if field == "document_id" {
				continue
			}
			metadata[field] = value
		}

		results = append(results, &model.SearchResult{
			DocumentID: hit.ID,
			Score:      score,
			Metadata:   metadata,
		})
	}

	return results, nil
}

// Close releases the underlying index
func (i *Index) Close() error {
	return i.index.Close()
}
