package retrieval

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/siherrmann/fuser/model"
	"github.com/viterin/vek/vek32"
)

// contextTextScore is the fixed match score for the plain substring text
// searcher. Lexical backends with real relevance scores replace it.
const contextTextScore = 0.6

// KnowledgeItem is one seed document for the offline providers
type KnowledgeItem struct {
	DocumentID string
	Title      string
	Summary    string
	Source     string
	DirectLink string
	Entities   []string
	PageNumber int
}

// Metadata returns the item's fields as retrieval metadata
func (k KnowledgeItem) Metadata() model.Metadata {
	return model.Metadata{
		"title":       k.Title,
		"summary":     k.Summary,
		"source":      k.Source,
		"direct_link": k.DirectLink,
		"page_number": k.PageNumber,
	}
}

// FallbackKnowledgeBase returns the built-in seed documents used by the
// offline providers for development and testing
func FallbackKnowledgeBase() []KnowledgeItem {
	return []KnowledgeItem{
		{
			DocumentID: "doc-aws-infra",
			Title:      "AWS Infrastructure Ownership",
			Summary:    "The AWS infrastructure is managed by the SRE platform team led by the Infra Lead.",
			Source:     "confluence",
			DirectLink: "https://confluence.local/aws-infra",
			Entities:   []string{"AWS", "Infrastructure", "SRE", "Infra Lead"},
			PageNumber: 4,
		},
		{
			DocumentID: "doc-incident-runbook",
			Title:      "High Severity Incident Runbook",
			Summary:    "Runbook outlining steps to mitigate high severity incidents involving core services.",
			Source:     "notion",
			DirectLink: "https://notion.local/runbooks/high-sev",
			Entities:   []string{"Incident", "Runbook", "Infra Lead"},
			PageNumber: 2,
		},
		{
			DocumentID: "doc-oncall-rotation",
			Title:      "On-call Rotation",
			Summary:    "Infra On-call rotation includes Infra Lead and SRE Backup for after-hours coverage.",
			Source:     "slack",
			DirectLink: "https://slack.local/archives/oncall",
			Entities:   []string{"On-call", "Infra Lead", "SRE Backup"},
			PageNumber: 1,
		},
	}
}

// InMemoryGraphProvider serves graph context from a fixed knowledge base
// by token overlap between the query and each item's summary and entities
type InMemoryGraphProvider struct {
	knowledge []KnowledgeItem
}

// NewInMemoryGraphProvider creates a graph provider over the given items
func NewInMemoryGraphProvider(knowledge []KnowledgeItem) *InMemoryGraphProvider {
	return &InMemoryGraphProvider{knowledge: knowledge}
}

// Expand returns one context entry per item sharing a token with the query
func (p *InMemoryGraphProvider) Expand(ctx context.Context, query string) ([]*model.GraphContextEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTokens := tokenSet(query)
	var entries []*model.GraphContextEntry
	for _, item := range p.knowledge {
		itemTokens := tokenSet(item.Summary)
		for _, entity := range item.Entities {
			itemTokens[strings.ToLower(entity)] = true
		}

		if !overlaps(queryTokens, itemTokens) {
			continue
		}

		entries = append(entries, &model.GraphContextEntry{
			DocumentID: item.DocumentID,
			Nodes:      item.Entities,
			Metadata:   item.Metadata(),
		})
	}
	return entries, nil
}

// InMemoryVectorStore is a vector searcher over embeddings held in
// memory, scored by cosine similarity. Intended for offline development
// and tests; pgvector serves the same contract in production.
type InMemoryVectorStore struct {
	mu    sync.RWMutex
	items map[string]vectorItem
}

type vectorItem struct {
	embedding []float32
	metadata  model.Metadata
}

// NewInMemoryVectorStore creates an empty in-memory vector store
func NewInMemoryVectorStore() *InMemoryVectorStore {
	return &InMemoryVectorStore{items: map[string]vectorItem{}}
}

// Upsert stores or replaces the embedding and metadata for a document
func (s *InMemoryVectorStore) Upsert(documentID string, embedding []float32, metadata model.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[documentID] = vectorItem{embedding: embedding, metadata: metadata}
}

// Search returns the topK most similar documents by cosine similarity,
// negative similarities clamped to 0
func (s *InMemoryVectorStore) Search(ctx context.Context, embedding []float32, topK int) ([]*model.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	results := make([]*model.SearchResult, 0, len(s.items))
	for documentID, item := range s.items {
		results = append(results, &model.SearchResult{
			DocumentID: documentID,
			Score:      max(cosineSimilarity(embedding, item.embedding), 0.0),
			Metadata:   item.metadata,
		})
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// SeedVectorStore embeds each item's title and summary and upserts it
func SeedVectorStore(ctx context.Context, store *InMemoryVectorStore, embedder EmbeddingProvider, knowledge []KnowledgeItem) error {
	texts := make([]string, 0, len(knowledge))
	for _, item := range knowledge {
		texts = append(texts, item.Title+" "+item.Summary)
	}

	embeddings, err := embedder.Generate(ctx, texts)
	if err != nil {
		return err
	}

	for i, item := range knowledge {
		store.Upsert(item.DocumentID, embeddings[i], item.Metadata())
	}
	return nil
}

// ContextTextSearcher matches the query as a substring of each context
// entry's summary, scoring matches with a fixed placeholder score
type ContextTextSearcher struct{}

// NewContextTextSearcher creates the default text searcher
func NewContextTextSearcher() *ContextTextSearcher {
	return &ContextTextSearcher{}
}

// Search scans the graph context for summary substring matches
func (t *ContextTextSearcher) Search(ctx context.Context, query string, graphContext []*model.GraphContextEntry) ([]*model.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalizedQuery := strings.ToLower(query)
	var results []*model.SearchResult
	for _, entry := range graphContext {
		if entry.DocumentID == "" {
			continue
		}
		summary := entry.Metadata.String("summary", "")
		if summary == "" || !strings.Contains(strings.ToLower(summary), normalizedQuery) {
			continue
		}
		results = append(results, &model.SearchResult{
			DocumentID: entry.DocumentID,
			Score:      contextTextScore,
			Metadata:   entry.Metadata,
		})
	}
	return results, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0.0
	}

	normA := math.Sqrt(float64(vek32.Dot(a, a)))
	normB := math.Sqrt(float64(vek32.Dot(b, b)))
	if normA == 0 || normB == 0 {
		return 0.0
	}

	return float64(vek32.Dot(a, b)) / (normA * normB)
}

func tokenSet(text string) map[string]bool {
	tokens := map[string]bool{}
	for _, token := range strings.Fields(strings.ToLower(text)) {
		tokens[token] = true
	}
	return tokens
}

func overlaps(a, b map[string]bool) bool {
	for token := range a {
		if b[token] {
			return true
		}
	}
	return false
}
