package model

// Relationship represents a typed connection between two graph nodes.
type Relationship struct {
	Type  string `json:"type"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// GraphContextEntry is one document neighborhood returned by graph expansion.
// Entries without a document ID carry no ranking signal and are ignored.
type GraphContextEntry struct {
	DocumentID    string         `json:"document_id"`
	Nodes         []string       `json:"nodes"`
	Relationships []Relationship `json:"relationships,omitempty"`
	Metadata      Metadata       `json:"metadata,omitempty"`
}
