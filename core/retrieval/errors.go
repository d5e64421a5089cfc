package retrieval

import (
	"errors"
	"fmt"
)

// KnowledgeNotFoundError is returned when zero documents survive
// weighting and filtering. It carries the original query text and is
// recoverable by the caller.
type KnowledgeNotFoundError struct {
	Query string
}

func (e *KnowledgeNotFoundError) Error() string {
	return fmt.Sprintf("no relevant knowledge found for query '%s'", e.Query)
}

// IsKnowledgeNotFound reports whether err wraps a KnowledgeNotFoundError
func IsKnowledgeNotFound(err error) bool {
	var notFound *KnowledgeNotFoundError
	return errors.As(err, &notFound)
}
