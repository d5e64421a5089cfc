package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/fuser"
	"github.com/siherrmann/fuser/model"
)

func main() {
	// Fully in-memory setup seeded with the built-in knowledge base
	f, err := fuser.NewOfflineFuser(model.DefaultEngineConfig())
	if err != nil {
		log.Fatalf("Failed to create fuser: %v", err)
	}
	defer f.Close()

	queryText := "How do we deploy services on AWS?"

	fmt.Printf("Querying: %s\n", queryText)

	summary, err := f.Retrieve(context.Background(), queryText, 5)
	if err != nil {
		log.Fatalf("Failed to retrieve: %v", err)
	}

	fmt.Printf("\nFound %d documents (precision %.2f, recall %.2f):\n", len(summary.Documents), summary.Precision, summary.Recall)
	for i, doc := range summary.Documents {
		fmt.Printf("\n--- Document %d ---\n", i+1)
		fmt.Printf("ID: %s\n", doc.DocumentID)
		fmt.Printf("Score: %.4f (confidence %.4f)\n", doc.Score, doc.Confidence)
		for source, score := range doc.ComponentScores {
			fmt.Printf("  %s: %.4f\n", source, score)
		}
		for _, citation := range doc.Citations {
			fmt.Printf("Cited: %s (%s)\n", citation.DocumentName, citation.SourceID)
		}
	}

	// Compare against plain vector similarity
	baseline, err := f.VectorSearch(context.Background(), queryText, 5)
	if err != nil {
		log.Fatalf("Failed to run vector search: %v", err)
	}

	fmt.Printf("\nVector-only baseline returned %d documents\n", len(baseline.Documents))

	fmt.Println("\nBasic example completed successfully!")
}
