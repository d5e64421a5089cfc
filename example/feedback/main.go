package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/fuser"
	"github.com/siherrmann/fuser/model"
)

func main() {
	f, err := fuser.NewOfflineFuser(model.DefaultEngineConfig())
	if err != nil {
		log.Fatalf("Failed to create fuser: %v", err)
	}
	defer f.Close()

	queryText := "What is the incident escalation process?"

	summary, err := f.Retrieve(context.Background(), queryText, 5)
	if err != nil {
		log.Fatalf("Failed to retrieve: %v", err)
	}

	fmt.Printf("Initial weights: %v\n", f.Weights())

	// Rate the top document as helpful, carrying its component scores so
	// the weight adaptation knows which signals earned the judgment
	top := summary.Documents[0]
	signal := model.NewFeedbackSignal(queryText, top.DocumentID, "user-1", true, 1.0, "ui", model.Metadata{
		model.MetadataKeyComponentScores: top.ComponentScores,
	})
	f.RecordFeedback(signal)

	fmt.Printf("Weights after feedback: %v\n", f.Weights())

	// Review what was recorded
	recent := f.RecentFeedback(10)
	fmt.Printf("\nRecorded %d feedback signals:\n", len(recent))
	for _, s := range recent {
		fmt.Printf("  %s on %s (helpful=%t, score=%.1f, channel=%s)\n", s.UserID, s.DocumentID, s.Helpful, s.Score, s.Channel)
	}

	// Explicitly explore alternative weight vectors for this query
	experiments, err := f.RunExperiments(context.Background(), queryText, nil)
	if err != nil {
		log.Fatalf("Failed to run experiments: %v", err)
	}

	best := experiments[0]
	for _, result := range experiments[1:] {
		if result.Score > best.Score {
			best = result
		}
	}
	fmt.Printf("\nEvaluated %d weight candidates\n", len(experiments))
	fmt.Printf("Best: %v -> objective %.4f (coverage %.4f, diversity %.4f)\n", best.Weights, best.Score, best.Coverage, best.Diversity)

	fmt.Printf("\nActive weights after experimentation: %v\n", f.Weights())

	fmt.Println("\nFeedback example completed successfully!")
}
