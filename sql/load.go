package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed feedback.sql
var feedbackSQL string

//go:embed vectors.sql
var vectorsSQL string

// Function lists for verification
var FeedbackFunctions = []string{
	"init_feedback",
	"insert_feedback",
	"select_recent_feedback",
	"count_feedback",
	"delete_feedback",
}

var VectorsFunctions = []string{
	"init_vectors",
	"insert_vector",
	"select_vectors_by_similarity",
	"delete_vector",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadFeedbackSql loads feedback-related SQL functions
func LoadFeedbackSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, FeedbackFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing feedback functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(feedbackSQL)
	if err != nil {
		return fmt.Errorf("error executing feedback SQL: %w", err)
	}

	exist, err := checkFunctions(db, FeedbackFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL feedback functions loaded successfully")
	return nil
}

// LoadVectorsSql loads vector-related SQL functions
func LoadVectorsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, VectorsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing vectors functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(vectorsSQL)
	if err != nil {
		return fmt.Errorf("error executing vectors SQL: %w", err)
	}

	exist, err := checkFunctions(db, VectorsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL vectors functions loaded successfully")
	return nil
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadFeedbackSql(db, force); err != nil {
		return err
	}

	if err := LoadVectorsSql(db, force); err != nil {
		return err
	}

	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
