package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/fuser/helper"
	"github.com/siherrmann/fuser/model"
	"github.com/siherrmann/fuser/sql"
)

// FeedbackDBHandlerFunctions defines the interface for feedback database operations.
type FeedbackDBHandlerFunctions interface {
	InsertFeedback(signal *model.FeedbackSignal) error
	SelectRecentFeedback(limit int) ([]*model.FeedbackSignal, error)
	CountFeedback() (int64, error)
	DeleteFeedback(rid uuid.UUID) error
}

// FeedbackDBHandler handles feedback-related database operations.
// It serves as the durable store behind the feedback manager.
type FeedbackDBHandler struct {
	db *helper.Database
}

// NewFeedbackDBHandler creates a new feedback database handler.
// It loads feedback-related SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewFeedbackDBHandler(db *helper.Database, force bool) (*FeedbackDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	feedbackDbHandler := &FeedbackDBHandler{
		db: db,
	}

	err := sql.LoadFeedbackSql(feedbackDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load feedback sql", err)
	}

	err = feedbackDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized FeedbackDBHandler")

	return feedbackDbHandler, nil
}

// CreateTable creates the 'feedback' table in the database.
// If the table already exists, it does not create it again.
func (h *FeedbackDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_feedback();`)
	if err != nil {
		return helper.NewError("initialize feedback table", err)
	}

	h.db.Logger.Info("Checked/created table feedback")

	return nil
}

// InsertFeedback inserts a new feedback signal
func (h *FeedbackDBHandler) InsertFeedback(signal *model.FeedbackSignal) error {
	if signal.RID == uuid.Nil {
		signal.RID = uuid.New()
	}
	if signal.CreatedAt.IsZero() {
		signal.CreatedAt = time.Now().UTC()
	}
	if signal.Metadata == nil {
		signal.Metadata = model.Metadata{}
	}

	var id int64
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_feedback($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		signal.RID,
		signal.Query,
		signal.DocumentID,
		signal.UserID,
		signal.Helpful,
		signal.Score,
		signal.Channel,
		signal.Metadata,
		signal.CreatedAt,
	)

	err := row.Scan(
		&id,
		&signal.RID,
		&signal.Query,
		&signal.DocumentID,
		&signal.UserID,
		&signal.Helpful,
		&signal.Score,
		&signal.Channel,
		&signal.Metadata,
		&signal.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRecentFeedback retrieves the most recently created limit signals,
// descending by creation time
func (h *FeedbackDBHandler) SelectRecentFeedback(limit int) ([]*model.FeedbackSignal, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_recent_feedback($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var signals []*model.FeedbackSignal
	for rows.Next() {
		signal := &model.FeedbackSignal{}
		var id int64
		err := rows.Scan(
			&id,
			&signal.RID,
			&signal.Query,
			&signal.DocumentID,
			&signal.UserID,
			&signal.Helpful,
			&signal.Score,
			&signal.Channel,
			&signal.Metadata,
			&signal.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		signals = append(signals, signal)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows", err)
	}

	return signals, nil
}

// CountFeedback returns the total number of stored signals
func (h *FeedbackDBHandler) CountFeedback() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT * FROM count_feedback()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// DeleteFeedback deletes a signal by RID
func (h *FeedbackDBHandler) DeleteFeedback(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(`SELECT delete_feedback($1)`, rid)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
