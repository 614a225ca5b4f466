package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	engerrors "crisisline-engine/internal/common/errors"
	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/models"
)

// ErrNotStarted is returned by Complete when no progress record exists for
// the (volunteer, module) pair.
var ErrNotStarted = errors.New("module not started")

const progressColumns = `volunteer_id, module_id, status, score, attempts,
	time_spent_minutes, completed_at, updated_at`

// TrainingStore persists per-(volunteer, module) progress records, retained
// indefinitely for audit.
type TrainingStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewTrainingStore(db *sql.DB, log logger.Logger) *TrainingStore {
	return &TrainingStore{db: db, logger: log}
}

func scanProgress(row rowScanner) (*models.TrainingProgress, error) {
	var p models.TrainingProgress
	err := row.Scan(
		&p.VolunteerID, &p.ModuleID, &p.Status, &p.Score, &p.Attempts,
		&p.TimeSpentMinutes, &p.CompletedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Start creates an in-progress record, or re-opens an existing one without
// losing the attempt counter.
func (s *TrainingStore) Start(ctx context.Context, volunteerID, moduleID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO training_progress (volunteer_id, module_id, status, attempts, time_spent_minutes, updated_at)
		VALUES ($1, $2, 'in_progress', 1, 0, NOW())
		ON CONFLICT (volunteer_id, module_id)
		DO UPDATE SET status = 'in_progress', updated_at = NOW()`,
		volunteerID, moduleID,
	)
	if err != nil {
		return engerrors.NewStoreUnavailableError("training_progress", err)
	}
	return nil
}

// Complete records an attempt outcome. A failing attempt increments the
// attempt counter; a passing one stamps completion.
func (s *TrainingStore) Complete(ctx context.Context, volunteerID, moduleID string, passed bool, score, timeSpentMinutes int) (*models.TrainingProgress, error) {
	status := models.ProgressFailed
	if passed {
		status = models.ProgressCompleted
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE training_progress
		SET status = $3,
		    score = $4,
		    attempts = CASE WHEN $3 = 'failed' THEN attempts + 1 ELSE attempts END,
		    time_spent_minutes = time_spent_minutes + $5,
		    completed_at = CASE WHEN $3 = 'completed' THEN NOW() ELSE completed_at END,
		    updated_at = NOW()
		WHERE volunteer_id = $1 AND module_id = $2
		RETURNING `+progressColumns,
		volunteerID, moduleID, status, score, timeSpentMinutes,
	)

	p, err := scanProgress(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotStarted
		}
		return nil, engerrors.NewStoreUnavailableError("training_progress", err)
	}
	return p, nil
}

// Get loads one progress record.
func (s *TrainingStore) Get(ctx context.Context, volunteerID, moduleID string) (*models.TrainingProgress, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+progressColumns+`
		FROM training_progress
		WHERE volunteer_id = $1 AND module_id = $2`,
		volunteerID, moduleID,
	)

	p, err := scanProgress(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotStarted
		}
		return nil, engerrors.NewStoreUnavailableError("training_progress", err)
	}
	return p, nil
}

// Completed returns the volunteer's completed module ids with their
// completion timestamps, the input to certification derivation.
func (s *TrainingStore) Completed(ctx context.Context, volunteerID string) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT module_id, completed_at
		FROM training_progress
		WHERE volunteer_id = $1 AND status = 'completed'`,
		volunteerID,
	)
	if err != nil {
		return nil, engerrors.NewStoreUnavailableError("training_progress", err)
	}
	defer rows.Close()

	completed := make(map[string]time.Time)
	for rows.Next() {
		var moduleID string
		var completedAt time.Time
		if err := rows.Scan(&moduleID, &completedAt); err != nil {
			return nil, engerrors.NewStoreUnavailableError("training_progress", err)
		}
		completed[moduleID] = completedAt
	}
	if err := rows.Err(); err != nil {
		return nil, engerrors.NewStoreUnavailableError("training_progress", err)
	}
	return completed, nil
}
