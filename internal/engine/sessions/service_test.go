package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerrors "crisisline-engine/internal/common/errors"
	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/models"
	"crisisline-engine/internal/store"
)

var volunteerCols = []string{
	"id", "status", "specializations", "languages", "is_active",
	"current_load", "max_concurrent", "average_rating", "response_rate",
	"sessions_count", "hours_volunteered", "burnout_score", "last_active",
	"emergency_responder", "emergency_available", "created_at", "updated_at",
}

type captureAssessor struct {
	volunteer *models.Volunteer
	outcome   models.SessionOutcome
	called    bool
}

func (c *captureAssessor) PostSessionAssessment(_ context.Context, v *models.Volunteer, outcome models.SessionOutcome) {
	c.volunteer = v
	c.outcome = outcome
	c.called = true
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *captureAssessor) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	assessor := &captureAssessor{}
	svc := NewService(Dependencies{
		Volunteers: store.NewVolunteerStore(db, logger.NewNoOpLogger()),
		Assessor:   assessor,
		Audit:      store.NoopAuditSink{},
		Logger:     logger.NewTestLogger(t),
	})
	return svc, mock, assessor
}

func TestCompleteSessionValidation(t *testing.T) {
	svc, _, assessor := newTestService(t)
	ctx := context.Background()

	_, err := svc.CompleteSession(ctx, "v1", models.SessionOutcome{})
	assert.Equal(t, engerrors.ErrCodeValidationFailed, engerrors.CodeOf(err))

	bad := 6.0
	_, err = svc.CompleteSession(ctx, "v1", models.SessionOutcome{
		SessionID: "s1", DurationSeconds: 600, Rating: &bad,
	})
	assert.Equal(t, engerrors.ErrCodeValidationFailed, engerrors.CodeOf(err))

	_, err = svc.CompleteSession(ctx, "v1", models.SessionOutcome{
		SessionID: "s1", DurationSeconds: -1,
	})
	assert.Equal(t, engerrors.ErrCodeValidationFailed, engerrors.CodeOf(err))

	assert.False(t, assessor.called, "invalid outcomes never reach the assessor")
}

func TestCompleteSessionFoldsStatsAndAssesses(t *testing.T) {
	svc, mock, assessor := newTestService(t)

	rating := 4.5
	now := time.Now()
	mock.ExpectQuery(`UPDATE volunteers`).
		WithArgs("v1", 4.5, 0.5).
		WillReturnRows(sqlmock.NewRows(volunteerCols).AddRow(
			"v1", "active", "{}", "{}",
			true, 0, 3, 4.6, 0.9, 11, 25.5, 0.2, now, false, false, now, now,
		))

	outcome := models.SessionOutcome{
		SessionID:       "s1",
		DurationSeconds: 1800,
		Rating:          &rating,
		HighStress:      true,
	}
	v, err := svc.CompleteSession(context.Background(), "v1", outcome)
	require.NoError(t, err)

	assert.Equal(t, 11, v.SessionsCount)
	require.True(t, assessor.called)
	assert.Equal(t, "v1", assessor.volunteer.ID)
	assert.True(t, assessor.outcome.HighStress)
	assert.NoError(t, mock.ExpectationsWereMet())
}
