package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
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

func volunteerRow(id string, status models.Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(volunteerCols).AddRow(
		id, string(status), "{}", "{}",
		status == models.StatusActive, 1, 3, 4.0, 0.9, 5, 10.0, 0.1, now,
		false, false, now, now,
	)
}

type captureSink struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (c *captureSink) Append(_ context.Context, entry models.AuditEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return nil
}

type stubCatalog struct{}

func (stubCatalog) FoundationalTrack() ([]string, float64) {
	return []string{"crisis-basics", "active-listening", "self-care"}, 18
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *miniredis.Miniredis, *captureSink) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	sink := &captureSink{}
	svc := NewService(Dependencies{
		Volunteers:         store.NewVolunteerStore(db, logger.NewNoOpLogger()),
		Wellness:           store.NewWellnessStore(rdb, logger.NewNoOpLogger()),
		Catalog:            stubCatalog{},
		Audit:              sink,
		Logger:             logger.NewTestLogger(t),
		DefaultMaxSessions: 3,
	})
	return svc, mock, mr, sink
}

func TestTransitionRejectsIllegalTarget(t *testing.T) {
	svc, mock, _, sink := newTestService(t)

	mock.ExpectQuery(`SELECT .* FROM volunteers`).
		WithArgs("v1").
		WillReturnRows(volunteerRow("v1", models.StatusTraining))

	err := svc.Transition(context.Background(), "v1", models.StatusActive, "shortcut", "admin")
	assert.Equal(t, engerrors.ErrCodeInvalidTransition, engerrors.CodeOf(err))
	assert.Empty(t, sink.entries, "rejected transitions leave no audit entry")
	assert.NoError(t, mock.ExpectationsWereMet(), "status must not be written")
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.Transition(context.Background(), "v1", models.Status("on_break"), "", "admin")
	assert.Equal(t, engerrors.ErrCodeInvalidTransition, engerrors.CodeOf(err))
}

func TestSuspensionReleasesLoad(t *testing.T) {
	svc, mock, _, sink := newTestService(t)

	mock.ExpectQuery(`SELECT .* FROM volunteers`).
		WithArgs("v1").
		WillReturnRows(volunteerRow("v1", models.StatusActive))
	mock.ExpectExec(`UPDATE volunteers`).
		WithArgs("v1", models.StatusActive, models.StatusSuspended, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE volunteers SET current_load = 0`).
		WithArgs("v1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.Transition(context.Background(), "v1", models.StatusSuspended, "burnout", "system")
	require.NoError(t, err)

	require.Len(t, sink.entries, 1)
	assert.Equal(t, models.AuditStatusTransition, sink.entries[0].Kind)
	assert.Equal(t, models.StatusActive, sink.entries[0].PrevStatus)
	assert.Equal(t, models.StatusSuspended, sink.entries[0].NewStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactivationBlockedByBreakHold(t *testing.T) {
	svc, mock, mr, _ := newTestService(t)
	mr.Set("breakhold:v1", "held")

	mock.ExpectQuery(`SELECT .* FROM volunteers`).
		WithArgs("v1").
		WillReturnRows(volunteerRow("v1", models.StatusSuspended))

	err := svc.Transition(context.Background(), "v1", models.StatusActive, "back", "admin")
	assert.Equal(t, engerrors.ErrCodeBreakHoldActive, engerrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReactivationBlockedByPendingFollowUp(t *testing.T) {
	svc, mock, mr, _ := newTestService(t)
	mr.Set("followup:v1", "pending")

	mock.ExpectQuery(`SELECT .* FROM volunteers`).
		WithArgs("v1").
		WillReturnRows(volunteerRow("v1", models.StatusSuspended))

	err := svc.Transition(context.Background(), "v1", models.StatusActive, "back", "admin")
	assert.Equal(t, engerrors.ErrCodeBreakHoldActive, engerrors.CodeOf(err))
}

func TestReactivationAfterHoldExpiry(t *testing.T) {
	svc, mock, _, _ := newTestService(t)

	mock.ExpectQuery(`SELECT .* FROM volunteers`).
		WithArgs("v1").
		WillReturnRows(volunteerRow("v1", models.StatusSuspended))
	mock.ExpectExec(`UPDATE volunteers`).
		WithArgs("v1", models.StatusSuspended, models.StatusActive, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE volunteers SET last_active`).
		WithArgs("v1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.Transition(context.Background(), "v1", models.StatusActive, "break over", "admin")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionDetectsConcurrentChange(t *testing.T) {
	svc, mock, _, _ := newTestService(t)

	mock.ExpectQuery(`SELECT .* FROM volunteers`).
		WithArgs("v1").
		WillReturnRows(volunteerRow("v1", models.StatusActive))
	mock.ExpectExec(`UPDATE volunteers`).
		WithArgs("v1", models.StatusActive, models.StatusInactive, false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.Transition(context.Background(), "v1", models.StatusInactive, "paused", "admin")
	assert.Equal(t, engerrors.ErrCodeInvalidTransition, engerrors.CodeOf(err))
}

func TestEveryStatusHasAnEffect(t *testing.T) {
	for _, status := range models.AllStatuses {
		_, ok := statusEffects[status]
		assert.True(t, ok, "status %q missing from the effect table", status)
	}
}
