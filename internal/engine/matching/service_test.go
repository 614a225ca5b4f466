package matching

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerrors "crisisline-engine/internal/common/errors"
	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/common/observability"
	"crisisline-engine/internal/models"
	"crisisline-engine/internal/store"
)

// unboundedCapArg mirrors the sentinel the store substitutes when no live
// cap override exists.
const unboundedCapArg = 1 << 30

var volunteerCols = []string{
	"id", "status", "specializations", "languages", "is_active",
	"current_load", "max_concurrent", "average_rating", "response_rate",
	"sessions_count", "hours_volunteered", "burnout_score", "last_active",
	"emergency_responder", "emergency_available", "created_at", "updated_at",
}

type rowSpec struct {
	id       string
	status   string
	load     int
	max      int
	rating   float64
	rate     float64
	burnout  float64
	isActive bool
}

func rowsFor(specs ...rowSpec) *sqlmock.Rows {
	now := time.Now()
	rows := sqlmock.NewRows(volunteerCols)
	for _, s := range specs {
		rows.AddRow(
			s.id, s.status, "{grief}", "{en}",
			s.isActive, s.load, s.max, s.rating, s.rate, 10, 20.0, s.burnout,
			now, false, false, now, now,
		)
	}
	return rows
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *miniredis.Miniredis) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	svc := NewService(Dependencies{
		Volunteers:    store.NewVolunteerStore(db, logger.NewNoOpLogger()),
		Wellness:      store.NewWellnessStore(rdb, logger.NewNoOpLogger()),
		Audit:         store.NoopAuditSink{},
		Observability: observability.NewNoop(),
		Logger:        logger.NewTestLogger(t),
		Config: Config{
			BurnoutThreshold:    0.7,
			RecencyWindow:       30 * time.Minute,
			SelectionLimit:      50,
			EmergencyBudget:     time.Second,
			BaseResponseSeconds: 60,
		},
	})
	return svc, mock, mr
}

func TestAvailableVolunteersAppliesLiveLoadCap(t *testing.T) {
	svc, mock, mr := newTestService(t)

	// cappedOut has load 2 under its own max 4 but a live override of 2.
	mr.Set("loadcap:cappedOut", "2")

	mock.ExpectQuery(`SELECT .* FROM volunteers`).
		WillReturnRows(rowsFor(
			rowSpec{id: "free", status: "active", load: 0, max: 3, rating: 4.0, rate: 0.9, isActive: true},
			rowSpec{id: "cappedOut", status: "active", load: 2, max: 4, rating: 5.0, rate: 1.0, isActive: true},
		))

	profiles, err := svc.AvailableVolunteers(context.Background(), Criteria{})
	require.NoError(t, err)

	require.Len(t, profiles, 1, "a volunteer at their live cap is filtered")
	assert.Equal(t, "free", profiles[0].ID)
	assert.Equal(t, 3, profiles[0].EffectiveMax)
	assert.Greater(t, profiles[0].MatchScore, 0.0)
}

func TestAssignAcquiresSlotAtomically(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`UPDATE volunteers`).
		WithArgs("v1", 0.7, unboundedCapArg).
		WillReturnRows(rowsFor(rowSpec{
			id: "v1", status: "active", load: 2, max: 3,
			rating: 4.5, rate: 0.9, burnout: 0.2, isActive: true,
		}))

	assignment, err := svc.AssignToCrisisSession(context.Background(), "v1", "s1", models.PriorityHigh)
	require.NoError(t, err)

	assert.NotEmpty(t, assignment.ID)
	assert.Equal(t, "v1", assignment.VolunteerID)
	assert.Equal(t, "s1", assignment.SessionID)
	assert.Equal(t, models.PriorityHigh, assignment.Priority)
	assert.Greater(t, assignment.EstimatedResponseTime, time.Duration(0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignAtCapacityIsRejected(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`UPDATE volunteers`).
		WillReturnRows(sqlmock.NewRows(volunteerCols))
	mock.ExpectQuery(`SELECT .* FROM volunteers`).
		WithArgs("v1").
		WillReturnRows(rowsFor(rowSpec{
			id: "v1", status: "active", load: 3, max: 3,
			rating: 4.5, rate: 0.9, burnout: 0.2, isActive: true,
		}))

	_, err := svc.AssignToCrisisSession(context.Background(), "v1", "s1", models.PriorityNormal)
	assert.Equal(t, engerrors.ErrCodeCapacityExceeded, engerrors.CodeOf(err))
	assert.True(t, engerrors.IsContention(err), "caller should re-select")
}

func TestAssignOverBurnoutIsRejected(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`UPDATE volunteers`).
		WillReturnRows(sqlmock.NewRows(volunteerCols))
	mock.ExpectQuery(`SELECT .* FROM volunteers`).
		WithArgs("v1").
		WillReturnRows(rowsFor(rowSpec{
			id: "v1", status: "active", load: 1, max: 3,
			rating: 4.5, rate: 0.9, burnout: 0.85, isActive: true,
		}))

	_, err := svc.AssignToCrisisSession(context.Background(), "v1", "s1", models.PriorityNormal)
	assert.Equal(t, engerrors.ErrCodeBurnoutBlocked, engerrors.CodeOf(err))
}

func TestAssignToSuspendedIsUnavailable(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectQuery(`UPDATE volunteers`).
		WillReturnRows(sqlmock.NewRows(volunteerCols))
	mock.ExpectQuery(`SELECT .* FROM volunteers`).
		WithArgs("v1").
		WillReturnRows(rowsFor(rowSpec{
			id: "v1", status: "suspended", load: 0, max: 3,
			rating: 4.5, rate: 0.9, burnout: 0.2, isActive: false,
		}))

	_, err := svc.AssignToCrisisSession(context.Background(), "v1", "s1", models.PriorityEmergency)
	assert.Equal(t, engerrors.ErrCodeVolunteerUnavailable, engerrors.CodeOf(err))
}

func TestAssignHonorsLiveCapOverride(t *testing.T) {
	svc, mock, mr := newTestService(t)
	mr.Set("loadcap:v1", "1")

	mock.ExpectQuery(`UPDATE volunteers`).
		WithArgs("v1", 0.7, 1).
		WillReturnRows(sqlmock.NewRows(volunteerCols))
	mock.ExpectQuery(`SELECT .* FROM volunteers`).
		WithArgs("v1").
		WillReturnRows(rowsFor(rowSpec{
			id: "v1", status: "active", load: 1, max: 3,
			rating: 4.5, rate: 0.9, burnout: 0.2, isActive: true,
		}))

	_, err := svc.AssignToCrisisSession(context.Background(), "v1", "s1", models.PriorityNormal)
	assert.Equal(t, engerrors.ErrCodeCapacityExceeded, engerrors.CodeOf(err))

	var stdErr *engerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Contains(t, stdErr.Details, "maxConcurrent: 1", "the override cap is the one reported")
}

func TestEstimatedResponseTimeScalesWithLoad(t *testing.T) {
	svc, _, _ := newTestService(t)

	lightlyLoaded := svc.estimateResponseTime(&models.Volunteer{
		CurrentLoad: 1, MaxConcurrent: 3, ResponseRate: 1.0,
	})
	heavilyLoaded := svc.estimateResponseTime(&models.Volunteer{
		CurrentLoad: 3, MaxConcurrent: 3, ResponseRate: 1.0,
	})
	slowResponder := svc.estimateResponseTime(&models.Volunteer{
		CurrentLoad: 1, MaxConcurrent: 3, ResponseRate: 0.5,
	})

	assert.Greater(t, heavilyLoaded, lightlyLoaded)
	assert.Greater(t, slowResponder, lightlyLoaded)
	assert.InDelta(t, 80.0, lightlyLoaded.Seconds(), 0.001, "60s * (1 + 1/3) / 1.0")
}
