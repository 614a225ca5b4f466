package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/engine/stats"
	"crisisline-engine/internal/store"
)

type countingSweeper struct {
	swept int32
	panic bool
}

func (c *countingSweeper) SweepVolunteer(context.Context, string) error {
	if c.panic {
		panic("sweeper blew up")
	}
	atomic.AddInt32(&c.swept, 1)
	return nil
}

func newTestMonitor(t *testing.T, sweeper WellnessSweeper, targets []HealthTarget) (*Monitor, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	volunteers := store.NewVolunteerStore(db, logger.NewNoOpLogger())
	m := New(Dependencies{
		Volunteers: volunteers,
		Sweeper:    sweeper,
		Stats:      stats.NewService(volunteers, logger.NewNoOpLogger()),
		Targets:    targets,
		Logger:     logger.NewNoOpLogger(),
		Config: Config{
			WellnessSweepInterval: 10 * time.Millisecond,
			RollupInterval:        time.Hour,
			HealthCheckInterval:   time.Hour,
		},
	})
	return m, mock
}

func TestWellnessSweepVisitsActivePool(t *testing.T) {
	sweeper := &countingSweeper{}
	m, mock := newTestMonitor(t, sweeper, nil)

	mock.ExpectQuery(`SELECT id FROM volunteers`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("v1").AddRow("v2"))

	require.NoError(t, m.wellnessSweep(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&sweeper.swept))
}

func TestLoopSurvivesPanics(t *testing.T) {
	sweeper := &countingSweeper{panic: true}
	m, _ := newTestMonitor(t, sweeper, nil)

	iterations := int32(0)
	fn := func(context.Context) error {
		atomic.AddInt32(&iterations, 1)
		panic("iteration failure")
	}

	m.runOnce(context.Background(), "test_loop", fn)
	m.runOnce(context.Background(), "test_loop", fn)

	assert.Equal(t, int32(2), atomic.LoadInt32(&iterations),
		"a panicking iteration must not stop subsequent ones")
}

func TestLoopStopsOnCancel(t *testing.T) {
	sweeper := &countingSweeper{}
	m, mock := newTestMonitor(t, sweeper, nil)

	// Any number of sweeps may run before cancellation lands.
	for i := 0; i < 64; i++ {
		mock.ExpectQuery(`SELECT id FROM volunteers`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.launch(ctx, "wellness_sweep", m.cfg.WellnessSweepInterval, m.wellnessSweep)

	time.Sleep(50 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		m.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
}

func TestHealthCheckReportsFirstFailure(t *testing.T) {
	checkErr := errors.New("connection refused")
	m, _ := newTestMonitor(t, &countingSweeper{}, []HealthTarget{
		{Name: "postgres", Check: func(context.Context) error { return nil }},
		{Name: "redis", Check: func(context.Context) error { return checkErr }},
		{Name: "elasticsearch", Check: func(context.Context) error { return errors.New("also down") }},
	})

	err := m.healthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis", "first failing target names the error")
	assert.ErrorIs(t, err, checkErr)
}

func TestHealthCheckAllHealthy(t *testing.T) {
	m, _ := newTestMonitor(t, &countingSweeper{}, []HealthTarget{
		{Name: "postgres", Check: func(context.Context) error { return nil }},
	})
	assert.NoError(t, m.healthCheck(context.Background()))
}
