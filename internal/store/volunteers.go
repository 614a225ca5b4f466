// Package store implements the durable record stores behind the engine:
// volunteers and training progress in PostgreSQL, bounded wellness/alert
// windows and intervention holds in Redis, and the audit sink in
// Elasticsearch.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/lib/pq"

	engerrors "crisisline-engine/internal/common/errors"
	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/models"
)

// ErrNoSlot is returned by AcquireSlot when the guarded increment matched no
// row. The caller re-reads the record to classify why.
var ErrNoSlot = errors.New("no assignable slot")

// unboundedCap disables the caller-supplied cap in LEAST().
const unboundedCap = 1 << 30

const volunteerColumns = `id, status, specializations, languages, is_active,
	current_load, max_concurrent, average_rating, response_rate,
	sessions_count, hours_volunteered, burnout_score, last_active,
	emergency_responder, emergency_available, created_at, updated_at`

// VolunteerStore is the durable record store keyed by volunteer id. All
// correctness-critical mutations are single guarded UPDATE statements; there
// is never a read-then-write across statements.
type VolunteerStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewVolunteerStore(db *sql.DB, log logger.Logger) *VolunteerStore {
	return &VolunteerStore{db: db, logger: log}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVolunteer(row rowScanner) (*models.Volunteer, error) {
	var v models.Volunteer
	err := row.Scan(
		&v.ID, &v.Status, pq.Array(&v.Specializations), pq.Array(&v.Languages),
		&v.IsActive, &v.CurrentLoad, &v.MaxConcurrent, &v.AverageRating,
		&v.ResponseRate, &v.SessionsCount, &v.HoursVolunteered,
		&v.BurnoutScore, &v.LastActive, &v.EmergencyResponder,
		&v.EmergencyAvailable, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts a new volunteer record.
func (s *VolunteerStore) Create(ctx context.Context, v *models.Volunteer) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO volunteers (`+volunteerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		v.ID, v.Status, pq.Array(v.Specializations), pq.Array(v.Languages),
		v.IsActive, v.CurrentLoad, v.MaxConcurrent, v.AverageRating,
		v.ResponseRate, v.SessionsCount, v.HoursVolunteered, v.BurnoutScore,
		v.LastActive, v.EmergencyResponder, v.EmergencyAvailable,
		v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return engerrors.NewStoreUnavailableError("volunteers", err)
	}
	return nil
}

// Get loads one volunteer by id.
func (s *VolunteerStore) Get(ctx context.Context, id string) (*models.Volunteer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+volunteerColumns+` FROM volunteers WHERE id = $1`, id)

	v, err := scanVolunteer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engerrors.NewVolunteerNotFoundError(id)
		}
		return nil, engerrors.NewStoreUnavailableError("volunteers", err)
	}
	return v, nil
}

// UpdateStatus moves a volunteer from one status to another in a single
// guarded UPDATE. Returns false when the guard did not match, meaning the
// status changed under the caller.
func (s *VolunteerStore) UpdateStatus(ctx context.Context, id string, from, to models.Status, isActive bool) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE volunteers
		SET status = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		id, from, to, isActive,
	)
	if err != nil {
		return false, engerrors.NewStoreUnavailableError("volunteers", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, engerrors.NewStoreUnavailableError("volunteers", err)
	}
	return n == 1, nil
}

// ZeroLoad unconditionally releases every in-flight assignment for the
// volunteer. Outstanding Assignment records become orphaned and are
// reconciled by the session layer.
func (s *VolunteerStore) ZeroLoad(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE volunteers SET current_load = 0, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return engerrors.NewStoreUnavailableError("volunteers", err)
	}
	return nil
}

// TouchLastActive stamps the activity timestamp.
func (s *VolunteerStore) TouchLastActive(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE volunteers SET last_active = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return engerrors.NewStoreUnavailableError("volunteers", err)
	}
	return nil
}

// SetBurnoutScore writes the normalized burnout score.
func (s *VolunteerStore) SetBurnoutScore(ctx context.Context, id string, score float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE volunteers SET burnout_score = $2, updated_at = NOW() WHERE id = $1`, id, score)
	if err != nil {
		return engerrors.NewStoreUnavailableError("volunteers", err)
	}
	return nil
}

// AcquireSlot is the single correctness-critical operation of the engine:
// an atomic read-check-write that re-validates status, burnout, and load
// headroom and increments the load in one statement. capOverride < 1
// disables the extra cap. Returns ErrNoSlot when no row matched.
func (s *VolunteerStore) AcquireSlot(ctx context.Context, id string, burnoutThreshold float64, capOverride int) (*models.Volunteer, error) {
	if capOverride < 1 {
		capOverride = unboundedCap
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE volunteers
		SET current_load = current_load + 1, last_active = NOW(), updated_at = NOW()
		WHERE id = $1
		  AND status = 'active'
		  AND is_active
		  AND burnout_score < $2
		  AND current_load < LEAST(max_concurrent, $3)
		RETURNING `+volunteerColumns,
		id, burnoutThreshold, capOverride,
	)

	v, err := scanVolunteer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSlot
		}
		return nil, engerrors.NewStoreUnavailableError("volunteers", err)
	}
	return v, nil
}

// CompleteSession folds a finished session into the rolling statistics:
// load decrement floored at zero, running-mean rating when one is present,
// session and hour counters, activity stamp.
func (s *VolunteerStore) CompleteSession(ctx context.Context, id string, rating *float64, hours float64) (*models.Volunteer, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE volunteers
		SET current_load = GREATEST(current_load - 1, 0),
		    average_rating = CASE
		        WHEN $2::double precision IS NULL THEN average_rating
		        ELSE ((average_rating * sessions_count) + $2) / (sessions_count + 1)
		    END,
		    sessions_count = sessions_count + 1,
		    hours_volunteered = hours_volunteered + $3,
		    last_active = NOW(),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+volunteerColumns,
		id, rating, hours,
	)

	v, err := scanVolunteer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engerrors.NewVolunteerNotFoundError(id)
		}
		return nil, engerrors.NewStoreUnavailableError("volunteers", err)
	}
	return v, nil
}

// AvailableQuery carries the hard filters for selection.
type AvailableQuery struct {
	BurnoutThreshold float64
	ActiveSince      time.Time
	MaxLoad          int // stricter cap than max_concurrent; 0 = none
	EmergencyOnly    bool
	Specializations  []string
	Languages        []string
	Limit            int
}

// Available returns volunteers passing every hard filter, ranked by
// ascending load, then descending rating, then descending response rate,
// capped to the query limit. The filter+sort+limit runs in the store's
// query layer so selection stays a bounded read-only snapshot.
func (s *VolunteerStore) Available(ctx context.Context, q AvailableQuery) ([]*models.Volunteer, error) {
	query := `
		SELECT ` + volunteerColumns + `
		FROM volunteers
		WHERE status = 'active'
		  AND is_active
		  AND current_load < max_concurrent
		  AND burnout_score < $1
		  AND last_active >= $2`
	args := []interface{}{q.BurnoutThreshold, q.ActiveSince}

	if q.MaxLoad > 0 {
		args = append(args, q.MaxLoad)
		query += ` AND current_load < $` + strconv.Itoa(len(args))
	}
	if q.EmergencyOnly {
		query += ` AND emergency_available`
	}
	if len(q.Specializations) > 0 {
		args = append(args, pq.Array(q.Specializations))
		query += ` AND specializations && $` + strconv.Itoa(len(args))
	}
	if len(q.Languages) > 0 {
		args = append(args, pq.Array(q.Languages))
		query += ` AND languages && $` + strconv.Itoa(len(args))
	}

	args = append(args, q.Limit)
	query += `
		ORDER BY current_load ASC, average_rating DESC, response_rate DESC
		LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, engerrors.NewStoreUnavailableError("volunteers", err)
	}
	defer rows.Close()

	var out []*models.Volunteer
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, engerrors.NewStoreUnavailableError("volunteers", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, engerrors.NewStoreUnavailableError("volunteers", err)
	}
	return out, nil
}

// ActiveIDs lists the ids of volunteers in active status, for the
// background wellness sweep.
func (s *VolunteerStore) ActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM volunteers WHERE status = 'active' AND is_active`)
	if err != nil {
		return nil, engerrors.NewStoreUnavailableError("volunteers", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, engerrors.NewStoreUnavailableError("volunteers", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, engerrors.NewStoreUnavailableError("volunteers", err)
	}
	return ids, nil
}

// CountByStatus returns volunteer totals per lifecycle status.
func (s *VolunteerStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM volunteers GROUP BY status`)
	if err != nil {
		return nil, engerrors.NewStoreUnavailableError("volunteers", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status models.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, engerrors.NewStoreUnavailableError("volunteers", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, engerrors.NewStoreUnavailableError("volunteers", err)
	}
	return counts, nil
}

// Aggregates summarizes the active pool for system health reporting.
type Aggregates struct {
	AvgRating     float64
	AvgBurnout    float64
	AvgLoad       float64
	TotalLoad     int
	TotalCapacity int
	Available     int
}

// ActiveAggregates computes pool-level averages and capacity totals over
// active volunteers. Read-only, used by the stats surface and the hourly
// rollup loop.
func (s *VolunteerStore) ActiveAggregates(ctx context.Context) (*Aggregates, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(average_rating), 0),
		       COALESCE(AVG(burnout_score), 0),
		       COALESCE(AVG(current_load), 0),
		       COALESCE(SUM(current_load), 0),
		       COALESCE(SUM(max_concurrent), 0),
		       COUNT(*) FILTER (WHERE current_load < max_concurrent)
		FROM volunteers
		WHERE status = 'active' AND is_active`)

	var agg Aggregates
	err := row.Scan(&agg.AvgRating, &agg.AvgBurnout, &agg.AvgLoad,
		&agg.TotalLoad, &agg.TotalCapacity, &agg.Available)
	if err != nil {
		return nil, engerrors.NewStoreUnavailableError("volunteers", err)
	}
	return &agg, nil
}
