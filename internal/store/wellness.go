package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	engerrors "crisisline-engine/internal/common/errors"
	"crisisline-engine/internal/common/logger"
	"crisisline-engine/internal/models"
)

const (
	wellnessKeyPrefix  = "wellness:"
	alertsKeyPrefix    = "alerts:"
	loadCapKeyPrefix   = "loadcap:"
	breakHoldKeyPrefix = "breakhold:"
	followUpKeyPrefix  = "followup:"

	// alertListMax bounds the alert list independent of the TTL so one noisy
	// volunteer cannot grow the key without limit.
	alertListMax = 100
)

// WellnessStore keeps the bounded per-volunteer windows and intervention
// holds in Redis: wellness check-ins, recent burnout alerts, the 24h load
// cap override, the 72h mandatory break hold, and the follow-up flag.
// Window retention is enforced here, not by callers.
type WellnessStore struct {
	rdb    *redis.Client
	logger logger.Logger
}

func NewWellnessStore(rdb *redis.Client, log logger.Logger) *WellnessStore {
	return &WellnessStore{rdb: rdb, logger: log}
}

// AppendCheckIn pushes a check-in and trims the window to windowSize.
func (s *WellnessStore) AppendCheckIn(ctx context.Context, checkIn models.WellnessCheckIn, windowSize int) error {
	payload, err := json.Marshal(checkIn)
	if err != nil {
		return err
	}

	key := wellnessKeyPrefix + checkIn.VolunteerID
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(windowSize-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return engerrors.NewStoreUnavailableError("wellness", err)
	}
	return nil
}

// RecentCheckIns returns up to n check-ins, newest first. Entries that fail
// to decode are skipped with a warning.
func (s *WellnessStore) RecentCheckIns(ctx context.Context, volunteerID string, n int) ([]models.WellnessCheckIn, error) {
	raw, err := s.rdb.LRange(ctx, wellnessKeyPrefix+volunteerID, 0, int64(n-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, engerrors.NewStoreUnavailableError("wellness", err)
	}

	out := make([]models.WellnessCheckIn, 0, len(raw))
	for _, item := range raw {
		var checkIn models.WellnessCheckIn
		if err := json.Unmarshal([]byte(item), &checkIn); err != nil {
			s.logger.Warn("skipping undecodable wellness entry", map[string]interface{}{
				"volunteerId": volunteerID,
				"error":       err.Error(),
			})
			continue
		}
		out = append(out, checkIn)
	}
	return out, nil
}

// AppendAlert records a burnout alert in the recent-history window.
func (s *WellnessStore) AppendAlert(ctx context.Context, alert models.BurnoutAlert, retention time.Duration) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	key := alertsKeyPrefix + alert.VolunteerID
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, alertListMax-1)
	pipe.Expire(ctx, key, retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return engerrors.NewStoreUnavailableError("wellness", err)
	}
	return nil
}

// RecentAlerts returns alerts newer than since, newest first.
func (s *WellnessStore) RecentAlerts(ctx context.Context, volunteerID string, since time.Time) ([]models.BurnoutAlert, error) {
	raw, err := s.rdb.LRange(ctx, alertsKeyPrefix+volunteerID, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, engerrors.NewStoreUnavailableError("wellness", err)
	}

	var out []models.BurnoutAlert
	for _, item := range raw {
		var alert models.BurnoutAlert
		if err := json.Unmarshal([]byte(item), &alert); err != nil {
			continue
		}
		if alert.Timestamp.Before(since) {
			continue
		}
		out = append(out, alert)
	}
	return out, nil
}

// SetLoadCap installs a temporary max-concurrency override.
func (s *WellnessStore) SetLoadCap(ctx context.Context, volunteerID string, cap int, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, loadCapKeyPrefix+volunteerID, cap, ttl).Err(); err != nil {
		return engerrors.NewStoreUnavailableError("wellness", err)
	}
	return nil
}

// LoadCap returns the override cap and whether one is live.
func (s *WellnessStore) LoadCap(ctx context.Context, volunteerID string) (int, bool, error) {
	val, err := s.rdb.Get(ctx, loadCapKeyPrefix+volunteerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, engerrors.NewStoreUnavailableError("wellness", err)
	}

	cap, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, nil
	}
	return cap, true, nil
}

// SetBreakHold starts a mandatory break hold.
func (s *WellnessStore) SetBreakHold(ctx context.Context, volunteerID string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, breakHoldKeyPrefix+volunteerID, time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return engerrors.NewStoreUnavailableError("wellness", err)
	}
	return nil
}

// BreakHold reports whether a mandatory break hold is live.
func (s *WellnessStore) BreakHold(ctx context.Context, volunteerID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, breakHoldKeyPrefix+volunteerID).Result()
	if err != nil {
		return false, engerrors.NewStoreUnavailableError("wellness", err)
	}
	return n > 0, nil
}

// ClearBreakHold lifts the hold early (human override).
func (s *WellnessStore) ClearBreakHold(ctx context.Context, volunteerID string) error {
	if err := s.rdb.Del(ctx, breakHoldKeyPrefix+volunteerID).Err(); err != nil {
		return engerrors.NewStoreUnavailableError("wellness", err)
	}
	return nil
}

// SetFollowUpPending flags that a human follow-up must happen before the
// volunteer may return to active service. No TTL: only an explicit
// resolution clears it.
func (s *WellnessStore) SetFollowUpPending(ctx context.Context, volunteerID string) error {
	if err := s.rdb.Set(ctx, followUpKeyPrefix+volunteerID, time.Now().UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return engerrors.NewStoreUnavailableError("wellness", err)
	}
	return nil
}

// FollowUpPending reports whether a follow-up is outstanding.
func (s *WellnessStore) FollowUpPending(ctx context.Context, volunteerID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, followUpKeyPrefix+volunteerID).Result()
	if err != nil {
		return false, engerrors.NewStoreUnavailableError("wellness", err)
	}
	return n > 0, nil
}

// ClearFollowUp marks the follow-up as done.
func (s *WellnessStore) ClearFollowUp(ctx context.Context, volunteerID string) error {
	if err := s.rdb.Del(ctx, followUpKeyPrefix+volunteerID).Err(); err != nil {
		return engerrors.NewStoreUnavailableError("wellness", err)
	}
	return nil
}
