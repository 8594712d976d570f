package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/user/tenant-guard/internal/domain"
)

// recentActivityKeep is how many activity entries are retained per user.
const recentActivityKeep = 20

// SessionActivityRepository implements domain.SessionActivityRepository
// on Redis. Two structures per user: a sorted set of active session ids
// scored by last-seen time, and a capped list of recent activity
// records for IP-change detection.
type SessionActivityRepository struct {
	client *redis.Client
	logger *slog.Logger
	window time.Duration
}

// NewSessionActivityRepository creates a new Redis-backed session
// activity repository. The window bounds how long a session counts as
// active.
func NewSessionActivityRepository(client *redis.Client, logger *slog.Logger, window time.Duration) *SessionActivityRepository {
	return &SessionActivityRepository{
		client: client,
		logger: logger.With("component", "session_activity_repository"),
		window: window,
	}
}

func activeKey(userID uuid.UUID) string { return fmt.Sprintf("sessions:active:%s", userID) }
func recentKey(userID uuid.UUID) string { return fmt.Sprintf("sessions:recent:%s", userID) }

func (r *SessionActivityRepository) RecordActivity(ctx context.Context, activity domain.SessionActivity) error {
	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("marshal session activity: %w", err)
	}

	now := activity.SeenAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	cutoff := now.Add(-r.window)

	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, activeKey(activity.UserID), redis.Z{
		Score:  float64(now.Unix()),
		Member: activity.SessionID,
	})
	pipe.ZRemRangeByScore(ctx, activeKey(activity.UserID), "-inf", strconv.FormatInt(cutoff.Unix(), 10))
	pipe.Expire(ctx, activeKey(activity.UserID), r.window)
	pipe.LPush(ctx, recentKey(activity.UserID), payload)
	pipe.LTrim(ctx, recentKey(activity.UserID), 0, recentActivityKeep-1)
	pipe.Expire(ctx, recentKey(activity.UserID), r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record session activity: %w", err)
	}
	return nil
}

func (r *SessionActivityRepository) RecentActivity(ctx context.Context, userID uuid.UUID, n int) ([]domain.SessionActivity, error) {
	entries, err := r.client.LRange(ctx, recentKey(userID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent activity: %w", err)
	}

	activities := make([]domain.SessionActivity, 0, len(entries))
	for _, entry := range entries {
		var a domain.SessionActivity
		if err := json.Unmarshal([]byte(entry), &a); err != nil {
			r.logger.Warn("skipping malformed activity entry", "error", err, "user_id", userID)
			continue
		}
		activities = append(activities, a)
	}
	return activities, nil
}

func (r *SessionActivityRepository) ActiveSessionCount(ctx context.Context, userID uuid.UUID) (int, error) {
	cutoff := time.Now().UTC().Add(-r.window)
	key := activeKey(userID)

	if err := r.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff.Unix(), 10)).Err(); err != nil {
		return 0, fmt.Errorf("trim active sessions: %w", err)
	}
	count, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return int(count), nil
}
