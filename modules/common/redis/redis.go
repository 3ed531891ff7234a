package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"time"

	"affiliate-video-server/modules/common/config"
	"github.com/redis/go-redis/v9"
)

const (
	// RunQueueKey is the list the enqueue handler pushes run IDs onto and
	// the worker pops from.
	RunQueueKey = "runs:queue"

	cancelKeyPrefix = "run:cancel:"
	cancelFlagTTL   = 2 * time.Hour
)

// Connect creates the Redis client used for the run queue and cancel flags.
func Connect(cfg *config.Config) *redis.Client {
	log.Printf("🔌 Connecting to Redis: %s", cfg.GetRedisAddr())

	var tlsConfig *tls.Config
	if cfg.RedisUseTLS {
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, // managed Redis with self-signed chain
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		TLSConfig:    tlsConfig,
		DB:           0,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("🔍 Testing Redis connection...")
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("❌ Redis ping failed: %v", err)
		return nil
	}

	return rdb
}

// EnqueueRun pushes a run ID onto the work queue.
func EnqueueRun(ctx context.Context, rdb *redis.Client, runID string) error {
	if err := rdb.LPush(ctx, RunQueueKey, runID).Err(); err != nil {
		return fmt.Errorf("enqueue run %s: %w", runID, err)
	}
	return nil
}

// SetRunCancelled raises the cooperative cancel flag for a run. The
// generation loop checks the flag at the top of every iteration.
func SetRunCancelled(ctx context.Context, rdb *redis.Client, runID string) error {
	if err := rdb.Set(ctx, cancelKeyPrefix+runID, "1", cancelFlagTTL).Err(); err != nil {
		return fmt.Errorf("set cancel flag for run %s: %w", runID, err)
	}
	log.Printf("🛑 [Redis] Cancel flag set for run %s", runID)
	return nil
}

// IsRunCancelled reports whether the cancel flag is raised. Lookup
// failures are treated as not-cancelled so a Redis blip cannot kill a run.
func IsRunCancelled(ctx context.Context, rdb *redis.Client, runID string) bool {
	n, err := rdb.Exists(ctx, cancelKeyPrefix+runID).Result()
	if err != nil {
		log.Printf("⚠️  [Redis] Cancel flag check failed for run %s: %v", runID, err)
		return false
	}
	return n > 0
}

// ClearRunCancelled removes the cancel flag, e.g. before a regeneration
// of a previously cancelled run.
func ClearRunCancelled(ctx context.Context, rdb *redis.Client, runID string) {
	if err := rdb.Del(ctx, cancelKeyPrefix+runID).Err(); err != nil {
		log.Printf("⚠️  [Redis] Failed to clear cancel flag for run %s: %v", runID, err)
	}
}
