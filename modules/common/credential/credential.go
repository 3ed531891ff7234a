// Package credential stores the Gemini API credential as an opaque
// string under a fixed Redis key. The engine clears it when the provider
// rejects it, which forces a fresh Set before the next run.
package credential

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

const storeKey = "credential:gemini"

// Store wraps the Redis-backed credential slot.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Get returns the stored credential, or "" when none is set.
func (s *Store) Get(ctx context.Context) (string, error) {
	val, err := s.rdb.Get(ctx, storeKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return val, nil
}

// Set replaces the stored credential. The value is opaque to the server.
func (s *Store) Set(ctx context.Context, value string) error {
	if value == "" {
		return fmt.Errorf("credential must not be empty")
	}
	if err := s.rdb.Set(ctx, storeKey, value, 0).Err(); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// Clear drops the stored credential. Called when the provider reports
// the key invalid.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, storeKey).Err(); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	log.Printf("🛑 [Credential] Stored credential cleared")
	return nil
}

// Seed stores the given credential only when the slot is empty, so a
// user-provided credential survives restarts.
func (s *Store) Seed(ctx context.Context, value string) error {
	if value == "" {
		return nil
	}
	ok, err := s.rdb.SetNX(ctx, storeKey, value, 0).Result()
	if err != nil {
		return fmt.Errorf("seed credential: %w", err)
	}
	if ok {
		log.Printf("✅ [Credential] Seeded credential from environment")
	}
	return nil
}
