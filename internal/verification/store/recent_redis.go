package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	document "veridoc/internal/document/models"
)

// RecentSubmissions is a Redis-backed index of the names recently
// submitted per ID number. It gives the duplicate detector a fast
// signal inside the TTL window without a database round trip; the
// database remains the source of truth.
type RecentSubmissions struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecentSubmissions(client *redis.Client, ttl time.Duration) *RecentSubmissions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RecentSubmissions{client: client, ttl: ttl}
}

func recentKey(idNumber string) string {
	return "veridoc:recent:id:" + document.NormalizeID(idNumber)
}

// Remember records a submission's name under its ID number.
func (r *RecentSubmissions) Remember(ctx context.Context, idNumber, fullName string) error {
	if r == nil || r.client == nil {
		return nil
	}
	normalized := document.NormalizeID(idNumber)
	if normalized == "" {
		return nil
	}

	key := recentKey(normalized)
	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, key, document.NormalizeName(fullName))
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remember recent submission: %w", err)
	}
	return nil
}

// PriorNames returns the normalized names submitted under this ID
// number within the TTL window.
func (r *RecentSubmissions) PriorNames(ctx context.Context, idNumber string) ([]string, error) {
	if r == nil || r.client == nil {
		return nil, nil
	}
	normalized := document.NormalizeID(idNumber)
	if normalized == "" {
		return nil, nil
	}

	names, err := r.client.SMembers(ctx, recentKey(normalized)).Result()
	if err != nil {
		return nil, fmt.Errorf("load recent submissions: %w", err)
	}
	return names, nil
}
