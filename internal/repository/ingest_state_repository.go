package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// IngestStateRepository tracks per-document ingestion state in Redis: a
// status marker so retries can detect partial ingestions, and an advisory
// lock serializing concurrent ingestions of the same document.
type IngestStateRepository interface {
	// AcquireLock takes the per-document advisory lock. Returns false when
	// another ingestion currently holds it.
	AcquireLock(ctx context.Context, documentKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, documentKey string) error
	SetStatus(ctx context.Context, documentKey, status string) error
	GetStatus(ctx context.Context, documentKey string) (string, error)
}

type redisIngestStateRepository struct {
	redisClient *redis.Client
}

// NewIngestStateRepository creates an IngestStateRepository backed by Redis.
func NewIngestStateRepository(redisClient *redis.Client) IngestStateRepository {
	return &redisIngestStateRepository{redisClient: redisClient}
}

func lockKey(documentKey string) string {
	return fmt.Sprintf("ingest:lock:%s", documentKey)
}

func statusKey(documentKey string) string {
	return fmt.Sprintf("ingest:status:%s", documentKey)
}

func (r *redisIngestStateRepository) AcquireLock(ctx context.Context, documentKey string, ttl time.Duration) (bool, error) {
	ok, err := r.redisClient.SetNX(ctx, lockKey(documentKey), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire ingest lock: %w", err)
	}
	return ok, nil
}

func (r *redisIngestStateRepository) ReleaseLock(ctx context.Context, documentKey string) error {
	return r.redisClient.Del(ctx, lockKey(documentKey)).Err()
}

func (r *redisIngestStateRepository) SetStatus(ctx context.Context, documentKey, status string) error {
	return r.redisClient.Set(ctx, statusKey(documentKey), status, 7*24*time.Hour).Err()
}

func (r *redisIngestStateRepository) GetStatus(ctx context.Context, documentKey string) (string, error) {
	status, err := r.redisClient.Get(ctx, statusKey(documentKey)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get ingest status: %w", err)
	}
	return status, nil
}
