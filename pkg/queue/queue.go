package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/strelitziathe1/anime/internal/models"
)

// KeyTranscoding is the Redis list holding serialized transcoding job
// descriptors. Producers LPUSH, workers BRPOP, so the list behaves FIFO and
// a descriptor is handed to exactly one worker.
const KeyTranscoding = "transcoding:queue"

// JobDescriptor is the message describing one unit of transcoding work.
// Field names match the upload API producer. It is created once at enqueue
// time and consumed exactly once.
type JobDescriptor struct {
	ID     uuid.UUID         `json:"uploadId"`
	Key    string            `json:"key"`
	Bucket string            `json:"bucket"`
	UserID string            `json:"userId,omitempty"`
	Preset models.PresetInfo `json:"presetInfo"`
	Retry  bool              `json:"retry,omitempty"`
}

// Queue enqueues and dequeues transcoding job descriptors via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a Redis-backed transcoding queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// Enqueue pushes a descriptor onto the transcoding queue.
func (q *Queue) Enqueue(ctx context.Context, d JobDescriptor) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal descriptor: %w", err)
	}
	if err := q.client.LPush(ctx, KeyTranscoding, raw).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	q.logger.Debug("enqueued transcoding job",
		zap.String("job_id", d.ID.String()),
		zap.String("key", d.Key),
		zap.Bool("retry", d.Retry),
	)
	return nil
}

// Dequeue pops the next descriptor, blocking up to timeout. Returns
// (nil, nil) when the queue is empty for the whole window or when a
// malformed entry was skipped.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*JobDescriptor, error) {
	result, err := q.client.BRPop(ctx, timeout, KeyTranscoding).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("brpop: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}
	var d JobDescriptor
	if err := json.Unmarshal([]byte(result[1]), &d); err != nil {
		q.logger.Warn("invalid job descriptor", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &d, nil
}

// Len returns the number of descriptors waiting on the queue.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, KeyTranscoding).Result()
	if err != nil {
		return 0, fmt.Errorf("llen: %w", err)
	}
	return n, nil
}
