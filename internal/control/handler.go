// Package control exposes the admin surface of the transcoding pipeline:
// job inspection and the external retry/cancel controls the worker honors.
package control

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/strelitziathe1/anime/internal/jobs"
	"github.com/strelitziathe1/anime/internal/models"
	"github.com/strelitziathe1/anime/pkg/queue"
	"github.com/strelitziathe1/anime/pkg/response"
)

const listLimit = 100

// Handler handles transcoding admin endpoints.
type Handler struct {
	repo   *jobs.Repository
	queue  *queue.Queue
	pool   *pgxpool.Pool
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewHandler creates a transcoding admin handler.
func NewHandler(repo *jobs.Repository, q *queue.Queue, pool *pgxpool.Pool, rdb *goredis.Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, queue: q, pool: pool, rdb: rdb, logger: logger}
}

// RegisterRoutes mounts the admin endpoints.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Health)
	api := r.Group("/api/transcoding")
	api.GET("/jobs", h.ListJobs)
	api.GET("/jobs/:id", h.GetJob)
	api.POST("/jobs/:id/retry", h.RetryJob)
	api.POST("/jobs/:id/cancel", h.CancelJob)
}

// Health handles GET /healthz: verifies database and queue connectivity.
func (h *Handler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.pool.Ping(ctx); err != nil {
		response.ServiceUnavailable(c, "database unreachable")
		return
	}
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		response.ServiceUnavailable(c, "queue unreachable")
		return
	}
	response.OK(c, gin.H{"status": "ok"})
}

// ListJobs handles GET /api/transcoding/jobs: the most recent jobs.
func (h *Handler) ListJobs(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), listLimit)
	if err != nil {
		h.logger.Error("list jobs failed", zap.Error(err))
		response.Internal(c, "failed to list jobs")
		return
	}
	response.OK(c, list)
}

// GetJob handles GET /api/transcoding/jobs/:id.
func (h *Handler) GetJob(c *gin.Context) {
	job, ok := h.lookup(c)
	if !ok {
		return
	}
	response.OK(c, job)
}

// RetryJob handles POST /api/transcoding/jobs/:id/retry: re-enqueues a full
// descriptor rebuilt from the job's recorded source location and resets the
// job to pending. The worker re-runs the whole pipeline and overwrites the
// prior terminal status.
func (h *Handler) RetryJob(c *gin.Context) {
	job, ok := h.lookup(c)
	if !ok {
		return
	}
	if job.SourceKey == "" {
		response.Conflict(c, "job has no recorded source object yet; cannot retry")
		return
	}

	ctx := c.Request.Context()
	d := queue.JobDescriptor{
		ID:     job.ID,
		Key:    job.SourceKey,
		Bucket: job.SourceBucket,
		UserID: job.CreatedBy,
		Preset: job.Preset,
		Retry:  true,
	}
	if err := h.queue.Enqueue(ctx, d); err != nil {
		h.logger.Error("retry enqueue failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		response.Internal(c, "failed to enqueue retry")
		return
	}
	if err := h.repo.MarkPendingRetry(ctx, job.ID, "Retry enqueued"); err != nil {
		h.logger.Error("retry status reset failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		response.Internal(c, "retry enqueued but status update failed")
		return
	}
	response.Accepted(c, gin.H{"job_id": job.ID})
}

// CancelJob handles POST /api/transcoding/jobs/:id/cancel. Removing a
// descriptor already on the queue is not attempted; the worker checks the
// status cooperatively before encoding.
func (h *Handler) CancelJob(c *gin.Context) {
	job, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := h.repo.SetStatus(c.Request.Context(), job.ID, models.JobStatusCancelled); err != nil {
		h.logger.Error("cancel failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		response.Internal(c, "failed to cancel job")
		return
	}
	response.OK(c, gin.H{"job_id": job.ID, "status": models.JobStatusCancelled})
}

func (h *Handler) lookup(c *gin.Context) (*models.TranscodingJob, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid job id")
		return nil, false
	}
	job, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get job failed", zap.String("job_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to load job")
		return nil, false
	}
	if job == nil {
		response.NotFound(c, "unknown job id")
		return nil, false
	}
	return job, true
}
