// Package worker implements the transcoding pipeline: it pulls job
// descriptors from the queue and drives each job through download, scan,
// probe, rendition planning, encoding, manifest assembly, upload and source
// cleanup, persisting every status transition on the job record.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/strelitziathe1/anime/internal/hls"
	"github.com/strelitziathe1/anime/internal/media"
	"github.com/strelitziathe1/anime/internal/models"
	"github.com/strelitziathe1/anime/pkg/queue"
	"github.com/strelitziathe1/anime/pkg/storage"
)

// JobStore is the slice of the job repository the pipeline needs.
type JobStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.TranscodingJob, error)
	MarkProcessing(ctx context.Context, id uuid.UUID, sourceBucket, sourceKey string) error
	AppendLog(ctx context.Context, id uuid.UUID, line string) error
	MarkSuccess(ctx context.Context, id uuid.UUID, line string) error
	MarkFailed(ctx context.Context, id uuid.UUID, line string) error
}

// ObjectStore is the slice of the object storage client the pipeline needs.
type ObjectStore interface {
	Fetch(ctx context.Context, bucket, key, dest string) error
	UploadDir(ctx context.Context, bucket, keyPrefix, root string, metaFor func(name string) storage.ObjectMeta) error
	Delete(ctx context.Context, bucket, key string) error
}

// Dequeuer pops job descriptors off the transcoding queue.
type Dequeuer interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.JobDescriptor, error)
}

// Scanner delivers a virus verdict for a local file.
type Scanner interface {
	Scan(ctx context.Context, path string) error
}

// Prober extracts media metadata from a local file.
type Prober interface {
	Probe(ctx context.Context, path string) (media.Metadata, error)
}

// Encoder produces one rendition's playlist and segments in outDir.
type Encoder interface {
	Encode(ctx context.Context, src string, r hls.Rendition, outDir string) error
}

// Options tunes the worker loop.
type Options struct {
	WorkDir       string        // scratch root for per-job workspaces; empty = os.TempDir()
	PollInterval  time.Duration // queue blocking-pop window and error backoff; 0 = 1s
	DefaultBucket string        // used when a descriptor carries no bucket
}

// Worker processes transcoding jobs one at a time. Workspaces are keyed by
// job id, so multiple worker processes can share one queue without
// coordination beyond the queue's atomic pop.
type Worker struct {
	queue   Dequeuer
	store   JobStore
	objects ObjectStore
	scanner Scanner
	prober  Prober
	encoder Encoder
	opts    Options
	logger  *zap.Logger
}

// New creates a transcoding worker.
func New(q Dequeuer, store JobStore, objects ObjectStore, scanner Scanner, prober Prober, encoder Encoder, opts Options, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	return &Worker{
		queue:   q,
		store:   store,
		objects: objects,
		scanner: scanner,
		prober:  prober,
		encoder: encoder,
		opts:    opts,
		logger:  logger,
	}
}

// Run drives the unbounded job loop until ctx is cancelled. A single job's
// failure never stops the loop; queue errors back off and retry because the
// worker is a long-running service.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("transcoding worker stopping")
			return
		default:
		}

		d, err := w.queue.Dequeue(ctx, w.opts.PollInterval)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("transcoding worker stopping")
				return
			}
			w.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(w.opts.PollInterval)
			continue
		}
		if d == nil {
			continue
		}

		w.logger.Info("processing job",
			zap.String("job_id", d.ID.String()),
			zap.String("key", d.Key),
			zap.Bool("retry", d.Retry),
		)
		if err := w.Process(ctx, d); err != nil {
			w.logger.Error("job failed", zap.String("job_id", d.ID.String()), zap.Error(err))
		}
	}
}

// Process runs one job through the full pipeline. A retried descriptor is
// treated exactly like a fresh one; terminal status and log lines from the
// prior attempt are overwritten/extended. The returned error is diagnostic
// only — the terminal state has already been persisted on the job record.
func (w *Worker) Process(ctx context.Context, d *queue.JobDescriptor) error {
	jobID := d.ID.String()
	bucket := d.Bucket
	if bucket == "" {
		bucket = w.opts.DefaultBucket
	}

	workdir := filepath.Join(w.opts.WorkDir, jobID)
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return w.fail(ctx, d.ID, fmt.Sprintf("create workspace: %v", err))
	}
	defer os.RemoveAll(workdir)

	if err := w.store.MarkProcessing(ctx, d.ID, bucket, d.Key); err != nil {
		w.logger.Warn("mark processing failed", zap.String("job_id", jobID), zap.Error(err))
	}

	srcPath := filepath.Join(workdir, "source")
	if err := w.objects.Fetch(ctx, bucket, d.Key, srcPath); err != nil {
		return w.fail(ctx, d.ID, fmt.Sprintf("download source %s/%s: %v", bucket, d.Key, err))
	}

	// Virus scan is best-effort: an infection verdict fails the job, but an
	// unavailable scanner only logs a warning (fail-open).
	switch err := w.scanner.Scan(ctx, srcPath); {
	case err == nil:
		w.appendLog(ctx, d.ID, "virus scan clean")
	case errors.Is(err, media.ErrInfected):
		failErr := w.fail(ctx, d.ID, fmt.Sprintf("virus scan: %v", err))
		// An infected source is never transcoded, but the keep_original
		// choice still governs whether it stays in the bucket.
		w.maybeDeleteSource(ctx, d, bucket)
		return failErr
	default:
		w.logger.Warn("virus scanner unavailable, proceeding", zap.String("job_id", jobID), zap.Error(err))
		w.appendLog(ctx, d.ID, fmt.Sprintf("virus scan skipped: %v", err))
	}

	meta, err := w.prober.Probe(ctx, srcPath)
	if err != nil {
		return w.fail(ctx, d.ID, fmt.Sprintf("probe source: %v", err))
	}

	plan := hls.Plan(meta.Height, d.Preset.PreferDownscaleTo1080)

	// Cooperative cancellation check before the expensive stage. A job
	// cancelled later runs to completion but keeps its cancelled status in
	// the admin's hands until the terminal write.
	if job, err := w.store.GetByID(ctx, d.ID); err != nil {
		w.logger.Warn("cancellation check failed", zap.String("job_id", jobID), zap.Error(err))
	} else if job != nil && job.Status == models.JobStatusCancelled {
		w.appendLog(ctx, d.ID, "cancellation observed before encode; aborting")
		w.logger.Info("job cancelled, skipping encode", zap.String("job_id", jobID))
		return nil
	}

	hlsDir := filepath.Join(workdir, "hls")
	if err := os.MkdirAll(hlsDir, 0o755); err != nil {
		return w.fail(ctx, d.ID, fmt.Sprintf("create hls dir: %v", err))
	}

	// Encode in descending-height order. The highest rendition is the job's
	// reason to exist: its failure is fatal. Lower renditions degrade
	// gracefully — the master manifest simply omits them.
	var produced []hls.Rendition
	for i, r := range plan {
		if err := w.encoder.Encode(ctx, srcPath, r, hlsDir); err != nil {
			if i == 0 {
				return w.fail(ctx, d.ID, fmt.Sprintf("encode %s: %v", r.Label, err))
			}
			w.logger.Warn("rendition failed, continuing",
				zap.String("job_id", jobID),
				zap.String("label", r.Label),
				zap.Error(err),
			)
			w.appendLog(ctx, d.ID, fmt.Sprintf("rendition %s omitted: %v", r.Label, err))
			continue
		}
		produced = append(produced, r)
	}

	master := hls.Master(produced)
	if err := os.WriteFile(filepath.Join(hlsDir, hls.MasterPlaylistName), []byte(master), 0o644); err != nil {
		return w.fail(ctx, d.ID, fmt.Sprintf("write master playlist: %v", err))
	}

	if err := w.objects.UploadDir(ctx, bucket, hls.KeyPrefix(jobID), hlsDir, ArtifactMeta); err != nil {
		return w.fail(ctx, d.ID, fmt.Sprintf("upload artifacts: %v", err))
	}

	if err := w.store.MarkSuccess(ctx, d.ID, "transcode completed"); err != nil {
		w.logger.Error("mark success failed", zap.String("job_id", jobID), zap.Error(err))
		return fmt.Errorf("mark success: %w", err)
	}
	w.logger.Info("job completed",
		zap.String("job_id", jobID),
		zap.Int("renditions", len(produced)),
	)

	w.maybeDeleteSource(ctx, d, bucket)
	return nil
}

// ArtifactMeta picks upload metadata for a produced artifact filename.
func ArtifactMeta(name string) storage.ObjectMeta {
	return storage.ObjectMeta{
		ContentType:  hls.ContentTypeFor(name),
		CacheControl: hls.CacheControlFor(name),
	}
}

// maybeDeleteSource best-effort deletes the uploaded source unless the user
// asked to keep it. Deletion failure never changes the job's terminal status.
func (w *Worker) maybeDeleteSource(ctx context.Context, d *queue.JobDescriptor, bucket string) {
	if d.Preset.KeepOriginal {
		return
	}
	if err := w.objects.Delete(ctx, bucket, d.Key); err != nil {
		w.logger.Warn("delete source failed",
			zap.String("job_id", d.ID.String()),
			zap.String("key", d.Key),
			zap.Error(err),
		)
	}
}

func (w *Worker) appendLog(ctx context.Context, id uuid.UUID, line string) {
	if err := w.store.AppendLog(ctx, id, line); err != nil {
		w.logger.Warn("append job log failed", zap.String("job_id", id.String()), zap.Error(err))
	}
}

func (w *Worker) fail(ctx context.Context, id uuid.UUID, msg string) error {
	if err := w.store.MarkFailed(ctx, id, msg); err != nil {
		w.logger.Error("mark failed errored", zap.String("job_id", id.String()), zap.Error(err))
	}
	return errors.New(msg)
}
