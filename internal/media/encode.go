package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/strelitziathe1/anime/internal/hls"
)

const segmentSeconds = 6

// FFmpeg produces one HLS rendition per invocation via the ffmpeg binary.
type FFmpeg struct {
	bin     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewFFmpeg creates an encoder. bin defaults to "ffmpeg" when empty.
func NewFFmpeg(bin string, timeout time.Duration, logger *zap.Logger) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpeg{bin: bin, timeout: timeout, logger: logger}
}

// Encode produces the rendition's playlist and segment files in outDir.
// A non-zero exit is surfaced with the tail of ffmpeg's stderr; the caller
// decides whether the failure is fatal for the job.
func (e *FFmpeg) Encode(ctx context.Context, src string, r hls.Rendition, outDir string) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	args := encodeArgs(src, r, outDir)
	e.logger.Info("encoding rendition",
		zap.String("label", r.Label),
		zap.String("mode", string(r.Mode)),
		zap.Int("height", r.Height),
	)
	cmd := exec.CommandContext(ctx, e.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &ToolError{Tool: "ffmpeg", Output: tail(stderr.Bytes()), Err: err}
	}
	return nil
}

// encodeArgs builds the ffmpeg command line for one rendition.
//
// copy mode remuxes both tracks unchanged into 6-second segments. transcode
// mode re-encodes video with libx264 at the plan's crf, scaled to the target
// height with the width following the aspect ratio (-2 keeps it even), audio
// to AAC at the plan's bitrate, with a fixed 48-frame GOP and scene-cut
// keyframes disabled so segment boundaries are deterministic.
func encodeArgs(src string, r hls.Rendition, outDir string) []string {
	args := []string{"-y", "-i", src}
	if r.Mode == hls.ModeCopy {
		args = append(args, "-c:v", "copy", "-c:a", "copy")
	} else {
		args = append(args,
			"-c:v", "libx264",
			"-preset", "fast",
			"-crf", fmt.Sprintf("%d", r.CRF),
			"-vf", fmt.Sprintf("scale=-2:%d", r.Height),
			"-c:a", "aac",
			"-b:a", r.AudioBitrate,
			"-g", "48",
			"-sc_threshold", "0",
		)
	}
	return append(args,
		"-f", "hls",
		"-hls_time", fmt.Sprintf("%d", segmentSeconds),
		"-hls_segment_filename", filepath.Join(outDir, hls.SegmentPattern(r.Label)),
		filepath.Join(outDir, hls.MediaPlaylistName(r.Label)),
	)
}
