package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Metadata holds the container/stream properties the planner needs. Height 0
// means no video stream was found; planning treats that as "unknown, not
// eligible for downscale".
type Metadata struct {
	Height   int
	Width    int
	Codec    string
	Duration float64 // seconds, 0 when the container does not report one
}

// FFprobe extracts media metadata from a local file via the ffprobe binary.
type FFprobe struct {
	bin     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewFFprobe creates a prober. bin defaults to "ffprobe" when empty.
func NewFFprobe(bin string, timeout time.Duration, logger *zap.Logger) *FFprobe {
	if bin == "" {
		bin = "ffprobe"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFprobe{bin: bin, timeout: timeout, logger: logger}
}

// Probe runs ffprobe with JSON output and parses the first video stream.
func (p *FFprobe) Probe(ctx context.Context, path string) (Metadata, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, p.bin,
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Metadata{}, &ToolError{Tool: "ffprobe", Output: tail(stderr.Bytes()), Err: err}
	}
	meta, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		return Metadata{}, &ToolError{Tool: "ffprobe", Output: tail(stdout.Bytes()), Err: err}
	}
	p.logger.Debug("probed source",
		zap.String("path", path),
		zap.Int("height", meta.Height),
		zap.String("codec", meta.Codec),
	)
	return meta, nil
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbeOutput(raw []byte) (Metadata, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return Metadata{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	var meta Metadata
	for _, s := range out.Streams {
		if s.CodecType == "video" {
			meta.Height = s.Height
			meta.Width = s.Width
			meta.Codec = s.CodecName
			break
		}
	}
	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		meta.Duration = d
	}
	return meta, nil
}
