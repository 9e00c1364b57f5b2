package media

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// ErrInfected is returned when the scanner reports an infection. The wrapped
// message carries the scanner's report.
var ErrInfected = errors.New("infected source detected")

// ErrScannerUnavailable is returned when no verdict could be obtained: the
// binary is missing, the clamd daemon is unreachable, or the scan timed out.
// Callers decide whether that fails open or closed.
var ErrScannerUnavailable = errors.New("virus scanner unavailable")

// ClamAV scans local files through the clamdscan binary.
type ClamAV struct {
	bin     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClamAV creates a scanner. bin defaults to "clamdscan" when empty.
func NewClamAV(bin string, timeout time.Duration, logger *zap.Logger) *ClamAV {
	if bin == "" {
		bin = "clamdscan"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClamAV{bin: bin, timeout: timeout, logger: logger}
}

// Scan runs clamdscan on the file. nil means clean. clamdscan exits 1 for an
// infection and 2 when scanning itself failed; only exit 1 is a verdict, all
// other failures map to ErrScannerUnavailable.
func (s *ClamAV) Scan(ctx context.Context, path string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, s.bin, "--fdpass", path)
	out, err := cmd.CombinedOutput()
	if err == nil {
		s.logger.Debug("scan clean", zap.String("path", path))
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return fmt.Errorf("%w: %s", ErrInfected, tail(out))
	}
	return fmt.Errorf("%w: %v: %s", ErrScannerUnavailable, err, tail(out))
}
