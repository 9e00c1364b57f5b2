// Package media wraps the external tools the pipeline shells out to:
// ffprobe (inspection), clamdscan (virus scanning) and ffmpeg (encoding).
// Every invocation runs under a context deadline; a deadline hit surfaces as
// a step failure like any other non-zero exit.
package media

import "fmt"

// maxDiagnosticBytes bounds how much captured tool output is kept on errors
// (and ends up in the job's log text).
const maxDiagnosticBytes = 4096

// ToolError reports a failed external tool invocation together with the tail
// of its diagnostic output.
type ToolError struct {
	Tool   string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, e.Output)
}

func (e *ToolError) Unwrap() error { return e.Err }

func tail(b []byte) string {
	if len(b) > maxDiagnosticBytes {
		b = b[len(b)-maxDiagnosticBytes:]
	}
	return string(b)
}
