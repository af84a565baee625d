// Package logger provides leveled logging for leadscout.
// Debug, Info, Warn and Section print only when verbose mode is enabled via
// the --verbose flag, so a run can be traced through dedup, scoring and
// admission. Error always prints.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level tags a log line.
type Level string

// Log levels.
const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects all log output. Defaults to os.Stderr, which keeps
// stdout free for JSON and the MCP stdio transport.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// logf writes one line. Only LevelError bypasses the verbose switch.
func logf(level Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose && level != LevelError {
		return
	}
	fmt.Fprintf(output, "[%s] %s\n", level, fmt.Sprintf(format, args...))
}

// Debug logs per-candidate detail.
func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

// Info logs run-level progress.
func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warn logs recoverable problems.
func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

// Error logs failures. It prints even when verbose mode is off.
func Error(format string, args ...any) { logf(LevelError, format, args...) }

// Section prints a stage header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Since logs at debug level how long a stage took. Use with defer:
//
//	defer logger.Since("prioritize", time.Now())
func Since(stage string, start time.Time) {
	logf(LevelDebug, "%s took %s", stage, time.Since(start).Round(time.Microsecond))
}
