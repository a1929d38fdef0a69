// Package debug carries the diagnostic and quiet-mode plumbing shared by every
// conductor command. Diagnostics go to stderr through a zerolog console
// writer so that stdout stays clean for hook protocols and --json output.
package debug

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	enabled     = os.Getenv("CONDUCTOR_DEBUG") != ""
	verboseMode = false
	quietMode   = false

	logMu  sync.Mutex
	logger           = newLogger(os.Stderr)
	stdout io.Writer = os.Stdout
)

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: "15:04:05.000",
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("%-5s", i))
		},
	}).With().Timestamp().Logger().Level(zerolog.DebugLevel)
}

// SetOutput redirects diagnostic output. Used by tests.
func SetOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = newLogger(w)
}

// SetStdout redirects normal output. Used by tests.
func SetStdout(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	stdout = w
}

// SetLevel applies a log level name (debug, info, warn, error). "debug" also
// enables Logf output.
func SetLevel(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logMu.Lock()
	logger = logger.Level(lvl)
	logMu.Unlock()
	if lvl <= zerolog.DebugLevel {
		enabled = true
	}
	return nil
}

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet enables quiet mode (suppress non-essential output)
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quietMode
}

// Logf writes a debug line when debugging is enabled.
func Logf(format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	logger.Debug().Msg(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

// Warnf writes a warning line regardless of the debug setting. Warnings are
// suppressed only in quiet mode.
func Warnf(format string, args ...interface{}) {
	if quietMode {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	logger.Warn().Msg(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

// Logger returns a child logger tagged with component, for callers that want
// structured fields.
func Logger(component string) zerolog.Logger {
	logMu.Lock()
	defer logMu.Unlock()
	l := logger.With().Str("component", component).Logger()
	if !Enabled() {
		l = l.Level(zerolog.WarnLevel)
	}
	return l
}

// PrintNormal prints output unless quiet mode is enabled
// Use this for normal informational output that should be suppressed in quiet mode
func PrintNormal(format string, args ...interface{}) {
	if !quietMode {
		fmt.Fprintf(stdout, format, args...)
	}
}

// PrintlnNormal prints a line unless quiet mode is enabled
func PrintlnNormal(args ...interface{}) {
	if !quietMode {
		fmt.Fprintln(stdout, args...)
	}
}
