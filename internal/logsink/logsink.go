// Package logsink implements gs4's log file: every message is mirrored to
// both a gs4.log file and stdout, formatted "<LEVEL> - <message>", and the
// file is relocated next to the repo on failure or removed on success.
//
// It is built as a github.com/apex/log Handler, generalizing the
// single-destination glog-style handler cmd/git-sync/git-sync.go installs
// with log.SetHandler into the two-destination, five-level,
// rename-on-failure shape this tool's log file needs.
package logsink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/apex/log"
	isatty "github.com/mattn/go-isatty"
)

// Logger is the small leveled-logging surface the reconciler and its
// collaborators use. It deliberately doesn't expose apex/log's richer
// field API: every caller here just wants a level and a formatted line.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Criticalf(format string, args ...interface{})
}

// Sink owns the gs4.log file and implements both log.Handler and Logger.
type Sink struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	tty      bool
	failed   bool
	repoDir  string
}

var _ log.Handler = (*Sink)(nil)
var _ Logger = (*Sink)(nil)

// Interactive reports whether stdout is a terminal, so callers like
// cmd/gs4 can decide whether to print a one-line banner before a
// long-running clone or fetch in addition to the mirrored log line.
func (s *Sink) Interactive() bool { return s.tty }

// Open creates (truncating) gs4.log in dir and installs it as the active
// apex/log handler. repoDir is where the log is relocated to on Close(err)
// when err != nil.
func Open(dir, repoDir string) (*Sink, error) {
	path := filepath.Join(dir, "gs4.log")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	s := &Sink{
		file:    f,
		path:    path,
		tty:     isatty.IsTerminal(os.Stdout.Fd()),
		repoDir: repoDir,
	}
	log.SetHandler(s)
	return s, nil
}

// SetLevel adjusts the minimum apex/log level that reaches HandleLog;
// Debug messages are dropped unless verbose logging was requested.
func SetLevel(verbose bool) {
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func levelName(l log.Level) string {
	switch l {
	case log.DebugLevel:
		return "DEBUG"
	case log.InfoLevel:
		return "INFO"
	case log.WarnLevel:
		return "WARN"
	case log.ErrorLevel:
		return "ERROR"
	case log.FatalLevel:
		// apex/log has no "critical" level of its own; CRITICAL is this
		// tool's name for what apex/log calls Fatal, since logging a
		// CRITICAL line here never itself calls os.Exit (the entry point
		// owns exit codes).
		return "CRITICAL"
	default:
		return "INFO"
	}
}

// HandleLog implements apex/log.Handler.
func (s *Sink) HandleLog(e *log.Entry) error {
	line := fmt.Sprintf("%s - %s\n", levelName(e.Level), e.Message)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		io.WriteString(s.file, line)
	}
	io.WriteString(os.Stdout, line)
	return nil
}

func (s *Sink) logf(level log.Level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	switch level {
	case log.DebugLevel:
		log.Debug(msg)
	case log.InfoLevel:
		log.Info(msg)
	case log.WarnLevel:
		log.Warn(msg)
	case log.ErrorLevel:
		log.Error(msg)
	case log.FatalLevel:
		if level == log.FatalLevel {
			s.markFailed()
		}
		// Route through HandleLog directly: apex/log's package-level
		// Fatal() calls os.Exit(1), which this tool does not want here.
		s.HandleLog(&log.Entry{Level: log.FatalLevel, Message: msg})
	}
}

func (s *Sink) markFailed() {
	s.mu.Lock()
	s.failed = true
	s.mu.Unlock()
}

// Debugf logs at DEBUG.
func (s *Sink) Debugf(format string, args ...interface{}) { s.logf(log.DebugLevel, format, args...) }

// Infof logs at INFO.
func (s *Sink) Infof(format string, args ...interface{}) { s.logf(log.InfoLevel, format, args...) }

// Warnf logs at WARN.
func (s *Sink) Warnf(format string, args ...interface{}) { s.logf(log.WarnLevel, format, args...) }

// Errorf logs at ERROR.
func (s *Sink) Errorf(format string, args ...interface{}) { s.logf(log.ErrorLevel, format, args...) }

// Criticalf logs at CRITICAL and marks the sink as having seen a fatal
// condition, so Close relocates the log file instead of removing it even
// if the caller forgets to pass a non-nil error.
func (s *Sink) Criticalf(format string, args ...interface{}) {
	s.logf(log.FatalLevel, format, args...)
}

// Close finalizes the log file: on success (err == nil and no CRITICAL
// line was ever logged) the file is removed; on failure it's renamed to
// <repoDir>/gs4.failed.log when repoDir is a directory, otherwise left in
// place.
func (s *Sink) Close(err error) error {
	s.mu.Lock()
	failed := err != nil || s.failed
	path := s.path
	repoDir := s.repoDir
	f := s.file
	s.file = nil
	s.mu.Unlock()

	if f != nil {
		f.Close()
	}

	if !failed {
		return os.Remove(path)
	}
	if fi, statErr := os.Stat(repoDir); statErr == nil && fi.IsDir() {
		return os.Rename(path, filepath.Join(repoDir, "gs4.failed.log"))
	}
	return nil
}
