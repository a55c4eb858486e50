// Package logging implements a namespaced structured logger as an
// injected adapter (`Logger.log(namespace, …)`): a custom
// logrus.Formatter plus optional lumberjack-backed file rotation. A gin
// writer hookup and log-directory cleaner are deliberately not part of
// this package — both would only serve an HTTP server and admin UI,
// which this library does not have.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the namespaced logging surface the interpreter and driver are
// given; namespace is typically a component name ("onesdk", "interpreter",
// "watcher").
type Logger interface {
	Log(namespace string, args ...any)
}

// Options configures a logrus-backed Logger.
type Options struct {
	// Output receives log lines when FilePath is empty. Defaults to os.Stdout.
	Output io.Writer
	// FilePath, if set, routes output through a rotating lumberjack.Logger
	// instead of Output.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// namespaceFormatter renders "[timestamp] [level] [namespace] message".
type namespaceFormatter struct{}

func (namespaceFormatter) Format(entry *log.Entry) ([]byte, error) {
	buffer := &bytes.Buffer{}
	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}
	namespace := "-"
	if ns, ok := entry.Data["namespace"].(string); ok && ns != "" {
		namespace = ns
	}
	message := strings.TrimRight(entry.Message, "\r\n")
	fmt.Fprintf(buffer, "[%s] [%-5s] [%s] %s\n", timestamp, level, namespace, message)
	return buffer.Bytes(), nil
}

type logrusLogger struct {
	mu     sync.Mutex
	logger *log.Logger
	closer io.Closer
}

var _ Logger = (*logrusLogger)(nil)

// New constructs a Logger per opts. Each Logger owns an independent
// logrus.Logger instance rather than mutating the package-global one, so
// multiple Clients in one process don't fight over output.
func New(opts Options) Logger {
	l := log.New()
	l.SetFormatter(namespaceFormatter{})

	var closer io.Closer
	if opts.FilePath != "" {
		writer := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		l.SetOutput(writer)
		closer = writer
	} else if opts.Output != nil {
		l.SetOutput(opts.Output)
	} else {
		l.SetOutput(os.Stdout)
	}

	return &logrusLogger{logger: l, closer: closer}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func (l *logrusLogger) Log(namespace string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.WithField("namespace", namespace).Info(fmt.Sprint(args...))
}

// Close releases the underlying rotating file, if any.
func (l *logrusLogger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Nop is a Logger that discards everything; used where no Logger was
// configured so callers never need a nil check.
type Nop struct{}

var _ Logger = Nop{}

func (Nop) Log(namespace string, args ...any) {}
