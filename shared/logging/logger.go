package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"video-qa/shared/config"
)

type fieldsKey struct{}

var (
	baseMu sync.RWMutex
	base   = newBase(os.Stderr)
)

func newBase(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Setup configures the process-wide logger.
func Setup(cfg config.LoggingConfig) error {
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return err
	}

	l := newBase(os.Stderr)
	l.SetLevel(level)
	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	SetBase(l)
	return nil
}

func SetBase(l *logrus.Logger) {
	baseMu.Lock()
	defer baseMu.Unlock()
	base = l
}

func Base() *logrus.Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()
	return base
}

// WithFields returns a context whose logger carries the given fields in
// addition to any already attached.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	merged := logrus.Fields{}
	if prev, ok := ctx.Value(fieldsKey{}).(logrus.Fields); ok {
		for k, v := range prev {
			merged[k] = v
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// FromContext returns a log entry bound to ctx and its attached fields.
func FromContext(ctx context.Context) *logrus.Entry {
	entry := Base().WithContext(ctx)
	if fields, ok := ctx.Value(fieldsKey{}).(logrus.Fields); ok {
		entry = entry.WithFields(fields)
	}
	return entry
}
