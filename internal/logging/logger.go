// Package logging provides structured logging for the Kamui coordination
// core, built on logrus.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ContextKey is the type used for context keys defined by this package.
type ContextKey string

const (
	// CorrelationIDKey tags log lines belonging to one batch or one
	// request's lifecycle.
	CorrelationIDKey ContextKey = "correlation_id"
	// SubscriptionKey tags log lines with the subscription they concern.
	SubscriptionKey ContextKey = "subscription"
)

// Logger wraps logrus.Logger with Kamui-specific context helpers.
type Logger struct {
	*logrus.Logger
	component string
}

// New creates a Logger for the named component ("coordinator", "registry",
// "batch", ...).
func New(component, level, format string) *Logger {
	logger := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	logger.SetOutput(os.Stdout)

	return &Logger{Logger: logger, component: component}
}

// NewFromEnv builds a Logger using the KAMUI_LOG_LEVEL and KAMUI_LOG_FORMAT
// environment variables, defaulting to "info" and "json".
func NewFromEnv(component string) *Logger {
	level := strings.TrimSpace(os.Getenv("KAMUI_LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(os.Getenv("KAMUI_LOG_FORMAT"))
	if format == "" {
		format = "json"
	}
	return New(component, level, format)
}

// WithContext returns an entry pre-populated with the component name and
// any correlation/subscription IDs carried on ctx.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.WithField("component", l.component)
	if v, ok := ctx.Value(CorrelationIDKey).(string); ok && v != "" {
		entry = entry.WithField("correlation_id", v)
	}
	if v, ok := ctx.Value(SubscriptionKey).(string); ok && v != "" {
		entry = entry.WithField("subscription", v)
	}
	return entry
}

// WithCorrelationID returns a child context carrying the given correlation
// ID for later retrieval by WithContext.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}
