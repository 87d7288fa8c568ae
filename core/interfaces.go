package core

import (
	"context"
	"time"
)

// Logger interface - minimal logging interface
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Debug(msg string, fields map[string]interface{})
}

// Telemetry interface - optional telemetry support
type Telemetry interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
	RecordMetric(name string, value float64, labels map[string]string)
}

// Span represents a telemetry span
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	RecordError(err error)
}

// Memory interface for durable key-value state storage. The local fallback
// store sits on top of this; Redis and in-memory implementations are provided.
type Memory interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Severity classifies user-visible notices
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// RenderSink receives fresh cart snapshots to redraw and transient notices to
// display. It decouples the cart and session state machines from any
// particular UI toolkit; implementations must not call back into the core.
type RenderSink interface {
	RenderCart(snapshot CartSnapshot)
	Notify(message string, severity Severity)
}

// Default no-op implementations

// NoOpLogger provides a no-op logger implementation
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Error(msg string, fields map[string]interface{}) {}
func (n *NoOpLogger) Warn(msg string, fields map[string]interface{})  {}
func (n *NoOpLogger) Debug(msg string, fields map[string]interface{}) {}

// NoOpTelemetry provides a no-op telemetry implementation
type NoOpTelemetry struct{}

func (n *NoOpTelemetry) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return ctx, &NoOpSpan{}
}

func (n *NoOpTelemetry) RecordMetric(name string, value float64, labels map[string]string) {}

// NoOpSpan provides a no-op span implementation
type NoOpSpan struct{}

func (n *NoOpSpan) End()                                       {}
func (n *NoOpSpan) SetAttribute(key string, value interface{}) {}
func (n *NoOpSpan) RecordError(err error)                      {}

// NoOpRenderSink discards snapshots and notices
type NoOpRenderSink struct{}

func (n *NoOpRenderSink) RenderCart(snapshot CartSnapshot)         {}
func (n *NoOpRenderSink) Notify(message string, severity Severity) {}

// LogRenderSink renders through a Logger, useful for headless deployments
// and demos where no real UI is attached
type LogRenderSink struct {
	Logger Logger
}

// NewLogRenderSink creates a sink that writes renders and notices to logger
func NewLogRenderSink(logger Logger) *LogRenderSink {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	return &LogRenderSink{Logger: logger}
}

func (l *LogRenderSink) RenderCart(snapshot CartSnapshot) {
	l.Logger.Info("Cart updated", map[string]interface{}{
		"operation": "render_cart",
		"lines":     len(snapshot.Items),
		"count":     snapshot.Count,
		"total":     snapshot.Total,
	})
}

func (l *LogRenderSink) Notify(message string, severity Severity) {
	fields := map[string]interface{}{
		"operation": "notify",
		"severity":  string(severity),
	}
	switch severity {
	case SeverityError:
		l.Logger.Error(message, fields)
	case SeverityWarning:
		l.Logger.Warn(message, fields)
	default:
		l.Logger.Info(message, fields)
	}
}
