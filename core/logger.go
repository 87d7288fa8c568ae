package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProductionLogger is the default Logger implementation.
//
// Design principles:
//   - Self-contained: no external logging dependency to keep the core light
//   - Production-ready: JSON format in K8s, text for local dev
//   - Rate-limited: prevents error-log flooding while the network is down
//   - Thread-safe: safe for concurrent access
type ProductionLogger struct {
	level     string
	debug     bool
	component string
	format    string
	output    io.Writer
	mu        sync.Mutex

	// Rate limiting to prevent log flooding during failures
	errorLimiter *logRateLimiter
}

// NewProductionLogger creates a logger from the logging configuration.
// Configuration priority:
//  1. Explicit LoggingConfig values (highest)
//  2. Environment variables (STOREFRONT_LOG_LEVEL, STOREFRONT_DEBUG)
//  3. Auto-detection (K8s environment)
func NewProductionLogger(cfg LoggingConfig, component string) *ProductionLogger {
	level := strings.ToUpper(cfg.Level)
	if level == "" {
		level = strings.ToUpper(os.Getenv("STOREFRONT_LOG_LEVEL"))
	}
	if level == "" {
		level = "INFO"
	}

	debug := os.Getenv("STOREFRONT_DEBUG") == "true" || level == "DEBUG"

	format := cfg.Format
	if format == "" {
		format = "text"
		if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
			format = "json" // Use JSON in K8s for log aggregation
		}
	}

	var output io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		output = os.Stderr
	}

	return &ProductionLogger{
		level:        level,
		debug:        debug,
		component:    component,
		format:       format,
		output:       output,
		errorLimiter: newLogRateLimiter(time.Second),
	}
}

// SetOutput redirects log output, mainly for tests
func (l *ProductionLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

// Info logs informational messages
func (l *ProductionLogger) Info(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

// Warn logs warning messages
func (l *ProductionLogger) Warn(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

// Error logs error messages with rate limiting
func (l *ProductionLogger) Error(msg string, fields map[string]interface{}) {
	if l.errorLimiter != nil && !l.errorLimiter.Allow() {
		return
	}
	l.log("ERROR", msg, fields)
}

// Debug logs debug messages (only when debug mode is enabled)
func (l *ProductionLogger) Debug(msg string, fields map[string]interface{}) {
	if !l.debug {
		return
	}
	l.log("DEBUG", msg, fields)
}

// log is the core logging implementation
func (l *ProductionLogger) log(level, msg string, fields map[string]interface{}) {
	if !l.shouldLog(level) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format(time.RFC3339)

	if l.format == "json" {
		l.logJSON(timestamp, level, msg, fields)
	} else {
		l.logText(timestamp, level, msg, fields)
	}
}

// logJSON outputs structured JSON logs
func (l *ProductionLogger) logJSON(timestamp, level, msg string, fields map[string]interface{}) {
	logEntry := map[string]interface{}{
		"timestamp": timestamp,
		"level":     level,
		"component": l.component,
		"message":   msg,
	}

	for k, v := range fields {
		// Avoid overwriting core fields
		if k != "timestamp" && k != "level" && k != "component" && k != "message" {
			logEntry[k] = v
		}
	}

	if data, err := json.Marshal(logEntry); err == nil {
		fmt.Fprintln(l.output, string(data))
	}
}

// logText outputs human-readable text logs
func (l *ProductionLogger) logText(timestamp, level, msg string, fields map[string]interface{}) {
	var fieldStr strings.Builder
	if len(fields) > 0 {
		fieldStr.WriteString(" ")
		// Surface the error field first for readability
		if err, ok := fields["error"]; ok {
			fieldStr.WriteString(fmt.Sprintf("error=%q ", fmt.Sprintf("%v", err)))
		}
		for k, v := range fields {
			if k == "error" {
				continue
			}
			fieldStr.WriteString(fmt.Sprintf("%s=%v ", k, v))
		}
	}

	fmt.Fprintf(l.output, "%s [%s] [%s] %s%s\n",
		timestamp, level, l.component, msg, fieldStr.String())
}

// shouldLog determines if a log level should be output
func (l *ProductionLogger) shouldLog(level string) bool {
	levels := map[string]int{
		"DEBUG": 0,
		"INFO":  1,
		"WARN":  2,
		"ERROR": 3,
	}

	currentLevel, ok1 := levels[l.level]
	messageLevel, ok2 := levels[level]

	// Default to logging if levels are unknown
	if !ok1 || !ok2 {
		return true
	}

	return messageLevel >= currentLevel
}

// logRateLimiter allows at most one event per interval
type logRateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func newLogRateLimiter(interval time.Duration) *logRateLimiter {
	return &logRateLimiter{interval: interval}
}

// Allow reports whether an event may proceed now
func (r *logRateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if now.Sub(r.last) < r.interval {
		return false
	}
	r.last = now
	return true
}
