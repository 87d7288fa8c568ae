package core

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newTestLogger(level, format string) (*ProductionLogger, *bytes.Buffer) {
	logger := NewProductionLogger(LoggingConfig{Level: level, Format: format}, "test")
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)
	return logger, buf
}

func TestProductionLogger_JSONOutput(t *testing.T) {
	logger, buf := newTestLogger("info", "json")

	logger.Info("Order submitted", map[string]interface{}{
		"operation": "submit_order",
		"order_id":  "order_1",
		"total":     620,
	})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	if entry["component"] != "test" {
		t.Errorf("component = %v, want test", entry["component"])
	}
	if entry["message"] != "Order submitted" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["order_id"] != "order_1" {
		t.Errorf("order_id = %v", entry["order_id"])
	}
}

func TestProductionLogger_LevelFiltering(t *testing.T) {
	logger, buf := newTestLogger("warn", "text")

	logger.Debug("too quiet", nil)
	logger.Info("still too quiet", nil)
	if buf.Len() != 0 {
		t.Errorf("debug/info leaked through warn level: %s", buf.String())
	}

	logger.Warn("loud enough", nil)
	if !strings.Contains(buf.String(), "loud enough") {
		t.Errorf("warn message missing: %s", buf.String())
	}
}

func TestProductionLogger_ErrorRateLimiting(t *testing.T) {
	logger, buf := newTestLogger("error", "text")

	for i := 0; i < 20; i++ {
		logger.Error("network unavailable", nil)
	}

	lines := strings.Count(buf.String(), "\n")
	if lines != 1 {
		t.Errorf("got %d error lines, want 1 (rate limited)", lines)
	}
}

func TestProductionLogger_TextSurfacesErrorFirst(t *testing.T) {
	logger, buf := newTestLogger("info", "text")

	logger.Warn("Remote API unreachable", map[string]interface{}{
		"error": "dial tcp: connection refused",
		"path":  "/api/orders",
	})

	out := buf.String()
	errIdx := strings.Index(out, "error=")
	pathIdx := strings.Index(out, "path=")
	if errIdx == -1 || pathIdx == -1 {
		t.Fatalf("expected both fields in output: %s", out)
	}
	if errIdx > pathIdx {
		t.Errorf("error field should come first: %s", out)
	}
}
