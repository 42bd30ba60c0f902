package logger

import (
	"bytes"
	"strings"
	"testing"

	"insights-export/internal/config"

	json "github.com/goccy/go-json"
)

func TestNewAddsCommonFields(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{ServiceName: "insights-export", InstanceID: "host-1", LogLevel: "info"}

	l := Component(newWithWriter(cfg, &buf), "export")
	l.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	for key, want := range map[string]string{
		"service":   "insights-export",
		"instance":  "host-1",
		"component": "export",
		"message":   "hello",
		"level":     "info",
	} {
		if entry[key] != want {
			t.Errorf("%s: got %v, want %s", key, entry[key], want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{LogLevel: "WARN"}

	l := newWithWriter(cfg, &buf)
	l.Info().Msg("dropped")
	l.Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(config.Config{LogLevel: "loud"}, &buf)
	l.Debug().Msg("debug")
	l.Info().Msg("info")

	if strings.Contains(buf.String(), `"debug"`) || !strings.Contains(buf.String(), `"info"`) {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestSamplingNeverDropsErrors(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(config.Config{LogLevel: "info", LogSampleN: 1000}, &buf)
	for i := 0; i < 5; i++ {
		l.Error().Msg("boom")
	}
	if got := strings.Count(buf.String(), "boom"); got != 5 {
		t.Fatalf("errors sampled: got %d lines", got)
	}
}
