package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "warn", false)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Fatalf("messages below level written: %q", out)
	}
	if !strings.Contains(out, "[WARN] warn 3") || !strings.Contains(out, "[ERROR] error 4") {
		t.Fatalf("missing messages: %q", out)
	}
}

func TestVerboseGating(t *testing.T) {
	var quiet, loud bytes.Buffer
	NewLoggerTo(&quiet, "info", false).Progress("🔍", "step")
	NewLoggerTo(&loud, "info", true).Progress("🔍", "step")
	NewLoggerTo(&quiet, "error", false).ProgressAlways("✅", "done")

	if strings.Contains(quiet.String(), "step") {
		t.Fatal("Progress written without verbose")
	}
	if !strings.Contains(loud.String(), "🔍 step") {
		t.Fatalf("verbose Progress missing: %q", loud.String())
	}
	if !strings.Contains(quiet.String(), "✅ done") {
		t.Fatal("ProgressAlways suppressed")
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	if parseLogLevel("loud") != LevelInfo || parseLogLevel("DEBUG") != LevelDebug {
		t.Fatal("unexpected level parsing")
	}
}
