package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		ok       bool
	}{
		{"trace", LevelTrace, true},
		{"DBG", LevelDebug, true},
		{"info", LevelInfo, true},
		{"wrn", LevelWarn, true},
		{"critical", LevelCritical, true},
		{"off", LevelOff, true},
		{"loud", LevelInfo, false},
	}
	for _, test := range tests {
		level, ok := LevelFromString(test.input)
		if ok != test.ok || level != test.expected {
			t.Errorf("LevelFromString(%q): got (%s, %t), want (%s, %t)",
				test.input, level, ok, test.expected, test.ok)
		}
	}
}

func TestParseAndSetLogLevels(t *testing.T) {
	first := RegisterSubSystem("TST1")
	second := RegisterSubSystem("TST2")

	err := ParseAndSetLogLevels("TST1=trace,TST2=error")
	if err != nil {
		t.Fatalf("ParseAndSetLogLevels: %+v", err)
	}
	if first.Level() != LevelTrace {
		t.Fatalf("unexpected TST1 level %s", first.Level())
	}
	if second.Level() != LevelError {
		t.Fatalf("unexpected TST2 level %s", second.Level())
	}

	err = ParseAndSetLogLevels("warn")
	if err != nil {
		t.Fatalf("ParseAndSetLogLevels: %+v", err)
	}
	if first.Level() != LevelWarn || second.Level() != LevelWarn {
		t.Fatalf("expected all subsystems at warn, got %s and %s", first.Level(), second.Level())
	}

	if ParseAndSetLogLevels("TST1") == nil {
		t.Fatalf("expected an error for a bare subsystem name")
	}
	if ParseAndSetLogLevels("TST1=loud,TST2=info") == nil {
		t.Fatalf("expected an error for an invalid level")
	}
}

func TestRegisterSubSystemReturnsSameLogger(t *testing.T) {
	if RegisterSubSystem("TST3") != RegisterSubSystem("TST3") {
		t.Fatalf("RegisterSubSystem returned two different loggers for the same tag")
	}
}

func TestBackendLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "test.log")

	backend := NewBackendWithFlags(0)
	err := backend.AddLogFile(logFile, LevelWarn, RotationOptions{})
	if err == nil {
		t.Fatalf("AddLogFile: expected an error for an empty rotation")
	}
	err = backend.AddLogFile(logFile, LevelWarn, DefaultRotationOptions)
	if err != nil {
		t.Fatalf("AddLogFile: %+v", err)
	}
	err = backend.Run()
	if err != nil {
		t.Fatalf("Run: %+v", err)
	}
	err = backend.AddLogFile(logFile, LevelWarn, DefaultRotationOptions)
	if err == nil {
		t.Fatalf("AddLogFile: expected an error on a running backend")
	}

	log := backend.Logger("TEST")
	log.SetLevel(LevelTrace)
	log.Infof("filtered out")
	log.Warnf("written")
	backend.Close()
	backend.Close()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("ReadFile: %+v", err)
	}
	if strings.Contains(string(content), "filtered out") || !strings.Contains(string(content), "[WRN] TEST: written") {
		t.Fatalf("unexpected log file content: %q", content)
	}
}
