package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"defaults", *DefaultConfig(), false},
		{"json to stdout", Config{Level: InfoLevel, Format: JSONFormat, Output: StdoutOutput}, false},
		{"file with path", Config{Level: ErrorLevel, Format: TextFormat, Output: FileOutput, File: "run.log"}, false},
		{"file without path", Config{Level: ErrorLevel, Format: TextFormat, Output: FileOutput}, true},
		{"unknown level", Config{Level: "trace", Format: TextFormat, Output: StderrOutput}, true},
		{"unknown format", Config{Level: InfoLevel, Format: "xml", Output: StderrOutput}, true},
		{"unknown output", Config{Level: InfoLevel, Format: TextFormat, Output: "syslog"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigVerbose(t *testing.T) {
	base := Config{Level: WarnLevel, Format: JSONFormat, Output: StdoutOutput}
	got := base.Verbose()

	if got.Level != DebugLevel || !got.CallerInfo {
		t.Errorf("expected debug level with caller info, got %+v", got)
	}
	if got.Format != JSONFormat || got.Output != StdoutOutput {
		t.Errorf("expected format and output kept, got %+v", got)
	}
	if base.Level != WarnLevel {
		t.Error("Verbose must not modify the receiver")
	}
	if empty := (Config{}).Verbose(); empty.Format != TextFormat {
		t.Errorf("expected text format fallback, got %q", empty.Format)
	}
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, InfoLevel, JSONFormat)

	log.Debug("hidden")
	log.WithComponent("matcher").WithFields(Fields{"green": 2}).Info("matched")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line above debug level, got %q", buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON line: %v", err)
	}
	if entry["component"] != "matcher" || entry["msg"] != "matched" || entry["green"] != float64(2) {
		t.Errorf("unexpected entry %v", entry)
	}
	if _, ok := entry["time"]; ok {
		t.Error("expected no timestamp")
	}
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reconciler.log")
	log, err := NewLogger(&Config{Level: DebugLevel, Format: TextFormat, Output: FileOutput, File: path})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Info("written")

	if _, err := NewLogger(&Config{Level: "loud", Format: TextFormat, Output: StderrOutput}); err == nil {
		t.Error("expected an invalid config to be rejected")
	}
}

func TestGlobalLogger(t *testing.T) {
	previous := GetGlobalLogger()
	defer SetGlobalLogger(previous)

	var buf bytes.Buffer
	SetGlobalLogger(NewWithWriter(&buf, DebugLevel, TextFormat))
	WithComponent("cli").Debug("hello")

	if !strings.Contains(buf.String(), "component=cli") {
		t.Errorf("expected component field, got %q", buf.String())
	}
}
