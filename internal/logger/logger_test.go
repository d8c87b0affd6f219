package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetLogger() {
	Init(Options{})
}

// --- Init Tests ---

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantDebug bool
		wantInfo  bool
		wantError bool
	}{
		{"default", Options{}, false, true, true},
		{"debug", Options{Debug: true}, true, true, true},
		{"quiet", Options{Quiet: true}, false, false, true},
		{"quiet overrides debug", Options{Debug: true, Quiet: true}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			opts := tt.opts
			opts.Output = buf
			Init(opts)
			defer resetLogger()

			Debug("debug line")
			Info("info line")
			Warn("warn line")
			Error("error line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "info line"); got != tt.wantInfo {
				t.Errorf("info logged = %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(out, "warn line"); got != tt.wantInfo {
				t.Errorf("warn logged = %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(out, "error line"); got != tt.wantError {
				t.Errorf("error logged = %v, want %v", got, tt.wantError)
			}
		})
	}
}

func TestInit_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{JSON: true, Output: buf})
	defer resetLogger()

	Info("test message", "count", 42)

	out := buf.String()
	if !strings.HasPrefix(out, "{") {
		t.Errorf("JSON format should produce JSON output, got %q", out)
	}
	for _, want := range []string{`"msg":"test message"`, `"level":"INFO"`, `"count":42`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}

func TestInit_TextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	Info("test message")

	if !strings.Contains(buf.String(), "level=INFO") {
		t.Errorf("text output should contain level=INFO, got %q", buf.String())
	}
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xscrape.log")
	buf := &bytes.Buffer{}
	Init(Options{Output: buf, File: path})
	defer resetLogger()

	Info("to both")
	if err := Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "to both") {
		t.Errorf("log file missing message: %q", data)
	}
	if !strings.Contains(buf.String(), "to both") {
		t.Error("message should also reach the primary output")
	}
}

func TestClose_NoFile(t *testing.T) {
	resetLogger()
	if err := Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// --- Redaction Tests ---

func TestRedactsSensitiveKeys(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	Info("login", "password", "hunter2", "OTP", "123456", "user", "jane")

	out := buf.String()
	if strings.Contains(out, "hunter2") || strings.Contains(out, "123456") {
		t.Errorf("sensitive value leaked: %q", out)
	}
	if !strings.Contains(out, "user=jane") {
		t.Errorf("ordinary attribute missing: %q", out)
	}
}

// --- With Tests ---

func TestWith_ReturnsLoggerWithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	l := With("component", "session")
	l.Info("test with attrs")

	if !strings.Contains(buf.String(), "component=session") {
		t.Errorf("expected attributes in output, got %q", buf.String())
	}
}

func TestSetLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	SetLogger(With("custom", "yes"))
	Info("hello")

	if !strings.Contains(buf.String(), "custom=yes") {
		t.Errorf("SetLogger should replace the default logger, got %q", buf.String())
	}
}

// --- Context Tests ---

func TestContextFunctions(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Debug: true, Output: buf})
	defer resetLogger()

	ctx := context.Background()
	DebugContext(ctx, "debug with context")
	InfoContext(ctx, "info with context")
	ErrorContext(ctx, "error with context")

	for _, want := range []string{"debug with context", "info with context", "error with context"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}
}
