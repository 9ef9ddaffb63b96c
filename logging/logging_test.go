package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{" error ", ErrorLevel, false},
		{"fatal", FatalLevel, false},
		{"verbose", InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLoggerLevelsAndFields(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &errOut)
	child := logger.WithFields(Fields{"component": "test", "a": 1})

	child.Debug("hidden")
	if out.Len() != 0 {
		t.Fatalf("debug should be filtered at info level, got %q", out.String())
	}

	// level changes on the root reach existing children
	logger.SetLevel(DebugLevel)
	child.Debug("visible", Fields{"b": 2})
	line := out.String()
	if !strings.Contains(line, "[DEBUG] visible") {
		t.Fatalf("missing debug line: %q", line)
	}
	if !strings.Contains(line, "a=1 b=2 component=test") {
		t.Fatalf("fields not sorted/merged: %q", line)
	}

	child.Error(errors.New("boom"), "failed")
	if !strings.Contains(errOut.String(), "[ERROR] failed: boom") {
		t.Fatalf("error line missing: %q", errOut.String())
	}
}

func TestWithContextFields(t *testing.T) {
	var out bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &out)

	ctx := ContextWithFields(context.Background(), Fields{"request_id": "abc"})
	ctx = ContextWithFields(ctx, Fields{"route": "/x"})
	logger.WithContext(ctx).Info("hello")

	line := out.String()
	if !strings.Contains(line, "request_id=abc") || !strings.Contains(line, "route=/x") {
		t.Fatalf("context fields missing: %q", line)
	}
}

func TestFatalUsesExitHook(t *testing.T) {
	var out bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &out)
	code := -1
	logger.exit = func(c int) { code = c }

	logger.Fatal(errors.New("bad"), "stop")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(prev) })

	SetGlobalLogger(nil)
	if _, ok := GetGlobalLogger().(*NoOpLogger); !ok {
		t.Fatalf("nil logger should install NoOpLogger, got %T", GetGlobalLogger())
	}
	Info("dropped")
}
