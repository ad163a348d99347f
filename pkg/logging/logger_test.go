// Copyright (C) 2026 Arclight AI (oss@arclight.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelMapping(t *testing.T) {
	tests := []struct {
		level    Level
		name     string
		slogWant slog.Level
	}{
		{LevelDebug, "DEBUG", slog.LevelDebug},
		{LevelInfo, "INFO", slog.LevelInfo},
		{LevelWarn, "WARN", slog.LevelWarn},
		{LevelError, "ERROR", slog.LevelError},
		{Level(99), "UNKNOWN", slog.LevelInfo},
		{Level(-1), "UNKNOWN", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.name {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.name)
		}
		if got := tt.level.toSlogLevel(); got != tt.slogWant {
			t.Errorf("Level(%d).toSlogLevel() = %v, want %v", tt.level, got, tt.slogWant)
		}
	}

	if !(LevelDebug < LevelInfo && LevelInfo < LevelWarn && LevelWarn < LevelError) {
		t.Error("levels must be ordered Debug < Info < Warn < Error")
	}
}

func TestNewVariants(t *testing.T) {
	configs := map[string]Config{
		"zero":       {},
		"quiet":      {Quiet: true},
		"json":       {JSON: true, Quiet: true},
		"debug":      {Level: LevelDebug, Quiet: true},
		"service":    {Service: "probe-service", Quiet: true},
		"quiet+json": {JSON: true, Quiet: true, Level: LevelError},
	}

	for name, config := range configs {
		t.Run(name, func(t *testing.T) {
			logger := New(config)
			if logger == nil || logger.slog == nil {
				t.Fatal("New() must always yield a usable logger")
			}
			if logger.Slog() == nil {
				t.Error("Slog() returned nil")
			}
			if err := logger.Close(); err != nil {
				t.Errorf("Close() without a file: %v", err)
			}
		})
	}
}

func TestNewFileLogging(t *testing.T) {
	tmpDir := t.TempDir()
	logger := New(Config{LogDir: tmpDir, Service: "run", Quiet: true})
	defer logger.Close()

	if logger.file == nil {
		t.Fatal("file handle missing with LogDir set")
	}
	files, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || !strings.HasPrefix(files[0].Name(), "run_") {
		t.Errorf("log file = %v, want one file with prefix run_", files)
	}
}

func TestNewFileLogging_DefaultServiceName(t *testing.T) {
	tmpDir := t.TempDir()
	logger := New(Config{LogDir: tmpDir, Quiet: true})
	defer logger.Close()

	files, _ := os.ReadDir(tmpDir)
	if len(files) != 1 || !strings.HasPrefix(files[0].Name(), "nestor_") {
		t.Errorf("log file = %v, want nestor_ prefix when Service empty", files)
	}
}

func TestNewFileLogging_UnusableDir(t *testing.T) {
	// A directory that cannot be created degrades to stderr-only logging.
	logger := New(Config{LogDir: string([]byte{0}) + "/nope", Quiet: true})
	defer logger.Close()

	if logger.file != nil {
		t.Error("file handle must stay nil when the directory is unusable")
	}
}

func TestDefault(t *testing.T) {
	logger := Default()
	defer logger.Close()

	if logger.config.Level != LevelInfo {
		t.Errorf("level = %v, want LevelInfo", logger.config.Level)
	}
	if logger.config.Service != "nestor" {
		t.Errorf("service = %q, want nestor", logger.config.Service)
	}
}

func TestCloseReleasesFile(t *testing.T) {
	tmpDir := t.TempDir()
	logger := New(Config{LogDir: tmpDir, Service: "run", Quiet: true})
	logger.Slog().Info("before close")

	if err := logger.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}
	if _, err := logger.file.WriteString("after close"); err == nil {
		t.Error("writes must fail once the file is closed")
	}
}

func TestMultiHandlerFanOut(t *testing.T) {
	var relaxed, strict bytes.Buffer
	mh := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&relaxed, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&strict, &slog.HandlerOptions{Level: slog.LevelError}),
	}}

	// Enabled as soon as any member handler is.
	if !mh.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled(Debug) = false, the debug handler accepts it")
	}

	record := slog.Record{Level: slog.LevelInfo, Message: "fan out"}
	if err := mh.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle(): %v", err)
	}
	// Only the handler whose level admits the record receives it.
	if relaxed.Len() == 0 {
		t.Error("debug handler received nothing")
	}
	if strict.Len() != 0 {
		t.Error("error-level handler must not receive an info record")
	}
}

func TestMultiHandlerDerivedHandlers(t *testing.T) {
	var buf bytes.Buffer
	mh := &multiHandler{handlers: []slog.Handler{slog.NewTextHandler(&buf, nil)}}

	withAttrs := mh.WithAttrs([]slog.Attr{slog.String("k", "v")})
	if _, ok := withAttrs.(*multiHandler); !ok {
		t.Error("WithAttrs must keep the multiHandler wrapping")
	}
	withGroup := mh.WithGroup("g")
	if _, ok := withGroup.(*multiHandler); !ok {
		t.Error("WithGroup must keep the multiHandler wrapping")
	}
}

func TestMultiHandlerPropagatesErrors(t *testing.T) {
	mh := &multiHandler{handlers: []slog.Handler{
		failingHandler{err: errors.New("sink unavailable")},
	}}
	record := slog.Record{Level: slog.LevelInfo}
	if err := mh.Handle(context.Background(), record); err == nil {
		t.Error("Handle() must surface member handler errors")
	}
}

func TestMultiHandlerEmpty(t *testing.T) {
	mh := &multiHandler{}
	if mh.Enabled(context.Background(), slog.LevelError) {
		t.Error("an empty multiHandler accepts nothing")
	}
	if err := mh.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("Handle() on empty multiHandler: %v", err)
	}
}

// failingHandler always errors on Handle, for error-propagation tests.
type failingHandler struct{ err error }

func (h failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h failingHandler) Handle(context.Context, slog.Record) error { return h.err }
func (h failingHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h failingHandler) WithGroup(string) slog.Handler             { return h }

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/logs", filepath.Join(home, "logs")},
		{"~/.nestor/logs", filepath.Join(home, ".nestor/logs")},
		{"~", home},
		{"/var/log", "/var/log"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFileOutputIsJSONWithService(t *testing.T) {
	tmpDir := t.TempDir()
	logger := New(Config{Level: LevelInfo, LogDir: tmpDir, Service: "file-test", Quiet: true})

	logger.Slog().Info("recorded message", "key", "value")
	logger.Close()

	files, _ := os.ReadDir(tmpDir)
	if len(files) == 0 {
		t.Fatal("no log file written")
	}
	content, err := os.ReadFile(filepath.Join(tmpDir, files[0].Name()))
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"recorded message", `"key":"value"`, `"service":"file-test"`} {
		if !strings.Contains(string(content), want) {
			t.Errorf("log file missing %q:\n%s", want, content)
		}
	}
}
