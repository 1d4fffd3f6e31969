package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"inspiration-batch/internal/catalog"
	"inspiration-batch/internal/config"
)

func executeGenerate(t *testing.T, c config.Config, args ...string) error {
	t.Helper()

	prevCfg, prevLogger := cfg, logger
	t.Cleanup(func() { cfg, logger = prevCfg, prevLogger })
	cfg = c
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	if args == nil {
		args = []string{}
	}

	cmd := newGenerateCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func TestGenerateChecksKeyBeforeCatalog(t *testing.T) {
	dir := t.TempDir()
	c := config.Config{
		CatalogPath: filepath.Join(dir, "missing.json"),
		OutputDir:   filepath.Join(dir, "out"),
	}

	tests := []struct {
		name string
		args []string
	}{
		{name: "ids", args: []string{"--ids", "10015,10024"}},
		{name: "range", args: []string{"--start", "0", "--end", "10"}},
		// Both bounds at their zero default still select range mode.
		{name: "empty range", args: []string{"--start", "0", "--end", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := executeGenerate(t, c, tt.args...)
			if !errors.Is(err, config.ErrMissingAPIKey) {
				t.Fatalf("expected ErrMissingAPIKey, got %v", err)
			}
		})
	}

	if _, err := os.Stat(c.OutputDir); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("output directory touched: %v", err)
	}
}

func TestGenerateRejectsBadSelection(t *testing.T) {
	c := config.Config{CatalogPath: filepath.Join(t.TempDir(), "missing.json")}

	tests := []struct {
		name      string
		args      []string
		selection bool
	}{
		{name: "nothing selected", args: nil, selection: true},
		{name: "negative start", args: []string{"--start=-1", "--end=5"}, selection: true},
		{name: "range and ids", args: []string{"--start", "0", "--end", "5", "--ids", "10015"}},
		{name: "start without end", args: []string{"--start", "3"}},
		{name: "positional args", args: []string{"10015"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := executeGenerate(t, c, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, config.ErrMissingAPIKey) {
				t.Fatalf("selection was not checked first: %v", err)
			}
			if tt.selection && !errors.Is(err, catalog.ErrSelection) {
				t.Fatalf("expected ErrSelection, got %v", err)
			}
		})
	}
}

func TestGenerateReportsUnreadableCatalog(t *testing.T) {
	dir := t.TempDir()
	c := config.Config{
		GeminiAPIKey: "key",
		CatalogPath:  filepath.Join(dir, "missing.json"),
		OutputDir:    filepath.Join(dir, "out"),
	}

	err := executeGenerate(t, c, "--ids", "10015")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected a missing catalog error, got %v", err)
	}
	if _, err := os.Stat(c.OutputDir); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("output directory touched: %v", err)
	}
}
