package storage

import (
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shelfcheck/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var sampleRecords = []types.BookAvailability{
	{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719", Library: "City Library", Available: true, Format: types.FormatBook},
	{Title: "Hyperion", Author: "Dan Simmons", Library: "County Library", Available: true, Format: types.FormatAudiobook},
}

func TestJSONStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "availability.json")

	s, err := NewJSONStorage(path, testLogger)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Store(sampleRecords); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var got []types.BookAvailability
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Dune" || got[1].Format != types.FormatAudiobook {
		t.Fatalf("unexpected output: %+v", got)
	}
}

func TestJSONLStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "availability.jsonl")

	s, err := NewJSONLStorage(path, testLogger)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Store(sampleRecords); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var first types.BookAvailability
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if first.Library != "City Library" {
		t.Errorf("unexpected first record: %+v", first)
	}
}

func TestCSVStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "availability.csv")

	s, err := NewCSVStorage(path, testLogger)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Store(sampleRecords); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "title" || rows[0][4] != "available" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "Dune" || rows[1][4] != "true" || rows[1][5] != "Book" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
}
