package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"shelfcheck/internal/types"
)

// --- JSON Storage ---

// JSONStorage writes records as a JSON array to a file on Close.
type JSONStorage struct {
	path    string
	records []types.BookAvailability
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewJSONStorage creates a new JSON file storage.
func NewJSONStorage(outputPath string, logger *slog.Logger) (*JSONStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, &types.StorageError{Backend: "json", Err: fmt.Errorf("create output dir: %w", err)}
	}
	return &JSONStorage{
		path:   outputPath,
		logger: logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(records []types.BookAvailability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	s.logger.Debug("records buffered", "count", len(records), "total", len(s.records))
	return nil
}

func (s *JSONStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return &types.StorageError{Backend: "json", Err: err}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.records); err != nil {
		return &types.StorageError{Backend: "json", Err: err}
	}

	s.logger.Info("JSON written", "path", s.path, "records", len(s.records))
	return nil
}

// --- JSONL Storage ---

// JSONLStorage writes records as newline-delimited JSON as they arrive.
type JSONLStorage struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	count  int
	mu     sync.Mutex
	logger *slog.Logger
}

// NewJSONLStorage creates a new JSONL file storage.
func NewJSONLStorage(outputPath string, logger *slog.Logger) (*JSONLStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, &types.StorageError{Backend: "jsonl", Err: fmt.Errorf("create output dir: %w", err)}
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, &types.StorageError{Backend: "jsonl", Err: err}
	}
	return &JSONLStorage{
		path:   outputPath,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(records []types.BookAvailability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if err := s.enc.Encode(r); err != nil {
			return &types.StorageError{Backend: "jsonl", Err: err}
		}
	}
	s.count += len(records)
	return nil
}

func (s *JSONLStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Info("JSONL written", "path", s.path, "records", s.count)
	return s.file.Close()
}

// --- CSV Storage ---

var csvHeader = []string{"title", "author", "isbn", "library", "available", "format", "branch"}

// CSVStorage writes records as CSV rows with a fixed header.
type CSVStorage struct {
	path   string
	file   *os.File
	writer *csv.Writer
	count  int
	mu     sync.Mutex
	logger *slog.Logger
}

// NewCSVStorage creates a new CSV file storage.
func NewCSVStorage(outputPath string, logger *slog.Logger) (*CSVStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("create output dir: %w", err)}
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: err}
	}
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return nil, &types.StorageError{Backend: "csv", Err: err}
	}
	return &CSVStorage{
		path:   outputPath,
		file:   f,
		writer: w,
		logger: logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(records []types.BookAvailability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		row := []string{
			r.Title,
			r.Author,
			r.ISBN,
			r.Library,
			strconv.FormatBool(r.Available),
			string(r.Format),
			r.Branch,
		}
		if err := s.writer.Write(row); err != nil {
			return &types.StorageError{Backend: "csv", Err: err}
		}
	}
	s.count += len(records)
	return nil
}

func (s *CSVStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return &types.StorageError{Backend: "csv", Err: err}
	}
	s.logger.Info("CSV written", "path", s.path, "records", s.count)
	return s.file.Close()
}
