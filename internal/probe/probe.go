// Package probe answers "does this catalog respond at all?" over plain
// HTTP, without spending a browser session on the question. A reachable
// entry page does not guarantee a working search form, but an
// unreachable one predicts an empty run.
package probe

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"

	"shelfcheck/internal/catalog"
)

// SourceStatus is one source's reachability report.
type SourceStatus struct {
	Key       string        `json:"key"`
	Label     string        `json:"label"`
	URL       string        `json:"url"`
	Reachable bool          `json:"reachable"`
	Status    int           `json:"status,omitempty"`
	Latency   time.Duration `json:"latency_ns"`
	Error     string        `json:"error,omitempty"`
}

// Prober performs plain-HTTP reachability checks against catalog entry
// pages.
type Prober struct {
	client *http.Client
	logger *slog.Logger
}

// NewProber creates a Prober with the given per-request timeout.
func NewProber(timeout time.Duration, logger *slog.Logger) *Prober {
	transport := &http.Transport{
		MaxIdleConns:    4,
		IdleConnTimeout: 30 * time.Second,
		// Decompression is handled here so brotli works too.
		DisableCompression: true,
	}
	return &Prober{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		logger: logger.With("component", "probe"),
	}
}

// Check probes every source and returns one status per source, in input
// order.
func (p *Prober) Check(ctx context.Context, sources []catalog.Source) []SourceStatus {
	statuses := make([]SourceStatus, len(sources))
	for i, src := range sources {
		statuses[i] = p.checkOne(ctx, src)
	}
	return statuses
}

func (p *Prober) checkOne(ctx context.Context, src catalog.Source) SourceStatus {
	status := SourceStatus{Key: src.Key, Label: src.Label, URL: src.BaseURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.BaseURL, nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	start := time.Now()
	resp, err := p.client.Do(req)
	status.Latency = time.Since(start)
	if err != nil {
		p.logger.Warn("source unreachable", "source", src.Key, "error", err)
		status.Error = err.Error()
		return status
	}
	defer resp.Body.Close()

	status.Status = resp.StatusCode
	status.Reachable = resp.StatusCode >= 200 && resp.StatusCode < 400

	// Drain a little of the body through the decompressor to confirm the
	// response is actually readable, not just a status line.
	reader, err := decompressReader(resp, io.LimitReader(resp.Body, 64<<10))
	if err == nil {
		_, err = io.Copy(io.Discard, reader)
	}
	if err != nil {
		p.logger.Warn("source body unreadable", "source", src.Key, "error", err)
		status.Reachable = false
		status.Error = err.Error()
	}

	p.logger.Debug("probe complete",
		"source", src.Key,
		"status", status.Status,
		"reachable", status.Reachable,
		"latency", status.Latency,
	)
	return status
}

// decompressReader wraps a reader with the appropriate decompressor.
// Handles gzip, deflate, and brotli (br) encodings.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}
