package observability

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.RunsTotal.Add(3)
	m.RunsFailed.Add(1)
	m.ResultsKept.Add(7)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"shelfcheck_runs_total 3",
		"shelfcheck_runs_failed_total 1",
		"shelfcheck_results_kept_total 7",
		"shelfcheck_lookups_total 0",
		"# TYPE shelfcheck_runs_total counter",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q:\n%s", want, body)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("unexpected content type %q", ct)
	}
}
