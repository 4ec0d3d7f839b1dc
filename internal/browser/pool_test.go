package browser

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/go-rod/rod"

	"shelfcheck/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestAcquireLaunchesOncePerSource(t *testing.T) {
	launches := 0
	p := NewSessionPool(true, testLogger)
	p.launch = func() (*rod.Browser, error) {
		launches++
		return &rod.Browser{}, nil
	}

	first, err := p.Acquire("slcpl")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	second, err := p.Acquire("slcpl")
	if err != nil {
		t.Fatalf("acquire again: %v", err)
	}
	if first != second {
		t.Error("expected the same session on repeated acquire")
	}
	if launches != 1 {
		t.Errorf("expected 1 launch, got %d", launches)
	}

	if _, err := p.Acquire("slco"); err != nil {
		t.Fatalf("acquire second source: %v", err)
	}
	if launches != 2 {
		t.Errorf("expected a separate launch per source, got %d", launches)
	}
	if p.Len() != 2 {
		t.Errorf("expected 2 live sessions, got %d", p.Len())
	}
}

func TestAcquireDoesNotCacheFailure(t *testing.T) {
	boom := errors.New("no chromium binary")
	fail := true
	p := NewSessionPool(true, testLogger)
	p.launch = func() (*rod.Browser, error) {
		if fail {
			return nil, boom
		}
		return &rod.Browser{}, nil
	}

	if _, err := p.Acquire("slcpl"); !errors.Is(err, boom) {
		t.Fatalf("expected launch error, got %v", err)
	}
	if p.Len() != 0 {
		t.Fatalf("failed launch must not be cached, pool has %d sessions", p.Len())
	}

	fail = false
	if _, err := p.Acquire("slcpl"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestAcquireAfterClose(t *testing.T) {
	p := NewSessionPool(true, testLogger)
	p.launch = func() (*rod.Browser, error) { return &rod.Browser{}, nil }

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := p.Acquire("slcpl"); !errors.Is(err, types.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}
