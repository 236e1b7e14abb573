package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var errMiss = errors.New("miss")

func TestObserveStore_CountsErrorsButNotExpectedMisses(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveStore("users.get_by_id", func() error { return errMiss }, errMiss)
	_ = p.ObserveStore("users.get_by_id", func() error { return errors.New("connection reset") })
	_ = p.ObserveStore("users.get_by_id", func() error { return nil })

	if got := testutil.ToFloat64(p.StoreErrors.WithLabelValues("users.get_by_id", "connection")); got != 1 {
		t.Fatalf("connection errors = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(p.StoreErrors); got != 1 {
		t.Fatalf("error series = %d, want 1", got)
	}
}

func TestSweepStats(t *testing.T) {
	s := NewSweepStats()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	s.Observe(3, 10*time.Millisecond, nil, at)
	s.Observe(0, 30*time.Millisecond, errors.New("boom"), at.Add(time.Minute))

	snap := s.Snapshot()
	if snap.Runs != 2 || snap.Failed != 1 || snap.Cleared != 3 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.AverageDuration != 20*time.Millisecond || snap.MaxDuration != 30*time.Millisecond {
		t.Fatalf("unexpected durations: avg=%v max=%v", snap.AverageDuration, snap.MaxDuration)
	}
	if snap.LastRun == nil || !snap.LastRun.Equal(at.Add(time.Minute)) {
		t.Fatalf("LastRun = %v", snap.LastRun)
	}
}

func TestLogger_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	log.Info("login", "email", "a@b.co", "password", "hunter22", "Token", "abc")

	out := buf.String()
	if strings.Contains(out, "hunter22") || strings.Contains(out, `"abc"`) {
		t.Fatalf("secrets leaked: %s", out)
	}
	if !strings.Contains(out, "a@b.co") || !strings.Contains(out, `"service":"sitehub"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}
