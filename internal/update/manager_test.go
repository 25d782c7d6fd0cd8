package update

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/event"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/config"
)

type published struct {
	topic   string
	payload []byte
}

type mockPublisher struct {
	mu        sync.Mutex
	connected bool
	msgs      []published
}

func (p *mockPublisher) Publish(topic string, payload []byte, _ byte, _ bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic, payload})
	return nil
}

func (p *mockPublisher) IsConnected() bool { return p.connected }

func newTestManager(t *testing.T, baseURL string, q *event.Queue, pub Publisher) (*Manager, config.UpdateConfig) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.UpdateConfig{
		BaseURL:     baseURL,
		StagingDir:  filepath.Join(dir, "staging"),
		ConfirmFile: filepath.Join(dir, "state", "confirmed"),
	}
	m := New(cfg, Options{
		Poster:      q,
		Publisher:   pub,
		StatusTopic: "home/esp/rgb7seg/0a1b2c/otaupdate/status",
		DeviceID:    "0a1b2c",
		Version:     "1.4.0",
	})
	t.Cleanup(m.Close)
	return m, cfg
}

func drain(q *event.Queue) []event.Measurement {
	var out []event.Measurement
	for q.Len() > 0 {
		out = append(out, <-q.C())
	}
	return out
}

// drainUntilResult consumes events, pausing after each, until the
// transfer's terminal event arrives.
func drainUntilResult(t *testing.T, q *event.Queue, pause time.Duration) []event.Measurement {
	t.Helper()
	var events []event.Measurement
	for {
		select {
		case ev := <-q.C():
			events = append(events, ev)
			if ev.Progress == 100 || ev.Err != nil {
				return events
			}
			time.Sleep(pause)
		case <-time.After(5 * time.Second):
			t.Fatalf("no terminal event after %d events", len(events))
			return nil
		}
	}
}

// =============================================================================
// FetchAndApply
// =============================================================================

func TestFetchAndApply_StagesImage(t *testing.T) {
	image := strings.Repeat("x", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/rgb7seg-1.4.0.bin" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", "4096")
		w.Write([]byte(image)) //nolint:errcheck // test server
	}))
	defer srv.Close()

	q := event.NewQueue(200)
	m, cfg := newTestManager(t, srv.URL+"/images", q, nil)

	if err := m.FetchAndApply("rgb7seg-1.4.0.bin"); err != nil {
		t.Fatalf("FetchAndApply() error = %v", err)
	}
	m.Wait()

	got, err := os.ReadFile(filepath.Join(cfg.StagingDir, "rgb7seg-1.4.0.bin"))
	if err != nil || string(got) != image {
		t.Fatalf("staged image = %d bytes, err %v", len(got), err)
	}
	pending, _ := os.ReadFile(filepath.Join(cfg.StagingDir, PendingFile))
	if strings.TrimSpace(string(pending)) != "rgb7seg-1.4.0.bin" {
		t.Errorf("pending = %q", pending)
	}

	events := drain(q)
	if len(events) == 0 {
		t.Fatal("no progress events posted")
	}
	last := events[len(events)-1]
	if last.Kind != event.KindUpdateProgress || last.Progress != 100 || last.Err != nil {
		t.Errorf("last event = %+v, want 100%% success", last)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Progress <= events[i-1].Progress {
			t.Errorf("progress not increasing: %d then %d", events[i-1].Progress, events[i].Progress)
		}
	}
}

func TestFetchAndApply_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	q := event.NewQueue(10)
	m, cfg := newTestManager(t, srv.URL, q, nil)

	if err := m.FetchAndApply("missing-image.bin"); err != nil {
		t.Fatalf("FetchAndApply() error = %v", err)
	}
	m.Wait()

	events := drain(q)
	if len(events) != 1 || !errors.Is(events[0].Err, ErrDownloadFailed) {
		t.Fatalf("events = %+v, want one ErrDownloadFailed", events)
	}
	if _, err := os.Stat(filepath.Join(cfg.StagingDir, PendingFile)); !os.IsNotExist(err) {
		t.Errorf("pending file exists after failure: %v", err)
	}
	if m.Busy() {
		t.Error("Busy() = true after failure")
	}
}

func TestFetchAndApply_SlowConsumerGetsResult(t *testing.T) {
	const chunk = 1024
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "102400")
		flusher, _ := w.(http.Flusher)
		for i := 0; i < 100; i++ {
			w.Write([]byte(strings.Repeat("x", chunk))) //nolint:errcheck // test server
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer srv.Close()

	q := event.NewQueue(event.DefaultCapacity)
	m, _ := newTestManager(t, srv.URL, q, nil)
	m.retryEvery = 10 * time.Millisecond

	if err := m.FetchAndApply("rgb7seg-1.5.0.bin"); err != nil {
		t.Fatalf("FetchAndApply() error = %v", err)
	}

	// Nothing drains until the transfer has filled the queue.
	deadline := time.Now().Add(5 * time.Second)
	for q.Len() < q.Cap() && m.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("queue never filled")
		}
		time.Sleep(time.Millisecond)
	}

	events := drainUntilResult(t, q, 5*time.Millisecond)
	m.Wait()

	last := events[len(events)-1]
	if last.Progress != 100 || last.Err != nil {
		t.Errorf("last event = %+v, want 100%% success", last)
	}
	if limit := 100 / ProgressStep; len(events) > limit {
		t.Errorf("events = %d, want at most %d", len(events), limit)
	}
}

func TestFetchAndApply_ReportsDirectlyWhenQueueStaysFull(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("image")) //nolint:errcheck // test server
	}))
	defer srv.Close()

	q := event.NewQueue(1)
	q.Post(event.State(1, true))
	pub := &mockPublisher{connected: true}
	m, _ := newTestManager(t, srv.URL, q, pub)
	m.retryEvery = time.Millisecond
	m.retryLimit = 3

	if err := m.FetchAndApply("rgb7seg-1.5.0.bin"); err != nil {
		t.Fatalf("FetchAndApply() error = %v", err)
	}
	m.Wait()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.msgs) != 1 {
		t.Fatalf("published %d reports, want 1", len(pub.msgs))
	}
	var r progressReport
	if err := json.Unmarshal(pub.msgs[0].payload, &r); err != nil {
		t.Fatalf("payload %s: %v", pub.msgs[0].payload, err)
	}
	if r.Status != StatusDone || r.Progress != 100 {
		t.Errorf("report = %+v, want done at 100", r)
	}
}

func TestProgressWriter_Steps(t *testing.T) {
	var got []int
	pw := &progressWriter{total: 1000, onPercent: func(pct int) { got = append(got, pct) }}
	for i := 0; i < 100; i++ {
		pw.Write(make([]byte, 10)) //nolint:errcheck // never fails
	}
	if len(got) != 19 || got[0] != 5 || got[len(got)-1] != 95 {
		t.Errorf("progress = %v, want 5..95 in steps of %d", got, ProgressStep)
	}
}

func TestFetchAndApply_Rejects(t *testing.T) {
	m, _ := newTestManager(t, "http://127.0.0.1:1", event.NewQueue(1), nil)
	for _, name := range []string{"", "..", "../etc/passwd", "a/b.bin", `a\b.bin`} {
		if err := m.FetchAndApply(name); !errors.Is(err, ErrInvalidFilename) {
			t.Errorf("FetchAndApply(%q) error = %v, want ErrInvalidFilename", name, err)
		}
	}

	noURL, _ := newTestManager(t, "", event.NewQueue(1), nil)
	if err := noURL.FetchAndApply("image.bin"); !errors.Is(err, ErrNoBaseURL) {
		t.Errorf("FetchAndApply() error = %v, want ErrNoBaseURL", err)
	}
}

func TestFetchAndApply_InProgress(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.Write([]byte("image")) //nolint:errcheck // test server
	}))
	defer srv.Close()

	m, _ := newTestManager(t, srv.URL, event.NewQueue(200), nil)
	if err := m.FetchAndApply("first-image.bin"); err != nil {
		t.Fatalf("first FetchAndApply() error = %v", err)
	}
	if err := m.FetchAndApply("second-image.bin"); !errors.Is(err, ErrUpdateInProgress) {
		t.Errorf("second FetchAndApply() error = %v, want ErrUpdateInProgress", err)
	}
	close(release)
	m.Wait()
}

// =============================================================================
// CancelSelfRollback / ReportProgress
// =============================================================================

func TestCancelSelfRollback(t *testing.T) {
	m, cfg := newTestManager(t, "", event.NewQueue(1), nil)

	if err := m.CancelSelfRollback(); err != nil {
		t.Fatalf("CancelSelfRollback() error = %v", err)
	}
	body, err := os.ReadFile(cfg.ConfirmFile)
	if err != nil {
		t.Fatalf("reading marker: %v", err)
	}
	if !strings.Contains(string(body), "version=1.4.0") {
		t.Errorf("marker = %q, want version line", body)
	}

	os.Remove(cfg.ConfirmFile) //nolint:errcheck // test
	if err := m.CancelSelfRollback(); err != nil {
		t.Fatalf("second CancelSelfRollback() error = %v", err)
	}
	if _, err := os.Stat(cfg.ConfirmFile); !os.IsNotExist(err) {
		t.Error("second CancelSelfRollback() rewrote the marker")
	}
}

func TestReportProgress(t *testing.T) {
	pub := &mockPublisher{}
	m, _ := newTestManager(t, "", event.NewQueue(1), pub)

	if err := m.ReportProgress(event.UpdateProgress("img.bin", 10)); err != nil {
		t.Fatalf("ReportProgress() error = %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Fatalf("published %d messages while disconnected", len(pub.msgs))
	}

	pub.connected = true
	tests := []struct {
		ev         event.Measurement
		wantStatus string
	}{
		{event.UpdateProgress("img.bin", 33), StatusDownloading},
		{event.UpdateProgress("img.bin", 100), StatusDone},
		{event.UpdateFailed("img.bin", errors.New("reset by peer")), StatusFailed},
	}
	for _, tt := range tests {
		if err := m.ReportProgress(tt.ev); err != nil {
			t.Fatalf("ReportProgress() error = %v", err)
		}
		msg := pub.msgs[len(pub.msgs)-1]
		if msg.topic != "home/esp/rgb7seg/0a1b2c/otaupdate/status" {
			t.Errorf("topic = %q", msg.topic)
		}
		var r progressReport
		if err := json.Unmarshal(msg.payload, &r); err != nil {
			t.Fatalf("payload %s: %v", msg.payload, err)
		}
		if r.Status != tt.wantStatus || r.Dev != "0a1b2c" || r.ID != "otaupdate" || r.File != "img.bin" {
			t.Errorf("report = %+v, want status %s", r, tt.wantStatus)
		}
	}
}
