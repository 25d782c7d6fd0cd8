package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-rgb7seg/internal/event"
	"github.com/nerrad567/gray-logic-rgb7seg/internal/infrastructure/config"
)

// PendingFile names the file in the staging directory that records the
// image to boot next.
const PendingFile = "pending"

// ProgressStep is the smallest percentage advance posted as a progress
// event while a transfer runs.
const ProgressStep = 5

// Terminal event delivery: retried every finalRetryInterval up to
// finalRetryLimit times, then reported directly.
const (
	finalRetryInterval = 100 * time.Millisecond
	finalRetryLimit    = 50
)

// Status values in progress reports.
const (
	StatusDownloading = "downloading"
	StatusDone        = "done"
	StatusFailed      = "failed"
)

// Publisher sends progress reports.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// Logger is the logging surface Manager needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any) {}
func (nopLogger) Warn(string, ...any) {}

// Options holds the collaborators of a Manager.
type Options struct {
	Poster    event.Poster
	Publisher Publisher

	// StatusTopic receives progress reports.
	StatusTopic string
	DeviceID    string
	QoS         byte

	// Version is written into the confirmation marker.
	Version string

	// HTTPClient overrides the default client built from the timeout.
	HTTPClient *http.Client

	Logger Logger
}

// Manager implements the update subsystem.
type Manager struct {
	cfg    config.UpdateConfig
	opts   Options
	client *http.Client
	logger Logger

	busy atomic.Bool

	retryEvery time.Duration
	retryLimit int

	confirmMu sync.Mutex
	confirmed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Manager.
func New(cfg config.UpdateConfig, opts Options) *Manager {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:    cfg,
		opts:   opts,
		client: client,
		logger: logger,

		retryEvery: finalRetryInterval,
		retryLimit: finalRetryLimit,

		ctx:    ctx,
		cancel: cancel,
	}
}

// FetchAndApply starts downloading file and returns immediately.
//
// Returns:
//   - error: ErrInvalidFilename, ErrNoBaseURL, or ErrUpdateInProgress when
//     the fetch could not start; transfer errors arrive as events
func (m *Manager) FetchAndApply(file string) error {
	if err := validateFilename(file); err != nil {
		return err
	}
	if m.cfg.BaseURL == "" {
		return ErrNoBaseURL
	}
	if !m.busy.CompareAndSwap(false, true) {
		return ErrUpdateInProgress
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.busy.Store(false)

		if err := m.download(m.ctx, file); err != nil {
			m.logger.Warn("update download failed", "file", file, "error", err)
			m.deliver(event.UpdateFailed(file, err))
			return
		}
		m.logger.Info("update staged", "file", file)
		m.deliver(event.UpdateProgress(file, 100))
	}()
	return nil
}

// Busy reports whether a fetch is running.
func (m *Manager) Busy() bool {
	return m.busy.Load()
}

// Wait blocks until the running fetch, if any, finishes.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Close aborts a running fetch and waits for it.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

func validateFilename(file string) error {
	if file == "" || file == "." || file == ".." ||
		strings.ContainsAny(file, `/\`) || filepath.Base(file) != file {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, file)
	}
	return nil
}

func (m *Manager) download(ctx context.Context, file string) error {
	src, err := url.JoinPath(m.cfg.BaseURL, url.PathEscape(file))
	if err != nil {
		return fmt.Errorf("building url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrDownloadFailed, resp.Status)
	}

	if err := os.MkdirAll(m.cfg.StagingDir, 0o750); err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	dst := filepath.Join(m.cfg.StagingDir, file)
	part := dst + ".part"

	f, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("creating image file: %w", err)
	}

	pw := &progressWriter{total: resp.ContentLength, onPercent: func(pct int) {
		m.post(event.UpdateProgress(file, pct))
	}}
	_, copyErr := io.Copy(io.MultiWriter(f, pw), resp.Body)
	syncErr := f.Sync()
	closeErr := f.Close()
	if err := firstErr(copyErr, syncErr, closeErr); err != nil {
		os.Remove(part) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("writing image: %w", err)
	}

	if err := os.Rename(part, dst); err != nil {
		return fmt.Errorf("installing image: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.cfg.StagingDir, PendingFile), []byte(file+"\n"), 0o640); err != nil {
		return fmt.Errorf("marking image pending: %w", err)
	}
	return nil
}

// post offers an intermediate progress event. A full queue drops it; the
// next step or the terminal event supersedes it.
func (m *Manager) post(ev event.Measurement) {
	if m.opts.Poster == nil {
		return
	}
	if !m.opts.Poster.Post(ev) {
		m.logger.Warn("event queue full, dropping update progress", "file", ev.File, "progress", ev.Progress)
	}
}

// deliver posts the terminal event of a transfer, retrying while the
// queue is full. When the queue stays full or the manager is closing, the
// event is reported straight to the publisher instead.
func (m *Manager) deliver(ev event.Measurement) {
	if m.opts.Poster != nil {
	retry:
		for attempt := 0; ; attempt++ {
			if m.opts.Poster.Post(ev) {
				return
			}
			if attempt >= m.retryLimit {
				break
			}
			select {
			case <-m.ctx.Done():
				break retry
			case <-time.After(m.retryEvery):
			}
		}
		m.logger.Warn("event queue full, reporting update result directly", "file", ev.File, "progress", ev.Progress)
	}
	if err := m.ReportProgress(ev); err != nil {
		m.logger.Warn("reporting update result failed", "file", ev.File, "error", err)
	}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// progressWriter reports progress in ProgressStep increments. An unknown
// total reports nothing; 100 is left to the terminal event, posted once
// the image is installed.
type progressWriter struct {
	total     int64
	written   int64
	last      int
	onPercent func(int)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total > 0 {
		pct := int(p.written * 100 / p.total)
		if pct > 99 {
			pct = 99
		}
		if pct >= p.last+ProgressStep {
			p.last = pct
			p.onPercent(pct)
		}
	}
	return len(b), nil
}

// CancelSelfRollback writes the confirmation marker. Later calls are no-ops.
func (m *Manager) CancelSelfRollback() error {
	m.confirmMu.Lock()
	defer m.confirmMu.Unlock()

	if m.confirmed {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.cfg.ConfirmFile), 0o750); err != nil {
		return fmt.Errorf("creating marker dir: %w", err)
	}
	body := fmt.Sprintf("version=%s\nconfirmed=%s\n", m.opts.Version, time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(m.cfg.ConfirmFile, []byte(body), 0o640); err != nil {
		return fmt.Errorf("writing marker: %w", err)
	}
	m.confirmed = true
	m.logger.Info("running image confirmed", "version", m.opts.Version)
	return nil
}

// progressReport is the otaupdate/status payload.
type progressReport struct {
	Dev      string `json:"dev"`
	ID       string `json:"id"`
	File     string `json:"file"`
	Progress int    `json:"progress"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// ReportProgress publishes ev when the broker is connected.
func (m *Manager) ReportProgress(ev event.Measurement) error {
	pub := m.opts.Publisher
	if pub == nil || !pub.IsConnected() {
		return nil
	}

	r := progressReport{
		Dev:      m.opts.DeviceID,
		ID:       "otaupdate",
		File:     ev.File,
		Progress: ev.Progress,
		Status:   StatusDownloading,
	}
	switch {
	case ev.Err != nil:
		r.Status = StatusFailed
		r.Error = ev.Err.Error()
	case ev.Progress >= 100:
		r.Status = StatusDone
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	return pub.Publish(m.opts.StatusTopic, payload, m.opts.QoS, false)
}
