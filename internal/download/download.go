// Package download fetches toolbox artifacts over HTTP(S) into the local
// toolbox directory. A download is written to a temporary sibling file and
// renamed into place only once it has completed, so the destination path
// either holds the full artifact or does not exist.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/thruflo/shelly/internal/logging"
)

const (
	// DefaultTimeout bounds a whole download, including the body transfer.
	DefaultTimeout = 300 * time.Second

	tempSuffix = ".download"
)

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status downloading %s: %s", e.URL, e.Status)
}

// Reporter receives byte-granularity progress for one download.
type Reporter interface {
	Add(n int64)
	Finish()
}

// ReporterFunc creates a Reporter for a download of name. total is -1 when
// the server does not disclose the size.
type ReporterFunc func(name string, total int64) Reporter

// NopReporter discards progress.
type NopReporter struct{}

func (NopReporter) Add(int64) {}
func (NopReporter) Finish()   {}

// Option configures a Manager.
type Option func(*Manager)

// WithClient replaces the default HTTP client.
func WithClient(c *http.Client) Option {
	return func(m *Manager) { m.client = c }
}

// WithReporter sets the progress reporter factory.
func WithReporter(f ReporterFunc) Option {
	return func(m *Manager) { m.newReporter = f }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// Manager downloads artifacts.
type Manager struct {
	client      *http.Client
	newReporter ReporterFunc
	log         *logging.Logger
}

// New creates a Manager with a DefaultTimeout client and no progress output.
func New(opts ...Option) *Manager {
	m := &Manager{
		client:      &http.Client{Timeout: DefaultTimeout},
		newReporter: func(string, int64) Reporter { return NopReporter{} },
		log:         logging.With("component", "download"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Download fetches url into dest. On any failure the temporary file is
// removed and dest is left untouched.
func (m *Manager) Download(ctx context.Context, url, dest string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := dest + tempSuffix
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	rep := m.newReporter(filepath.Base(dest), resp.ContentLength)
	n, err := io.Copy(f, io.TeeReader(resp.Body, progressWriter{rep}))
	rep.Finish()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to read %s: %w", url, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmp, 0o755); err != nil {
			return fmt.Errorf("failed to mark %s executable: %w", tmp, err)
		}
	}
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("failed to install %s: %w", dest, err)
	}

	m.log.Info("downloaded", "url", url, "dest", dest, "bytes", n)
	return nil
}

type progressWriter struct {
	r Reporter
}

func (w progressWriter) Write(p []byte) (int, error) {
	w.r.Add(int64(len(p)))
	return len(p), nil
}
