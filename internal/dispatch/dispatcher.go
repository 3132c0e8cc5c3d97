package dispatch

import (
	"context"
	"errors"
	"io"
	"sync"

	"go-secops-console-api/internal/config"
)

var (
	// ErrNotConfigured is returned before any network call when the module's
	// endpoint cannot be resolved.
	ErrNotConfigured = errors.New("API configuration not ready")

	// ErrCancelled marks a run that was stopped, superseded, or whose caller
	// went away. It is never surfaced to users as an error.
	ErrCancelled = errors.New("upload cancelled")
)

// Uploader is the transport the dispatcher drives.
type Uploader interface {
	Upload(ctx context.Context, endpoint, filename string, file io.Reader) ([]byte, error)
}

type runKey struct {
	session string
	domain  string
	module  string
}

type run struct {
	cancel context.CancelFunc
}

// Dispatcher enforces at most one in-flight upload per (session, module):
// starting a new upload cancels the previous one, and a cancelled run's
// result is discarded before it can commit.
type Dispatcher struct {
	mu       sync.Mutex
	client   Uploader
	inflight map[runKey]*run
}

func New(client Uploader) *Dispatcher {
	return &Dispatcher{
		client:   client,
		inflight: make(map[runKey]*run),
	}
}

// Upload dispatches one file and reports exactly one terminal outcome: the
// payload, an error, or ErrCancelled. commit, when non-nil, runs only for
// runs that are still current once the response arrives, so a late response
// from a superseded run can never overwrite newer state.
func (d *Dispatcher) Upload(ctx context.Context, sessionID, domain, module, endpoint, filename string, file io.Reader, commit func(payload []byte)) ([]byte, error) {
	if endpoint == "" || endpoint == config.NotConfigured {
		return nil, ErrNotConfigured
	}

	key := runKey{session: sessionID, domain: domain, module: module}
	runCtx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel}

	d.mu.Lock()
	if prev := d.inflight[key]; prev != nil {
		prev.cancel()
	}
	d.inflight[key] = r
	d.mu.Unlock()

	payload, err := d.client.Upload(runCtx, endpoint, filename, file)

	d.mu.Lock()
	current := d.inflight[key] == r
	if current {
		delete(d.inflight, key)
	}
	if current && !errors.Is(runCtx.Err(), context.Canceled) && err == nil && commit != nil {
		commit(payload)
	}
	d.mu.Unlock()
	cancel()

	if !current || errors.Is(runCtx.Err(), context.Canceled) {
		return nil, ErrCancelled
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Cancel stops the in-flight upload for a module view, if any.
func (d *Dispatcher) Cancel(sessionID, domain, module string) bool {
	key := runKey{session: sessionID, domain: domain, module: module}

	d.mu.Lock()
	defer d.mu.Unlock()

	r := d.inflight[key]
	if r == nil {
		return false
	}
	r.cancel()
	delete(d.inflight, key)
	return true
}

// InFlight reports whether a module view currently has an upload running.
func (d *Dispatcher) InFlight(sessionID, domain, module string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inflight[runKey{session: sessionID, domain: domain, module: module}] != nil
}
