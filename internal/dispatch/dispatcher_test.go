package dispatch

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go-secops-console-api/internal/config"
)

// blockingUploader holds each call until released, so tests can overlap runs
// deterministically.
type blockingUploader struct {
	mu      sync.Mutex
	started chan struct{}
	release chan struct{}
	payload []byte
}

func newBlockingUploader(payload []byte) *blockingUploader {
	return &blockingUploader{
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
		payload: payload,
	}
}

func (u *blockingUploader) Upload(ctx context.Context, endpoint, filename string, file io.Reader) ([]byte, error) {
	u.started <- struct{}{}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-u.release:
		return u.payload, nil
	}
}

type instantUploader struct {
	payload []byte
	err     error
	calls   int
}

func (u *instantUploader) Upload(ctx context.Context, endpoint, filename string, file io.Reader) ([]byte, error) {
	u.calls++
	return u.payload, u.err
}

func TestUpload_NotConfiguredSentinel(t *testing.T) {
	up := &instantUploader{payload: []byte(`{}`)}
	d := New(up)

	_, err := d.Upload(context.Background(), "s", "border-security", "drone-detection", config.NotConfigured, "f.mp4", strings.NewReader("x"), nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if up.calls != 0 {
		t.Fatal("no network call should happen for the sentinel")
	}

	_, err = d.Upload(context.Background(), "s", "border-security", "drone-detection", "", "f.mp4", strings.NewReader("x"), nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured for empty endpoint, got %v", err)
	}
}

func TestUpload_SuccessCommitsOnce(t *testing.T) {
	up := &instantUploader{payload: []byte(`{"summary":{"x_count":1}}`)}
	d := New(up)

	commits := 0
	payload, err := d.Upload(context.Background(), "s", "d", "m", "http://api/x", "f.mp4", strings.NewReader("x"), func([]byte) { commits++ })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != `{"summary":{"x_count":1}}` {
		t.Fatalf("unexpected payload %s", payload)
	}
	if commits != 1 {
		t.Fatalf("expected exactly one commit, got %d", commits)
	}
	if d.InFlight("s", "d", "m") {
		t.Fatal("run should be cleared after completion")
	}
}

func TestUpload_ErrorDoesNotCommit(t *testing.T) {
	up := &instantUploader{err: errors.New("boom")}
	d := New(up)

	commits := 0
	_, err := d.Upload(context.Background(), "s", "d", "m", "http://api/x", "f.mp4", strings.NewReader("x"), func([]byte) { commits++ })
	if err == nil || errors.Is(err, ErrCancelled) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if commits != 0 {
		t.Fatal("failed run must not commit")
	}
}

func TestUpload_NewUploadSupersedesInFlight(t *testing.T) {
	up := newBlockingUploader([]byte(`{"ok":true}`))
	d := New(up)

	type result struct {
		payload []byte
		err     error
	}
	firstDone := make(chan result, 1)
	firstCommits := 0

	go func() {
		p, err := d.Upload(context.Background(), "s", "d", "m", "http://api/x", "a.mp4", strings.NewReader("a"), func([]byte) { firstCommits++ })
		firstDone <- result{p, err}
	}()
	<-up.started

	secondDone := make(chan result, 1)
	secondCommits := 0
	go func() {
		p, err := d.Upload(context.Background(), "s", "d", "m", "http://api/x", "b.mp4", strings.NewReader("b"), func([]byte) { secondCommits++ })
		secondDone <- result{p, err}
	}()
	<-up.started

	close(up.release)

	first := <-firstDone
	second := <-secondDone

	if !errors.Is(first.err, ErrCancelled) {
		t.Fatalf("superseded run should report cancellation, got %v", first.err)
	}
	if firstCommits != 0 {
		t.Fatal("superseded run must never commit")
	}
	if second.err != nil {
		t.Fatalf("newer run should win, got %v", second.err)
	}
	if secondCommits != 1 {
		t.Fatalf("newer run should commit once, got %d", secondCommits)
	}
}

func TestCancel_StopsInFlightRun(t *testing.T) {
	up := newBlockingUploader([]byte(`{}`))
	d := New(up)

	done := make(chan error, 1)
	commits := 0
	go func() {
		_, err := d.Upload(context.Background(), "s", "d", "m", "http://api/x", "a.mp4", strings.NewReader("a"), func([]byte) { commits++ })
		done <- err
	}()
	<-up.started

	if !d.Cancel("s", "d", "m") {
		t.Fatal("expected cancel to find the run")
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("expected ErrCancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled upload did not return")
	}
	if commits != 0 {
		t.Fatal("cancelled run must not commit")
	}
	if d.Cancel("s", "d", "m") {
		t.Fatal("second cancel should find nothing")
	}
}

func TestCancel_IsScopedToSessionAndModule(t *testing.T) {
	up := newBlockingUploader([]byte(`{"ok":true}`))
	d := New(up)

	done := make(chan error, 1)
	go func() {
		_, err := d.Upload(context.Background(), "s1", "d", "m", "http://api/x", "a.mp4", strings.NewReader("a"), nil)
		done <- err
	}()
	<-up.started

	if d.Cancel("s2", "d", "m") {
		t.Fatal("other session's cancel must not touch this run")
	}
	if d.Cancel("s1", "d", "other") {
		t.Fatal("other module's cancel must not touch this run")
	}

	close(up.release)
	if err := <-done; err != nil {
		t.Fatalf("run should complete normally, got %v", err)
	}
}
