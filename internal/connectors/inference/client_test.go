package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestUpload_PostsMultipartAndReturnsObject(t *testing.T) {
	var gotFilename, gotField string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file field: %v", err)
		}
		defer file.Close()
		gotFilename = header.Filename
		gotField = "file"
		_, _ = w.Write([]byte(`{"summary":{"detections_count":2}}`))
	}))
	defer backend.Close()

	c := NewClient(5 * time.Second)
	payload, err := c.Upload(context.Background(), backend.URL, "clip.mp4", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFilename != "clip.mp4" || gotField != "file" {
		t.Fatalf("unexpected form: %q %q", gotField, gotFilename)
	}
	if string(payload) != `{"summary":{"detections_count":2}}` {
		t.Fatalf("unexpected payload %s", payload)
	}
}

func TestUpload_Non2xxExtractsDetail(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"Unsupported file type"}`))
	}))
	defer backend.Close()

	c := NewClient(5 * time.Second)
	_, err := c.Upload(context.Background(), backend.URL, "x.bin", strings.NewReader("x"))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
	if apiErr.Detail != "Unsupported file type" {
		t.Fatalf("unexpected detail %q", apiErr.Detail)
	}
}

func TestUpload_Non2xxWithoutDetailFallsBack(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`oops`))
	}))
	defer backend.Close()

	c := NewClient(5 * time.Second)
	_, err := c.Upload(context.Background(), backend.URL, "x.mp4", strings.NewReader("x"))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Detail != "Upload failed" {
		t.Fatalf("unexpected detail %q", apiErr.Detail)
	}
}

func TestUpload_NonObjectBodyIsWrapped(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	defer backend.Close()

	c := NewClient(5 * time.Second)
	payload, err := c.Upload(context.Background(), backend.URL, "x.mp4", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wrapped map[string][]int
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(wrapped["data"]) != 3 {
		t.Fatalf("expected data wrapper, got %s", payload)
	}
}

func TestUpload_InvalidJSONBecomesDetail(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>proxy error</html>`))
	}))
	defer backend.Close()

	c := NewClient(5 * time.Second)
	payload, err := c.Upload(context.Background(), backend.URL, "x.mp4", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wrapped map[string]string
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if wrapped["detail"] != "<html>proxy error</html>" {
		t.Fatalf("unexpected detail %q", wrapped["detail"])
	}
}

func TestUpload_EmptyBodyBecomesDetail(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	c := NewClient(5 * time.Second)
	payload, err := c.Upload(context.Background(), backend.URL, "x.mp4", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != `{"detail":"Empty response"}` {
		t.Fatalf("unexpected payload %s", payload)
	}
}

func TestAnalyze_Non2xxUsesStatusMessage(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer backend.Close()

	c := NewClient(5 * time.Second)
	_, err := c.Analyze(context.Background(), backend.URL)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Detail != "Request failed with status 502" {
		t.Fatalf("unexpected detail %q", apiErr.Detail)
	}
}

func TestProbe_ReachableAndUnreachable(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	c := NewClient(2 * time.Second)

	status := c.Probe(context.Background(), "border.droneDetection", backend.URL)
	if !status.OK || status.HTTPCode != http.StatusNotFound {
		t.Fatalf("any HTTP response should count as reachable, got %+v", status)
	}

	backend.Close()
	status = c.Probe(context.Background(), "border.droneDetection", backend.URL)
	if status.OK || status.Error == "" {
		t.Fatalf("transport failure should be unreachable, got %+v", status)
	}
}
