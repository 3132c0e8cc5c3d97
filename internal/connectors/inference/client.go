package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// APIError is a non-2xx response from an inference endpoint, carrying the
// server-provided detail text when one could be extracted.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return e.Detail
}

// Status is a one-shot reachability probe of a configured endpoint.
type Status struct {
	Key      string `json:"key"`
	Endpoint string `json:"endpoint"`
	OK       bool   `json:"ok"`
	HTTPCode int    `json:"http_code,omitempty"`
	PingMS   int64  `json:"ping_ms"`
	Error    string `json:"error,omitempty"`
}

// Client calls the external inference API endpoints the console fronts.
type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Upload posts a file as the sole multipart form field to an endpoint and
// returns the response body normalized to a JSON object. Non-2xx responses
// become an *APIError with the server's detail text when available.
func (c *Client) Upload(ctx context.Context, endpoint, filename string, file io.Reader) ([]byte, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read upload file: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := "Upload failed"
		if d := gjson.GetBytes(raw, "detail"); d.Type == gjson.String && d.String() != "" {
			detail = d.String()
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: detail}
	}

	return normalizeBody(raw), nil
}

// Analyze performs a plain GET against an endpoint (the email-protection
// flow) and returns the body normalized to a JSON object.
func (c *Client) Analyze(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read analyze response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Detail:     fmt.Sprintf("Request failed with status %d", resp.StatusCode),
		}
	}

	return normalizeBody(raw), nil
}

// Probe checks a single endpoint for reachability. Any HTTP response counts
// as reachable; only transport failures are reported as errors.
func (c *Client) Probe(ctx context.Context, key, endpoint string) Status {
	out := Status{Key: key, Endpoint: endpoint}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	out.PingMS = time.Since(start).Milliseconds()
	if err != nil {
		out.Error = err.Error()
		return out
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	out.OK = true
	out.HTTPCode = resp.StatusCode
	return out
}

// normalizeBody guarantees downstream consumers always see a JSON object:
// non-object JSON is wrapped under "data", invalid JSON is captured under
// "detail", and an empty body becomes a detail message.
func normalizeBody(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return mustJSON(map[string]string{"detail": "Empty response"})
	}
	if !json.Valid(trimmed) {
		return mustJSON(map[string]string{"detail": string(trimmed)})
	}
	if gjson.ParseBytes(trimmed).IsObject() {
		return trimmed
	}
	return mustJSON(map[string]json.RawMessage{"data": trimmed})
}

func mustJSON(v any) []byte {
	out, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"detail":"unencodable response"}`)
	}
	return out
}
