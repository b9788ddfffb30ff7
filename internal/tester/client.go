// Package tester drives the upload API from a browser page or the command
// line. It only speaks HTTP to the service and never touches its storage.
package tester

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"upload-service/internal/upload"
)

// DefaultBaseURL is where a locally started backend listens.
const DefaultBaseURL = "http://127.0.0.1:8000"

const (
	healthTimeout = 10 * time.Second
	imageTimeout  = 60 * time.Second
	fileTimeout   = 120 * time.Second
)

// Response is a raw API reply. Body is kept as received so that non-JSON
// error pages can be shown verbatim.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Client calls the upload service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
	}
}

// UploadPath returns the endpoint path for kind.
func UploadPath(kind upload.Kind) string { return "/upload/" + string(kind) }

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// Upload posts r as the "file" field of a multipart form to the kind's
// endpoint. Images get a shorter timeout than documents.
func (c *Client) Upload(ctx context.Context, kind upload.Kind, filename, contentType string, r io.Reader) (*Response, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	timeout := fileTimeout
	if kind == upload.KindImage {
		timeout = imageTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+UploadPath(kind), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: b}, nil
}
