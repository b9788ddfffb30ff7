package server

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"upload-service/internal/storage"
	"upload-service/internal/upload"
)

type testEnv struct {
	srv     *Server
	handler http.Handler
	fs      afero.Fs
	store   *storage.Local
}

func newTestEnv(t *testing.T, maxMB int, mutate ...func(*Config)) *testEnv {
	t.Helper()

	fs := afero.NewMemMapFs()
	store := storage.NewLocal(fs, "storage", upload.KindImage.Dir(), upload.KindFile.Dir())
	require.NoError(t, store.Prepare())

	cfg := Config{
		Addr:           ":0",
		Build:          BuildInfo{Version: "test", Commit: "abc"},
		Storage:        store,
		AllowedOrigins: []string{"*"},
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	cfg.Uploads = upload.NewService(upload.Options{MaxMB: maxMB, Store: store, Catalog: cfg.Catalog})

	srv := New(cfg)
	srv.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return &testEnv{srv: srv, handler: srv.Handler(), fs: fs, store: store}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) fileCount(t *testing.T, dir string) int {
	t.Helper()
	infos, err := afero.ReadDir(e.fs, "storage/"+dir)
	require.NoError(t, err)
	return len(infos)
}

// multipartBody builds a form with a single "file" part.
func multipartBody(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func uploadRequest(t *testing.T, path, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	body, ctype := multipartBody(t, "file", filename, contentType, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ctype)
	return req
}

// memCatalog is an in-memory upload.Catalog.
type memCatalog struct {
	mu      sync.Mutex
	entries []upload.Entry
	pingErr error
	listErr error
}

func (m *memCatalog) Record(_ context.Context, rec upload.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, upload.Entry{Record: rec, CreatedAt: time.Now().UTC()})
	return nil
}

func (m *memCatalog) Get(_ context.Context, id string) (upload.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return upload.Entry{}, upload.ErrNotFound
}

func (m *memCatalog) List(_ context.Context, f upload.Filter) ([]upload.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []upload.Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if f.Kind != "" && e.Kind != f.Kind {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *memCatalog) Ping(context.Context) error { return m.pingErr }
