package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var paths []string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	mux.HandleFunc("POST /upload/{kind}", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if filepath.Ext(hdr.Filename) == ".gif" {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			_, _ = io.WriteString(w, `{"detail":"Unsupported image type: .gif. Allowed: .jpeg, .jpg, .png, .webp"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"0123456789ab","message":"uploaded"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &paths
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestHealthCmd(t *testing.T) {
	api, _ := fakeAPI(t)

	out, err := run(t, "--api-url", api.URL, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "HTTP 200")
	assert.Contains(t, out, `"status": "ok"`)
}

func TestUploadCmd(t *testing.T) {
	api, paths := fakeAPI(t)

	out, err := run(t, "--api-url", api.URL, "upload", "--kind", "file", writeTemp(t, "notes.txt", []byte("hi")))
	require.NoError(t, err)
	assert.Contains(t, out, `"message": "uploaded"`)
	assert.NotContains(t, out, "preview:")

	out, err = run(t, "--api-url", api.URL, "upload", "--kind", "image", writeTemp(t, "broken.png", []byte("nope")))
	require.NoError(t, err)
	assert.Contains(t, out, "preview: preview unavailable")

	assert.Equal(t, []string{"/upload/file", "/upload/image"}, *paths)
}

func TestUploadCmd_Rejected(t *testing.T) {
	api, _ := fakeAPI(t)

	out, err := run(t, "--api-url", api.URL, "upload", "--kind", "image", writeTemp(t, "a.gif", []byte("GIF89a")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 415")
	assert.Contains(t, out, "HTTP 415")
}

func TestUploadCmd_BadArgs(t *testing.T) {
	_, err := run(t, "upload", "--kind", "video", "x.mp4")
	assert.Error(t, err)

	_, err = run(t, "upload")
	assert.Error(t, err)

	_, err = run(t, "upload", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
