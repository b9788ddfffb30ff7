package tester

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// received is what the fake API saw for one upload.
type received struct {
	path        string
	filename    string
	contentType string
	data        []byte
}

// fakeAPI answers like the upload service; status overrides the upload
// response when non-zero.
func fakeAPI(t *testing.T, status int, body string) (*httptest.Server, *[]received) {
	t.Helper()
	var got []received

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"ok","limits":{"max_mb":20}}`)
	})
	handleUpload := func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		assert.NoError(t, err)
		got = append(got, received{
			path:        r.URL.Path,
			filename:    hdr.Filename,
			contentType: hdr.Header.Get("Content-Type"),
			data:        data,
		})

		if status != 0 {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, body)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         "0123456789ab",
			"filename":   hdr.Filename,
			"size_bytes": len(data),
			"message":    "uploaded",
		})
	}
	mux.HandleFunc("POST /upload/image", handleUpload)
	mux.HandleFunc("POST /upload/file", handleUpload)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &got
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
