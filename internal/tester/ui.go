package tester

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/yuin/goldmark"

	"upload-service/internal/upload"
)

//go:embed assets/page.html.tmpl assets/intro.md
var assets embed.FS

// maxFormMemory bounds the part of a browser upload held in memory before
// spilling to a temp file.
const maxFormMemory = 32 << 20

// page is the data rendered by page.html.tmpl.
type page struct {
	Intro       template.HTML
	APIURL      string
	ImageAccept string
	FileAccept  string
	Result      *result
}

type result struct {
	Title   string
	OK      bool
	Banner  string
	Notice  string
	Body    string
	Preview *ImagePreview
	Caption string
}

// UI serves the interactive tester page and forwards its forms to the API.
type UI struct {
	apiURL string
	http   *http.Client
	tmpl   *template.Template
	intro  template.HTML
	logger *log.Logger
}

// NewUI parses the embedded page and renders its Markdown help once.
func NewUI(apiURL string, hc *http.Client, logger *log.Logger) (*UI, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if hc == nil {
		hc = &http.Client{}
	}

	tmpl, err := template.New("page.html.tmpl").
		Funcs(template.FuncMap{
			// Preview data URIs are built by Preview, never from user input.
			"safeURL": func(s string) template.URL { return template.URL(s) },
		}).
		ParseFS(assets, "assets/page.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	md, err := assets.ReadFile("assets/intro.md")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := goldmark.Convert(md, &buf); err != nil {
		return nil, fmt.Errorf("render intro: %w", err)
	}

	if apiURL == "" {
		apiURL = DefaultBaseURL
	}
	return &UI{
		apiURL: apiURL,
		http:   hc,
		tmpl:   tmpl,
		intro:  template.HTML(buf.String()),
		logger: logger,
	}, nil
}

// Handler returns the routes of the tester page.
func (u *UI) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", u.handleIndex)
	mux.HandleFunc("POST /health", u.handleHealth)
	mux.HandleFunc("POST /upload/image", u.handleUpload(upload.KindImage))
	mux.HandleFunc("POST /upload/file", u.handleUpload(upload.KindFile))
	return mux
}

func (u *UI) handleIndex(w http.ResponseWriter, r *http.Request) {
	u.render(w, u.apiURL, nil)
}

func (u *UI) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiURL := u.formAPIURL(r)
	res := &result{Title: "GET /health"}

	resp, err := u.client(apiURL).Health(r.Context())
	if err != nil {
		res.Banner = "Request failed: " + err.Error()
		u.render(w, apiURL, res)
		return
	}
	fillResponse(res, resp, "Service is healthy")
	u.render(w, apiURL, res)
}

func (u *UI) handleUpload(kind upload.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := &result{Title: "POST " + UploadPath(kind)}

		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			res.Banner = "Could not read the form: " + err.Error()
			u.render(w, u.apiURL, res)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()
		apiURL := u.formAPIURL(r)

		f, hdr, err := r.FormFile("file")
		if err != nil {
			res.Banner = "Choose a file first."
			u.render(w, apiURL, res)
			return
		}
		defer func() { _ = f.Close() }()

		data, err := io.ReadAll(f)
		if err != nil {
			res.Banner = "Could not read the file: " + err.Error()
			u.render(w, apiURL, res)
			return
		}

		if kind == upload.KindImage {
			if p, err := Preview(data); err == nil {
				res.Preview = p
				res.Caption = p.Caption(hdr.Filename)
			} else {
				res.Notice = ErrNoPreview.Error()
			}
		}

		resp, err := u.client(apiURL).Upload(r.Context(), kind, hdr.Filename, hdr.Header.Get("Content-Type"), bytes.NewReader(data))
		if err != nil {
			u.logger.Warn("upload request failed", "kind", kind, "filename", hdr.Filename, "err", err)
			res.Banner = "Request failed: " + err.Error()
			u.render(w, apiURL, res)
			return
		}
		fillResponse(res, resp, "Uploaded")
		u.render(w, apiURL, res)
	}
}

// fillResponse shows JSON bodies indented and anything else verbatim.
func fillResponse(res *result, resp *Response, success string) {
	res.OK = resp.OK()
	res.Body = PrettyJSON(resp.Body)
	if res.OK {
		res.Banner = success
		return
	}
	res.Banner = fmt.Sprintf("Error %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	if d := Detail(resp.Body); d != "" {
		res.Banner += ": " + d
	}
}

// PrettyJSON indents b when it is JSON and returns it unchanged otherwise.
func PrettyJSON(b []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		return string(b)
	}
	return out.String()
}

// Detail extracts the "detail" message of an API error body, if any.
func Detail(b []byte) string {
	var e struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(b, &e); err != nil {
		return ""
	}
	return e.Detail
}

func (u *UI) formAPIURL(r *http.Request) string {
	raw := strings.TrimSpace(r.FormValue("api_url"))
	if raw == "" {
		return u.apiURL
	}
	if p, err := url.Parse(raw); err != nil || (p.Scheme != "http" && p.Scheme != "https") || p.Host == "" {
		return u.apiURL
	}
	return strings.TrimRight(raw, "/")
}

func (u *UI) client(apiURL string) *Client {
	c := NewClient(apiURL)
	c.HTTP = u.http
	return c
}

func (u *UI) render(w http.ResponseWriter, apiURL string, res *result) {
	p := page{
		Intro:       u.intro,
		APIURL:      apiURL,
		ImageAccept: strings.Join(upload.KindImage.Extensions(), ","),
		FileAccept:  strings.Join(upload.KindFile.Extensions(), ","),
		Result:      res,
	}

	var buf bytes.Buffer
	if err := u.tmpl.Execute(&buf, p); err != nil {
		u.logger.Error("render page", "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
