package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Abraxas-365/doccraft/ai/document"
	"github.com/Abraxas-365/doccraft/app/apptest"
	"github.com/Abraxas-365/doccraft/errx"
	"github.com/Abraxas-365/doccraft/fsx"
	"github.com/Abraxas-365/doccraft/logx"
	"github.com/Abraxas-365/doccraft/validatex"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *apptest.Env) {
	t.Helper()
	env := apptest.New(t, nil)
	opts = append([]Option{WithLogger(logx.Discard())}, opts...)
	return New(env.App.Loader, opts...), env
}

func pdfServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(apptest.PDF)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func jsonRequest(t *testing.T, target string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, resp *http.Response) errx.Error {
	t.Helper()
	var body errx.Error
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
}

func TestLoadDocument_FromURL(t *testing.T) {
	s, env := newTestServer(t)
	src := pdfServer(t)

	resp, err := s.App().Test(jsonRequest(t, "/v1/documents", LoadRequest{Source: src.URL + "/report.pdf"}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body LoadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Document)
	assert.Equal(t, "Annual Report", body.Document.Title)
	assert.Equal(t, src.URL+"/report.pdf", body.Document.Source)
	require.Len(t, body.Document.Pages, 2)
	require.Len(t, body.Document.Pages[0].Tables, 1)
	require.NotNil(t, body.Document.Pages[0].Tables[0].Caption)
	assert.Empty(t, body.SavedAs)
	assert.Equal(t, 1, env.OCR.Calls())
}

func TestLoadDocument_Upload(t *testing.T) {
	s, env := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewReader(apptest.PDF))
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, apptest.PDF, env.OCR.LastReference().Data)

	entries, err := env.App.Cache.List(req.Context())
	require.NoError(t, err)
	assert.Empty(t, entries, "uploads are not cached")
}

func TestLoadDocument_Markdown(t *testing.T) {
	s, _ := newTestServer(t)
	src := pdfServer(t)

	resp, err := s.App().Test(jsonRequest(t, "/v1/documents?format=markdown", LoadRequest{Source: src.URL}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "| Quarter | Revenue |")
	assert.NotContains(t, string(body), "[tbl-0.html](tbl-0.html)")
}

func TestLoadDocument_Save(t *testing.T) {
	out := t.TempDir()
	s, _ := newTestServer(t, WithOutput(fsx.NewLocalFileSystem(out)))
	src := pdfServer(t)

	resp, err := s.App().Test(jsonRequest(t, "/v1/documents?save=true", LoadRequest{Source: src.URL}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body LoadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, body.Document.ID+".json", body.SavedAs)

	data, err := os.ReadFile(filepath.Join(out, body.SavedAs))
	require.NoError(t, err)
	saved, err := document.DocumentFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, body.Document.ID, saved.ID)
}

func TestLoadDocument_SaveWithoutOutput(t *testing.T) {
	s, _ := newTestServer(t)
	src := pdfServer(t)

	resp, err := s.App().Test(jsonRequest(t, "/v1/documents?save=true", LoadRequest{Source: src.URL}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoadDocument_RequestErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
		code   errx.Code
	}{
		{
			name:   "missing source",
			req:    func(t *testing.T) *http.Request { return jsonRequest(t, "/v1/documents", LoadRequest{}) },
			status: http.StatusBadRequest,
			code:   validatex.ErrCodeInvalid,
		},
		{
			name: "local path refused",
			req: func(t *testing.T) *http.Request {
				return jsonRequest(t, "/v1/documents", LoadRequest{Source: "/etc/passwd"})
			},
			status: http.StatusBadRequest,
			code:   document.ErrCodeUnsupportedContent,
		},
		{
			name: "malformed json",
			req: func(t *testing.T) *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader("{"))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
			status: http.StatusBadRequest,
			code:   "HTTP_400",
		},
		{
			name: "empty upload",
			req: func(t *testing.T) *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/v1/documents", nil)
				r.Header.Set("Content-Type", "application/pdf")
				return r
			},
			status: http.StatusBadRequest,
			code:   "HTTP_400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, env := newTestServer(t)

			resp, err := s.App().Test(tt.req(t), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decodeError(t, resp).Code)
			assert.Zero(t, env.OCR.Calls())
		})
	}
}

func TestLoadDocument_LocalPathsWhenAllowed(t *testing.T) {
	s, _ := newTestServer(t, WithLocalPaths(true))

	resp, err := s.App().Test(jsonRequest(t, "/v1/documents", LoadRequest{Source: filepath.Join(t.TempDir(), "missing.pdf")}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, document.ErrCodeNotFound, decodeError(t, resp).Code)
}

func TestLoadDocument_PipelineErrors(t *testing.T) {
	s, env := newTestServer(t)
	env.OCR.Fail(errors.New("upstream unavailable"))
	src := pdfServer(t)

	resp, err := s.App().Test(jsonRequest(t, "/v1/documents", LoadRequest{Source: src.URL}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	body := decodeError(t, resp)
	assert.Equal(t, document.ErrCodeOCRService, body.Code)
	assert.NotContains(t, body.Message, "upstream unavailable")
}

func TestDocsRoute(t *testing.T) {
	s, _ := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/docs", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		BasePath  string `json:"basePath"`
		Endpoints []struct {
			Path   string `json:"path"`
			Method string `json:"method"`
		} `json:"endpoints"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "/v1", body.BasePath)
	require.Len(t, body.Endpoints, 2)
	assert.Equal(t, "/documents", body.Endpoints[0].Path)
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, errx.Code("HTTP_404"), decodeError(t, resp).Code)
}
