package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imaged/internal/domain/ingest"
	"imaged/internal/platform/config"
	platformtesting "imaged/internal/platform/testing"
	"imaged/internal/platform/storage"
	httptransport "imaged/internal/transport/http"
)

type testServer struct {
	engine *gin.Engine
	cfg    *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := platformtesting.SetupTestConfig(t)
	logger := platformtesting.SetupTestLogger(t)

	store := storage.NewWriter(cfg.Upload.Dir, logger)
	fetcher := ingest.NewFetcher(time.Second, cfg.Upload.MaxFileSize, logger)
	coordinator := ingest.NewCoordinator(ingest.NewResolver(fetcher), store, cfg.Upload.MaxConcurrency, logger)

	service, err := NewService(cfg, logger, coordinator, store)
	require.NoError(t, err)

	router, err := httptransport.Build(httptransport.Options{Config: cfg, Logger: logger})
	require.NoError(t, err)
	require.NoError(t, service.Register(context.Background(), router.Root))

	return &testServer{engine: router.Engine, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decodeItems(t *testing.T, rec *httptest.ResponseRecorder) []ItemResponse {
	t.Helper()
	var items []ItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items), "body: %s", rec.Body.String())
	return items
}

func TestPostImages_EmptyJSONArray(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodPost, "/images", "application/json", []byte(`[]`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestPostImages_NonArrayJSON(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodPost, "/images", "application/json", []byte(`{}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp httptransport.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(ingest.ReasonMalformedRequest), resp.Reason)
}

func TestPostImages_UnknownContentType(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodPost, "/images", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestPostImages_InlineBatch(t *testing.T) {
	server := newTestServer(t)
	payload := fmt.Sprintf(
		`[{"filename":"one.png","content_type":"image/png","data":%q},
		  {"content_type":"image/jpeg","data":"***"},
		  {"bogus":true}]`,
		base64.StdEncoding.EncodeToString([]byte("ONEBYTES")),
	)

	rec := server.do(t, http.MethodPost, "/images", "application/json", []byte(payload))
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeItems(t, rec)
	require.Len(t, items, 3)

	assert.Equal(t, "stored", items[0].Status)
	assert.NotEmpty(t, items[0].Path)

	assert.Equal(t, "failed", items[1].Status)
	assert.Equal(t, string(ingest.ReasonInvalidEncoding), items[1].Reason)

	assert.Equal(t, "failed", items[2].Status)
	assert.Equal(t, string(ingest.ReasonInvalidDescriptor), items[2].Reason)

	// The stored file is on disk with the exact submitted bytes.
	got, err := os.ReadFile(filepath.Join(server.cfg.Upload.Dir, items[0].Path))
	require.NoError(t, err)
	assert.Equal(t, "ONEBYTES", string(got))

	// One stored item, one file.
	files, err := os.ReadDir(server.cfg.Upload.Dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestPostImages_Multipart(t *testing.T) {
	server := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="photo"; filename="cat.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	part.Write([]byte("CATBYTES"))

	// A plain text field must not produce a result entry.
	field, err := w.CreateFormField("comment")
	require.NoError(t, err)
	field.Write([]byte("my cat"))

	require.NoError(t, w.Close())

	rec := server.do(t, http.MethodPost, "/images", w.FormDataContentType(), buf.Bytes())
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeItems(t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "stored", items[0].Status)
	assert.Equal(t, "cat.jpg", items[0].Path)

	got, err := os.ReadFile(filepath.Join(server.cfg.Upload.Dir, "cat.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "CATBYTES", string(got))
}

func TestPostImages_MultipartGarbageBody(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodPost, "/images",
		"multipart/form-data; boundary=XYZ", []byte("this is not multipart"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp httptransport.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(ingest.ReasonMalformedRequest), resp.Reason)
}

func TestPostImages_RemoteURL(t *testing.T) {
	server := newTestServer(t)
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
		w.Write([]byte("GIFBYTES"))
	}))
	defer remote.Close()

	payload := fmt.Sprintf(`[{"url":%q}]`, remote.URL+"/banner.gif")
	rec := server.do(t, http.MethodPost, "/images", "application/json", []byte(payload))
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeItems(t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "stored", items[0].Status)
	assert.Equal(t, "banner.gif", items[0].Path)
}

func TestGetImages(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodGet, "/images", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, n := range []string{"zeta.png", "alpha.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(server.cfg.Upload.Dir, n), []byte("x"), 0o644))
	}

	rec = server.do(t, http.MethodGet, "/images", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var names []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
	assert.Equal(t, []string{"alpha.jpg", "zeta.png"}, names)
}

func TestGetUploads_ServesStoredFile(t *testing.T) {
	server := newTestServer(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(server.cfg.Upload.Dir, "served.txt"), []byte("SERVED"), 0o644))

	rec := server.do(t, http.MethodGet, "/uploads/served.txt", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SERVED", rec.Body.String())
}

func TestPostImages_ContentTypeParametersIgnored(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodPost, "/images",
		"application/json; charset=utf-8", []byte(`[]`))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestToResponses(t *testing.T) {
	results := []ingest.Result{
		ingest.StoredResult("a.jpg"),
		{Stored: false, Reason: ingest.ReasonFetchFailed, Detail: "boom"},
	}
	items := toResponses(results)
	require.Len(t, items, 2)
	assert.Equal(t, ItemResponse{Status: "stored", Path: "a.jpg"}, items[0])
	assert.Equal(t, ItemResponse{Status: "failed", Reason: "fetch_failed", Detail: "boom"}, items[1])
}
