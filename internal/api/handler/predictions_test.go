package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hweber/particletrack/internal/domain"
	"github.com/hweber/particletrack/internal/preprocess"
	"github.com/hweber/particletrack/internal/service"
	"github.com/hweber/particletrack/internal/storage"
	"github.com/hweber/particletrack/internal/store"
)

type stubBlobStore struct{ n int }

func (s *stubBlobStore) Store(ctx context.Context, nameHint string, data []byte) (*storage.StoredObject, error) {
	s.n++
	path := fmt.Sprintf("%s-%d", nameHint, s.n)
	return &storage.StoredObject{URL: "https://blobs.test/" + path, Path: path}, nil
}

func (s *stubBlobStore) URL(path string) string                     { return "https://blobs.test/" + path }
func (s *stubBlobStore) Delete(ctx context.Context, p string) error { return nil }

type downGateway struct{}

func (downGateway) Append(ctx context.Context, rec *domain.PredictionRecord) error {
	return fmt.Errorf("%w: down", domain.ErrStoreUnavailable)
}

func (downGateway) ListAll(ctx context.Context) ([]domain.PredictionRecord, error) {
	return nil, fmt.Errorf("%w: down", domain.ErrStoreUnavailable)
}

func (downGateway) ClearAll(ctx context.Context) (int64, error) {
	return 0, fmt.Errorf("%w: down", domain.ErrStoreUnavailable)
}

func newTestRouter(t *testing.T, gw store.Gateway) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pre, err := preprocess.New(preprocess.Shape{Width: 5, Height: 5, Channels: 1})
	if err != nil {
		t.Fatalf("failed to build preprocessor: %v", err)
	}
	// No classifier wired: degraded mode persists placeholder decisions.
	pipeline := service.NewPipelineService(&stubBlobStore{}, gw, pre, nil, nil,
		&service.Config{Workers: 2, DegradedMode: true})

	r := gin.New()
	ph := NewPredictionsHandler(pipeline)
	ch := NewClassifyHandler(pipeline)
	r.POST("/api/v1/classify", ch.Classify)
	r.GET("/api/v1/predictions", ph.List)
	r.GET("/api/v1/predictions/export", ph.Export)
	r.DELETE("/api/v1/predictions", ph.Clear)
	return r
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, data := range files {
		fw, err := w.CreateFormFile("images", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(data)
	}
	w.Close()
	return body, w.FormDataContentType()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestListEmptyStore(t *testing.T) {
	r := newTestRouter(t, store.NewMemoryStore())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/predictions", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
	var resp struct {
		Success bool                     `json:"success"`
		Data    []domain.PredictionRecord `json:"data"`
		Count   int                      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !resp.Success || resp.Count != 0 {
		t.Errorf("unexpected response %+v", resp)
	}
}

// A store outage must not be rendered as an empty result set.
func TestListStoreDownIsNotEmpty(t *testing.T) {
	r := newTestRouter(t, downGateway{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/predictions", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", w.Code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Success || resp.Error == "" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestClassifyBatchThenListAndClear(t *testing.T) {
	r := newTestRouter(t, store.NewMemoryStore())

	body, contentType := multipartBody(t, map[string][]byte{
		"jet-a.png": pngBytes(t),
		"jet-b.png": pngBytes(t),
		"broken.png": []byte("not an image"),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("classify status %d: %s", w.Code, w.Body.String())
	}
	var batch struct {
		Persisted int `json:"persisted"`
		Failed    int `json:"failed"`
		Failures  []struct {
			FileName string `json:"fileName"`
			Stage    string `json:"stage"`
			Reason   string `json:"reason"`
		} `json:"failures"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &batch); err != nil {
		t.Fatalf("bad batch body: %v", err)
	}
	if batch.Persisted != 2 || batch.Failed != 1 {
		t.Fatalf("persisted=%d failed=%d, want 2/1", batch.Persisted, batch.Failed)
	}
	if len(batch.Failures) != 1 || batch.Failures[0].FileName != "broken.png" || batch.Failures[0].Reason == "" {
		t.Errorf("unexpected failures %+v", batch.Failures)
	}

	// List shows both persisted records.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/predictions", nil))
	var list struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("bad list body: %v", err)
	}
	if list.Count != 2 {
		t.Errorf("count = %d, want 2", list.Count)
	}

	// Export is an attachment with the fixed header row.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/predictions/export", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("export status %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "particle-predictions-") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if !strings.HasPrefix(w.Body.String(), `"Timestamp"`) {
		t.Errorf("export missing header row: %q", w.Body.String())
	}

	// Clear empties the store.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/predictions", nil))
	var cleared struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &cleared); err != nil {
		t.Fatalf("bad clear body: %v", err)
	}
	if cleared.Deleted != 2 {
		t.Errorf("deleted = %d, want 2", cleared.Deleted)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/predictions", nil))
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("bad list body: %v", err)
	}
	if list.Count != 0 {
		t.Errorf("count after clear = %d, want 0", list.Count)
	}
}

func TestClassifyRejectsEmptyForm(t *testing.T) {
	r := newTestRouter(t, store.NewMemoryStore())

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", w.Code)
	}
}
