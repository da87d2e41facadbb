package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tubegrab/tubegrab/internal/history"
	"github.com/tubegrab/tubegrab/internal/relay"
	"github.com/tubegrab/tubegrab/internal/types"
)

const watchURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

type fakeResolver struct {
	meta       types.Metadata
	renditions []types.Rendition
	resolveErr error
	payload    []byte
	streamErr  error // returned after payload drains; EOF when nil
	calls      int
}

// errReader fails every read with a fixed error.
type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func (f *fakeResolver) ResolveMetadata(context.Context, string) (*types.Metadata, error) {
	f.calls++
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	meta := f.meta
	return &meta, nil
}

func (f *fakeResolver) ListRenditions(context.Context, string) ([]types.Rendition, error) {
	f.calls++
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.renditions, nil
}

func (f *fakeResolver) OpenStream(_ context.Context, _ string, itag string) (io.ReadCloser, *types.Rendition, error) {
	f.calls++
	if f.resolveErr != nil {
		return nil, nil, f.resolveErr
	}
	for i := range f.renditions {
		if f.renditions[i].Itag == itag {
			var body io.Reader = bytes.NewReader(f.payload)
			if f.streamErr != nil {
				body = io.MultiReader(body, errReader{f.streamErr})
			}
			return io.NopCloser(body), &f.renditions[i], nil
		}
	}
	return nil, nil, fmt.Errorf("itag %s: %w", itag, types.ErrRenditionNotFound)
}

func newTestServer(res *fakeResolver) (*Server, *history.MemoryStore) {
	store := history.NewMemoryStore()
	rel := relay.New(res, nil, relay.Options{})
	return New(res, rel, store, nil, Options{}), store
}

func defaultResolver() *fakeResolver {
	return &fakeResolver{
		meta: types.Metadata{
			ID:        "dQw4w9WgXcQ",
			Title:     "Test Video",
			Duration:  "3:33",
			Thumbnail: "https://i.ytimg.com/vi/dQw4w9WgXcQ/hq720.jpg",
			Channel:   "Test Channel",
		},
		renditions: []types.Rendition{
			{Itag: "18", Container: "mp4", MimeType: "video/mp4", HasAudio: true, HasVideo: true, QualityLabel: "360p", ContentLength: "11"},
			{Itag: "140", Container: "mp4", MimeType: "audio/mp4", HasAudio: true, AudioBitrate: 128},
		},
		payload: []byte("hello bytes"),
	}
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestVideoInfo_Success(t *testing.T) {
	res := defaultResolver()
	s, _ := newTestServer(res)

	w := postJSON(t, s, "/api/video-info", map[string]string{"url": watchURL})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Title            string                 `json:"title"`
		AvailableFormats []types.CatalogueEntry `json:"availableFormats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Title != "Test Video" {
		t.Fatalf("title=%q", resp.Title)
	}
	if len(resp.AvailableFormats) != 2 {
		t.Fatalf("expected 2 catalogue entries, got %d", len(resp.AvailableFormats))
	}
	if !resp.AvailableFormats[0].HasVideo {
		t.Fatalf("video entry must sort first: %+v", resp.AvailableFormats)
	}
}

func TestVideoInfo_InvalidURLShortCircuits(t *testing.T) {
	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "missing url", body: map[string]string{}},
		{name: "not a url", body: map[string]string{"url": "not-a-url"}},
		{name: "wrong host", body: map[string]string{"url": "https://example.com/watch?v=dQw4w9WgXcQ"}},
		{name: "short id", body: map[string]string{"url": "https://youtu.be/abc"}},
	}
	for _, tt := range tests {
		res := defaultResolver()
		s, _ := newTestServer(res)

		w := postJSON(t, s, "/api/video-info", tt.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d want 400", tt.name, w.Code)
		}
		if res.calls != 0 {
			t.Fatalf("%s: resolver must not be called, got %d calls", tt.name, res.calls)
		}
	}
}

func TestVideoInfo_MappedResolutionFailure(t *testing.T) {
	res := defaultResolver()
	res.resolveErr = &types.ResolveError{Reason: types.ReasonPrivate, Message: "Video is private"}
	s, _ := newTestServer(res)

	w := postJSON(t, s, "/api/video-info", map[string]string{"url": watchURL})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d want 500", w.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "Video is private" {
		t.Fatalf("error=%q", resp["error"])
	}
}

func TestVideoInfo_RateLimitedMapsTo429(t *testing.T) {
	res := defaultResolver()
	res.resolveErr = &types.ResolveError{
		Reason:  types.ReasonRateLimited,
		Message: "Too many requests. Please wait a moment and try again",
	}
	s, _ := newTestServer(res)

	w := postJSON(t, s, "/api/video-info", map[string]string{"url": watchURL})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d want 429", w.Code)
	}
}

func TestDownload_Success(t *testing.T) {
	res := defaultResolver()
	s, store := newTestServer(res)

	w := postJSON(t, s, "/api/download", map[string]string{"url": watchURL, "itag": "18"})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "hello bytes" {
		t.Fatalf("body=%q", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("Content-Type=%q", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, `attachment; filename="test_video.mp4"`) {
		t.Fatalf("Content-Disposition=%q", cd)
	}
	if cl := w.Header().Get("Content-Length"); cl != "11" {
		t.Fatalf("Content-Length=%q", cl)
	}

	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	e := entries[0]
	if e.SourceID != "dQw4w9WgXcQ" || e.MediaKind != "mp4" || e.DisplayQuality != "360p" {
		t.Fatalf("unexpected history entry: %+v", e)
	}
	if e.ID == "" {
		t.Fatalf("history entry must carry an identifier")
	}
}

func TestDownload_MissingItag(t *testing.T) {
	res := defaultResolver()
	s, _ := newTestServer(res)

	w := postJSON(t, s, "/api/download", map[string]string{"url": watchURL})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want 400", w.Code)
	}
	if res.calls != 0 {
		t.Fatalf("resolver must not be called, got %d calls", res.calls)
	}
}

func TestDownload_RenditionNotFound(t *testing.T) {
	res := defaultResolver()
	s, store := newTestServer(res)

	w := postJSON(t, s, "/api/download", map[string]string{"url": watchURL, "itag": "999"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d want 404", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body must be JSON, got %q", w.Body.String())
	}
	if resp["error"] != "Selected format not available" {
		t.Fatalf("error=%q", resp["error"])
	}

	entries, _ := store.List(context.Background())
	if len(entries) != 0 {
		t.Fatalf("failed download must not be recorded, got %d entries", len(entries))
	}
}

func TestDownload_UpstreamFailureAbortsResponse(t *testing.T) {
	res := defaultResolver()
	res.renditions[0].ContentLength = "" // length unknown, so the body goes out chunked
	res.streamErr = errors.New("connection reset by peer")
	s, store := newTestServer(res)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/download", "application/json",
		strings.NewReader(`{"url":"`+watchURL+`","itag":"18"}`))
	if err != nil {
		// the connection was severed before the headers went out; also a
		// visible failure, nothing more to assert
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if _, err := io.ReadAll(resp.Body); err == nil {
		t.Fatal("truncated response must not terminate cleanly")
	}

	entries, _ := store.List(context.Background())
	if len(entries) != 0 {
		t.Fatalf("failed download must not be recorded, got %d entries", len(entries))
	}
}

func TestHistoryEndpoints(t *testing.T) {
	res := defaultResolver()
	s, store := newTestServer(res)
	ctx := context.Background()

	first := history.NewEntry("dQw4w9WgXcQ", "First", "", "mp4", "360p")
	second := history.NewEntry("dQw4w9WgXcQ", "Second", "", "m4a", "128kbps")
	_ = store.Add(ctx, first)
	_ = store.Add(ctx, second)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d", w.Code)
	}
	var resp struct {
		Items []types.HistoryEntry `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(resp.Items) != 2 || resp.Items[0].Title != "Second" {
		t.Fatalf("unexpected listing: %+v", resp.Items)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/history/"+first.ID, nil)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("remove status=%d", w.Code)
	}
	entries, _ := store.List(ctx)
	if len(entries) != 1 || entries[0].ID != second.ID {
		t.Fatalf("unexpected entries after remove: %+v", entries)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/history", nil)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("clear status=%d", w.Code)
	}
	entries, _ = store.List(ctx)
	if len(entries) != 0 {
		t.Fatalf("store not empty after clear: %d entries", len(entries))
	}
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(defaultResolver())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestThrottle(t *testing.T) {
	res := defaultResolver()
	rel := relay.New(res, nil, relay.Options{})
	s := New(res, rel, history.NewMemoryStore(), nil, Options{RateRPS: 1, RateBurst: 1})

	// burst of one: the second immediate request must be rejected
	first := httptest.NewRecorder()
	s.Handler().ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status=%d", first.Code)
	}
	second := httptest.NewRecorder()
	s.Handler().ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status=%d want 429", second.Code)
	}
}

func TestRenderError_InvalidInputCarriesMessage(t *testing.T) {
	s, _ := newTestServer(defaultResolver())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	s.renderError(c, &types.InvalidInputError{Message: "Playlist URLs are not supported"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want 400", w.Code)
	}
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "Playlist URLs are not supported" {
		t.Fatalf("error=%q", resp["error"])
	}

	// a bare sentinel wrap has no message to surface
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	s.renderError(c, fmt.Errorf("quality: %w", types.ErrInvalidInput))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want 400", w.Code)
	}
	resp = map[string]string{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "Invalid request" {
		t.Fatalf("error=%q", resp["error"])
	}
}

func TestRenderError_Unclassified(t *testing.T) {
	res := defaultResolver()
	res.resolveErr = errors.New("raw upstream failure")
	s, _ := newTestServer(res)

	w := postJSON(t, s, "/api/video-info", map[string]string{"url": watchURL})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d want 500", w.Code)
	}
}
