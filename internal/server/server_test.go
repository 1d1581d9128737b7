package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/selimcan/tagsense/internal/chunker"
	"github.com/selimcan/tagsense/internal/config"
	"github.com/selimcan/tagsense/internal/db"
	"github.com/selimcan/tagsense/internal/engine"
	"github.com/selimcan/tagsense/internal/extract"
	"github.com/selimcan/tagsense/internal/index"
	"github.com/selimcan/tagsense/internal/semantic"
	"github.com/selimcan/tagsense/internal/suggest"
	"github.com/selimcan/tagsense/internal/tagstore"
	"github.com/selimcan/tagsense/internal/vectordb"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, 3)
		v[0] = float32(strings.Count(strings.ToLower(text), "revenue"))
		v[2] = 0.05
		out[i] = v
	}
	return out, nil
}
func (stubEmbedder) Dimensions() int { return 3 }
func (stubEmbedder) Name() string    { return "stub" }

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	d, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	tags := tagstore.NewStore(d)

	store, err := vectordb.NewChromemStore(stubEmbedder{})
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	root := t.TempDir()
	ix, err := index.NewIndexer(store, tags, extract.New(cfg.Extract), chunker.New(cfg.Chunk), filepath.Join(root, ".tagsense"), 1)
	if err != nil {
		t.Fatal(err)
	}

	e := engine.New(tags, ix, semantic.NewEngine(store, nil, cfg.Search), nil, suggest.NewCache(d))
	return New(config.ServerConfig{Port: 0, AllowAllOrigins: true}, e), root
}

func doJSON(t *testing.T, s *Server, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, "GET", "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("missing CORS Allow-Origin header")
	}
}

func TestTagCRUD(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, "POST", "/api/tags", map[string]string{"name": "finance"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body)
	}
	var tag tagstore.Tag
	if err := json.Unmarshal(w.Body.Bytes(), &tag); err != nil {
		t.Fatal(err)
	}
	if tag.Color != tagstore.DefaultColor {
		t.Errorf("color = %q, want default", tag.Color)
	}

	w = doJSON(t, s, "PATCH", fmt.Sprintf("/api/tags/%d", tag.ID), map[string]string{"color": "#ff0000"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", w.Code, w.Body)
	}

	w = doJSON(t, s, "GET", "/api/tags", nil)
	var tags []tagstore.Tag
	if err := json.Unmarshal(w.Body.Bytes(), &tags); err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || tags[0].Color != "#ff0000" {
		t.Errorf("tags = %+v", tags)
	}

	w = doJSON(t, s, "DELETE", fmt.Sprintf("/api/tags/%d", tag.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = doJSON(t, s, "DELETE", fmt.Sprintf("/api/tags/%d", tag.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestFileTagsAndSearch(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	finance, _ := s.engine.Tags.CreateTag(ctx, "finance", "")
	year, _ := s.engine.Tags.CreateTag(ctx, "2024", "")

	for _, tagID := range []int64{finance.ID, year.ID} {
		w := doJSON(t, s, "POST", "/api/files/tags", fileTagRequest{Path: "/docs/report.pdf", TagID: tagID})
		if w.Code != http.StatusNoContent {
			t.Fatalf("tag file status = %d: %s", w.Code, w.Body)
		}
	}

	w := doJSON(t, s, "GET", "/api/files/tags?path=/docs/report.pdf", nil)
	var tags []tagstore.Tag
	if err := json.Unmarshal(w.Body.Bytes(), &tags); err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 {
		t.Errorf("file tags = %+v, want 2", tags)
	}

	w = doJSON(t, s, "POST", "/api/search/tags", tagQuery{Tags: []string{"finance", "2024"}})
	var searchResp struct {
		Files []string `json:"files"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &searchResp); err != nil {
		t.Fatal(err)
	}
	if len(searchResp.Files) != 1 || searchResp.Files[0] != "/docs/report.pdf" {
		t.Errorf("files = %v", searchResp.Files)
	}

	// An unknown tag in an AND query empties the result.
	w = doJSON(t, s, "POST", "/api/search/tags", tagQuery{Tags: []string{"finance", "nope"}})
	if err := json.Unmarshal(w.Body.Bytes(), &searchResp); err != nil {
		t.Fatal(err)
	}
	if len(searchResp.Files) != 0 {
		t.Errorf("files = %v, want empty", searchResp.Files)
	}

	// OR mode still matches.
	w = doJSON(t, s, "POST", "/api/search/tags", tagQuery{Tags: []string{"finance", "nope"}, Any: true})
	if err := json.Unmarshal(w.Body.Bytes(), &searchResp); err != nil {
		t.Fatal(err)
	}
	if len(searchResp.Files) != 1 {
		t.Errorf("files = %v, want 1", searchResp.Files)
	}
}

func TestIndexAndSemanticSearch(t *testing.T) {
	s, root := newTestServer(t)
	path := filepath.Join(root, "report.txt")
	if err := os.WriteFile(path, []byte("quarterly revenue statement"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, s, "POST", "/api/index", map[string]any{"path": path})
	if w.Code != http.StatusOK {
		t.Fatalf("index status = %d: %s", w.Code, w.Body)
	}

	w = doJSON(t, s, "POST", "/api/search/semantic", map[string]any{"query": "revenue"})
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d: %s", w.Code, w.Body)
	}
	var resp struct {
		Results []semantic.Result `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Path != path {
		t.Fatalf("results = %+v", resp.Results)
	}
	if resp.Results[0].Snippet == "" {
		t.Error("result missing snippet")
	}

	// Missing query is a client error.
	w = doJSON(t, s, "POST", "/api/search/semantic", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty query status = %d, want 400", w.Code)
	}
}

func TestSuggestionsWithoutProvider(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, "GET", "/api/files/suggestions?path=/x.txt", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestEventStream(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The server registers the client just after the handshake; wait
	// for it before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for {
		s.hub.mu.Lock()
		n := len(s.hub.clients)
		s.hub.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ctx := context.Background()
	tag, err := s.engine.Tags.CreateTag(ctx, "finance", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.engine.Tags.TagFile(ctx, "/a.txt", tag.ID); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev tagstore.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Kind != tagstore.EventTagsChanged || ev.Path != "/a.txt" {
		t.Errorf("event = %+v", ev)
	}
	if len(ev.TagIDs) != 1 || ev.TagIDs[0] != tag.ID {
		t.Errorf("event tags = %v, want [%d]", ev.TagIDs, tag.ID)
	}
}
