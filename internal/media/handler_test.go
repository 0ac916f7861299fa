package media

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"showloop/internal/show"

	"github.com/go-chi/chi/v5"
)

// mediaBody is the deterministic 1000-byte test asset.
func mediaBody() []byte {
	b := make([]byte, 1000)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func newTestServer(t *testing.T) (*chi.Mux, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "niki")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "1.mp4"), mediaBody(), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "1.m3u8"), []byte("#EXTM3U\n#EXT-X-VERSION:3\n1_000.ts\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "1_000.ts"), mediaBody()[:188], 0o644); err != nil {
		t.Fatal(err)
	}

	store := show.FixedStore{{Key: "niki", FolderName: "niki"}}
	def := store[0]
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	fallback := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := NewHandler(store, &def, root, 6, fallback, log, nil)

	r := chi.NewRouter()
	r.Get("/{asset}", h.ServeAsset)
	r.Head("/{asset}", h.ServeAsset)
	r.Options("/{asset}", h.Preflight)
	return r, root
}

func doRequest(t *testing.T, r http.Handler, method, target, rangeHdr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if rangeHdr != "" {
		req.Header.Set("Range", rangeHdr)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_full_file(t *testing.T) {
	r, _ := newTestServer(t)

	rec := doRequest(t, r, http.MethodGet, "/1.mp4", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Length"); got != "1000" {
		t.Errorf("Content-Length = %s", got)
	}
	if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %s", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %s", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %s", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %s", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), mediaBody()) {
		t.Error("body does not match asset")
	}
}

func TestHandler_partial_ranges(t *testing.T) {
	r, _ := newTestServer(t)
	body := mediaBody()

	cases := []struct {
		header string
		start  int64
		end    int64
	}{
		{"bytes=0-0", 0, 0},
		{"bytes=200-499", 200, 499},
		{"bytes=500-", 500, 999},
		{"bytes=-100", 900, 999},
		{"bytes=990-5000", 990, 999},
	}

	for _, tc := range cases {
		rec := doRequest(t, r, http.MethodGet, "/1.mp4", tc.header)
		if rec.Code != http.StatusPartialContent {
			t.Fatalf("%s: expected 206, got %d", tc.header, rec.Code)
		}
		wantCR := fmt.Sprintf("bytes %d-%d/1000", tc.start, tc.end)
		if got := rec.Header().Get("Content-Range"); got != wantCR {
			t.Errorf("%s: Content-Range = %s, want %s", tc.header, got, wantCR)
		}
		wantLen := tc.end - tc.start + 1
		if got := rec.Header().Get("Content-Length"); got != strconv.FormatInt(wantLen, 10) {
			t.Errorf("%s: Content-Length = %s, want %d", tc.header, got, wantLen)
		}
		if !bytes.Equal(rec.Body.Bytes(), body[tc.start:tc.end+1]) {
			t.Errorf("%s: body slice mismatch", tc.header)
		}
	}
}

func TestHandler_unsatisfiable_range(t *testing.T) {
	r, _ := newTestServer(t)

	for _, header := range []string{"bytes=1000-", "bytes=99999-100000", "bytes=abc-", "bytes=-0"} {
		rec := doRequest(t, r, http.MethodGet, "/1.mp4", header)
		if rec.Code != http.StatusRequestedRangeNotSatisfiable {
			t.Fatalf("%s: expected 416, got %d", header, rec.Code)
		}
		if got := rec.Header().Get("Content-Range"); got != "bytes */1000" {
			t.Errorf("%s: Content-Range = %s", header, got)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("%s: expected empty body", header)
		}
	}
}

func TestHandler_head_matches_get(t *testing.T) {
	r, _ := newTestServer(t)

	for _, rangeHdr := range []string{"", "bytes=100-299", "bytes=-50"} {
		get := doRequest(t, r, http.MethodGet, "/1.mp4", rangeHdr)
		head := doRequest(t, r, http.MethodHead, "/1.mp4", rangeHdr)

		if head.Code != get.Code {
			t.Fatalf("range %q: HEAD status %d, GET status %d", rangeHdr, head.Code, get.Code)
		}
		for name, want := range get.Header() {
			got := head.Header().Values(name)
			if len(got) != len(want) || got[0] != want[0] {
				t.Errorf("range %q: header %s: HEAD %v, GET %v", rangeHdr, name, got, want)
			}
		}
		if head.Body.Len() != 0 {
			t.Errorf("range %q: HEAD carried a body", rangeHdr)
		}
	}
}

func TestHandler_conditional_request(t *testing.T) {
	r, _ := newTestServer(t)

	first := doRequest(t, r, http.MethodGet, "/1.mp4", "")
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag on media response")
	}

	req := httptest.NewRequest(http.MethodGet, "/1.mp4", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Error("304 must not carry a body")
	}
}

func TestHandler_playlist_served_whole(t *testing.T) {
	r, _ := newTestServer(t)

	rec := doRequest(t, r, http.MethodGet, "/1.m3u8", "bytes=0-3")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 (no range negotiation), got %d", rec.Code)
	}
	if got := rec.Header().Get("Accept-Ranges"); got != "" {
		t.Errorf("playlists must not advertise ranges, got %s", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/vnd.apple.mpegurl" {
		t.Errorf("Content-Type = %s", got)
	}
	if got := rec.Header().Get("Content-Length"); got != strconv.Itoa(rec.Body.Len()) {
		t.Errorf("Content-Length %s does not match body %d", got, rec.Body.Len())
	}
}

func TestHandler_segment_range(t *testing.T) {
	r, _ := newTestServer(t)

	rec := doRequest(t, r, http.MethodGet, "/1_000.ts", "bytes=0-93")
	if rec.Code != http.StatusPartialContent {
		t.Fatalf("expected 206, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 0-93/188" {
		t.Errorf("Content-Range = %s", got)
	}
}

func TestHandler_missing_asset_falls_through(t *testing.T) {
	r, _ := newTestServer(t)

	rec := doRequest(t, r, http.MethodGet, "/2.mp4", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected fallback 404, got %d", rec.Code)
	}
}

func TestHandler_unlisted_name_falls_through(t *testing.T) {
	r, _ := newTestServer(t)

	for _, target := range []string{"/7.mp4", "/index.html", "/1.mkv"} {
		rec := doRequest(t, r, http.MethodGet, target, "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected fallback 404, got %d", target, rec.Code)
		}
	}
}

func TestHandler_preflight(t *testing.T) {
	r, _ := newTestServer(t)

	rec := doRequest(t, r, http.MethodOptions, "/1.mp4", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("expected CORS method list")
	}
}
