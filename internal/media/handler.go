package media

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"showloop/internal/platform/metrics"
	"showloop/internal/show"

	"github.com/go-chi/chi/v5"
)

// chunkSize bounds the per-copy buffer while streaming media bodies.
const chunkSize = 64 * 1024

// cacheControl marks published assets immutable; a new clip gets a new name
// or a new cache-buster query, never new bytes under an old name.
const cacheControl = "public, max-age=31536000, immutable"

// Handler serves whitelisted media assets with byte-range and conditional
// request semantics. Requests that do not resolve to an on-disk asset are
// handed to the fallback handler instead of being answered with an error.
type Handler struct {
	store    show.Store
	def      *show.Variant
	root     string
	maxIndex int
	fallback http.Handler
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewHandler returns a Handler serving assets 1..maxIndex out of the variant
// folders under root. Metrics may be nil to disable metric recording (e.g. in
// tests); fallback must not be nil.
func NewHandler(store show.Store, def *show.Variant, root string, maxIndex int, fallback http.Handler, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		store:    store,
		def:      def,
		root:     root,
		maxIndex: maxIndex,
		fallback: fallback,
		log:      log,
		metrics:  m,
	}
}

// ServeAsset handles GET and HEAD for /{asset}.
func (h *Handler) ServeAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "asset")
	if _, _, _, ok := ParseAssetName(name, h.maxIndex); !ok {
		h.fallback.ServeHTTP(w, r)
		return
	}

	variant := show.Select(w, r, h.store, h.def)
	if variant == nil {
		h.fallback.ServeHTTP(w, r)
		return
	}

	asset, ok := ResolveAsset(filepath.Join(h.root, variant.FolderName), name)
	if !ok {
		h.fallback.ServeHTTP(w, r)
		return
	}

	if sid := r.URL.Query().Get("sid"); sid != "" {
		h.log.Debug("media request",
			slog.String("sid", sid),
			slog.String("asset", name),
			slog.String("show", variant.Key),
			slog.String("range", r.Header.Get("Range")))
	}
	if h.metrics != nil {
		h.metrics.IncMediaRequests()
	}

	etag := asset.ETag()
	hdr := w.Header()
	hdr.Set("ETag", etag)
	hdr.Set("Cache-Control", cacheControl)
	hdr.Set("X-Content-Type-Options", "nosniff")
	hdr.Set("Access-Control-Allow-Origin", "*")
	hdr.Set("Content-Type", ContentType(asset.Ext))

	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		if h.metrics != nil {
			h.metrics.IncNotModified()
		}
		w.WriteHeader(http.StatusNotModified)
		return
	}

	head := r.Method == http.MethodHead

	// Playlists are small text manifests: always whole, never range-negotiated.
	if asset.Ext == "m3u8" {
		hdr.Set("Content-Length", strconv.FormatInt(asset.Size, 10))
		h.writeBody(w, asset, ByteRange{Start: 0, End: asset.Size - 1}, http.StatusOK, head)
		return
	}

	hdr.Set("Accept-Ranges", "bytes")

	rangeHdr := r.Header.Get("Range")
	if rangeHdr == "" {
		hdr.Set("Content-Length", strconv.FormatInt(asset.Size, 10))
		h.writeBody(w, asset, ByteRange{Start: 0, End: asset.Size - 1}, http.StatusOK, head)
		return
	}

	if h.metrics != nil {
		h.metrics.IncRangeRequests()
	}

	br, ok := ParseRange(rangeHdr, asset.Size)
	if !ok {
		if h.metrics != nil {
			h.metrics.IncInvalidRanges()
		}
		hdr.Set("Content-Range", fmt.Sprintf("bytes */%d", asset.Size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	hdr.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", br.Start, br.End, asset.Size))
	hdr.Set("Content-Length", strconv.FormatInt(br.Length(), 10))
	h.writeBody(w, asset, br, http.StatusPartialContent, head)
}

// Preflight handles OPTIONS for media paths so variant subdomains can load
// assets cross-origin.
func (h *Handler) Preflight(w http.ResponseWriter, r *http.Request) {
	hdr := w.Header()
	hdr.Set("Access-Control-Allow-Origin", "*")
	hdr.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	hdr.Set("Access-Control-Allow-Headers", "Range, If-None-Match")
	w.WriteHeader(http.StatusNoContent)
}

// writeBody streams the requested byte slice in bounded chunks. The file is
// opened and positioned before any status is written so open failures can
// still produce a 500; once streaming has begun a read failure just ends the
// response early, which terminates the connection.
func (h *Handler) writeBody(w http.ResponseWriter, asset Asset, br ByteRange, status int, head bool) {
	if head {
		w.WriteHeader(status)
		return
	}

	f, err := os.Open(asset.Path)
	if err != nil {
		h.log.Error("open asset failed", slog.String("path", asset.Path), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer f.Close()

	if br.Start > 0 {
		if _, err := f.Seek(br.Start, io.SeekStart); err != nil {
			h.log.Error("seek asset failed", slog.String("path", asset.Path), slog.String("error", err.Error()))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(status)

	buf := make([]byte, chunkSize)
	n, err := io.CopyBuffer(w, io.LimitReader(f, br.Length()), buf)
	if h.metrics != nil && n > 0 {
		h.metrics.AddBytesSent(n)
	}
	if err != nil {
		h.log.Warn("media stream aborted",
			slog.String("path", asset.Path),
			slog.Int64("written", n),
			slog.String("error", err.Error()))
	}
}

// etagMatches reports whether an If-None-Match header matches the validator.
func etagMatches(inm, etag string) bool {
	if inm == "" {
		return false
	}
	if inm == "*" {
		return true
	}
	for _, candidate := range strings.Split(inm, ",") {
		if strings.TrimSpace(candidate) == etag {
			return true
		}
	}
	return false
}
