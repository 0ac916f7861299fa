package media

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// Asset is one media file resolved from disk for a single request.
type Asset struct {
	Path    string
	Ext     string
	Size    int64
	ModTime time.Time
}

// assetName matches the whitelisted filename shapes:
// "<n>.mp4", "<n>.m3u8" for whole assets and "<n>_<###>.ts" for HLS segments.
var assetName = regexp.MustCompile(`^([0-9]+)(?:_([0-9]{3}))?\.(mp4|m3u8|ts)$`)

// ParseAssetName validates a requested filename against the whitelist and the
// configured asset range. segment is -1 for non-segment assets.
func ParseAssetName(name string, maxIndex int) (index, segment int, ext string, ok bool) {
	m := assetName.FindStringSubmatch(name)
	if m == nil {
		return 0, -1, "", false
	}
	index, err := strconv.Atoi(m[1])
	if err != nil || index < 1 || index > maxIndex {
		return 0, -1, "", false
	}
	segment = -1
	if m[2] != "" {
		segment, _ = strconv.Atoi(m[2])
	}
	ext = m[3]
	// Segments are .ts only; a bare .ts without a segment suffix is not served.
	if (ext == "ts") != (segment >= 0) {
		return 0, -1, "", false
	}
	return index, segment, ext, true
}

// ResolveAsset stats name inside dir and returns its Asset. A missing or
// non-regular file returns ok=false; that is an expected condition (an
// unpublished variant) and the caller falls through to other handlers.
func ResolveAsset(dir, name string) (Asset, bool) {
	p := filepath.Join(dir, name)
	fi, err := os.Stat(p)
	if err != nil || !fi.Mode().IsRegular() {
		return Asset{}, false
	}
	return Asset{
		Path:    p,
		Ext:     filepath.Ext(name)[1:],
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}, true
}

// ContentType returns the media type for a whitelisted extension.
func ContentType(ext string) string {
	switch ext {
	case "mp4":
		return "video/mp4"
	case "m3u8":
		return "application/vnd.apple.mpegurl"
	case "ts":
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}

// ETag derives a strong validator from the asset's size and modification
// time. Published assets are immutable, so this pair identifies the bytes.
func (a Asset) ETag() string {
	return `"` + strconv.FormatInt(a.Size, 16) + "-" + strconv.FormatInt(a.ModTime.UnixNano(), 16) + `"`
}
