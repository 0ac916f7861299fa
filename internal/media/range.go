package media

import (
	"strconv"
	"strings"
)

// ByteRange is a resolved, satisfiable byte range: 0 <= Start <= End < size.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range.
func (r ByteRange) Length() int64 { return r.End - r.Start + 1 }

// ParseRange parses a Range header value against a resource of the given
// size. Only the first range of a comma-separated list is considered;
// multi-range responses are not supported.
//
// bytes=A-B: valid iff A is a non-negative integer below size. B defaults to
// size-1 when absent or unparsable, is clamped to size-1, and falls back to
// size-1 when below A. bytes=-N: valid iff N > 0, yielding the final N bytes.
// Anything else is unsatisfiable and ok is false.
func ParseRange(h string, size int64) (r ByteRange, ok bool) {
	h = strings.TrimSpace(strings.ToLower(h))
	if !strings.HasPrefix(h, "bytes=") || size <= 0 {
		return ByteRange{}, false
	}
	spec := strings.TrimPrefix(h, "bytes=")
	if i := strings.IndexByte(spec, ','); i >= 0 {
		spec = spec[:i]
	}
	spec = strings.TrimSpace(spec)

	first, rest, found := strings.Cut(spec, "-")
	if !found {
		return ByteRange{}, false
	}

	if first == "" {
		// Suffix form: the final N bytes.
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || n <= 0 {
			return ByteRange{}, false
		}
		start := size - n
		if start < 0 {
			start = 0
		}
		return ByteRange{Start: start, End: size - 1}, true
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 || start >= size {
		return ByteRange{}, false
	}

	end := size - 1
	if rest != "" {
		if e, err := strconv.ParseInt(rest, 10, 64); err == nil {
			end = e
		}
	}
	if end >= size || end < start {
		end = size - 1
	}
	return ByteRange{Start: start, End: end}, true
}
