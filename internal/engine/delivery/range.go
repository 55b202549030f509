package delivery

import (
	"strconv"
	"strings"

	"clipdeck/internal/pkg/errors"
)

// ByteRange is an inclusive [Start, End] window within an object.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ParseRange interprets a single-range Range header against an object of
// the given size. An empty header means the whole object and returns nil.
// Multi-range requests are not supported and fall back to the full object.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, nil
	}
	if strings.Contains(spec, ",") {
		return nil, nil
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, nil
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	// Suffix form: bytes=-N asks for the final N bytes.
	if startStr == "" {
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return nil, errors.RangeNotSatisfiable("invalid-range")
		}
		if n > size {
			n = size
		}
		return &ByteRange{Start: size - n, End: size - 1}, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return nil, errors.RangeNotSatisfiable("invalid-range")
	}
	if start >= size {
		return nil, errors.RangeNotSatisfiable("range-start-beyond-object")
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return nil, errors.RangeNotSatisfiable("invalid-range")
		}
		if end > size-1 {
			end = size - 1
		}
	}

	return &ByteRange{Start: start, End: end}, nil
}
