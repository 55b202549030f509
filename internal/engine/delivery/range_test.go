package delivery

import (
	"testing"

	"clipdeck/internal/pkg/errors"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name   string
		header string
		size   int64
		want   *ByteRange
		errMsg bool
	}{
		{name: "no header", header: "", size: 1000, want: nil},
		{name: "explicit window", header: "bytes=100-199", size: 1000, want: &ByteRange{Start: 100, End: 199}},
		{name: "open ended", header: "bytes=900-", size: 1000, want: &ByteRange{Start: 900, End: 999}},
		{name: "end clamped to object", header: "bytes=900-5000", size: 1000, want: &ByteRange{Start: 900, End: 999}},
		{name: "suffix form", header: "bytes=-200", size: 1000, want: &ByteRange{Start: 800, End: 999}},
		{name: "suffix larger than object", header: "bytes=-5000", size: 1000, want: &ByteRange{Start: 0, End: 999}},
		{name: "start at last byte", header: "bytes=999-", size: 1000, want: &ByteRange{Start: 999, End: 999}},
		{name: "start beyond object", header: "bytes=1000-", size: 1000, errMsg: true},
		{name: "inverted window", header: "bytes=200-100", size: 1000, errMsg: true},
		{name: "negative suffix", header: "bytes=-0", size: 1000, errMsg: true},
		{name: "garbage start", header: "bytes=abc-", size: 1000, errMsg: true},
		{name: "not a bytes unit", header: "chunks=0-10", size: 1000, want: nil},
		{name: "multi-range falls back to full", header: "bytes=0-10,20-30", size: 1000, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, tt.size)
			if tt.errMsg {
				if err == nil {
					t.Fatalf("Expected error, got range %+v", got)
				}
				if errors.KindOf(err) != errors.KindRangeNotSatisfiable {
					t.Errorf("Expected range-not-satisfiable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.want == nil {
				if got != nil {
					t.Fatalf("Expected full-object read, got %+v", got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Errorf("Got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestByteRangeLength(t *testing.T) {
	r := ByteRange{Start: 100, End: 199}
	if r.Length() != 100 {
		t.Errorf("Expected length 100, got %d", r.Length())
	}
}
