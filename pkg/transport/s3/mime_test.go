package s3

import (
	"strings"
	"testing"
)

func TestContentTypeFor(t *testing.T) {
	pngHeader := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")

	tests := []struct {
		name       string
		filename   string
		head       []byte
		wantPrefix string
	}{
		{name: "known extension", filename: "index.html", wantPrefix: "text/html"},
		{name: "json", filename: "__atm__/map.json", wantPrefix: "application/json"},
		{name: "sniffed png", filename: "image", head: pngHeader, wantPrefix: "image/png"},
		{name: "sniffed text", filename: "LICENSE", head: []byte("MIT License"), wantPrefix: "text/plain"},
		{name: "empty content", filename: "empty", wantPrefix: defaultContentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contentTypeFor(tt.filename, tt.head)
			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("contentTypeFor(%q) = %q, want prefix %q", tt.filename, got, tt.wantPrefix)
			}
		})
	}
}
