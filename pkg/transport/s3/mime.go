package s3

import (
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

const defaultContentType = "application/octet-stream"

func guessContentType(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}

// contentTypeFor prefers the extension and falls back to sniffing head.
func contentTypeFor(filename string, head []byte) string {
	if ct := guessContentType(filename); ct != "" {
		return ct
	}
	if len(head) == 0 {
		return defaultContentType
	}
	return mimetype.Detect(head).String()
}
