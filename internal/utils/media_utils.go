package utils

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

const octetStream = "application/octet-stream"

var mediaExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
}

// DetectMimeType sniffs data, falling back to the file extension when sniffing is inconclusive
func DetectMimeType(data []byte, filename string) string {
	sniffed := http.DetectContentType(data)
	if i := strings.Index(sniffed, ";"); i >= 0 {
		sniffed = sniffed[:i]
	}
	if sniffed != octetStream && !strings.HasPrefix(sniffed, "text/plain") {
		return sniffed
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if known, ok := mediaExtensions[ext]; ok {
		return known
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		if i := strings.Index(byExt, ";"); i >= 0 {
			byExt = byExt[:i]
		}
		return byExt
	}
	return sniffed
}

// DecodeMediaData decodes standard or URL-safe base64, with or without a data: URL prefix.
// It returns the embedded mime type when a data URL carried one.
func DecodeMediaData(encoded string) ([]byte, string, error) {
	encoded = strings.TrimSpace(encoded)
	var mimeType string
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.Index(encoded, ",")
		if comma < 0 {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		header := strings.TrimPrefix(encoded[:comma], "data:")
		mimeType = strings.TrimSuffix(header, ";base64")
		encoded = encoded[comma+1:]
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(encoded); err == nil {
			return data, mimeType, nil
		}
	}
	return nil, "", fmt.Errorf("media data is not valid base64")
}
