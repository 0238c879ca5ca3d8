package constants

import "strings"

// SourcePDF marks circular items loaded from an extracted PDF, the only
// source persisted today.
const SourcePDF = "pdf"

// AllowedExtensions holds the default allowed file extensions for circular ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsURL reports whether a document source is fetched over HTTP rather than
// opened from disk.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
