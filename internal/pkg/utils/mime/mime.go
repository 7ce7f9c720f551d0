package mime

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// extMimeMap refines generic detections for export artifacts whose content
// alone is ambiguous.
var extMimeMap = map[string]string{
	".json": "application/json",
	".svg":  "image/svg+xml",
	".wav":  "audio/wav",
	".yaml": "text/yaml",
	".yml":  "text/yaml",
}

// DetectMimeType detects the MIME type from content and falls back to the
// file extension when detection only yields a generic text or binary type.
func DetectMimeType(content []byte, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType := mimetype.Detect(content).String()

	for _, generic := range []string{"text/plain", "application/octet-stream"} {
		if !strings.HasPrefix(contentType, generic) {
			continue
		}
		if refined, ok := extMimeMap[ext]; ok {
			// keep charset parameters
			return strings.Replace(contentType, generic, refined, 1)
		}
	}
	return contentType
}

// ExtensionFor returns the canonical extension, with leading dot, for a MIME type.
func ExtensionFor(contentType string) string {
	if m := mimetype.Lookup(contentType); m != nil {
		return m.Extension()
	}
	return ""
}
