package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// extForContentType infers a filename extension from a MIME content type.
// Unknown or non-image types map to the generic bin extension.
func extForContentType(contentType string) string {
	lower := strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(lower, "image/") {
		return "bin"
	}
	subtype := strings.TrimPrefix(lower, "image/")
	if idx := strings.Index(subtype, ";"); idx >= 0 {
		subtype = strings.TrimSpace(subtype[:idx])
	}

	switch subtype {
	case "jpeg", "pjpeg":
		return "jpg"
	case "svg+xml":
		return "svg"
	case "tiff":
		return "tif"
	case "vnd.microsoft.icon":
		return "ico"
	case "vnd.wap.wbmp":
		return "wbmp"
	case "", "*":
		return "bin"
	default:
		return subtype
	}
}

// sanitize strips directory separators, traversal sequences and control
// characters from a user-suggested filename, leaving only the base name.
func sanitize(name string) string {
	name = strings.TrimSpace(name)

	// Keep only the final path element, whatever separator was used.
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}

	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	name = b.String()

	// A bare dot-sequence is a traversal remnant, not a name.
	if strings.Trim(name, ".") == "" {
		return ""
	}
	return name
}

// newToken produces a short unique token for synthesized names and collision
// suffixes.
func newToken() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// NormalizeFilename derives a safe storage filename from an optional
// suggestion and the content type. Missing names are synthesized from a
// random token; names without an extension get one inferred from the
// content type.
func NormalizeFilename(suggested, contentType string) string {
	name := sanitize(suggested)

	if name == "" {
		return fmt.Sprintf("untitled-%s.%s", newToken(), extForContentType(contentType))
	}
	if !strings.Contains(name, ".") {
		return fmt.Sprintf("%s.%s", name, extForContentType(contentType))
	}
	return name
}

// withToken appends a fresh disambiguating token before the extension.
func withToken(name string) string {
	ext := ""
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name, ext = name[:idx], name[idx:]
	}
	return fmt.Sprintf("%s-%s%s", name, newToken(), ext)
}
