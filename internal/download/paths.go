package download

import (
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

const defaultExtension = ".jpg"

var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".svg":  {},
}

var (
	unsafeChars   = regexp.MustCompile(`[<>:"/\\|?*]`)
	spaceRun      = regexp.MustCompile(`\s+`)
	maxKeyLength  = 50
	fallbackStem  = "unknown_animal"
	fileNameInfix = "_image"
)

// SanitizeKey turns an arbitrary record key into a filesystem-safe,
// lowercase stem bounded to a sane length.
func SanitizeKey(key string) string {
	s := unsafeChars.ReplaceAllString(key, "_")
	s = spaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_")
	s = strings.Trim(s, "_")
	if len(s) > maxKeyLength {
		s = s[:maxKeyLength]
	}
	if s == "" {
		return fallbackStem
	}
	return s
}

// ExtensionFromURL pulls the image extension out of a locator's path,
// defaulting when missing or unrecognized.
func ExtensionFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return defaultExtension
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if _, ok := supportedExtensions[ext]; !ok {
		return defaultExtension
	}
	return ext
}

// FileName derives the destination file name for a key/locator pair.
// Distinct keys may collapse to the same name (sanitizing lowercases and
// truncates), so callers that fan work out must treat the file name, not the
// raw key, as the write identity.
func FileName(key, rawURL string) string {
	return SanitizeKey(key) + fileNameInfix + ExtensionFromURL(rawURL)
}

// LocalPath derives the deterministic destination file for a key/locator
// pair inside dir.
func LocalPath(dir, key, rawURL string) string {
	return filepath.Join(dir, FileName(key, rawURL))
}
