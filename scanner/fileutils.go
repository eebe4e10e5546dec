package scanner

import (
	"path/filepath"
	"strings"
)

// IsImageFile checks if a file extension belongs to a format the perceptual
// hasher is expected to handle. Formats known not to hash meaningfully
// (GIF, PDF, SVG, AVIF, HEIC) are excluded so they can be skipped before
// any bytes are read.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp", ".webp":
		return true
	case ".tif", ".tiff":
		return true
	case ".jp2", ".j2k", ".jpf", ".jpm", ".jpg2", ".j2c", ".jpc", ".jpx":
		return true
	default:
		return false
	}
}

// GetFileFormat returns the lowercase file extension without the dot
func GetFileFormat(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
