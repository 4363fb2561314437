package utils

import "strings"

var mediaExtensions = map[string]bool{
	// image formats
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"svg":  true,
	// video formats
	"mp4":  true,
	"mov":  true,
	"avi":  true,
	"mkv":  true,
	"webm": true,
}

// GetFileExtension returns the extension of a file name or URL without the
// dot, ignoring any query string. Empty string when there is no extension.
func GetFileExtension(fileNameOrURL string) string {
	cleanName, _, _ := strings.Cut(fileNameOrURL, "?")

	lastDot := strings.LastIndex(cleanName, ".")
	if lastDot == -1 || lastDot == len(cleanName)-1 {
		return ""
	}

	return cleanName[lastDot+1:]
}

// IsMediaFile reports whether the URL points at a known image or video
// format. Malformed URLs classify as non-media.
func IsMediaFile(fileURL string) bool {
	if !strings.HasPrefix(fileURL, "http://") && !strings.HasPrefix(fileURL, "https://") {
		return false
	}

	ext := strings.ToLower(GetFileExtension(fileURL))
	return mediaExtensions[ext]
}
