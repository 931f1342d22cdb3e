// Package objectkey generates and decomposes the object keys used by every
// storage adapter. Keys have the shape {fileType}/{userID}/{random}[.ext] so
// prefix listing by (fileType, userID) works without a secondary index.
package objectkey

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// contentTypeExts maps declared content types to a canonical extension.
// The declared content type always wins over the filename extension.
var contentTypeExts = map[string]string{
	"video/mp4":        ".mp4",
	"video/x-msvideo":  ".avi",
	"video/quicktime":  ".mov",
	"video/webm":       ".webm",
	"video/x-matroska": ".mkv",
	"audio/mpeg":       ".mp3",
	"audio/wav":        ".wav",
	"audio/aac":        ".aac",
	"audio/ogg":        ".ogg",
	"audio/flac":       ".flac",
	"image/jpeg":       ".jpg",
	"image/png":        ".png",
	"image/gif":        ".gif",
	"image/webp":       ".webp",
	"image/svg+xml":    ".svg",
	"application/pdf":  ".pdf",
	"application/json": ".json",
}

// New returns a fresh, collision-resistant object key. ext must be empty or
// start with a dot.
func New(fileType, userID, ext string) string {
	return fileType + "/" + userID + "/" + uuid.NewString() + ext
}

// Prefix returns the listing prefix for a user, optionally narrowed to one
// file type. With no file type the caller has to match the user segment
// itself, so the empty prefix is returned.
func Prefix(fileType, userID string) string {
	if fileType == "" {
		return ""
	}
	return fileType + "/" + userID + "/"
}

// Parse splits a key into its file type and user segments. ok is false when
// the key does not carry both segments.
func Parse(key string) (fileType, userID string, ok bool) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// BelongsTo reports whether a key was written for the given user, and for
// the given file type when one is supplied.
func BelongsTo(key, userID, fileType string) bool {
	ft, uid, ok := Parse(key)
	if !ok || uid != userID {
		return false
	}
	return fileType == "" || ft == fileType
}

// Ext derives the object extension: the declared content type wins, the
// original filename's extension is only a fallback.
func Ext(contentType, filename string) string {
	ct := contentType
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.TrimSpace(strings.ToLower(ct))
	if ext, ok := contentTypeExts[ct]; ok {
		return ext
	}
	if ext := strings.ToLower(path.Ext(filename)); ext != "" && ext != "." {
		return ext
	}
	return ""
}
