package objstore

import (
	"fmt"
	"path"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const keyAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var extByType = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
	"image/avif":    "avif",
}

// NewKey builds "<prefix>/<YYYY>/<MM>/<id>.<ext>" for an object of contentType.
func NewKey(prefix, contentType string, now time.Time) (string, error) {
	id, err := gonanoid.Generate(keyAlphabet, 21)
	if err != nil {
		return "", fmt.Errorf("generate object id: %w", err)
	}
	ext, ok := extByType[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		ext = "bin"
	}
	name := id + "." + ext
	return path.Join(strings.Trim(prefix, "/"), now.Format("2006"), now.Format("01"), name), nil
}

// CleanKey normalizes key and rejects keys that could escape the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", ErrInvalidKey
		}
	}
	return key, nil
}

// KeyFromURL recovers the object key from a public URL produced by store.
func KeyFromURL(store Store, rawURL string) (string, bool) {
	base := strings.TrimSuffix(store.PublicURL(""), "/")
	if base == "" || !strings.HasPrefix(rawURL, base+"/") {
		return "", false
	}
	key, err := CleanKey(strings.TrimPrefix(rawURL, base+"/"))
	if err != nil {
		return "", false
	}
	return key, true
}
