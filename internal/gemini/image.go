package gemini

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// maxImageBytes is the largest photo sent inline with a request.
const maxImageBytes = 15 << 20

// LoadImage reads a meal photo and determines its media type from the
// content, falling back to the file extension.
func LoadImage(path string) ([]byte, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open photo: %w", err)
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxImageBytes {
		return nil, "", fmt.Errorf("photo is too large (%d MB max)", maxImageBytes>>20)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read photo: %w", err)
	}

	mediaType := http.DetectContentType(data)
	if !strings.HasPrefix(mediaType, "image/") {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(byExt, "image/") {
			mediaType = byExt
		}
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, "", fmt.Errorf("%s does not look like an image (%s)", filepath.Base(path), mediaType)
	}
	return data, mediaType, nil
}
