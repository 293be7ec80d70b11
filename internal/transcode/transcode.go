package transcode

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ReadError indicates the underlying source could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// TranscodeError indicates the source was read but could not be turned into
// a transmittable representation.
type TranscodeError struct {
	Path   string
	Reason string
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("failed to transcode %s: %s", e.Path, e.Reason)
}

// DataURL converts a local file into a base64 data URL suitable for direct
// inclusion in a JSON request body. The encoding is lossless.
func DataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ReadError{Path: path, Err: err}
	}

	mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mediaType == "" {
		mediaType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", &TranscodeError{Path: path, Reason: fmt.Sprintf("unsupported media type %q", mediaType)}
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("data:%s;base64,%s", mediaType, encoded), nil
}

// DataURLs transcodes every file in order, failing fast on the first error so
// callers never submit a partial batch.
func DataURLs(paths []string) ([]string, error) {
	urls := make([]string, 0, len(paths))
	for _, path := range paths {
		url, err := DataURL(path)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
