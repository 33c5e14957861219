package web

// handlers_common.go holds request parsing and response helpers shared by
// the handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/txclean/internal/core"
	"github.com/JonMunkholm/txclean/internal/ingest"
)

// multipartMemory is how much of a multipart upload is held in memory
// before spilling to a temp file.
const multipartMemory = 32 << 20

// defaultUploadName names raw-body uploads sent without ?name=.
const defaultUploadName = "upload.csv"

// readSource extracts the input file from r. Multipart requests carry it in
// the "file" field; any other content type is taken as the raw file body,
// named by the "name" query parameter. The returned close func must be called.
func (s *Server) readSource(w http.ResponseWriter, r *http.Request) (ingest.Source, func(), error) {
	maxSize := s.cfg.Upload.MaxFileSize
	noop := func() {}

	if r.ContentLength > maxSize {
		return ingest.Source{}, noop, fmt.Errorf("%w: %d bytes declared, limit %d", ingest.ErrFileTooLarge, r.ContentLength, maxSize)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return ingest.Source{}, noop, fmt.Errorf("%w: limit %d", ingest.ErrFileTooLarge, maxSize)
			}
			return ingest.Source{}, noop, fmt.Errorf("%w: %v", errNoFile, err)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			return ingest.Source{}, noop, errNoFile
		}
		cleanup := func() {
			file.Close()
			if r.MultipartForm != nil {
				r.MultipartForm.RemoveAll()
			}
		}
		return ingest.Source{Name: header.Filename, Reader: file, Size: header.Size}, cleanup, nil
	}

	if r.ContentLength == 0 {
		return ingest.Source{}, noop, errNoFile
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = defaultUploadName
	}
	size := r.ContentLength
	if size < 0 {
		size = 0
	}
	return ingest.Source{Name: name, Reader: &maxBytesMapper{r: r.Body}, Size: size}, noop, nil
}

// maxBytesMapper turns the body limit error into ingest.ErrFileTooLarge.
type maxBytesMapper struct {
	r io.Reader
}

func (m *maxBytesMapper) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return n, fmt.Errorf("%w: limit %d", ingest.ErrFileTooLarge, tooLarge.Limit)
	}
	return n, err
}

// parseBoolParam parses a boolean query parameter with a default value.
func parseBoolParam(r *http.Request, name string, defaultVal bool) bool {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

// clientIP strips the port from a RemoteAddr.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

// writeError writes a JSON error for failures that have no underlying error
// value, such as rate limiting.
func writeError(w http.ResponseWriter, status int, message, code string) {
	respondErrorJSON(w, core.UserMessage{Message: message, Code: code}, status)
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
