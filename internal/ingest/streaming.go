package ingest

// streaming.go provides the reader wrappers applied to every delimited input.
//
// These wrap io.Reader to handle common export issues without loading the
// whole file into memory:
//
//   - bomReader: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF) left by Excel
//   - utf8Sanitizer: replaces invalid UTF-8 bytes with '?'
//   - limitedReader: fails with ErrFileTooLarge past the size limit
//
// Use wrapInput to apply all of them in the correct order.

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomReader skips the UTF-8 BOM if the stream starts with one.
type bomReader struct {
	br      *bufio.Reader
	checked bool
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader. The BOM check happens on the first call.
func (r *bomReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, err := r.br.Peek(len(utf8BOM))
		if err == nil && string(head) == string(utf8BOM) {
			if _, err := r.br.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return r.br.Read(p)
}

// utf8Sanitizer rewrites invalid UTF-8 in place. A multi-byte sequence split
// across two reads is held back until the next call completes it.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

// Read implements io.Reader.
func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if asciiOnly(p[:n]) {
		return n, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

func asciiOnly(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sanitize compacts data in place and returns the number of bytes to hand
// back. Unless atEOF, an unfinished trailing sequence moves to pending.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			// '?' keeps the output no longer than the input.
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// limitedReader counts bytes and fails once more than max have been read.
type limitedReader struct {
	r    io.Reader
	max  int64
	read int64
}

// Read implements io.Reader.
func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.read += int64(n)
	if l.max > 0 && l.read > l.max {
		return n, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, l.max)
	}
	return n, err
}

// BytesRead returns the number of bytes consumed so far.
func (l *limitedReader) BytesRead() int64 { return l.read }

// wrapInput applies size limiting, BOM skipping and UTF-8 sanitization.
//
// The order matters: the limit counts raw input bytes, the BOM must be gone
// before sanitization so it is not mistaken for data.
func wrapInput(r io.Reader, maxSize int64) (io.Reader, *limitedReader) {
	limited := &limitedReader{r: r, max: maxSize}
	return newUTF8Sanitizer(newBOMReader(limited)), limited
}
