package launcher

import (
	"bytes"
	"errors"
	"io"
	"os"
)

const (
	// Magic introduces a content handler directive at offset 0.
	Magic = "#!mojo "

	// MaxShebangLength bounds the scan for the directive's newline.
	MaxShebangLength = 2048
)

// parseDirective extracts the handler name from the first bytes of a file.
// The name is everything between Magic and the first newline, untrimmed.
func parseDirective(window []byte) (string, bool) {
	rest, ok := bytes.CutPrefix(window, []byte(Magic))
	if !ok {
		return "", false
	}
	end := bytes.IndexByte(rest, '\n')
	if end < 0 {
		return "", false
	}
	return string(rest[:end]), true
}

// readWindow reads up to MaxShebangLength bytes from the start of f.
func readWindow(f *os.File) ([]byte, error) {
	window := make([]byte, MaxShebangLength)
	n, err := io.ReadFull(f, window)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return window[:n], nil
}

// ReadDirective reports the content handler named by the file at path.
func ReadDirective(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	window, err := readWindow(f)
	if err != nil {
		return "", false
	}
	return parseDirective(window)
}
