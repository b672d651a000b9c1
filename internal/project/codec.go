package project

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"modgraph/internal/graph"
)

// Magic prefixes a compressed project file: "R5VP"
var Magic = []byte{0x52, 0x35, 0x56, 0x50}

// ErrNotProjectFile is returned when the data is neither a compressed project
// nor plain UTF-8 text.
var ErrNotProjectFile = errors.New("not a project file")

// EncodeResult holds the encoded file and the size statistics reported to the editor
type EncodeResult struct {
	Data           []byte `json:"-"`
	OriginalSize   int    `json:"originalSize"`
	CompressedSize int    `json:"compressedSize"`
}

// Encode serializes the document and compresses it behind the magic prefix.
func Encode(doc *graph.Document) (*EncodeResult, error) {
	content, err := graph.EncodeDocument(doc)
	if err != nil {
		return nil, err
	}
	return Compress(content)
}

// Compress gzips raw project text behind the magic prefix.
func Compress(content []byte) (*EncodeResult, error) {
	var buf bytes.Buffer
	buf.Write(Magic)

	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("compression error: %w", err)
	}
	if _, err := zw.Write(content); err != nil {
		return nil, fmt.Errorf("compression error: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compression finish error: %w", err)
	}

	return &EncodeResult{
		Data:           buf.Bytes(),
		OriginalSize:   len(content),
		CompressedSize: buf.Len(),
	}, nil
}

// Decompress returns the project text stored in data and whether it was
// compressed. Files without the magic prefix are read as plain text.
func Decompress(data []byte) ([]byte, bool, error) {
	if bytes.HasPrefix(data, Magic) {
		zr, err := gzip.NewReader(bytes.NewReader(data[len(Magic):]))
		if err != nil {
			return nil, true, fmt.Errorf("failed to decompress: %w", err)
		}
		defer zr.Close()

		content, err := io.ReadAll(zr)
		if err != nil {
			return nil, true, fmt.Errorf("failed to decompress: %w", err)
		}
		return content, true, nil
	}

	if !utf8.Valid(data) {
		return nil, false, ErrNotProjectFile
	}
	return data, false, nil
}

// Decode reads a compressed or plain project file into a document.
func Decode(data []byte) (*graph.Document, error) {
	content, _, err := Decompress(data)
	if err != nil {
		return nil, err
	}
	return graph.DecodeDocument(content)
}
