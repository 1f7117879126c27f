// Package compression provides stream compression for columnar output
// files. Two algorithms are supported: Zstd for ratio and LZ4 for
// speed. The algorithm can be picked explicitly or derived from the
// output path's extension.
package compression

import (
	"io"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/seriate-io/seriate/pkg/serrors"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None disables compression.
	None Algorithm = "none"
	// Zstd selects Zstandard compression.
	Zstd Algorithm = "zstd"
	// LZ4 selects LZ4 frame compression.
	LZ4 Algorithm = "lz4"
)

// ParseAlgorithm maps a user-supplied name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case "", None:
		return None, nil
	case Zstd:
		return Zstd, nil
	case LZ4:
		return LZ4, nil
	}
	return None, serrors.Newf(serrors.ErrorTypeConfig, "unknown compression algorithm %q", name)
}

// ForPath derives an algorithm from a file extension (.zst, .lz4).
func ForPath(path string) Algorithm {
	switch filepath.Ext(path) {
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	}
	return None
}

// nopWriteCloser passes writes through and closes nothing.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w with the selected compression. The returned writer
// must be closed to flush the compressed frame; closing it does not
// close w.
func NewWriter(w io.Writer, algo Algorithm) (io.WriteCloser, error) {
	switch algo {
	case None:
		return nopWriteCloser{w}, nil
	case Zstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, serrors.Wrap(err, serrors.ErrorTypeFile, "failed to create zstd writer")
		}
		return zw, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	}
	return nil, serrors.Newf(serrors.ErrorTypeConfig, "unknown compression algorithm %q", algo)
}

// NewReader wraps r with the selected decompression.
func NewReader(r io.Reader, algo Algorithm) (io.ReadCloser, error) {
	switch algo {
	case None:
		return io.NopCloser(r), nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, serrors.Wrap(err, serrors.ErrorTypeFile, "failed to create zstd reader")
		}
		return zr.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	}
	return nil, serrors.Newf(serrors.ErrorTypeConfig, "unknown compression algorithm %q", algo)
}
