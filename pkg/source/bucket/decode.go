package bucket

import (
	"io"
	"path"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// compressedExts lists the suffixes Find tries, in order, behind a plain selector.
var compressedExts = []string{".gz", ".zst", ".lz4"}

func isCompressed(key string) bool {
	return slices.Contains(compressedExts, strings.ToLower(path.Ext(key)))
}

// trimCompression drops a compression suffix from key.
func trimCompression(key string) string {
	if !isCompressed(key) {
		return key
	}
	return strings.TrimSuffix(key, path.Ext(key))
}

// decoder wraps r according to the extension of key.
func decoder(key string, r io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(path.Ext(key)) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case ".lz4":
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return io.NopCloser(r), nil
	}
}
