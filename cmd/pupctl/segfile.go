package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// compressionExt returns the recognized compression extension of path,
// or "" for plain files.
func compressionExt(path string) string {
	for _, ext := range []string{".zst", ".gz", ".lz4", ".br"} {
		if strings.HasSuffix(path, ext) {
			return ext
		}
	}
	return ""
}

// readSegmentFile reads a segment payload from disk, decompressing it if
// the file name carries a compression extension.
func readSegmentFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch compressionExt(path) {
	case "":
		return io.ReadAll(f)
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case ".gz":
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		return io.ReadAll(gr)
	case ".lz4":
		return io.ReadAll(lz4.NewReader(f))
	case ".br":
		return io.ReadAll(brotli.NewReader(f))
	}
	panic("unreachable")
}

// writeSegmentFile writes a segment payload to disk, compressing it if
// the file name carries a compression extension.
func writeSegmentFile(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	var w io.Writer = f
	var closer io.Closer // compressor, flushed before the file
	switch compressionExt(path) {
	case ".zst":
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return err
		}
		w, closer = zw, zw
	case ".gz":
		gw := gzip.NewWriter(f)
		w, closer = gw, gw
	case ".lz4":
		lw := lz4.NewWriter(f)
		w, closer = lw, lw
	case ".br":
		bw := brotli.NewWriter(f)
		w, closer = bw, bw
	}

	if _, err := w.Write(data); err != nil {
		f.Close()
		return err
	}
	if closer != nil {
		if err := closer.Close(); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
