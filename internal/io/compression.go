package io

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// CreateReader wraps reader with a decompressor for c. The returned cleanup
// releases decompressor resources.
func CreateReader(reader io.Reader, c Compression) (io.Reader, func() error, error) {
	switch c {
	case CompressionNone:
		return reader, func() error { return nil }, nil

	case CompressionGzip:
		gzReader, err := gzip.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return gzReader, gzReader.Close, nil

	case CompressionXZ:
		xzReader, err := xz.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("creating xz reader: %w", err)
		}
		return xzReader, func() error { return nil }, nil

	case CompressionZstd:
		decoder, err := zstd.NewReader(reader)
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		return decoder, func() error {
			decoder.Close()
			return nil
		}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported compression for reading: %d", c)
	}
}

// CreateWriter wraps writer with a compressor for c. The returned cleanup
// flushes and closes the compressor (not the underlying writer).
func CreateWriter(writer io.Writer, c Compression) (io.Writer, func() error, error) {
	switch c {
	case CompressionNone:
		return writer, func() error { return nil }, nil

	case CompressionGzip:
		gzWriter := gzip.NewWriter(writer)
		return gzWriter, gzWriter.Close, nil

	case CompressionXZ:
		xzWriter, err := xz.NewWriter(writer)
		if err != nil {
			return nil, nil, fmt.Errorf("creating xz writer: %w", err)
		}
		return xzWriter, xzWriter.Close, nil

	case CompressionZstd:
		zstdWriter, err := zstd.NewWriter(writer)
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd writer: %w", err)
		}
		return zstdWriter, zstdWriter.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported compression for writing: %d", c)
	}
}

// openDecompressed opens path and returns a reader over its decompressed bytes.
func openDecompressed(path string) (io.Reader, func() error, error) {
	file, err := os.Open(path) //nolint:gosec // caller-provided source path
	if err != nil {
		return nil, nil, err
	}

	reader, cleanup, err := CreateReader(file, DetectCompression(path))
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}

	return reader, func() error {
		cleanupErr := cleanup()
		if closeErr := file.Close(); closeErr != nil && cleanupErr == nil {
			cleanupErr = closeErr
		}
		return cleanupErr
	}, nil
}

// createCompressed creates path and returns a writer compressing into it.
func createCompressed(path string) (io.Writer, func() error, error) {
	file, err := os.Create(path) //nolint:gosec // sibling of the caller-provided source path
	if err != nil {
		return nil, nil, err
	}

	writer, cleanup, err := CreateWriter(file, DetectCompression(path))
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}

	return writer, func() error {
		cleanupErr := cleanup()
		if syncErr := file.Sync(); syncErr != nil && cleanupErr == nil {
			cleanupErr = syncErr
		}
		if closeErr := file.Close(); closeErr != nil && cleanupErr == nil {
			cleanupErr = closeErr
		}
		return cleanupErr
	}, nil
}
