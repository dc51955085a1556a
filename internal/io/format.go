package io

import (
	"path/filepath"
	"strings"

	"github.com/paveg/tabula/internal/common"
	dferrors "github.com/paveg/tabula/internal/errors"
)

// Format identifies how a backing file is encoded.
type Format int

const (
	FormatUnknown Format = iota
	FormatDelimited
	FormatSpreadsheet
	FormatLegacySpreadsheet
	FormatParquet
)

var formatNames = common.EnumStringMap{
	int(FormatUnknown):           "unknown",
	int(FormatDelimited):         "delimited",
	int(FormatSpreadsheet):       "xlsx",
	int(FormatLegacySpreadsheet): "xls",
	int(FormatParquet):           "parquet",
}

func (f Format) String() string {
	return common.FormatEnum(int(f), formatNames)
}

// MarshalText encodes the format by name.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText decodes a format name; unrecognized names are FormatUnknown.
func (f *Format) UnmarshalText(text []byte) error {
	*f = FormatUnknown
	for value, name := range formatNames {
		if name == string(text) {
			*f = Format(value)
			break
		}
	}
	return nil
}

// HasSheets reports whether the format can hold several sheets.
func (f Format) HasSheets() bool {
	return f == FormatSpreadsheet || f == FormatLegacySpreadsheet
}

// Compression identifies the stream compression of a delimited file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionXZ
)

const (
	extGzip = ".gz"
	extZstd = ".zst"
	extXZ   = ".xz"
)

// Extension returns the file suffix of the compression ("" for none).
func (c Compression) Extension() string {
	switch c {
	case CompressionGzip:
		return extGzip
	case CompressionZstd:
		return extZstd
	case CompressionXZ:
		return extXZ
	default:
		return ""
	}
}

// DetectCompression derives the compression from the path suffix.
func DetectCompression(path string) Compression {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, extGzip):
		return CompressionGzip
	case strings.HasSuffix(lower, extZstd):
		return CompressionZstd
	case strings.HasSuffix(lower, extXZ):
		return CompressionXZ
	default:
		return CompressionNone
	}
}

// Extension returns the full extension of path including a compression
// suffix, e.g. ".csv.gz".
func Extension(path string) string {
	c := DetectCompression(path)
	inner := path[:len(path)-len(c.Extension())]
	return filepath.Ext(inner) + path[len(inner):]
}

// DetectFormat determines the format of path from its extension.
func DetectFormat(path string) (Format, error) {
	c := DetectCompression(path)
	inner := strings.ToLower(path[:len(path)-len(c.Extension())])

	switch filepath.Ext(inner) {
	case ".csv", ".tsv", ".txt":
		return FormatDelimited, nil
	}

	if c == CompressionNone {
		switch filepath.Ext(inner) {
		case ".xlsx", ".xlsm":
			return FormatSpreadsheet, nil
		case ".xls":
			return FormatLegacySpreadsheet, nil
		case ".parquet":
			return FormatParquet, nil
		}
	}

	return FormatUnknown, dferrors.NewUnsupportedFormatError("DetectFormat", path)
}

// Source describes the backing file of a dataset.
type Source struct {
	Path      string `json:"path"`
	Format    Format `json:"format"`
	Sheet     string `json:"sheet,omitempty"`
	Delimiter rune   `json:"delimiter,omitempty"`
}
