package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	dferrors "github.com/paveg/tabula/internal/errors"
)

// AtomicReplace replaces src with the file write produces at dst (often the
// same path). write receives a sibling temporary path with dst's extension.
// The existing src is renamed to a sibling backup, the temporary file is
// renamed to dst and the backup is deleted. If any step before the final
// rename fails, src is left untouched; if the final rename fails, the
// backup is renamed back. Every failure is an IOError.
func AtomicReplace(src, dst string, write func(tmp string) error) error {
	tmp := SiblingPath(dst, "tmp")
	if err := write(tmp); err != nil {
		_ = os.Remove(tmp)
		return dferrors.NewIOError("AtomicReplace", dst, err)
	}

	backup := ""
	if _, err := os.Stat(src); err == nil {
		backup = SiblingPath(src, "bak")
		if err := os.Rename(src, backup); err != nil {
			_ = os.Remove(tmp)
			return dferrors.NewIOError("AtomicReplace", src, fmt.Errorf("creating backup: %w", err))
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		_ = os.Remove(tmp)
		return dferrors.NewIOError("AtomicReplace", src, err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		if backup != "" {
			_ = os.Rename(backup, src)
		}
		_ = os.Remove(tmp)
		return dferrors.NewIOError("AtomicReplace", dst, fmt.Errorf("moving new file into place: %w", err))
	}

	if backup != "" {
		// A leftover backup does not affect the replaced file
		_ = os.Remove(backup)
	}
	return nil
}

// SiblingPath returns a unique hidden path next to path, keeping its full
// extension so format-sensitive writers accept it:
// dir/data.csv.gz -> dir/.data.<tag>-<uuid>.csv.gz
func SiblingPath(path, tag string) string {
	dir, base := filepath.Split(path)
	ext := Extension(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s-%s%s", stem, tag, uuid.NewString(), ext))
}
