package installer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	errIsDirectory = errors.New("is a directory")

	// ErrSameFile is returned when a copy's source and destination resolve
	// to the same file. Copying would truncate the source.
	ErrSameFile = errors.New("source and destination are the same file")
)

// matchedFile is a regular file selected by a bulk copy. err is set for an
// entry that matched but cannot be read (a dangling symlink); the copy loop
// reports it after the readable siblings are copied.
type matchedFile struct {
	path string
	mode os.FileMode
	err  error
}

// matchFiles returns the regular files directly inside dir whose base name
// matches pattern, sorted by name.
//
// It mirrors shell globbing as used by `cp dir/*.py dest/`:
//   - subdirectories are never returned (cp without -r skips them)
//   - a leading "." in a name must be matched explicitly by the pattern
//   - symlinks are followed, so a link to a file counts as a file
//   - a dangling symlink is returned with err set instead of aborting
//
// A missing dir is treated as zero matches, like an unmatched glob.
func matchFiles(dir, pattern string) ([]matchedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read source directory %s: %w", dir, err)
	}

	explicitDot := strings.HasPrefix(pattern, ".")

	var files []matchedFile
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") && !explicitDot {
			continue
		}

		ok, err := filepath.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if !ok {
			continue
		}

		full := filepath.Join(dir, name)
		info, err := os.Stat(full)
		if err != nil {
			files = append(files, matchedFile{path: full, err: fmt.Errorf("failed to stat %s: %w", full, err)})
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		files = append(files, matchedFile{path: full, mode: info.Mode().Perm()})
	}

	sort.Slice(files, func(a, b int) bool { return files[a].path < files[b].path })
	return files, nil
}

// copyFile copies a single file from src to dst. An existing dst is
// truncated and overwritten; a new dst is created with mode.
// The parent directory of dst must already exist, and dst must not be
// src itself (ErrSameFile).
func copyFile(src, dst string, mode os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer func() { _ = srcFile.Close() }()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file %s: %w", src, err)
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(srcInfo, dstInfo) {
		return fmt.Errorf("%s and %s: %w", src, dst, ErrSameFile)
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	// A full disk can first surface on close.
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("failed to finish writing %s: %w", dst, err)
	}
	return nil
}
