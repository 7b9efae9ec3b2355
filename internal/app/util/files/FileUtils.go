package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"audio2json/internal/app/model"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DiscoverAudioFiles lists dir (without recursion) and returns the regular
// files whose extension maps to an audio/* content type, in listing order.
// Files with an undeterminable type are skipped, never reported as errors.
func DiscoverAudioFiles(dir string, logger *zap.Logger) ([]model.AudioFile, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", dir, err)
	}

	audioFiles := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (model.AudioFile, bool) {
		fullPath := filepath.Join(dir, entry.Name())

		// Stat follows symlinks, so a link to a regular file counts.
		info, err := os.Stat(fullPath)
		if err != nil || !info.Mode().IsRegular() {
			return model.AudioFile{}, false
		}

		contentType, ok := DetectContentType(fullPath)
		if !ok {
			logger.Debug("Skipping file with unknown content type", zap.String("file", fullPath))
			return model.AudioFile{}, false
		}
		if !IsAudioContentType(contentType) {
			logger.Debug("Skipping non-audio file",
				zap.String("file", fullPath),
				zap.String("content_type", contentType))
			return model.AudioFile{}, false
		}

		return model.AudioFile{
			FullPath: fullPath,
			Name:     entry.Name(),
			MIMEType: contentType,
			ModTime:  info.ModTime(),
		}, true
	})

	return audioFiles, nil
}

// EnsureDirectory creates dir and any missing parents. An existing directory is not an error.
func EnsureDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// Stem returns the base name of path with its final extension removed.
// Leading dots do not start an extension, so ".wav" keeps its name.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, Extension(base))
}

// Extension returns the final extension of path including the dot, or "" when
// the only dots in the base name are leading ones.
func Extension(path string) string {
	base := filepath.Base(path)
	if !strings.Contains(strings.TrimLeft(base, "."), ".") {
		return ""
	}
	return filepath.Ext(base)
}

// WriteFileAtomic writes data to a temporary file in the target directory and
// renames it over path, so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
