// Package staging cleans up abandoned synthesis job directories under the
// configured job temp root, so a crashed or killed run doesn't leak disk
// space across invocations.
package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dubsync/internal/logging"
)

// CleanStaleResult contains the outcome of a stale directory cleanup operation.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes job directories under tempRoot older than maxAge. Each
// SynthesisJob normally removes its own directory on Close, so anything left
// behind this old is the result of a crash or a killed process.
func CleanStale(ctx context.Context, tempRoot string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	tempRoot = strings.TrimSpace(tempRoot)
	if tempRoot == "" {
		return result
	}

	entries, err := os.ReadDir(tempRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: tempRoot, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dirPath := filepath.Join(tempRoot, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(dirPath); err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
				if logger != nil {
					logger.Warn("failed to remove stale job directory",
						logging.String("path", dirPath),
						logging.Error(err),
						logging.String(logging.FieldEventType, "job_cleanup_failed"),
						logging.String(logging.FieldErrorHint, "check job.temp_root permissions"),
						logging.String(logging.FieldImpact, "disk space not reclaimed"),
					)
				}
			} else {
				result.Removed = append(result.Removed, dirPath)
				if logger != nil {
					logger.Info("removed stale job directory",
						logging.String("path", dirPath),
						logging.Duration("age", time.Since(info.ModTime())),
						logging.String(logging.FieldEventType, "job_cleanup"),
					)
				}
			}
		}
	}

	return result
}

// CleanOrphaned removes job directories under tempRoot that don't belong to
// any of the given active job IDs, regardless of age, such as directories
// left by a previous process that never reached Close. No command in
// cmd/dubsync calls it.
func CleanOrphaned(ctx context.Context, tempRoot string, activeJobIDs map[string]struct{}, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	tempRoot = strings.TrimSpace(tempRoot)
	if tempRoot == "" {
		return result
	}

	entries, err := os.ReadDir(tempRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: tempRoot, Error: err})
		}
		return result
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dirPath := filepath.Join(tempRoot, entry.Name())

		if _, active := activeJobIDs[entry.Name()]; active {
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			if logger != nil {
				logger.Warn("failed to remove orphaned job directory",
					logging.String("path", dirPath),
					logging.Error(err),
					logging.String(logging.FieldEventType, "job_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check job.temp_root permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
		} else {
			result.Removed = append(result.Removed, dirPath)
			if logger != nil {
				logger.Info("removed orphaned job directory",
					logging.String("path", dirPath),
					logging.String(logging.FieldEventType, "job_cleanup"),
				)
			}
		}
	}

	return result
}

// ListDirectories returns all job directories under tempRoot with their metadata.
func ListDirectories(tempRoot string) ([]DirInfo, error) {
	tempRoot = strings.TrimSpace(tempRoot)
	if tempRoot == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(tempRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		dirPath := filepath.Join(tempRoot, entry.Name())
		size, _ := dirSize(dirPath)

		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}

	return dirs, nil
}

// DirInfo contains metadata about a job directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
