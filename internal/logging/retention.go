package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PruneLogs removes files in dir matching pattern whose modification time is
// older than retentionDays. Paths listed in keep are never removed. A
// retentionDays value of 0 disables pruning. It returns the removed paths.
func PruneLogs(logger *slog.Logger, dir, pattern string, retentionDays int, keep ...string) []string {
	if retentionDays <= 0 || dir == "" {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	kept := make(map[string]struct{}, len(keep))
	for _, path := range keep {
		if abs, err := filepath.Abs(path); err == nil {
			kept[abs] = struct{}{}
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil
	}
	var removed []string
	for _, path := range matches {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if _, skip := kept[path]; skip {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed = append(removed, path)
		if logger != nil {
			logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}
