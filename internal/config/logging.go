package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// logTimeFormat sorts lexically in creation order
const logTimeFormat = "2006-01-02T15-04-05"

// SetupLogFile creates dir/<prefix>-<timestamp>.log and removes the oldest
// files of the same prefix beyond maxFiles. maxFiles <= 0 keeps everything.
// The caller must close the returned file.
func SetupLogFile(dir, prefix string, maxFiles int) (*os.File, error) {
	if prefix == "" || strings.ContainsAny(prefix, `/\`) {
		return nil, fmt.Errorf("invalid log file prefix %q", prefix)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	name := filepath.Join(dir, fmt.Sprintf("%s-%s.log", prefix, time.Now().Format(logTimeFormat)))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	if maxFiles > 0 {
		if err := cleanupOldLogs(dir, prefix, maxFiles); err != nil {
			// logging still works, only retention failed
			slog.Warn("failed to clean up old log files", "dir", dir, "error", err)
		}
	}
	return f, nil
}

func cleanupOldLogs(dir, prefix string, maxFiles int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, prefix+"-") && strings.HasSuffix(name, ".log") {
			files = append(files, name)
		}
	}
	if len(files) <= maxFiles {
		return nil
	}

	sort.Strings(files)
	for _, name := range files[:len(files)-maxFiles] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}
