package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// DefaultPollInterval is how often Follow checks for new lines.
const DefaultPollInterval = 250 * time.Millisecond

// Last returns up to n complete lines from the end of path together with the
// offset just past them. A missing file yields no lines and offset 0.
func Last(path string, n int) ([]string, int64, error) {
	lines, offset, err := readFrom(path, 0)
	if err != nil {
		return nil, 0, err
	}
	if n <= 0 {
		return nil, offset, nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, offset, nil
}

// Follow polls path from offset and calls emit for every complete line,
// returning when ctx is done or emit fails.
func Follow(ctx context.Context, path string, offset int64, interval time.Duration, emit func(line string) error) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if info, err := os.Stat(path); err == nil && info.Size() < offset {
			offset = 0
		}
		lines, next, err := readFrom(path, offset)
		if err != nil {
			return err
		}
		offset = next
		for _, line := range lines {
			if err := emit(line); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// readFrom returns the complete lines after offset and the offset following
// the last newline consumed.
func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, offset, fmt.Errorf("log path %q is a directory", path)
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return lines, offset, nil
			}
			return nil, offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
}
