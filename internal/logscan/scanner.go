// File: internal/logscan/scanner.go

// Package logscan checks the AUT's server-side log files for expected or
// forbidden entries. It scans sequentially from the top of the file and
// returns the first match; it never builds an index.
package logscan

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/hpcloud/tail"
	"go.uber.org/zap"

	"github.com/veraqa/shoptest/api/schemas"
)

// Window bounds the timestamp of an acceptable entry. The zero Window
// matches any line regardless of timestamp.
type Window struct {
	From time.Time
	To   time.Time
}

// Last builds a window covering the most recent duration d.
func Last(d time.Duration) Window {
	now := time.Now()
	return Window{From: now.Add(-d), To: now}
}

// IsZero reports whether the window is unset.
func (w Window) IsZero() bool { return w.From.IsZero() && w.To.IsZero() }

func (w Window) contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// Query describes one log assertion. When both Substring and Regex are set,
// both must match. RequiredFields are additional substrings that must all
// appear on the same line.
type Query struct {
	Path           string
	Substring      string
	Regex          *regexp.Regexp
	Window         Window
	RequiredFields []string
}

// Timestamp formats the scanner understands. Lines whose timestamp cannot be
// parsed are skipped when a window is set.
var (
	bracketedPattern = regexp.MustCompile(`\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]`)
	isoPattern       = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})?`)
)

const bracketedLayout = "2006-01-02 15:04:05"

// Scanner reads a scenario's log files. One scanner per scenario.
type Scanner struct {
	log *zap.Logger
}

// New builds a scanner.
func New(logger *zap.Logger) *Scanner {
	return &Scanner{log: logger.Named("logscan")}
}

// FindLine scans the file top to bottom and returns the first line matching
// the query. A missing file wraps schemas.ErrLogUnavailable (fatal to the
// step); an empty file or no match wraps schemas.ErrLogEntryMissing.
func (s *Scanner) FindLine(ctx context.Context, q Query) (string, error) {
	if _, err := os.Stat(q.Path); err != nil {
		return "", fmt.Errorf("log file %s: %v: %w", q.Path, err, schemas.ErrLogUnavailable)
	}

	t, err := tail.TailFile(q.Path, tail.Config{
		Follow:    false,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return "", fmt.Errorf("log file %s: %v: %w", q.Path, err, schemas.ErrLogUnavailable)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return "", fmt.Errorf("scanning %s: %v: %w", q.Path, ctx.Err(), schemas.ErrTimeout)
		case line, ok := <-t.Lines:
			if !ok || line == nil {
				return "", fmt.Errorf("no entry matching query in %s: %w", q.Path, schemas.ErrLogEntryMissing)
			}
			if line.Err != nil {
				s.log.Debug("Skipping unreadable line", zap.Error(line.Err))
				continue
			}
			if s.matches(line.Text, q) {
				_ = t.Stop()
				return line.Text, nil
			}
		}
	}
}

func (s *Scanner) matches(line string, q Query) bool {
	if q.Substring != "" && !strings.Contains(line, q.Substring) {
		return false
	}
	if q.Regex != nil && !q.Regex.MatchString(line) {
		return false
	}
	for _, field := range q.RequiredFields {
		if !strings.Contains(line, field) {
			return false
		}
	}
	if !q.Window.IsZero() {
		ts, ok := parseTimestamp(line)
		if !ok {
			return false
		}
		if !q.Window.contains(ts) {
			return false
		}
	}
	return true
}

// parseTimestamp extracts a timestamp from the line, trying the bracketed
// format first and ISO-8601 second. The bracketed format carries no zone and
// is interpreted in local time, matching how the AUT writes it.
func parseTimestamp(line string) (time.Time, bool) {
	if m := bracketedPattern.FindStringSubmatch(line); m != nil {
		if ts, err := time.ParseInLocation(bracketedLayout, m[1], time.Local); err == nil {
			return ts, true
		}
	}
	if m := isoPattern.FindString(line); m != "" {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
			if ts, err := time.ParseInLocation(layout, m, time.Local); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}
