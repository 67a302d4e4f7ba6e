package workflows

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sable-health/medlock/internal/audit"
	merrors "github.com/sable-health/medlock/internal/errors"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// User filters entries by user id.
	User string

	// Operations filters entries by operation names (comma-separated).
	Operations string

	// Since filters entries after this date (YYYY-MM-DD format).
	Since string

	// Until filters entries before this date (YYYY-MM-DD format).
	Until string
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	// Entries are the filtered audit log entries.
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

// Log reads and filters the audit log.
//
// Returns ErrNoFilesFound if no audit log exists yet.
// Returns ErrInvalidDateFormat if a date filter cannot be parsed.
func Log(ctx context.Context, opts LogOptions) (*LogResult, error) {
	logPath := audit.LogPath()
	if logPath == "" {
		return nil, merrors.ErrNoFilesFound
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, merrors.ErrNoFilesFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	entries, err := audit.ParseEntries(data)
	if err != nil {
		return nil, fmt.Errorf("parsing audit log: %w", err)
	}

	result := &LogResult{TotalEntriesBeforeFilter: len(entries)}
	if len(entries) == 0 {
		result.Entries = entries
		return result, nil
	}

	filtered := entries

	if opts.User != "" {
		filtered = filterByUser(filtered, opts.User)
	}

	if opts.Operations != "" {
		ops := strings.Split(opts.Operations, ",")
		for i := range ops {
			ops[i] = strings.TrimSpace(ops[i])
		}
		filtered = filterByOperations(filtered, ops)
	}

	if opts.Since != "" {
		sinceTime, err := time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since date format invalid, use YYYY-MM-DD", merrors.ErrInvalidDateFormat)
		}
		filtered = filterSince(filtered, sinceTime)
	}

	if opts.Until != "" {
		untilTime, err := time.Parse("2006-01-02", opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until date format invalid, use YYYY-MM-DD", merrors.ErrInvalidDateFormat)
		}
		// Include the entire day by setting to end of day.
		untilTime = untilTime.Add(24*time.Hour - time.Nanosecond)
		filtered = filterUntil(filtered, untilTime)
	}

	if opts.Reverse {
		reversed := make([]audit.Entry, len(filtered))
		for i, entry := range filtered {
			reversed[len(filtered)-1-i] = entry
		}
		filtered = reversed
	}

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			filtered = filtered[:opts.Limit]
		} else {
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

func filterByUser(entries []audit.Entry, user string) []audit.Entry {
	var filtered []audit.Entry
	for _, entry := range entries {
		if strings.EqualFold(entry.User, user) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

func filterByOperations(entries []audit.Entry, ops []string) []audit.Entry {
	var filtered []audit.Entry
	for _, entry := range entries {
		for _, op := range ops {
			if entry.Operation == op {
				filtered = append(filtered, entry)
				break
			}
		}
	}
	return filtered
}

func filterSince(entries []audit.Entry, since time.Time) []audit.Entry {
	var filtered []audit.Entry
	for _, entry := range entries {
		ts, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil {
			continue
		}
		if !ts.Before(since) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

func filterUntil(entries []audit.Entry, until time.Time) []audit.Entry {
	var filtered []audit.Entry
	for _, entry := range entries {
		ts, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil {
			continue
		}
		if !ts.After(until) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}
