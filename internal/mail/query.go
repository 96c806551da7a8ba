// Package mail provides the mail sources that feed candidate newsletters to
// the pipeline: the Gmail API and plain IMAP.
package mail

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"inboxbrief/internal/config"
)

// Query selects candidate messages.
type Query struct {
	Label           string   // Gmail label or IMAP mailbox
	NewerThan       string   // Window such as 1d, 12h or 2w
	MaxResults      int64    // Upper bound on threads fetched
	ExcludeSubjects []string // Subject phrases to leave out
}

// QueryFromConfig builds the query configured under mail.
func QueryFromConfig(cfg config.Mail) Query {
	return Query{
		Label:           cfg.Label,
		NewerThan:       cfg.NewerThan,
		MaxResults:      cfg.MaxThreads,
		ExcludeSubjects: cfg.ExcludeSubjects,
	}
}

// Gmail renders the query in Gmail search syntax.
func (q Query) Gmail() string {
	parts := make([]string, 0, 2+len(q.ExcludeSubjects))
	if q.Label != "" {
		parts = append(parts, "label:"+q.Label)
	}
	if q.NewerThan != "" {
		parts = append(parts, "newer_than:"+q.NewerThan)
	}
	for _, s := range q.ExcludeSubjects {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, fmt.Sprintf("-subject:\"%s\"", s))
		}
	}
	return strings.Join(parts, " ")
}

// Since returns the earliest time covered by the query window relative to now.
func (q Query) Since(now time.Time) (time.Time, error) {
	if q.NewerThan == "" {
		return time.Time{}, nil
	}
	window, err := ParseWindow(q.NewerThan)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-window), nil
}

// Excludes reports whether subject contains one of the excluded phrases,
// ignoring case.
func (q Query) Excludes(subject string) bool {
	lower := strings.ToLower(subject)
	for _, s := range q.ExcludeSubjects {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// ParseWindow parses a Gmail-style relative window: a count followed by
// h, d, w, m (30 days) or y (365 days).
func ParseWindow(window string) (time.Duration, error) {
	window = strings.TrimSpace(strings.ToLower(window))
	if len(window) < 2 {
		return 0, fmt.Errorf("invalid window %q", window)
	}

	n, err := strconv.Atoi(window[:len(window)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid window %q", window)
	}

	day := 24 * time.Hour
	var unit time.Duration
	switch window[len(window)-1] {
	case 'h':
		unit = time.Hour
	case 'd':
		unit = day
	case 'w':
		unit = 7 * day
	case 'm':
		unit = 30 * day
	case 'y':
		unit = 365 * day
	default:
		return 0, fmt.Errorf("invalid window unit in %q", window)
	}
	return time.Duration(n) * unit, nil
}
