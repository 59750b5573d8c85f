package parse

import (
	"strings"
	"time"
)

// Layouts tried in order for a full date token. Unpadded layouts also accept
// zero-padded values, so one entry covers both "1/2/2024" and "01/02/2024".
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"1/2/06",
	"1-2-2006",
	"1-2-06",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2 Jan, 2006",
}

// Layouts for partial dates (day and month only, year omitted); the missing
// year is filled from the processing date.
var partialDateLayouts = []string{
	"1/2",
	"1-2",
	"Jan 2",
	"January 2",
	"2 Jan",
	"2 January",
}

// parseDateToken parses a full date token into a calendar date.
func parseDateToken(token string) (time.Time, bool) {
	token = strings.TrimSpace(strings.TrimSuffix(token, "."))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parsePartialDateToken parses tokens that may omit the year, defaulting the
// year from now.
func parsePartialDateToken(token string, now time.Time) (time.Time, bool) {
	if t, ok := parseDateToken(token); ok {
		return t, true
	}
	token = strings.TrimSpace(strings.TrimSuffix(token, "."))
	for _, layout := range partialDateLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// dateOrNow normalizes a date token, falling back to the current processing
// date when the token cannot be parsed. Accepted imprecision: a transaction
// with a mangled date is still worth keeping.
func (p *Parser) dateOrNow(token string) time.Time {
	if t, ok := parseDateToken(token); ok {
		return t
	}
	return truncateToDay(p.now())
}

func (p *Parser) partialDateOrNow(token string) time.Time {
	if t, ok := parsePartialDateToken(token, p.now()); ok {
		return t
	}
	return truncateToDay(p.now())
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
