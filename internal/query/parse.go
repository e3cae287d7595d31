package query

import (
	"fmt"
	"strings"
	"time"

	"usof/internal/models"
)

const dateOnly = "2006-01-02"

// ParseDirection accepts asc or desc in any case. Empty input yields an
// empty direction.
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case string(Asc):
		return Asc, nil
	case string(Desc):
		return Desc, nil
	}
	return "", models.NewValidationError(fmt.Sprintf("invalid sort direction %q", raw))
}

// ParseDateRange parses two ISO dates into an inclusive range. Each bound may
// be a date or an RFC 3339 timestamp; a date-only upper bound covers the
// whole day. Missing bounds are open. Both empty returns nil.
func ParseDateRange(from, to string) (*DateRange, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" && to == "" {
		return nil, nil
	}

	r := &DateRange{
		From: time.Unix(0, 0).UTC(),
		To:   time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC),
	}
	if from != "" {
		t, _, err := parseDate(from)
		if err != nil {
			return nil, err
		}
		r.From = t
	}
	if to != "" {
		t, wholeDay, err := parseDate(to)
		if err != nil {
			return nil, err
		}
		if wholeDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		r.To = t
	}
	if r.To.Before(r.From) {
		return nil, models.NewValidationError("date range ends before it starts")
	}
	return r, nil
}

// ParseDateRangeParam parses the combined "from,to" form.
func ParseDateRangeParam(raw string) (*DateRange, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	from, to, ok := strings.Cut(raw, ",")
	if !ok {
		return nil, models.NewValidationError("dateRange must be two dates separated by a comma")
	}
	return ParseDateRange(from, to)
}

func parseDate(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(dateOnly, raw); err == nil {
		return t.UTC(), true, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, models.NewValidationError(fmt.Sprintf("invalid date %q", raw))
}

// ParseCategories splits a comma separated list of category titles, dropping
// blanks and duplicates.
func ParseCategories(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		title := strings.TrimSpace(part)
		if title == "" {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
	}
	return out
}
