package models

import "time"

// DateLayout is the calendar date format used at every boundary
const DateLayout = "2006-01-02"

// ResolveDueDate returns parent minus offset calendar days. A nil parent
// yields nil. Weekends and holidays are not skipped.
func ResolveDueDate(parent *time.Time, offset int) *time.Time {
	if parent == nil {
		return nil
	}
	d := parent.AddDate(0, 0, -offset)
	return &d
}

// ParseDate parses a YYYY-MM-DD string; an empty string yields nil
func ParseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FormatDate renders d as YYYY-MM-DD, or "" when d is nil
func FormatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(DateLayout)
}
