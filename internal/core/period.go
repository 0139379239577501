package core

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Period identifies a calendar month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// DateRange is an inclusive range of booking dates.
type DateRange struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// NewDate creates a date at midnight UTC.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s)}
	}
	return t, nil
}

func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// ParsePeriod parses "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, &ValidationError{Field: "period", Message: fmt.Sprintf("invalid period %q, expected YYYY-MM", s)}
	}
	return PeriodOf(t), nil
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return &ValidationError{Field: "month", Message: fmt.Sprintf("invalid month %d", p.Month)}
	}
	if p.Year < 1900 || p.Year > 9999 {
		return &ValidationError{Field: "year", Message: fmt.Sprintf("invalid year %d", p.Year)}
	}
	return nil
}

// Start is the first day of the month.
func (p Period) Start() time.Time {
	return NewDate(p.Year, p.Month, 1)
}

// End is the last day of the month.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

func (p Period) Next() Period {
	return PeriodOf(p.Start().AddDate(0, 1, 0))
}

func (p Period) Before(o Period) bool {
	return p.Year < o.Year || (p.Year == o.Year && p.Month < o.Month)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Range returns the inclusive date range covering the month.
func (p Period) Range() DateRange {
	return DateRange{Start: p.Start(), End: p.End()}
}

// NewDateRange validates and normalises start and end to calendar days.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, &ValidationError{Field: "dateRange", Message: "start and end date are required"}
	}
	r := DateRange{Start: DateOf(start), End: DateOf(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, &ValidationError{Field: "dateRange", Message: "end date must not be before start date"}
	}
	return r, nil
}

// Contains reports whether the day of t lies inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}
