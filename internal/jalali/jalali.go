// Package jalali handles Jalali (Persian) calendar dates and their
// conversion to and from the Gregorian calendar. All Gregorian values are
// date-only, normalized to midnight UTC.
package jalali

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"

	"github.com/mshojaei77/tsetmc-go/models"
)

// Jalali years roughly 1921-2071, the range TSETMC data can fall in.
const (
	minYear = 1300
	maxYear = 1450
)

var separators = regexp.MustCompile(`[/.]`)

// Normalize validates a Jalali date string and returns it in the
// canonical YYYY-MM-DD form. Slash and dot separators are accepted.
func Normalize(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return "", fmt.Errorf("%w: empty date string", models.ErrInvalidDate)
	}

	parts := strings.Split(separators.ReplaceAllString(date, "-"), "-")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: expected YYYY-MM-DD, got %q", models.ErrInvalidDate, date)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return "", fmt.Errorf("%w: %q", models.ErrInvalidDate, date)
		}
		nums[i] = n
	}
	year, month, day := nums[0], nums[1], nums[2]

	if year < minYear || year > maxYear {
		return "", fmt.Errorf("%w: year %d out of range", models.ErrInvalidDate, year)
	}

	// ptime.Date normalizes overflow the way time.Date does, so a
	// round-trip mismatch means the input named an impossible day.
	pt := ptime.Date(year, ptime.Month(month), day, 0, 0, 0, 0, ptime.Iran())
	if pt.Year() != year || int(pt.Month()) != month || pt.Day() != day {
		return "", fmt.Errorf("%w: %q is not a calendar day", models.ErrInvalidDate, date)
	}

	return Format(year, month, day), nil
}

// Format renders a Jalali date in the canonical YYYY-MM-DD form.
func Format(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// ToGregorian converts a Jalali date string to a Gregorian date.
func ToGregorian(date string) (time.Time, error) {
	normalized, err := Normalize(date)
	if err != nil {
		return time.Time{}, err
	}

	parts := strings.Split(normalized, "-")
	year, _ := strconv.Atoi(parts[0])
	month, _ := strconv.Atoi(parts[1])
	day, _ := strconv.Atoi(parts[2])

	gt := ptime.Date(year, ptime.Month(month), day, 12, 0, 0, 0, ptime.Iran()).Time()
	return time.Date(gt.Year(), gt.Month(), gt.Day(), 0, 0, 0, 0, time.UTC), nil
}

// FromGregorian converts a Gregorian date to the canonical Jalali string.
func FromGregorian(t time.Time) string {
	pt := ptime.New(time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, ptime.Iran()))
	return Format(pt.Year(), int(pt.Month()), pt.Day())
}

// ParseYYYYMMDD parses a compact Gregorian date as returned by the
// TSETMC endpoints (e.g. "20250321") into a date and its Jalali form.
func ParseYYYYMMDD(s string) (time.Time, string, error) {
	s = strings.TrimSpace(s)
	if len(s) != 8 {
		return time.Time{}, "", fmt.Errorf("%w: compact date %q", models.ErrInvalidDate, s)
	}
	t, err := time.ParseInLocation("20060102", s, time.UTC)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: compact date %q", models.ErrInvalidDate, s)
	}
	return t, FromGregorian(t), nil
}

// CompactGregorian renders a Jalali date string as the compact Gregorian
// form the CDN endpoints expect in their URL paths.
func CompactGregorian(date string) (string, error) {
	g, err := ToGregorian(date)
	if err != nil {
		return "", err
	}
	return g.Format("20060102"), nil
}

// ValidateRange normalizes both dates and ensures start <= end.
func ValidateRange(start, end string) (string, string, error) {
	s, err := Normalize(start)
	if err != nil {
		return "", "", fmt.Errorf("start date: %w", err)
	}
	e, err := Normalize(end)
	if err != nil {
		return "", "", fmt.Errorf("end date: %w", err)
	}
	if s > e {
		return "", "", fmt.Errorf("%w: %s > %s", models.ErrInvalidDateRange, s, e)
	}
	return s, e, nil
}

// Weekday returns the English weekday name for a Gregorian date.
func Weekday(t time.Time) string {
	return t.Weekday().String()
}
