package voucher

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RenderContext carries the per-issue inputs of a voucher number.
type RenderContext struct {
	Now          time.Time
	StoreCode    string
	NextSequence int64
}

// Render composes the voucher number. Segment order is fixed:
// prefix, store@1, year, store@2, month, day, store@3, number, suffix.
// The store code is inserted at most once and only when non-empty.
func Render(cfg Config, rc RenderContext) string {
	parts := make([]string, 0, 8)
	position := cfg.StoreCodePosition.Normalize()
	storeAdded := false
	addStore := func(at StoreCodePosition) {
		if !cfg.IncludeStoreCode || storeAdded || position != at || rc.StoreCode == "" {
			return
		}
		parts = append(parts, rc.StoreCode)
		storeAdded = true
	}

	if cfg.Prefix != "" {
		parts = append(parts, cfg.Prefix)
	}
	addStore(PositionAfterPrefix)

	if cfg.IncludeYear {
		parts = append(parts, formatYear(cfg.YearFormat, rc.Now.Year()))
	}
	addStore(PositionAfterDate)

	if cfg.IncludeMonth {
		parts = append(parts, formatTwoDigit(cfg.MonthFormat == MonthUnpadded, int(rc.Now.Month())))
	}
	if cfg.IncludeDay {
		parts = append(parts, formatTwoDigit(cfg.DayFormat == DayUnpadded, rc.Now.Day()))
	}
	addStore(PositionBeforeNumber)

	parts = append(parts, fmt.Sprintf("%0*d", cfg.NumberPadding.Width(), rc.NextSequence))

	if cfg.Suffix != "" {
		parts = append(parts, cfg.Suffix)
	}
	return strings.Join(parts, cfg.Separator)
}

func formatYear(f YearFormat, year int) string {
	if f == YearShort {
		return fmt.Sprintf("%02d", year%100)
	}
	return fmt.Sprintf("%04d", year)
}

func formatTwoDigit(unpadded bool, v int) string {
	if unpadded {
		return strconv.Itoa(v)
	}
	return fmt.Sprintf("%02d", v)
}

// GlobalResetKey keys sequences that never reset.
const GlobalResetKey = "GLOBAL"

// ResetKey derives the sequence partition for the given day.
func ResetKey(freq ResetFrequency, day time.Time) string {
	switch freq {
	case ResetDaily:
		return day.Format("2006-01-02")
	case ResetMonthly:
		return day.Format("2006-01")
	case ResetYearly:
		return day.Format("2006")
	default:
		return GlobalResetKey
	}
}

// ResetPeriodEnd returns the first instant after the period named by key, or
// false when the key never expires or cannot be parsed.
func ResetPeriodEnd(key string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	layouts := []struct {
		layout string
		next   func(time.Time) time.Time
	}{
		{"2006-01-02", func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }},
		{"2006-01", func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }},
		{"2006", func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }},
	}
	for _, l := range layouts {
		if len(key) != len(l.layout) {
			continue
		}
		start, err := time.ParseInLocation(l.layout, key, loc)
		if err != nil {
			return time.Time{}, false
		}
		return l.next(start), true
	}
	return time.Time{}, false
}
