// Package timeutil provides timezone utilities for the center's local time
// (India Standard Time, UTC+5:30). Attendance log dates, displayed admission
// timestamps and day-range filters are all computed in this zone.
package timeutil

import (
	"fmt"
	"time"
)

// IST is India Standard Time (UTC+5:30, no DST).
var IST = time.FixedZone("Asia/Kolkata", 5*60*60+30*60)

// Now returns the current time in IST.
func Now() time.Time {
	return time.Now().In(IST)
}

// ToIST converts a time to IST.
func ToIST(t time.Time) time.Time {
	return t.In(IST)
}

// Date creates a time in IST with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, IST)
}

// DateTime creates a time in IST with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, IST)
}

// StartOfDay returns the start of the day (00:00:00) in IST.
func StartOfDay(t time.Time) time.Time {
	ist := ToIST(t)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IST)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in IST.
func EndOfDay(t time.Time) time.Time {
	ist := ToIST(t)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 23, 59, 59, 999999999, IST)
}

// CalendarDate returns the IST calendar date of t as a UTC midnight value,
// which is how a PostgreSQL DATE column round-trips through pgx.
func CalendarDate(t time.Time) time.Time {
	ist := ToIST(t)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, time.UTC)
}

// IsSameDay checks if two times are on the same IST calendar day.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := ToIST(t1), ToIST(t2)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// HoursSince returns the fractional hours elapsed from then to now.
func HoursSince(then, now time.Time) float64 {
	return now.Sub(then).Hours()
}

// FormatDisplay renders t as DD/MM/YY h:mm AM/PM in IST, the format shown
// on the admission register.
func FormatDisplay(t time.Time) string {
	ist := ToIST(t)
	hour := ist.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	ampm := "AM"
	if ist.Hour() >= 12 {
		ampm = "PM"
	}
	return fmt.Sprintf("%02d/%02d/%02d %d:%02d %s",
		ist.Day(), int(ist.Month()), ist.Year()%100, hour, ist.Minute(), ampm)
}

// FormatReceipt renders t the way receipts print payment dates.
func FormatReceipt(t time.Time) string {
	return ToIST(t).Format("02 Jan 2006, 03:04 PM")
}

// ParseDateIST parses a YYYY-MM-DD value as midnight IST.
func ParseDateIST(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, IST)
}

// DayRange turns optional YYYY-MM-DD bounds into an inclusive [from, to]
// instant range covering whole IST days. Empty strings yield nil bounds.
func DayRange(start, end string) (from, to *time.Time, err error) {
	if start != "" {
		t, perr := ParseDateIST(start)
		if perr != nil {
			return nil, nil, fmt.Errorf("invalid start date %q: %w", start, perr)
		}
		from = &t
	}
	if end != "" {
		t, perr := ParseDateIST(end)
		if perr != nil {
			return nil, nil, fmt.Errorf("invalid end date %q: %w", end, perr)
		}
		e := EndOfDay(t)
		to = &e
	}
	return from, to, nil
}
