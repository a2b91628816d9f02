package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDisplay(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{DateTime(2025, 3, 7, 9, 5, 0), "07/03/25 9:05 AM"},
		{DateTime(2025, 12, 31, 23, 59, 0), "31/12/25 11:59 PM"},
		{DateTime(2025, 1, 1, 0, 30, 0), "01/01/25 12:30 AM"},
		{DateTime(2025, 1, 1, 12, 0, 0), "01/01/25 12:00 PM"},
		// 18:45 UTC is 00:15 IST the next day.
		{time.Date(2025, 6, 1, 18, 45, 0, 0, time.UTC), "02/06/25 12:15 AM"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDisplay(tt.in))
	}
}

func TestCalendarDate(t *testing.T) {
	late := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC) // 01:30 IST on 2 June
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), CalendarDate(late))
}

func TestIsSameDay(t *testing.T) {
	a := DateTime(2025, 6, 2, 0, 10, 0)
	b := DateTime(2025, 6, 2, 23, 50, 0)
	assert.True(t, IsSameDay(a, b))
	assert.False(t, IsSameDay(a, b.Add(time.Hour)))
}

func TestDayRange(t *testing.T) {
	from, to, err := DayRange("2025-01-10", "2025-01-12")
	require.NoError(t, err)
	assert.Equal(t, Date(2025, 1, 10), *from)
	assert.Equal(t, EndOfDay(Date(2025, 1, 12)), *to)

	from, to, err = DayRange("", "")
	require.NoError(t, err)
	assert.Nil(t, from)
	assert.Nil(t, to)

	_, _, err = DayRange("10/01/2025", "")
	assert.Error(t, err)
}

func TestHoursSince(t *testing.T) {
	then := DateTime(2025, 1, 1, 0, 0, 0)
	assert.InDelta(t, 30.5, HoursSince(then, then.Add(30*time.Hour+30*time.Minute)), 1e-9)
}
