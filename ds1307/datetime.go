package ds1307

import (
	"fmt"
	"time"
)

const (
	MinYear         = 2000
	MaxYear         = 2099
	FirstDayInMonth = 1
	DaysInWeek      = 7
	SecondsInMinute = 60
	MinutesInHour   = 60
	HoursIn24h      = 24
	HoursIn12h      = 12
)

// Month of the year, January is 1.
type Month uint8

const (
	January Month = iota + 1
	February
	March
	April
	May
	June
	July
	August
	September
	October
	November
	December
)

var monthNames = [...]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}

// String returns the English name of the month.
func (m Month) String() string {
	if m < January || m > December {
		return fmt.Sprintf("Month(%d)", uint8(m))
	}
	return monthNames[m-1]
}

// Short returns the three letter abbreviation of the month.
func (m Month) Short() string {
	if m < January || m > December {
		return "???"
	}
	return monthNames[m-1][:3]
}

// WeekDay is the day of the week as the DS1307 stores it, Sunday is 1.
type WeekDay uint8

const (
	Sunday WeekDay = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekDayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func (w WeekDay) String() string {
	if w < Sunday || w > Saturday {
		return fmt.Sprintf("WeekDay(%d)", uint8(w))
	}
	return weekDayNames[w-1]
}

func (w WeekDay) Short() string {
	if w < Sunday || w > Saturday {
		return "???"
	}
	return weekDayNames[w-1][:3]
}

// HourFormat selects how the hours register is interpreted.
type HourFormat uint8

const (
	Format24 HourFormat = iota
	Format12
)

func (f HourFormat) String() string {
	if f == Format12 {
		return "12h"
	}
	return "24h"
}

// AmPm is only meaningful when the format is Format12.
type AmPm uint8

const (
	AM AmPm = iota
	PM
)

func (a AmPm) String() string {
	if a == PM {
		return "PM"
	}
	return "AM"
}

// Date as stored in the DS1307. WeekDay is kept independently by the chip
// and is not checked against the other fields.
type Date struct {
	Day     uint8
	Month   Month
	Year    uint16
	WeekDay WeekDay
}

func (d Date) String() string {
	return fmt.Sprintf("%s %04d-%02d-%02d", d.WeekDay.Short(), d.Year, uint8(d.Month), d.Day)
}

// Time as stored in the DS1307. Hours is 0-23 in Format24 and 1-12 in
// Format12.
type Time struct {
	Hours   uint8
	Minutes uint8
	Seconds uint8
	Format  HourFormat
	AmPm    AmPm
}

func (t Time) String() string {
	if t.Format == Format12 {
		return fmt.Sprintf("%02d:%02d:%02d %s", t.Hours, t.Minutes, t.Seconds, t.AmPm)
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hours, t.Minutes, t.Seconds)
}

// Hours24 returns the hour of the day in 0-23 regardless of format.
func (t Time) Hours24() int {
	if t.Format != Format12 {
		return int(t.Hours)
	}
	h := int(t.Hours) % HoursIn12h
	if t.AmPm == PM {
		h += HoursIn12h
	}
	return h
}

// DateTime is a snapshot of the clock. It is not kept in sync with the
// device; read it again to observe changes made by setters.
type DateTime struct {
	Date Date
	Time Time
}

func (dt DateTime) String() string {
	return dt.Date.String() + " " + dt.Time.String()
}

// DefaultDateTime is the value written to a clock that holds no valid time:
// Sunday 2000-01-01 00:00:00 in 24 hour format.
func DefaultDateTime() DateTime {
	return DateTime{
		Date: Date{
			Day:     FirstDayInMonth,
			Month:   January,
			Year:    MinYear,
			WeekDay: Sunday,
		},
		Time: Time{
			Format: Format24,
			AmPm:   AM,
		},
	}
}

// UTC converts the snapshot to a time.Time in UTC.
func (dt DateTime) UTC() time.Time {
	return time.Date(int(dt.Date.Year), time.Month(dt.Date.Month), int(dt.Date.Day),
		dt.Time.Hours24(), int(dt.Time.Minutes), int(dt.Time.Seconds), 0, time.UTC)
}

// FromTime builds a 24 hour DateTime from t. The weekday is taken from t.
func FromTime(t time.Time) DateTime {
	return DateTime{
		Date: Date{
			Day:     uint8(t.Day()),
			Month:   Month(t.Month()),
			Year:    uint16(t.Year()),
			WeekDay: WeekDay(t.Weekday()) + Sunday,
		},
		Time: Time{
			Hours:   uint8(t.Hour()),
			Minutes: uint8(t.Minute()),
			Seconds: uint8(t.Second()),
			Format:  Format24,
		},
	}
}
