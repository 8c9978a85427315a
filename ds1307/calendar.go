package ds1307

// gregorianStart is the earliest year DaysInMonth answers for.
const gregorianStart = 1528

var monthOffset = [12]int{0, 3, 2, 5, 0, 3, 5, 1, 4, 6, 2, 4}

// DayOfWeek returns the weekday of the given date, Sunday being 1. It returns
// 0 when month is not in 1-12.
func DayOfWeek(day uint8, month Month, year uint16) WeekDay {
	if month < January || month > December {
		return 0
	}
	y := int(year)
	if month < March {
		y--
	}
	return WeekDay((y+y/4-y/100+y/400+monthOffset[month-1]+int(day))%DaysInWeek + 1)
}

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year uint16) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in month, or 0 for a month outside
// 1-12 or a year before the Gregorian calendar.
func DaysInMonth(month Month, year uint16) uint8 {
	switch {
	case year < gregorianStart || month < January || month > December:
		return 0
	case month == April || month == June || month == September || month == November:
		return 30
	case month == February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 31
	}
}
