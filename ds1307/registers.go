package ds1307

const (
	Address = 0x68 // I2C address for DS1307

	RegSeconds = 0x00 // Seconds register, bit 7 is the clock halt flag
	RegMinutes = 0x01 // Minutes register
	RegHours   = 0x02 // Hours register, also holds the 12/24h and AM/PM flags
	RegWeekDay = 0x03 // Day of week register, 1-7
	RegDay     = 0x04 // Day of month register
	RegMonth   = 0x05 // Month register
	RegYear    = 0x06 // Year register, last two digits

	TimeStart = RegSeconds // first register of the seconds/minutes/hours burst
	DateStart = RegWeekDay // first register of the weekday/day/month/year burst

	timeLen = 3
	dateLen = 4
)

// hour register flags
const (
	hourFormatBit = 6
	amPmBit       = 5
)
