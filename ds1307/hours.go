package ds1307

import "github.com/ajanata/drivers/bcd"

// decodeHours unpacks the hours register. Bit 6 selects 12 hour mode, in
// which bit 5 is the PM flag. In 24 hour mode bit 5 is the tens bit of 20-23
// and must stay in place for the BCD decode.
func decodeHours(b byte) (hours uint8, format HourFormat, ampm AmPm) {
	format = Format24
	if b&(1<<hourFormatBit) != 0 {
		format = Format12
		if b&(1<<amPmBit) != 0 {
			ampm = PM
		}
		b &^= 1 << amPmBit
	}
	b &^= 1 << hourFormatBit
	return bcd.Decode(b), format, ampm
}

func encodeHours24(hours uint8) byte {
	return bcd.Encode(hours & 0x1F)
}

func encodeHours12(hours uint8, ampm AmPm) byte {
	b := bcd.Encode(hours&0x0F) | 1<<hourFormatBit
	if ampm == PM {
		b |= 1 << amPmBit
	} else {
		b &^= 1 << amPmBit
	}
	return b
}

// encodeYear keeps the last two digits of year.
func encodeYear(year uint16) byte {
	return bcd.Encode(uint8(year % 100))
}

func decodeYear(b byte) uint16 {
	return MinYear + uint16(bcd.Decode(b))
}
