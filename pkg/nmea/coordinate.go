package nmea

import (
	"strconv"
	"strings"
)

// DecodeCoordinate converts an NMEA ddmm.mmmm (or dddmm.mmmm) value and its
// hemisphere letter to signed decimal degrees. The last two integer digits
// before the decimal point start the minutes; everything before them is
// degrees. South and west are negative. Values are not range checked.
func DecodeCoordinate(value, hemisphere string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	dot := strings.IndexByte(value, '.')
	if dot < 2 {
		return 0, false
	}

	degrees, err := strconv.ParseFloat(value[:dot-2], 64)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseFloat(value[dot-2:], 64)
	if err != nil {
		return 0, false
	}

	decimal := degrees + minutes/60
	switch strings.ToUpper(strings.TrimSpace(hemisphere)) {
	case "S", "W":
		decimal = -decimal
	}
	return decimal, true
}

// ParseFloat parses an optional numeric field. Empty fields are absent.
func ParseFloat(field string) (float64, bool) {
	field = strings.TrimSpace(field)
	if field == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
