package codec

// Block timestamps travel through the env as "YYYY-MM-DDThh:mm:ss" UTC
// strings. The conversions below avoid the standard time package so
// they behave identically under any build target the contracts end up
// on.

// ParseISO8601 parses a host-provided timestamp into UNIX seconds.
// The input is trusted (it comes from the block header); a malformed
// value is treated as corrupt state.
func ParseISO8601(s string) uint64 {
	if len(s) < 19 {
		corrupt("bad timestamp")
	}
	year := digits(s[0:4])
	month := digits(s[5:7])
	day := digits(s[8:10])
	hour := digits(s[11:13])
	minute := digits(s[14:16])
	second := digits(s[17:19])

	days := daysSinceUnixEpoch(year, month, day)
	return days*86400 + hour*3600 + minute*60 + second
}

// FormatISO8601 renders UNIX seconds as "YYYY-MM-DDThh:mm:ss" UTC,
// using Howard Hinnant's civil_from_days algorithm.
func FormatISO8601(ts uint64) string {
	days := int64(ts / 86400)
	sec := int64(ts % 86400)
	hour := sec / 3600
	sec %= 3600
	minute := sec / 60
	second := sec % 60

	z := days + 719468
	var era int64
	if z >= 0 {
		era = z / 146097
	} else {
		era = (z - 146096) / 146097
	}
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100 + yoe/400)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3 - 12*((mp+3)/13)
	y += (mp + 3) / 13

	year := int(y)
	month := int(m)
	day := int(d)

	var buf [19]byte
	buf[0] = '0' + byte((year/1000)%10)
	buf[1] = '0' + byte((year/100)%10)
	buf[2] = '0' + byte((year/10)%10)
	buf[3] = '0' + byte(year%10)
	buf[4] = '-'
	buf[5] = '0' + byte((month/10)%10)
	buf[6] = '0' + byte(month%10)
	buf[7] = '-'
	buf[8] = '0' + byte((day/10)%10)
	buf[9] = '0' + byte(day%10)
	buf[10] = 'T'
	buf[11] = '0' + byte((hour/10)%10)
	buf[12] = '0' + byte(hour%10)
	buf[13] = ':'
	buf[14] = '0' + byte((minute/10)%10)
	buf[15] = '0' + byte(minute%10)
	buf[16] = ':'
	buf[17] = '0' + byte((second/10)%10)
	buf[18] = '0' + byte(second%10)

	return string(buf[:])
}

func digits(s string) uint64 {
	var n uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			corrupt("bad timestamp")
		}
		n = n*10 + uint64(c-'0')
	}
	return n
}

func isLeapYear(year uint64) bool {
	return (year%4 == 0 && year%100 != 0) || (year%400 == 0)
}

func daysSinceUnixEpoch(year, month, day uint64) uint64 {
	y := int(year) - 1970
	days := uint64(y * 365)
	// leap days of years strictly before year; the current year's own
	// leap day is handled by the month loop below
	days += uint64((y+1)/4 - (y+69)/100 + (y+369)/400)

	var monthDays = [12]uint8{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	for i := uint64(1); i < month; i++ {
		days += uint64(monthDays[i-1])
		if i == 2 && isLeapYear(year) {
			days++
		}
	}

	return days + day - 1
}
