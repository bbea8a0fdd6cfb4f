package utils

import (
	"fmt"
	"strconv"
	"time"
)

// buddhistEraOffset is the difference between the Thai Buddhist-era year and
// the Gregorian year.
const buddhistEraOffset = 543

// ThaiMonths are the full Thai month names, January first.
var ThaiMonths = [12]string{
	"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
	"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
}

// BuddhistYear converts a Gregorian year to the Buddhist era.
func BuddhistYear(gregorian int) int { return gregorian + buddhistEraOffset }

// ThaiDateTime formats t in loc as d/m/yyyy HH:MM:SS with a Buddhist-era
// year, the way Thai locales print timestamps.
func ThaiDateTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%d/%d/%d %s", t.Day(), int(t.Month()), BuddhistYear(t.Year()), t.Format("15:04:05"))
}

// ThaiDate is ThaiDateTime without the clock.
func ThaiDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), BuddhistYear(t.Year()))
}

// PeriodDisplayName renders a YYMM period token as "<Thai month> <BE year>".
// The token's year is the Gregorian year modulo 100 in the 2000s.
// Malformed tokens are returned unchanged.
func PeriodDisplayName(period string) string {
	if len(period) != 4 {
		return period
	}
	yy, err1 := strconv.Atoi(period[:2])
	mm, err2 := strconv.Atoi(period[2:])
	if err1 != nil || err2 != nil || mm < 1 || mm > 12 {
		return period
	}
	return fmt.Sprintf("%s %d", ThaiMonths[mm-1], BuddhistYear(2000+yy))
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
