// Package format holds the display conventions shared by the form and the
// transaction list: Vietnamese digit grouping and the sheet's date/time style.
package format

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// DateInput and TimeInput are the layouts of the form's date and time inputs.
	DateInput = "2006-01-02"
	TimeInput = "15:04"
)

var (
	viPrinter = message.NewPrinter(language.Vietnamese)

	isoDate   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	shortTime = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// DigitsOnly strips every character that is not an ASCII digit.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Amount groups the digits of s in thousands with '.', so "1234567" becomes
// "1.234.567". Non-digits are dropped first and empty input stays empty.
func Amount(s string) string {
	digits := strings.TrimLeft(DigitsOnly(s), "0")
	if digits == "" {
		if DigitsOnly(s) == "" {
			return ""
		}
		return "0"
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return group(digits)
	}
	return viPrinter.Sprintf("%d", n)
}

// group is the fallback for values wider than int64.
func group(digits string) string {
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	var b strings.Builder
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Date renders YYYY-MM-DD as DD/MM/YYYY. Any other shape is returned as is.
func Date(s string) string {
	m := isoDate.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return m[3] + "/" + m[2] + "/" + m[1]
}

// Time pads HH:MM to HH:MM:00. Any other shape is returned as is.
func Time(s string) string {
	if shortTime.MatchString(s) {
		return s + ":00"
	}
	return s
}

// Defaults returns the form's default date and time for t in local time.
func Defaults(t time.Time) (date, clock string) {
	return t.Format(DateInput), t.Format(TimeInput)
}
