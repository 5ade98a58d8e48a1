// Package format provides pure display formatting for currency, dates,
// phone numbers and percentages. Functions never fail; invalid input maps
// to a zero-value rendering or is returned unchanged.
package format

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency renders a dollar amount with thousands separators and two
// decimal places. Nil renders as $0.00.
func Currency(amount *float64) string {
	v := 0.0
	if amount != nil {
		v = *amount
	}
	return printer.Sprintf("$%v", number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// CurrencyValue is Currency for a non-pointer amount.
func CurrencyValue(amount float64) string {
	return Currency(&amount)
}

// Date renders a time as MM/DD/YYYY. The zero time renders as an empty
// string.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("01/02/2006")
}

// DateTime renders a time as MM/DD/YYYY h:mm AM/PM.
func DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("01/02/2006 3:04 PM")
}

// PhoneNumber renders a 10-digit US number as (NXX) NXX-XXXX and an
// 11-digit number with leading 1 as +1 (NXX) NXX-XXXX. Any other input is
// returned unchanged.
func PhoneNumber(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch {
	case len(digits) == 10:
		return fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10])
	case len(digits) == 11 && digits[0] == '1':
		return fmt.Sprintf("+1 (%s) %s-%s", digits[1:4], digits[4:7], digits[7:11])
	default:
		return raw
	}
}

// Percent renders a fraction with one decimal place and a trailing percent
// sign, e.g. 0.125 -> "12.5%".
func Percent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}
