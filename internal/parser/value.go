package parser

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Present reports whether a cell holds a usable value.
// Strings must be non-blank; numbers count even when zero; false does not count.
func Present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case bool:
		return x
	case float64:
		return !math.IsNaN(x)
	case int:
		return true
	case int64:
		return true
	default:
		return true
	}
}

// Float coerces a cell to a number using leading-prefix semantics:
// "6530.5ft" yields 6530.5, "abc" fails. NaN and infinities fail.
func Float(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		return floatPrefix(x)
	default:
		return 0, false
	}
}

// FloatOr returns Float(v), or def when the cell is absent or unparseable.
func FloatOr(v any, def float64) float64 {
	if !Present(v) {
		return def
	}
	if f, ok := Float(v); ok {
		return f
	}
	return def
}

// Int coerces a cell to an integer: numbers are truncated toward zero,
// strings take their leading decimal digits ("12.9" yields 12).
func Int(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int(math.Trunc(x)), true
	case int:
		return x, true
	case int64:
		return int(x), true
	case string:
		return intPrefix(x)
	default:
		return 0, false
	}
}

// IntOr returns Int(v), or def when the cell is absent or unparseable.
func IntOr(v any, def int) int {
	if !Present(v) {
		return def
	}
	if n, ok := Int(v); ok {
		return n
	}
	return def
}

// String renders a cell as text.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return ""
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04",
	"1/2/2006 3:04 PM",
	"1/2/2006",
}

// Time parses a timestamp cell. Text is read as UTC; numbers are Excel serial dates.
func Time(v any) (time.Time, bool) {
	switch x := v.(type) {
	case float64:
		if x <= 0 || math.IsNaN(x) || math.IsInf(x, 0) {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(x, false)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		if t, err := FastTimestamp(s); err == nil {
			return t, true
		}
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// floatPrefix parses the longest numeric prefix of s after leading whitespace.
func floatPrefix(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\r\n\v\f")
	if s == "" {
		return 0, false
	}

	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	mantStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intDigits := i - mantStart
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		fracDigits = j - i - 1
		if intDigits > 0 || fracDigits > 0 {
			i = j
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return 0, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > expStart {
			i = j
		}
	}

	f, err := strconv.ParseFloat(s[:i], 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// intPrefix parses the leading decimal integer of s after leading whitespace.
func intPrefix(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\r\n\v\f")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
