package moment

import (
	"fmt"
	"strings"
	"time"

	"github.com/nleeper/goment"
)

// goment fills its token tables on first use. Doing it here keeps concurrent
// formatting from racing on them.
func init() {
	_, _ = goment.New()
}

type tokenKind int

const (
	tokLiteral tokenKind = iota
	tokYear4
	tokYear2
	tokMonth
	tokMonth2
	tokMonthShort
	tokMonthLong
	tokDay
	tokDay2
	tokDayOrdinal
	tokWeekday
	tokWeekdayMin
	tokWeekdayShort
	tokWeekdayLong
	tokHour24
	tokHour24Pad
	tokHour12
	tokHour12Pad
	tokMinute
	tokMinute2
	tokSecond
	tokSecond2
	tokFrac1
	tokFrac2
	tokFrac3
	tokMeridiemUpper
	tokMeridiemLower
	tokOffsetColon
	tokOffset
	tokUnixSeconds
	tokUnixMillis
)

// token is one piece of a format. lit holds the literal text, or the token
// text itself for every other kind.
type token struct {
	kind tokenKind
	lit  string
}

// Ordered longest-first so that prefixes never shadow longer tokens.
var tokenTable = []struct {
	text string
	kind tokenKind
}{
	{"YYYY", tokYear4},
	{"YY", tokYear2},
	{"MMMM", tokMonthLong},
	{"MMM", tokMonthShort},
	{"MM", tokMonth2},
	{"M", tokMonth},
	{"Do", tokDayOrdinal},
	{"DD", tokDay2},
	{"D", tokDay},
	{"dddd", tokWeekdayLong},
	{"ddd", tokWeekdayShort},
	{"dd", tokWeekdayMin},
	{"d", tokWeekday},
	{"HH", tokHour24Pad},
	{"H", tokHour24},
	{"hh", tokHour12Pad},
	{"h", tokHour12},
	{"mm", tokMinute2},
	{"m", tokMinute},
	{"ss", tokSecond2},
	{"s", tokSecond},
	{"SSS", tokFrac3},
	{"SS", tokFrac2},
	{"S", tokFrac1},
	{"A", tokMeridiemUpper},
	{"a", tokMeridiemLower},
	{"ZZ", tokOffset},
	{"Z", tokOffsetColon},
	{"X", tokUnixSeconds},
	{"x", tokUnixMillis},
}

var macroNames = []string{"LLLL", "LLL", "LTS", "LT", "LL", "L", "llll", "lll", "ll", "l"}

// expandMacros replaces locale macros such as LT or L with the locale's
// long-date token strings. Bracketed literals are left untouched.
func expandMacros(format string, loc *Locale) string {
	var b strings.Builder
	for i := 0; i < len(format); {
		if format[i] == '[' {
			end := strings.IndexByte(format[i:], ']')
			if end < 0 {
				b.WriteString(format[i:])
				break
			}
			b.WriteString(format[i : i+end+1])
			i += end + 1
			continue
		}
		matched := false
		for _, name := range macroNames {
			if strings.HasPrefix(format[i:], name) {
				b.WriteString(macro(name, loc))
				i += len(name)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(format[i])
			i++
		}
	}
	return b.String()
}

func macro(name string, loc *Locale) string {
	if name[0] != 'l' {
		return loc.LongDateFormat[name]
	}
	// Lowercase forms are the abbreviated variants of the uppercase ones.
	long := loc.LongDateFormat[strings.ToUpper(name)]
	long = strings.ReplaceAll(long, "MMMM", "MMM")
	long = strings.ReplaceAll(long, "dddd", "ddd")
	return long
}

func tokenize(format string, loc *Locale) []token {
	format = expandMacros(format, loc)
	var tokens []token
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{kind: tokLiteral, lit: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(format); {
		if format[i] == '[' {
			if end := strings.IndexByte(format[i:], ']'); end > 0 {
				lit.WriteString(format[i+1 : i+end])
				i += end + 1
				continue
			}
		}
		matched := false
		for _, t := range tokenTable {
			if strings.HasPrefix(format[i:], t.text) {
				flush()
				tokens = append(tokens, token{kind: t.kind, lit: t.text})
				i += len(t.text)
				matched = true
				break
			}
		}
		if !matched {
			lit.WriteByte(format[i])
			i++
		}
	}
	flush()
	return tokens
}

// formatTime renders t one token at a time. Numeric tokens go through goment;
// names, ordinals and meridiems come from loc, which also covers locales
// goment does not ship. Fractional seconds are rendered here since goment has
// no S tokens.
func formatTime(t time.Time, format string, loc *Locale) string {
	g, err := goment.New(t)
	if err != nil {
		return InvalidDate
	}
	var b strings.Builder
	for _, tok := range tokenize(format, loc) {
		b.WriteString(formatToken(g, t, tok, loc))
	}
	return b.String()
}

func formatToken(g *goment.Goment, t time.Time, tok token, loc *Locale) string {
	switch tok.kind {
	case tokLiteral:
		return tok.lit
	case tokMonthShort:
		return loc.MonthsShort[t.Month()-1]
	case tokMonthLong:
		return loc.Months[t.Month()-1]
	case tokDayOrdinal:
		return loc.Ordinal(t.Day())
	case tokWeekdayMin:
		if m := loc.WeekdaysMin[t.Weekday()]; m != "" {
			return m
		}
		r := []rune(loc.WeekdaysShort[t.Weekday()])
		return string(r[:min(len(r), 2)])
	case tokWeekdayShort:
		return loc.WeekdaysShort[t.Weekday()]
	case tokWeekdayLong:
		return loc.Weekdays[t.Weekday()]
	case tokFrac1:
		return fmt.Sprintf("%d", t.Nanosecond()/1e8)
	case tokFrac2:
		return fmt.Sprintf("%02d", t.Nanosecond()/1e7)
	case tokFrac3:
		return fmt.Sprintf("%03d", t.Nanosecond()/1e6)
	case tokMeridiemUpper:
		return loc.Meridiem(t.Hour(), false)
	case tokMeridiemLower:
		return loc.Meridiem(t.Hour(), true)
	}
	return g.Format(tok.lit)
}
