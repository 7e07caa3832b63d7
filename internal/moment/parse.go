package moment

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// parsed accumulates the date parts recognised while walking a format.
type parsed struct {
	year, month, day int
	hasYear          bool
	hasMonth         bool
	hasDay           bool

	hour, minute, second, nanos int

	meridiem int // 0 none, 1 am, 2 pm
	bigHour  bool
	offset   *int
	unix     *time.Time
	matched  int
}

var (
	meridiemPattern = regexp.MustCompile(`(?i)[ap]\.?m?\.?`)
	offsetPattern   = regexp.MustCompile(`Z|[+-]\d\d:?\d\d`)
	unixPattern     = regexp.MustCompile(`[+-]?\d+(\.\d{1,3})?`)
	ordinalPattern  = regexp.MustCompile(`\d{1,2}(st|nd|rd|th|º|er|r|n|t|è|\.)?`)
)

// parseFormat parses input against a single format the way non-strict
// moment does: every token searches forward for its first match, literals
// that are absent are skipped and trailing input is ignored.
func parseFormat(input, format string, loc *Locale, now time.Time, zone *time.Location) (time.Time, bool) {
	p := parsed{}
	rest := input
	for _, tok := range tokenize(format, loc) {
		if tok.kind == tokLiteral {
			if idx := strings.Index(rest, tok.lit); idx >= 0 {
				rest = rest[idx+len(tok.lit):]
			}
			continue
		}
		var ok bool
		rest, ok = p.consume(tok, rest, loc)
		// A lone meridiem hit ("a" in "Invalid date") is not a parse.
		if ok && tok.kind != tokMeridiemUpper && tok.kind != tokMeridiemLower {
			p.matched++
		}
	}
	if p.matched == 0 {
		return time.Time{}, false
	}
	return p.build(now, zone)
}

func (p *parsed) consume(tok token, rest string, loc *Locale) (string, bool) {
	switch tok.kind {
	case tokYear4:
		v, r, ok := takeDigits(rest, 1, 4)
		if ok {
			p.year, p.hasYear = v, true
		}
		return r, ok
	case tokYear2:
		v, r, ok := takeDigits(rest, 1, 2)
		if ok {
			if v > 68 {
				v += 1900
			} else {
				v += 2000
			}
			p.year, p.hasYear = v, true
		}
		return r, ok
	case tokMonth, tokMonth2:
		v, r, ok := takeDigits(rest, 1, 2)
		if ok {
			p.month, p.hasMonth = v, true
		}
		return r, ok
	case tokMonthShort, tokMonthLong:
		idx, r, ok := takeName(rest, loc.Months[:], loc.MonthsShort[:])
		if ok {
			p.month, p.hasMonth = idx+1, true
		}
		return r, ok
	case tokDay, tokDay2:
		v, r, ok := takeDigits(rest, 1, 2)
		if ok {
			p.day, p.hasDay = v, true
		}
		return r, ok
	case tokDayOrdinal:
		m := ordinalPattern.FindStringIndex(rest)
		if m == nil {
			return rest, false
		}
		v, _, _ := takeDigits(rest[m[0]:m[1]], 1, 2)
		p.day, p.hasDay = v, true
		return rest[m[1]:], true
	case tokWeekday:
		_, r, ok := takeDigits(rest, 1, 1)
		return r, ok
	case tokWeekdayMin, tokWeekdayShort, tokWeekdayLong:
		_, r, ok := takeName(rest, loc.Weekdays[:], loc.WeekdaysShort[:])
		return r, ok
	case tokHour24, tokHour24Pad:
		v, r, ok := takeDigits(rest, 1, 2)
		if ok {
			p.hour = v
		}
		return r, ok
	case tokHour12, tokHour12Pad:
		v, r, ok := takeDigits(rest, 1, 2)
		if ok {
			p.hour = v
			p.bigHour = v < 1 || v > 12
		}
		return r, ok
	case tokMinute, tokMinute2:
		v, r, ok := takeDigits(rest, 1, 2)
		if ok {
			p.minute = v
		}
		return r, ok
	case tokSecond, tokSecond2:
		v, r, ok := takeDigits(rest, 1, 2)
		if ok {
			p.second = v
		}
		return r, ok
	case tokFrac1, tokFrac2, tokFrac3:
		width := int(tok.kind-tokFrac1) + 1
		start := strings.IndexFunc(rest, unicode.IsDigit)
		if start < 0 {
			return rest, false
		}
		end := start
		for end < len(rest) && end-start < width && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		frac, _ := strconv.ParseFloat("0."+rest[start:end], 64)
		p.nanos = int(frac*1000) * int(time.Millisecond)
		return rest[end:], true
	case tokMeridiemUpper, tokMeridiemLower:
		m := meridiemPattern.FindStringIndex(rest)
		if m == nil {
			return rest, false
		}
		if c := rest[m[0]]; c == 'p' || c == 'P' {
			p.meridiem = 2
		} else {
			p.meridiem = 1
		}
		return rest[m[1]:], true
	case tokOffsetColon, tokOffset:
		m := offsetPattern.FindStringIndex(rest)
		if m == nil {
			return rest, false
		}
		secs := parseOffset(rest[m[0]:m[1]])
		p.offset = &secs
		return rest[m[1]:], true
	case tokUnixSeconds, tokUnixMillis:
		m := unixPattern.FindStringIndex(rest)
		if m == nil {
			return rest, false
		}
		f, err := strconv.ParseFloat(rest[m[0]:m[1]], 64)
		if err != nil {
			return rest, false
		}
		var t time.Time
		if tok.kind == tokUnixSeconds {
			t = time.UnixMilli(int64(f * 1000))
		} else {
			t = time.UnixMilli(int64(f))
		}
		p.unix = &t
		return rest[m[1]:], true
	}
	return rest, false
}

func (p *parsed) build(now time.Time, zone *time.Location) (time.Time, bool) {
	if p.unix != nil {
		return p.unix.In(zone), true
	}
	// 12-hour tokens only accept 1 through 12.
	if p.bigHour {
		return time.Time{}, false
	}

	// Leading missing date parts come from today; once one part is given the
	// remaining ones default to the start of the period.
	year, month, day := p.year, p.month, p.day
	switch {
	case p.hasYear:
		if !p.hasMonth {
			month = 1
		}
		if !p.hasDay {
			day = 1
		}
	case p.hasMonth:
		year = now.Year()
		if !p.hasDay {
			day = 1
		}
	case p.hasDay:
		year, month = now.Year(), int(now.Month())
	default:
		year, month, day = now.Year(), int(now.Month()), now.Day()
	}

	hour := p.hour
	switch p.meridiem {
	case 1:
		if hour == 12 {
			hour = 0
		}
	case 2:
		if hour < 12 {
			hour += 12
		}
	}

	if month < 1 || month > 12 || day < 1 || day > daysIn(time.Month(month), year) {
		return time.Time{}, false
	}
	if hour < 0 || hour > 23 || p.minute > 59 || p.second > 59 {
		return time.Time{}, false
	}

	loc := zone
	if p.offset != nil {
		loc = time.FixedZone("", *p.offset)
	}
	t := time.Date(year, time.Month(month), day, hour, p.minute, p.second, p.nanos, loc)
	return t.In(zone), true
}

// takeDigits skips to the first digit in s and reads between lo and hi digits.
func takeDigits(s string, lo, hi int) (int, string, bool) {
	start := strings.IndexFunc(s, unicode.IsDigit)
	if start < 0 {
		return 0, s, false
	}
	end := start
	for end < len(s) && end-start < hi && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end-start < lo {
		return 0, s, false
	}
	v, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, s, false
	}
	return v, s[end:], true
}

// takeName finds the earliest occurrence of any of the names in s, preferring
// the longest name at a tied position, and returns its index in the tables.
func takeName(s string, long, short []string) (int, string, bool) {
	lower := strings.ToLower(s)
	bestIdx, bestPos, bestLen := -1, len(s)+1, 0
	try := func(names []string) {
		for i, name := range names {
			n := strings.ToLower(strings.TrimSuffix(name, "."))
			if n == "" {
				continue
			}
			pos := strings.Index(lower, n)
			if pos < 0 {
				continue
			}
			if pos < bestPos || (pos == bestPos && len(n) > bestLen) {
				bestIdx, bestPos, bestLen = i, pos, len(n)
			}
		}
	}
	try(long)
	try(short)
	if bestIdx < 0 {
		return 0, s, false
	}
	rest := s[bestPos+bestLen:]
	rest = strings.TrimPrefix(rest, ".")
	return bestIdx, rest, true
}

func parseOffset(s string) int {
	if s == "Z" {
		return 0
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(s[1:], ":", "")
	h, _ := strconv.Atoi(digits[:2])
	m, _ := strconv.Atoi(digits[2:])
	return sign * (h*3600 + m*60)
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
