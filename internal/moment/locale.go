package moment

import (
	"strconv"
	"strings"

	gomentlocales "github.com/nleeper/goment/locales"
	"golang.org/x/text/language"
)

// DefaultLocale is used when no locale is configured or the configured one
// cannot be matched.
const DefaultLocale = "en"

// Locale holds the display tables a TimePoint is formatted and parsed with.
// Locales goment ships are copied from it; the rest are declared here.
type Locale struct {
	Name string

	// LongDateFormat maps the LT, LTS, L, LL, LLL and LLLL macros to token
	// strings.
	LongDateFormat map[string]string

	Months        [12]string
	MonthsShort   [12]string
	Weekdays      [7]string
	WeekdaysShort [7]string
	WeekdaysMin   [7]string

	ordinal  func(n int) string
	meridiem func(hour int, lower bool) string
}

// Ordinal renders a day-of-month with the locale's ordinal suffix.
func (l *Locale) Ordinal(n int) string {
	if l.ordinal == nil {
		return strconv.Itoa(n)
	}
	return l.ordinal(n)
}

// Meridiem renders the AM/PM marker for the given hour.
func (l *Locale) Meridiem(hour int, lower bool) string {
	if l.meridiem != nil {
		return l.meridiem(hour, lower)
	}
	return defaultMeridiem(hour, lower)
}

func defaultMeridiem(hour int, lower bool) string {
	m := "AM"
	if hour >= 12 {
		m = "PM"
	}
	if lower {
		return strings.ToLower(m)
	}
	return m
}

// fromGoment copies the display tables of a goment locale.
func fromGoment(name string, d gomentlocales.LocaleDetails) *Locale {
	l := &Locale{
		Name:           name,
		LongDateFormat: make(map[string]string, len(d.LongDateFormats)),
		ordinal:        func(n int) string { return d.OrdinalFunc(n, "D") },
		meridiem:       func(hour int, lower bool) string { return d.MeridiemFunc(hour, 0, lower) },
	}
	for k, v := range d.LongDateFormats {
		l.LongDateFormat[k] = v
	}
	copy(l.Months[:], d.Months)
	copy(l.MonthsShort[:], d.MonthsShort)
	copy(l.Weekdays[:], d.Weekdays)
	copy(l.WeekdaysShort[:], d.WeekdaysShort)
	copy(l.WeekdaysMin[:], d.WeekdaysMin)
	return l
}

// derive copies base under a new name with some long-date macros replaced.
func derive(base *Locale, name string, formats map[string]string) *Locale {
	l := *base
	l.Name = name
	l.LongDateFormat = make(map[string]string, len(base.LongDateFormat))
	for k, v := range base.LongDateFormat {
		l.LongDateFormat[k] = v
	}
	for k, v := range formats {
		l.LongDateFormat[k] = v
	}
	return &l
}

var (
	english = fromGoment("en", gomentlocales.EnLocale)

	// Short months keep the trailing dot the Spanish tables of moment use.
	spanish = func() *Locale {
		l := fromGoment("es", gomentlocales.EsLocale)
		l.MonthsShort = [12]string{"ene.", "feb.", "mar.", "abr.", "may.", "jun.", "jul.", "ago.", "sep.", "oct.", "nov.", "dic."}
		return l
	}()
)

var locales = []*Locale{
	english,
	derive(english, "en-gb", map[string]string{
		"LT":   "HH:mm",
		"LTS":  "HH:mm:ss",
		"L":    "DD/MM/YYYY",
		"LL":   "D MMMM YYYY",
		"LLL":  "D MMMM YYYY HH:mm",
		"LLLL": "dddd, D MMMM YYYY HH:mm",
	}),
	spanish,
	{
		Name: "ca",
		LongDateFormat: map[string]string{
			"LT":   "H:mm",
			"LTS":  "H:mm:ss",
			"L":    "DD/MM/YYYY",
			"LL":   "D MMMM [de] YYYY",
			"LLL":  "D MMMM [de] YYYY [a les] H:mm",
			"LLLL": "dddd D MMMM [de] YYYY [a les] H:mm",
		},
		Months:        [12]string{"gener", "febrer", "març", "abril", "maig", "juny", "juliol", "agost", "setembre", "octubre", "novembre", "desembre"},
		MonthsShort:   [12]string{"gen.", "febr.", "març", "abr.", "maig", "juny", "jul.", "ag.", "set.", "oct.", "nov.", "des."},
		Weekdays:      [7]string{"diumenge", "dilluns", "dimarts", "dimecres", "dijous", "divendres", "dissabte"},
		WeekdaysShort: [7]string{"dg.", "dl.", "dt.", "dc.", "dj.", "dv.", "ds."},
		WeekdaysMin:   [7]string{"dg", "dl", "dt", "dc", "dj", "dv", "ds"},
		ordinal: func(n int) string {
			suffix := "è"
			switch n {
			case 1, 3:
				suffix = "r"
			case 2:
				suffix = "n"
			case 4:
				suffix = "t"
			}
			return strconv.Itoa(n) + suffix
		},
	},
	fromGoment("fr", gomentlocales.FrLocale),
	{
		Name: "de",
		LongDateFormat: map[string]string{
			"LT":   "HH:mm",
			"LTS":  "HH:mm:ss",
			"L":    "DD.MM.YYYY",
			"LL":   "D. MMMM YYYY",
			"LLL":  "D. MMMM YYYY HH:mm",
			"LLLL": "dddd, D. MMMM YYYY HH:mm",
		},
		Months:        [12]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
		MonthsShort:   [12]string{"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sep.", "Okt.", "Nov.", "Dez."},
		Weekdays:      [7]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"},
		WeekdaysShort: [7]string{"So.", "Mo.", "Di.", "Mi.", "Do.", "Fr.", "Sa."},
		WeekdaysMin:   [7]string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"},
		ordinal:       func(n int) string { return strconv.Itoa(n) + "." },
	},
	fromGoment("pt-br", gomentlocales.PtBRLocale),
}

var localeMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(locales))
	for i, l := range locales {
		tags[i] = language.Make(l.Name)
	}
	return language.NewMatcher(tags)
}()

// LookupLocale returns the supported locale closest to name. Unknown or
// empty names resolve to en.
func LookupLocale(name string) *Locale {
	name = strings.TrimSpace(name)
	if name == "" {
		return locales[0]
	}
	for _, l := range locales {
		if strings.EqualFold(l.Name, name) {
			return l
		}
	}
	tag, err := language.Parse(name)
	if err != nil {
		return locales[0]
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return locales[0]
	}
	return locales[idx]
}

// SupportedLocales lists the locale names LookupLocale can return.
func SupportedLocales() []string {
	names := make([]string, len(locales))
	for i, l := range locales {
		names[i] = l.Name
	}
	return names
}
