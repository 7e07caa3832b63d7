package moment

import (
	"encoding/json"
	"testing"
	"time"

	gomentlocales "github.com/nleeper/goment/locales"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_Tokens(t *testing.T) {
	r := newTestResolver(t, "en", "UTC")
	tp := r.Resolve(time.Date(2019, 3, 5, 14, 7, 9, 123_000_000, time.UTC))

	tests := []struct {
		format string
		want   string
	}{
		{"YYYY-MM-DD HH:mm:ss.SSS", "2019-03-05 14:07:09.123"},
		{"YY M D H m s S SS", "19 3 5 14 7 9 1 12"},
		{"dddd, MMMM Do YYYY h:mm a", "Tuesday, March 5th 2019 2:07 pm"},
		{"ddd MMM DD hh:mm A", "Tue Mar 05 02:07 PM"},
		{"dd d", "Tu 2"},
		{"[Today is] dddd", "Today is Tuesday"},
		{"LT", "2:07 PM"},
		{"LTS", "2:07:09 PM"},
		{"L", "03/05/2019"},
		{"LL", "March 5, 2019"},
		{"LLL", "March 5, 2019 2:07 PM"},
		{"LLLL", "Tuesday, March 5, 2019 2:07 PM"},
		{"ll", "Mar 5, 2019"},
		{"llll", "Tue, Mar 5, 2019 2:07 PM"},
		{"Z ZZ", "+00:00 +0000"},
		{"X", "1551794829"},
		{"x", "1551794829123"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, tp.Format(tt.format))
		})
	}
}

func TestFormat_Locales(t *testing.T) {
	at := time.Date(2019, 3, 1, 14, 7, 0, 0, time.UTC)

	tests := []struct {
		locale string
		format string
		want   string
	}{
		{"en-gb", "LT", "14:07"},
		{"en-gb", "L", "01/03/2019"},
		{"es", "LL", "1 de marzo de 2019"},
		{"es", "Do", "1º"},
		{"ca", "LL", "1 març de 2019"},
		{"ca", "Do", "1r"},
		{"fr", "LLLL", "vendredi 1 mars 2019 14:07"},
		{"fr", "Do", "1er"},
		{"de", "L", "01.03.2019"},
		{"de", "LL", "1. März 2019"},
		{"de", "dd", "Fr"},
		{"pt-br", "LL", "1 de março de 2019"},
		{"pt-br", "Do", "1º"},
		{"es", "D MMM", "1 mar."},
	}
	for _, tt := range tests {
		t.Run(tt.locale+" "+tt.format, func(t *testing.T) {
			r := newTestResolver(t, tt.locale, "UTC")
			assert.Equal(t, tt.want, r.Resolve(at).Format(tt.format))
		})
	}
}

func TestFormat_ParseRoundTrip(t *testing.T) {
	at := time.Date(2021, 11, 23, 8, 45, 0, 0, time.UTC)
	formats := []string{"LT", "L", "LL", "LLL", "YYYY-MM-DD", "MM/DD/YYYY", "HH:mm", "D MMM YYYY h:mm a"}

	for _, locale := range SupportedLocales() {
		r := newTestResolver(t, locale, "UTC")
		tp := r.Resolve(at)
		for _, f := range formats {
			t.Run(locale+" "+f, func(t *testing.T) {
				s := tp.Format(f)
				back := r.Parse(s, f)
				require.True(t, back.Valid(), "parse %q with %q", s, f)
				assert.Equal(t, s, back.Format(f))
			})
		}
	}
}

func TestTimePoint_MonthBoundaries(t *testing.T) {
	r := newTestResolver(t, "en", "America/Chicago")
	tp := r.Parse("2020-02-14 13:45:00")
	require.True(t, tp.Valid())

	assert.Equal(t, "2020-02-01 00:00:00.000", tp.StartOfMonth().Format("YYYY-MM-DD HH:mm:ss.SSS"))
	assert.Equal(t, "2020-02-29 23:59:59.999", tp.EndOfMonth().Format("YYYY-MM-DD HH:mm:ss.SSS"))
	assert.Equal(t, "2020-02-14 00:00", tp.StartOfDay().Format("YYYY-MM-DD HH:mm"))
	assert.Equal(t, "2020-02-14 23:59", tp.EndOfDay().Format("YYYY-MM-DD HH:mm"))
	assert.Equal(t, "13:00", tp.StartOfHour().Format("HH:mm"))
}

func TestTimePoint_AddMonthsClampsDay(t *testing.T) {
	r := newTestResolver(t, "en", "UTC")

	tests := []struct {
		from   string
		months int
		want   string
	}{
		{"2019-01-31", 1, "2019-02-28"},
		{"2020-01-31", 1, "2020-02-29"},
		{"2020-03-31", -1, "2020-02-29"},
		{"2020-12-15", 1, "2021-01-15"},
		{"2020-01-15", -1, "2019-12-15"},
		{"2020-05-31", 12, "2021-05-31"},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			got := r.Parse(tt.from).AddMonths(tt.months)
			assert.Equal(t, tt.want, got.Format("YYYY-MM-DD"))
		})
	}
}

func TestTimePoint_Comparisons(t *testing.T) {
	r := newTestResolver(t, "en", "UTC")
	a := r.Parse("2020-01-10 10:00:00")
	b := r.Parse("2020-01-10 10:00:30")
	c := r.Parse("2020-01-10 10:01:00")
	invalid := r.Invalid()

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Before(a))

	assert.True(t, a.SameOrAfter(b, Minute))
	assert.True(t, b.SameOrBefore(a, Minute))
	assert.False(t, a.SameOrAfter(b, Millisecond))
	assert.True(t, c.SameOrAfter(b, Minute))
	assert.False(t, c.SameOrBefore(b, Minute))
	assert.True(t, a.SameOrAfter(c, Day))
	assert.True(t, a.SameDay(c))

	assert.False(t, invalid.Before(a))
	assert.False(t, a.After(invalid))
	assert.False(t, invalid.SameOrAfter(a, Minute))
	assert.False(t, invalid.Equal(invalid))
}

func TestTimePoint_InvalidIsInert(t *testing.T) {
	r := newTestResolver(t, "en", "UTC")
	invalid := r.Invalid()

	assert.False(t, invalid.StartOfMonth().Valid())
	assert.False(t, invalid.AddMonths(1).Valid())
	assert.False(t, invalid.Add(time.Hour).Valid())
	assert.Equal(t, InvalidDate, invalid.String())
	assert.Equal(t, "en", TimePoint{}.Locale())
}

func TestTimePoint_MarshalJSON(t *testing.T) {
	r := newTestResolver(t, "en", "UTC")

	data, err := json.Marshal(map[string]TimePoint{
		"valid":   r.Parse("2020-01-10T10:00:00Z"),
		"invalid": r.Invalid(),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid":"2020-01-10T10:00:00Z","invalid":null}`, string(data))
}

func TestIsISO(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2019-01-30", true},
		{"2019-01-30T15:00:00+00:00", true},
		{"2019-01-30 09:00:00", true},
		{"2019-01-30T09:00:00.123Z", true},
		{"20190130T0900", true},
		{"2019-W05-3", true},
		{"2019", true},
		{"9:00 AM", false},
		{"11:00:00", false},
		{"01/30/2019", false},
		{"2019-13-01", false},
		{"2019-01-30T24:00:30", false},
		{"foo", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsISO(tt.in))
		})
	}
}

func TestParseISO_EveryMatchedShape(t *testing.T) {
	r := newTestResolver(t, "en", "UTC")
	tests := []struct {
		in   string
		want string
	}{
		{"2019-01-30", "2019-01-30 00:00:00.000"},
		{"2019-W05-3", "2019-01-30 00:00:00.000"},
		{"2019W053", "2019-01-30 00:00:00.000"},
		{"2020-W53-5", "2021-01-01 00:00:00.000"},
		{"2019-030", "2019-01-30 00:00:00.000"},
		{"2019030", "2019-01-30 00:00:00.000"},
		{"2020-366", "2020-12-31 00:00:00.000"},
		{"20190130T090000+0100", "2019-01-30 08:00:00.000"},
		{"2019-01-30T09+05:30", "2019-01-30 03:30:00.000"},
		{"2019-01-30T09:00:00,5Z", "2019-01-30 09:00:00.500"},
		{"2019-01-30T24:00", "2019-01-31 00:00:00.000"},
		{"2019-01-30 09:15", "2019-01-30 09:15:00.000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.True(t, IsISO(tt.in))
			tp := r.ParseISO(tt.in)
			require.True(t, tp.Valid())
			assert.Equal(t, tt.want, tp.Format("YYYY-MM-DD HH:mm:ss.SSS"))
		})
	}
}

func TestParseISO_RejectsImpossibleDates(t *testing.T) {
	r := newTestResolver(t, "en", "UTC")

	for _, in := range []string{"2019-02-30", "2019-W53-1", "2019-366"} {
		assert.False(t, r.ParseISO(in).Valid(), in)
	}
}

func TestLocale_TablesCopiedFromGoment(t *testing.T) {
	fr := LookupLocale("fr")
	assert.Equal(t, gomentlocales.FrLocale.Months, fr.Months[:])
	assert.Equal(t, gomentlocales.FrLocale.WeekdaysShort, fr.WeekdaysShort[:])
	assert.Equal(t, gomentlocales.FrLocale.LongDateFormats["LLLL"], fr.LongDateFormat["LLLL"])

	en := LookupLocale("en")
	assert.Equal(t, gomentlocales.EnLocale.Months, en.Months[:])
	assert.Equal(t, "22nd", en.Ordinal(22))

	gb := LookupLocale("en-gb")
	assert.Equal(t, en.Months, gb.Months)
	assert.Equal(t, "DD/MM/YYYY", gb.LongDateFormat["L"])
	assert.Equal(t, "MM/DD/YYYY", en.LongDateFormat["L"], "derived locale leaves its base alone")
}
