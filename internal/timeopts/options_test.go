package timeopts

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOptionList_SnapsOutwardThenWalksInward(t *testing.T) {
	n := newTestNormalizer(t, Config{TimeFormat: "HH:mm", Interval: 30, Minimum: "10:05", Maximum: "11:50"})

	assert.Equal(t, []string{"10:30", "11:00", "11:30"}, n.Options())
}

func TestBuildOptionList_Properties(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		min, max string
		want     int
	}{
		{"half hour", 30, "10:05", "11:50", 3},
		{"interval larger than window", 45, "10:05", "11:50", 1},
		{"odd interval", 7, "10:05", "11:50", 15},
		{"on the hour", 60, "08:00", "17:00", 10},
		{"window inside one step", 30, "09:10", "09:20", 0},
		{"whole day", 15, "00:00", "23:59", 96},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNormalizer(t, Config{TimeFormat: "HH:mm", Interval: tt.interval, Minimum: tt.min, Maximum: tt.max})
			opts := n.Options()
			require.Len(t, opts, tt.want)

			r := n.Resolver()
			for i, o := range opts {
				assert.True(t, n.InRange(o), "%s outside [%s, %s]", o, tt.min, tt.max)
				if i == 0 {
					continue
				}
				prev := r.Parse(opts[i-1], "HH:mm")
				cur := r.Parse(o, "HH:mm")
				assert.Equal(t, time.Duration(tt.interval)*time.Minute, cur.Time().Sub(prev.Time()))
			}
		})
	}
}

func TestBuildOptionList_DegenerateInputs(t *testing.T) {
	n := newTestNormalizer(t, Config{TimeFormat: "HH:mm"})
	r := n.Resolver()
	lo := r.Parse("10:00", "HH:mm")
	hi := r.Parse("12:00", "HH:mm")

	assert.Empty(t, BuildOptionList("HH:mm", 0, lo, hi))
	assert.Empty(t, BuildOptionList("HH:mm", -30, lo, hi))
	assert.Empty(t, BuildOptionList("HH:mm", 30, r.Invalid(), hi))
	assert.Empty(t, BuildOptionList("HH:mm", 30, lo, r.Invalid()))
	assert.Empty(t, BuildOptionList("HH:mm", 30, hi, lo), "inverted bounds")
	assert.Equal(t, []string{"10:00"}, BuildOptionList("HH:mm", 120, lo, hi), "end walks back from 13:00")
}

func TestBuildOptionList_CrossesDSTInZone(t *testing.T) {
	n := newTestNormalizer(t, Config{
		TimeFormat: "HH:mm",
		Interval:   60,
		TimeZone:   "America/New_York",
		Minimum:    "2021-03-14T00:00:00",
		Maximum:    "2021-03-14T05:00:00",
	})

	assert.Equal(t, []string{"00:00", "01:00", "03:00", "04:00", "05:00"}, n.Options())
}

func TestNew_RejectsSpanBeyondMaxOptions(t *testing.T) {
	_, err := New(Config{
		TimeFormat: "HH:mm",
		Interval:   1,
		Minimum:    "2018-01-01T00:00:00Z",
		Maximum:    "2018-12-31T23:59:00Z",
		TimeZone:   "UTC",
		Clock:      clockwork.NewFakeClockAt(fixedNow),
	})
	require.ErrorIs(t, err, ErrTooManyOptions)
}

func TestNew_WholeDayAtOneMinuteFitsMaxOptions(t *testing.T) {
	n := newTestNormalizer(t, Config{TimeFormat: "HH:mm", Interval: 1})

	opts := n.Options()
	require.Len(t, opts, MaxOptions)
	assert.Equal(t, "00:00", opts[0])
	assert.Equal(t, "23:59", opts[len(opts)-1])
}

func TestBuildOptionList_StopsAtMaxOptions(t *testing.T) {
	n := newTestNormalizer(t, Config{TimeFormat: "HH:mm"})
	r := n.Resolver()
	lo := r.ParseISO("2018-01-01T00:00:00Z")
	hi := r.ParseISO("2018-01-03T00:00:00Z")

	assert.Len(t, BuildOptionList("HH:mm", 1, lo, hi), MaxOptions)
	assert.Equal(t, 2*MaxOptions+1, OptionCount(1, lo, hi))
	assert.Zero(t, OptionCount(1, hi, lo))
}
