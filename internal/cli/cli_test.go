package cli

import (
	"bytes"
	"strings"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes timekit with a pinned clock and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--now", "2018-01-30T15:00:00Z", "--tz", "UTC"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestOptionsCmd(t *testing.T) {
	out, err := run(t, "options", "--format", "h:mm A", "--min", "10:05 AM", "--max", "11:50 AM")
	require.NoError(t, err)
	assert.Equal(t, "10:30 AM\n11:00 AM\n11:30 AM\n", out)
}

func TestOptionsCmd_Defaults(t *testing.T) {
	out, err := run(t, "options")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 48)
	assert.Equal(t, "12:00 AM", lines[0])
	assert.Equal(t, "11:30 PM", lines[47])
}

func TestOptionsCmd_InvalidBound(t *testing.T) {
	_, err := run(t, "options", "--max", "garbage")
	require.Error(t, err)
}

func TestNormalizeCmd(t *testing.T) {
	out, err := run(t, "normalize", "--format", "h:mm A", "--min", "9:00 AM", "--max", "5:00 PM",
		"9:30 AM", "2018-01-30T20:00:00Z", "nonsense")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"INPUT", "NORMALIZED", "VALID", "IN", "RANGE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"9:30", "AM", "9:30", "AM", "true", "true"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2018-01-30T20:00:00Z", "8:00", "PM", "true", "false"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"nonsense", "-", "false", "false"}, strings.Fields(lines[3]))
}

func TestNormalizeCmd_RequiresValues(t *testing.T) {
	_, err := run(t, "normalize")
	require.Error(t, err)
}

func TestFormatCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "iso input",
			args: []string{"format", "2018-01-30T15:00:00Z", "-f", "dddd, MMMM Do YYYY"},
			want: "Tuesday, January 30th 2018\n",
		},
		{
			name: "custom input format",
			args: []string{"format", "03/04/2018", "--input", "DD/MM/YYYY", "-f", "YYYY-MM-DD"},
			want: "2018-04-03\n",
		},
		{
			name: "now",
			args: []string{"format", "now", "-f", "L LT"},
			want: "01/30/2018 3:00 PM\n",
		},
		{
			name: "locale",
			args: []string{"--locale", "es", "format", "2018-03-01", "-f", "MMMM YYYY"},
			want: "marzo 2018\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestFormatCmd_Unreadable(t *testing.T) {
	_, err := run(t, "format", "not a date")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read")
}

func TestFieldCmd(t *testing.T) {
	out, err := run(t, "field", "--min", "2018-01-01", "open", "select:2018-01-20", "blur:13/45/2018", "today")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8, out)
	assert.Contains(t, lines[0], "initial")
	assert.Contains(t, lines[0], "(empty)")
	assert.Contains(t, lines[1], "open")
	assert.Equal(t, "  -> 01/20/2018", lines[2])
	assert.Contains(t, lines[3], "01/20/2018")
	assert.Equal(t, "  -> 01/20/2018", lines[4], "invalid input reverts and still notifies")
	assert.Contains(t, lines[5], "01/20/2018")
	assert.Equal(t, "  -> 01/30/2018", lines[6])
	assert.Contains(t, lines[7], "01/30/2018")
}

func TestFieldCmd_JSON(t *testing.T) {
	out, err := run(t, "field", "--json", "--value", "2018-01-15", "next")
	require.NoError(t, err)
	assert.Contains(t, out, `"value":"01/15/2018"`)
	assert.Contains(t, out, `"header":"February 2018"`)
}

func TestFieldCmd_BadStep(t *testing.T) {
	_, err := run(t, "field", "explode")
	require.Error(t, err)

	_, err = run(t, "field", "open:now")
	require.Error(t, err)
}

func TestLocalesCmd(t *testing.T) {
	out, err := run(t, "locales")
	require.NoError(t, err)
	assert.Contains(t, strings.Fields(out), "en")
	assert.Contains(t, strings.Fields(out), "es")
}

func TestInvalidNow(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--now", "yesterday", "options"})
	require.Error(t, cmd.Execute())
}
