package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/drivers-report-service/internal/datefield"
)

// fieldStep is one scripted interaction, written as "verb" or "verb:arg".
type fieldStep struct {
	verb string
	arg  string
}

func parseStep(s string) (fieldStep, error) {
	verb, arg, _ := strings.Cut(s, ":")
	verb = strings.ToLower(strings.TrimSpace(verb))
	switch verb {
	case "input", "blur", "select", "commit", "sync":
	case "open", "close", "today", "next", "prev":
		if arg != "" {
			return fieldStep{}, fmt.Errorf("step %q takes no argument", verb)
		}
	default:
		return fieldStep{}, fmt.Errorf("unknown step %q", s)
	}
	return fieldStep{verb: verb, arg: arg}, nil
}

func newFieldCmd(opts *globalOptions) *cobra.Command {
	var (
		value   string
		minDate string
		maxDate string
		inputs  []string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "field <step>...",
		Short: "Run a scripted date field and print each state",
		Long: `Run steps against a date field and print the value after each one.
Steps: input:<text> blur:<text> select:<date> commit:<text> sync:<value>
open close today next prev. Listener notifications are marked with "->".`,
		Example: `  timekit field --min 2018-01-01 open select:2018-01-20 input:13/45/2018 blur:13/45/2018`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := make([]fieldStep, 0, len(args))
			for _, a := range args {
				s, err := parseStep(a)
				if err != nil {
					return err
				}
				steps = append(steps, s)
			}

			clock, err := opts.clock()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			cfg := datefield.Config{
				InputDateFormat: inputs,
				Locale:          opts.locale,
				TimeZone:        opts.timeZone,
				Clock:           clock,
				Logger:          opts.logger(cmd.ErrOrStderr()),
				OnDateSelect: func(v string, valid bool) {
					if !valid {
						fmt.Fprintln(out, "  -> cleared")
						return
					}
					fmt.Fprintf(out, "  -> %s\n", v)
				},
			}
			if value != "" {
				cfg.Value = value
			}
			if minDate != "" {
				cfg.MinimumDate = minDate
			}
			if maxDate != "" {
				cfg.MaximumDate = maxDate
			}
			f, err := datefield.New(cfg)
			if err != nil {
				return err
			}

			printState(cmd, "initial", f.State(), asJSON)
			for _, s := range steps {
				printState(cmd, s.String(), applyStep(f, s), asJSON)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "initial value")
	cmd.Flags().StringVar(&minDate, "min", "", "minimum date (exclusive)")
	cmd.Flags().StringVar(&maxDate, "max", "", "maximum date (exclusive)")
	cmd.Flags().StringSliceVar(&inputs, "input", nil, "accepted input formats, canonical first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print full states as JSON")
	return cmd
}

func (s fieldStep) String() string {
	if s.arg == "" {
		return s.verb
	}
	return s.verb + ":" + s.arg
}

func applyStep(f *datefield.Field, s fieldStep) datefield.State {
	switch s.verb {
	case "input":
		return f.Input(s.arg)
	case "blur":
		return f.Blur(s.arg)
	case "open":
		return f.SetOpen(true)
	case "close":
		return f.SetOpen(false)
	case "select":
		return f.Select(s.arg)
	case "today":
		return f.SelectToday()
	case "next":
		return f.NextMonth()
	case "prev":
		return f.PrevMonth()
	case "commit":
		return f.Commit(s.arg, true)
	case "sync":
		var v any
		if s.arg != "" {
			v = s.arg
		}
		return f.Sync(v, "")
	}
	return f.State()
}

func printState(cmd *cobra.Command, label string, st datefield.State, asJSON bool) {
	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.Marshal(st)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", label, err)
			return
		}
		fmt.Fprintf(out, "%s: %s\n", label, data)
		return
	}
	value := st.Value
	if value == "" {
		value = "(empty)"
	}
	open := "closed"
	if st.Open {
		open = "open"
	}
	fmt.Fprintf(out, "%-20s %-12s %-6s %s\n", label, value, open, st.Header)
}
