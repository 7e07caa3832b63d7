package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/drivers-report-service/internal/moment"
	"github.com/couchcryptid/drivers-report-service/internal/timeopts"
)

// timeFlags describe a time dropdown.
type timeFlags struct {
	format   string
	interval int
	min, max string
}

func (f *timeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", timeopts.DefaultTimeFormat, "time format")
	cmd.Flags().IntVarP(&f.interval, "interval", "i", timeopts.DefaultInterval, "minutes between options")
	cmd.Flags().StringVar(&f.min, "min", "", "lower bound (default: start of today)")
	cmd.Flags().StringVar(&f.max, "max", "", "upper bound (default: end of today)")
}

func (f *timeFlags) normalizer(opts *globalOptions, cmd *cobra.Command) (*timeopts.Normalizer, error) {
	clock, err := opts.clock()
	if err != nil {
		return nil, err
	}
	cfg := timeopts.Config{
		TimeFormat: f.format,
		Interval:   f.interval,
		Locale:     opts.locale,
		TimeZone:   opts.timeZone,
		Clock:      clock,
	}
	if f.min != "" {
		cfg.Minimum = f.min
	}
	if f.max != "" {
		cfg.Maximum = f.max
	}
	return timeopts.New(cfg, timeopts.WithLogger(opts.logger(cmd.ErrOrStderr())))
}

func newOptionsCmd(opts *globalOptions) *cobra.Command {
	var flags timeFlags
	cmd := &cobra.Command{
		Use:   "options",
		Short: "Print the option list of a time dropdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := flags.normalizer(opts, cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, o := range n.Options() {
				fmt.Fprintln(out, o)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newNormalizeCmd(opts *globalOptions) *cobra.Command {
	var flags timeFlags
	cmd := &cobra.Command{
		Use:   "normalize <value>...",
		Short: "Normalize time values and check them against the bounds",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := flags.normalizer(opts, cmd)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INPUT\tNORMALIZED\tVALID\tIN RANGE")
			for _, v := range args {
				out, ok := n.Normalize(v)
				if !ok {
					fmt.Fprintf(w, "%s\t-\tfalse\tfalse\n", v)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\ttrue\t%t\n", v, out, n.InRange(v))
			}
			return w.Flush()
		},
	}
	flags.register(cmd)
	return cmd
}

func newFormatCmd(opts *globalOptions) *cobra.Command {
	var (
		inputs []string
		layout string
	)
	cmd := &cobra.Command{
		Use:   "format <value>",
		Short: "Parse a date or time and render it with a format",
		Long:  "Parse value as ISO-8601, or with each --input format in order, and print it with --format.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.resolver()
			if err != nil {
				return err
			}
			var tp moment.TimePoint
			if args[0] == "now" {
				tp = r.Now()
			} else {
				tp = r.Resolve(args[0], inputs...)
			}
			if !tp.Valid() {
				return fmt.Errorf("cannot read %q with formats [%s]", args[0], strings.Join(inputs, ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), tp.Format(layout))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&inputs, "input", nil, "input formats tried in order (default: ISO-8601)")
	cmd.Flags().StringVarP(&layout, "format", "f", "LLLL", "output format")
	return cmd
}

func newLocalesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locales",
		Short: "List supported locales",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range moment.SupportedLocales() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
