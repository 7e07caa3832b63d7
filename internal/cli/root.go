// Package cli implements the timekit command line tool: option lists,
// normalization and formatting of date and time values, and a scripted date
// field for trying out commit rules.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/drivers-report-service/internal/moment"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	locale   string
	timeZone string
	now      string
	verbose  bool
}

// clock returns a fake clock pinned to --now, or the real clock.
func (o *globalOptions) clock() (clockwork.Clock, error) {
	if o.now == "" {
		return clockwork.NewRealClock(), nil
	}
	t, err := time.Parse(time.RFC3339, o.now)
	if err != nil {
		return nil, fmt.Errorf("invalid --now %q: want RFC 3339", o.now)
	}
	return clockwork.NewFakeClockAt(t), nil
}

func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *globalOptions) resolver() (*moment.Resolver, error) {
	clock, err := o.clock()
	if err != nil {
		return nil, err
	}
	return moment.NewResolver(moment.Config{Locale: o.locale, TimeZone: o.timeZone, Clock: clock})
}

// NewRootCmd builds the timekit command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "timekit",
		Short:         "Date and time helpers for the drivers report",
		Long:          "Build time option lists, normalize and format values, and script a date field the way the service does.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.locale, "locale", moment.DefaultLocale, "locale for names and macro formats")
	root.PersistentFlags().StringVar(&opts.timeZone, "tz", "", "IANA time zone (default: local)")
	root.PersistentFlags().StringVar(&opts.now, "now", "", "pin the current time (RFC 3339)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newOptionsCmd(opts))
	root.AddCommand(newNormalizeCmd(opts))
	root.AddCommand(newFormatCmd(opts))
	root.AddCommand(newFieldCmd(opts))
	root.AddCommand(newLocalesCmd())

	return root
}

// Execute runs the timekit command tree.
func Execute() error {
	return NewRootCmd().Execute()
}
