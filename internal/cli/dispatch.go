package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/feedline/internal/engine"
	"github.com/roach88/feedline/internal/event"
)

// DispatchOptions holds flags for the dispatch command.
type DispatchOptions struct {
	*RootOptions
	Database string
	Payload  string
}

// NewDispatchCommand creates the dispatch command.
func NewDispatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DispatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dispatch <kind>",
		Short: "Journal and reduce a single event",
		Long: `Dispatch one event against the timelines stored in the database and
print the timelines it touched.

Exit codes:
  0 - Event dispatched
  1 - Event rejected (malformed payload or failed validation)
  2 - Command error (database not readable, etc.)

Examples:
  feedline dispatch --db ./feedline.db TIMELINE_UPDATE --payload '{"timeline":"home","status_id":"1"}'
  feedline dispatch --db ./feedline.db TIMELINE_DEQUEUE --payload '{"timeline":"home"}' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: store.path from config)")
	cmd.Flags().StringVar(&opts.Payload, "payload", "{}", "event payload as JSON")

	return cmd
}

func runDispatch(opts *DispatchOptions, kind string, cmd *cobra.Command) error {
	cfg, err := opts.Config(cmd)
	if err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	ev, err := event.Decode(event.Kind(kind), []byte(opts.Payload))
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidEvent, err.Error(), nil)
		return WrapExitError(ExitFailure, "event rejected", err)
	}

	st, err := openStore(opts.Database, cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	eng, err := engine.Open(ctx, st, cfg.TimelineLimits())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to restore engine", err)
	}

	change, err := eng.Dispatch(ctx, ev)
	if err != nil {
		if engine.IsInvalidEvent(err) {
			_ = formatter.Error(ErrCodeInvalidEvent, err.Error(), nil)
			return WrapExitError(ExitFailure, "event rejected", err)
		}
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "dispatch failed", err)
	}

	return formatter.Render(change, func(w io.Writer) {
		fmt.Fprintf(w, "seq %d %s\n", change.Seq, change.Kind)
		if change.Skipped {
			fmt.Fprintln(w, "  skipped")
		}
		fmt.Fprintf(w, "  timelines: %s\n", joinKeys(change.Timelines))
		if change.Evicted > 0 {
			fmt.Fprintf(w, "  evicted: %d\n", change.Evicted)
		}
		if change.Removed > 0 {
			fmt.Fprintf(w, "  removed: %d\n", change.Removed)
		}
		if change.Replaced > 0 {
			fmt.Fprintf(w, "  replaced: %d\n", change.Replaced)
		}
	})
}

func joinKeys[K ~string](keys []K) string {
	if len(keys) == 0 {
		return "(none)"
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}
