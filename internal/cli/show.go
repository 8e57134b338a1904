package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/feedline/internal/engine"
	"github.com/roach88/feedline/internal/ir"
	"github.com/roach88/feedline/internal/timeline"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
	Timeline string // optional - show a single timeline
}

// ShowResult is the rebuilt state printed by show.
type ShowResult struct {
	Seq       int64                             `json:"seq"`
	Timelines map[ir.TimelineKey]timeline.State `json:"timelines"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print timeline state rebuilt from the journal",
		Long: `Rebuild the timelines from the journal and print their state: listed
and queued ids (newest first), counters and flags.

Examples:
  feedline show --db ./feedline.db
  feedline show --db ./feedline.db --timeline home
  feedline show --db ./feedline.db --timeline account:42:media --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: store.path from config)")
	cmd.Flags().StringVarP(&opts.Timeline, "timeline", "t", "", "show only this timeline")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	cfg, err := opts.Config(cmd)
	if err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	st, err := openStore(opts.Database, cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	reg, seq, err := engine.Rebuild(cmd.Context(), st, cfg.TimelineLimits())
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to rebuild timelines", err)
	}

	result := ShowResult{Seq: seq, Timelines: reg.Snapshot()}
	keys := reg.Keys()
	if opts.Timeline != "" {
		key := ir.TimelineKey(opts.Timeline)
		state, ok := reg.Lookup(key)
		if !ok {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("timeline %s not found", key), nil)
			return NewExitError(ExitFailure, fmt.Sprintf("timeline %s not found", key))
		}
		result.Timelines = map[ir.TimelineKey]timeline.State{key: state}
		keys = []ir.TimelineKey{key}
	}

	return formatter.Render(result, func(w io.Writer) {
		if len(keys) == 0 {
			fmt.Fprintln(w, "No timelines in journal.")
			return
		}
		fmt.Fprintf(w, "Timelines at seq %d\n", result.Seq)
		for _, key := range keys {
			writeState(w, key, result.Timelines[key])
		}
	})
}

// writeState prints one timeline in text form.
func writeState(w io.Writer, key ir.TimelineKey, s timeline.State) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", key)
	fmt.Fprintf(w, "  items:  %s\n", joinKeys(s.Items.Slice()))
	fmt.Fprintf(w, "  queued: %s (total %d)\n", joinKeys(s.QueuedItems.Slice()), s.TotalQueuedItemsCount)
	fmt.Fprintf(w, "  unread: %d  online: %t  top: %t  has_more: %t\n", s.Unread, s.Online, s.Top, s.HasMore)
	if s.IsLoading || s.LoadingFailed || s.IsPartial {
		fmt.Fprintf(w, "  loading: %t  failed: %t  partial: %t\n", s.IsLoading, s.LoadingFailed, s.IsPartial)
	}
	if s.Next != "" || s.Prev != "" {
		fmt.Fprintf(w, "  next: %s  prev: %s\n", s.Next, s.Prev)
	}
	if s.FeedAccountID != "" {
		fmt.Fprintf(w, "  feed: %s\n", s.FeedAccountID)
	}
}
