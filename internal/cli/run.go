package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/feedline/internal/engine"
	"github.com/roach88/feedline/internal/event"
)

// maxLineSize bounds one NDJSON line. Expand batches can be large.
const maxLineSize = 4 << 20

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// RunResult summarizes one run.
type RunResult struct {
	Lines      int   `json:"lines"`
	Rejected   int   `json:"rejected"`
	Dispatched int64 `json:"dispatched"`
	LastSeq    int64 `json:"last_seq"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Feed NDJSON events from stdin through the engine",
		Long: `Start the engine loop and feed it events read from stdin, one JSON
envelope per line:

  {"kind":"TIMELINE_UPDATE","payload":{"timeline":"home","status_id":"1"}}

The engine resumes from the journal in the database, so successive runs
continue the same timelines. Lines that do not decode are reported and
skipped; events that fail validation are logged by the engine.

Example:
  feedline run --db ./feedline.db < events.ndjson`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: store.path from config)")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := opts.Config(cmd)
	if err != nil {
		return err
	}

	st, err := openStore(opts.Database, cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	eng, err := engine.Open(ctx, st, cfg.TimelineLimits())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to restore engine", err)
	}
	start := eng.Clock().Current()

	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	result, readErr := feedEvents(eng, cmd.InOrStdin(), cmd.ErrOrStderr())
	eng.Stop()

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "engine error", err)
	}
	if readErr != nil {
		return WrapExitError(ExitCommandError, "failed to read events", readErr)
	}

	result.LastSeq = eng.Clock().Current()
	result.Dispatched = result.LastSeq - start
	slog.Info("run finished", "lines", result.Lines, "rejected", result.Rejected, "seq", result.LastSeq)

	return opts.formatter(cmd).Render(result, func(w io.Writer) {
		fmt.Fprintf(w, "Read %d line(s), rejected %d, dispatched %d\n", result.Lines, result.Rejected, result.Dispatched)
		fmt.Fprintf(w, "Journal at seq %d\n", result.LastSeq)
	})
}

// feedEvents decodes each non-blank line of r and enqueues it. Decode
// errors are written to diag and counted; they do not stop the run.
func feedEvents(eng *engine.Engine, r io.Reader, diag io.Writer) (RunResult, error) {
	var result RunResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		result.Lines++

		ev, err := event.ParseEnvelope([]byte(line))
		if err != nil {
			result.Rejected++
			fmt.Fprintf(diag, "line %d: %v\n", result.Lines, err)
			continue
		}
		if !eng.Enqueue(ev) {
			return result, fmt.Errorf("line %d: engine stopped", result.Lines)
		}
	}
	return result, scanner.Err()
}
