package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kartikeyarokde/go-ecg-graph/internal/data/watcher"
	"github.com/kartikeyarokde/go-ecg-graph/internal/util"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [flags] <input>",
	Short: "Regenerate the graph whenever the input file changes",
	Long: `Generates the graph once, then again after every change of the input file
until interrupted. A failed run is reported and the watch goes on.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce,
		"Quiet period after the last write before regenerating")
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Close()

	input := args[0]
	fw, err := watcher.NewFileWatcher(input, watchDebounce, env.logger)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", input, err)
	}
	defer fw.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	generate := func(ctx context.Context) error {
		meta, err := env.grapher.Generate(ctx, input)
		if err != nil {
			return err
		}
		return env.formatter.Format(out, meta)
	}

	env.logger.Info("Watching input", util.F("path", fw.Path()))
	return watchLoop(ctx, fw.Changes(), generate, cmd.ErrOrStderr(), env.logger)
}

// watchLoop runs generate once and then once per change, one run at a
// time, until ctx ends or changes is closed. Failed runs are reported to
// errOut and do not stop the loop.
func watchLoop(ctx context.Context, changes <-chan watcher.Change, generate func(context.Context) error,
	errOut io.Writer, logger util.LoggerInterface) error {
	runOnce := func(reason string) {
		start := time.Now()
		if err := generate(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("Regeneration failed", util.F("reason", reason), util.F("error", err))
			fmt.Fprintf(errOut, "%s: %v\n", reason, err)
			return
		}
		logger.Debugf("Regenerated after %s in %v", reason, time.Since(start))
	}

	runOnce("start")
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			runOnce(change.Operation)
		}
	}
}
