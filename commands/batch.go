package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
	"github.com/kartikeyarokde/go-ecg-graph/internal/data/scanner"
	"github.com/kartikeyarokde/go-ecg-graph/internal/data/source"
	"github.com/kartikeyarokde/go-ecg-graph/internal/util"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [flags] <dir>",
	Short: "Generate one graph per trace file found below a directory",
	Long: `Scans <dir> recursively for trace files (` + strings.Join(source.Extensions, ", ") + `)
and generates one graph for each, named after its path below <dir>:
ward/bed4.txt becomes ward_bed4.pdf. Two files mapping to the same name
stop the batch before anything is written. Files are processed one at a time.
A failed file is reported and the batch goes on; the command fails if any
file failed.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Close()

	s := scanner.NewFileScanner(args[0], source.Extensions, env.logger)
	files, err := s.Scan()
	if err != nil {
		return err
	}
	files = excludeOutputs(files, expandPath(args[0]), expandPath(env.config.Output.Dir),
		s.OutputName, env.config.Output.MetadataFile)
	if len(files) == 0 {
		return fmt.Errorf("%w: no trace files found in %s", model.ErrInvalidInput, args[0])
	}
	names, err := outputNames(files, s.OutputName)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	generate := func(ctx context.Context, path string) error {
		g, err := env.grapher.Named(names[path])
		if err != nil {
			return err
		}
		meta, err := g.Generate(ctx, path)
		if err != nil {
			return err
		}
		return env.formatter.Format(out, meta)
	}

	return batchLoop(ctx, files, generate, cmd.ErrOrStderr(), env.logger)
}

// batchLoop runs generate for every file in order and reports failures
// to errOut. It stops early only when ctx ends.
func batchLoop(ctx context.Context, files []string, generate func(context.Context, string) error,
	errOut io.Writer, logger util.LoggerInterface) error {
	failed := 0
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Debugf("Batch %d/%d: %s", i+1, len(files), path)
		if err := generate(ctx, path); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			logger.Warn("Batch item failed", util.F("input", path), util.F("error", err))
			fmt.Fprintf(errOut, "%s: %v\n", path, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d traces failed", failed, len(files))
	}
	logger.Info("Batch completed", util.F("files", len(files)))
	return nil
}

// excludeOutputs drops files an earlier batch may have written: everything
// in an output directory nested below root, and metadata files named after
// another trace of this batch. An output directory at or above root is the
// default case and is not skipped as a whole.
func excludeOutputs(files []string, root, outDir string, name func(string) string, metadata bool) []string {
	nested := outDir != "" && root != "" &&
		strings.HasPrefix(filepath.Clean(outDir), filepath.Clean(root)+string(filepath.Separator))
	prefix := filepath.Clean(outDir) + string(filepath.Separator)

	written := make(map[string][]string)
	if metadata && outDir != "" {
		for _, path := range files {
			target := filepath.Join(outDir, name(path)+".json")
			written[target] = append(written[target], path)
		}
	}

	kept := files[:0:0]
	for _, path := range files {
		abs, err := filepath.Abs(path)
		if err != nil {
			kept = append(kept, path)
			continue
		}
		if nested && strings.HasPrefix(abs, prefix) {
			continue
		}
		if writtenByOther(written[abs], path) {
			continue
		}
		kept = append(kept, path)
	}
	return kept
}

func writtenByOther(owners []string, path string) bool {
	for _, owner := range owners {
		if owner != path {
			return true
		}
	}
	return false
}

// outputNames maps every file to its output name and fails when two files
// would write the same graph.
func outputNames(files []string, name func(string) string) (map[string]string, error) {
	names := make(map[string]string, len(files))
	owners := make(map[string]string, len(files))
	for _, path := range files {
		n := name(path)
		if other, ok := owners[n]; ok {
			return nil, fmt.Errorf("%w: %s and %s both map to output name %q",
				model.ErrInvalidInput, other, path, n)
		}
		owners[n] = path
		names[path] = n
	}
	return names, nil
}
