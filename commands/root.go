package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/kartikeyarokde/go-ecg-graph/internal/config"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/constants"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/partition"
	"github.com/kartikeyarokde/go-ecg-graph/internal/grapher"
	"github.com/kartikeyarokde/go-ecg-graph/internal/presentation/formatter"
	"github.com/kartikeyarokde/go-ecg-graph/internal/raster"
	"github.com/kartikeyarokde/go-ecg-graph/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Logging related
	debug   bool
	logFile string

	// Config file
	configPath string

	// Output related
	outputDir    string
	outputName   string
	exportFormat string
	outputFormat string
	metadataFile bool
	metaPairs    []string

	// Recording and strip layout
	frequency     float64
	stripDuration time.Duration
	stripsPerPage int
	legendGap     time.Duration
	channel       string

	// Rasterizer related
	rasterizerKind string
	chromeBin      string
	controlURL     string
	rasterScale    float64
	rasterTimeout  time.Duration

	rootCmd = &cobra.Command{
		Use:   "ecg-graph [flags] <input>",
		Short: "ECG strip-chart generator",
		Long: `ecg-graph renders an ECG trace as paginated strips on standard ECG paper
(25 mm/s, 10 mm/mV) and exports the result as PDF, JPG or PNG.

The input is either a file holding one list literal of samples in millivolts,
where None, null and nan mark missing samples, or an EDF recording (.edf).

Examples:
  ecg-graph ecg.txt                                   # graph.pdf in the current directory
  ecg-graph -e png -o out -n patient-42 ecg.txt       # one PNG per page in out/
  ecg-graph -f 500 --strips-per-page 3 ecg.txt        # 500 Hz trace, 3 strips per page
  ecg-graph --channel "Lead II" recording.edf         # pick an EDF signal by label
  ecg-graph --meta "Patient=Jane Doe" ecg.txt         # extra line in the metadata panel
  ecg-graph --rasterizer native --format json ecg.txt # no browser, JSON metadata`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runGenerate,
	}
)

func init() {
	// Configuration and logging
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(),
		"Config file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file (default ~/.ecg-graph/logs/app.log)")

	// Output configuration
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", ".",
		"Directory the graph is written to")
	rootCmd.PersistentFlags().StringVarP(&outputName, "name", "n", constants.DefaultOutputName,
		"Output file name without extension")
	rootCmd.PersistentFlags().StringVarP(&exportFormat, "export", "e", constants.DefaultExport,
		"Export format (pdf, jpg, png)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", formatter.FormatTable,
		"Metadata output format ("+strings.Join(formatter.Formats(), ", ")+")")
	rootCmd.PersistentFlags().BoolVar(&metadataFile, "metadata-file", false,
		"Also write the metadata to <name>.json")
	rootCmd.PersistentFlags().StringArrayVar(&metaPairs, "meta", nil,
		"Extra metadata panel line as label=value (repeatable)")

	// Recording and strip layout
	rootCmd.PersistentFlags().Float64VarP(&frequency, "frequency", "f", constants.DefaultSamplingRate,
		"Sampling rate in Hz (overrides the rate of an EDF file)")
	rootCmd.PersistentFlags().DurationVar(&stripDuration, "strip-duration", constants.DefaultStripDuration,
		"Duration of one strip")
	rootCmd.PersistentFlags().IntVar(&stripsPerPage, "strips-per-page", constants.DefaultStripsPerPage,
		"Strips on one page")
	rootCmd.PersistentFlags().DurationVar(&legendGap, "legend-gap", constants.DefaultLegendGap,
		"Blank lead-in holding the calibration pulse")
	rootCmd.PersistentFlags().StringVar(&channel, "channel", "",
		"EDF signal label to plot (default: first label containing ECG)")

	// Rasterizer configuration
	rootCmd.PersistentFlags().StringVar(&rasterizerKind, "rasterizer", constants.DefaultRasterizer,
		"Rasterizer backend (chrome, native)")
	rootCmd.PersistentFlags().StringVar(&chromeBin, "chrome-bin", "",
		"Chrome executable (default: search the usual locations)")
	rootCmd.PersistentFlags().StringVar(&controlURL, "control-url", "",
		"DevTools URL of a running Chrome to use instead of launching one")
	rootCmd.PersistentFlags().Float64Var(&rasterScale, "scale", raster.DefaultScale,
		"Image resolution multiplier")
	rootCmd.PersistentFlags().DurationVar(&rasterTimeout, "timeout", raster.DefaultTimeout,
		"Rasterization timeout")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	meta, err := env.grapher.Generate(ctx, args[0])
	if err != nil {
		env.logger.Error("Generation failed", util.F("input", args[0]), util.F("error", err))
		return fmt.Errorf("failed to generate graph: %w", err)
	}
	return env.formatter.Format(cmd.OutOrStdout(), meta)
}

// environment is what every command builds from flags and the config file.
type environment struct {
	config    *config.Config
	logger    *util.Logger
	grapher   *grapher.Grapher
	formatter formatter.Formatter
}

func newEnvironment(cmd *cobra.Command) (*environment, error) {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	g, err := newGrapher(cmd.Flags(), cfg, logger)
	if err != nil {
		logger.Close()
		return nil, err
	}
	f, err := formatter.NewFormatter(cfg.Output.Format)
	if err != nil {
		logger.Close()
		return nil, err
	}

	return &environment{
		config:    cfg,
		logger:    logger,
		grapher:   g,
		formatter: f,
	}, nil
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig layers the config file over the defaults, then every flag set
// on the command line over the file.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if flags.Changed("output-dir") {
		cfg.Output.Dir = outputDir
	}
	if flags.Changed("name") {
		cfg.Output.Name = outputName
	}
	if flags.Changed("export") {
		cfg.Output.Export = exportFormat
	}
	if flags.Changed("format") {
		cfg.Output.Format = outputFormat
	}
	if flags.Changed("metadata-file") {
		cfg.Output.MetadataFile = metadataFile
	}
	if flags.Changed("frequency") {
		cfg.Recording.Frequency = frequency
	}
	if flags.Changed("strip-duration") {
		cfg.Recording.StripDuration = stripDuration
	}
	if flags.Changed("strips-per-page") {
		cfg.Recording.StripsPerPage = stripsPerPage
	}
	if flags.Changed("legend-gap") {
		cfg.Recording.LegendGap = legendGap
	}
	if flags.Changed("channel") {
		cfg.Recording.Channel = channel
	}
	if flags.Changed("rasterizer") {
		cfg.Raster.Kind = rasterizerKind
	}
	if flags.Changed("chrome-bin") {
		cfg.Raster.ChromeBin = chromeBin
	}
	if flags.Changed("control-url") {
		cfg.Raster.ControlURL = controlURL
	}
	if flags.Changed("scale") {
		cfg.Raster.Scale = rasterScale
	}
	if flags.Changed("timeout") {
		cfg.Raster.Timeout = rasterTimeout
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = logFile
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	meta, err := parseMeta(metaPairs)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 && cfg.Meta == nil {
		cfg.Meta = make(map[string]string, len(meta))
	}
	for k, v := range meta {
		cfg.Meta[k] = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseMeta splits label=value pairs at the first '='.
func parseMeta(pairs []string) (map[string]string, error) {
	meta := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		label, value, ok := strings.Cut(pair, "=")
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			return nil, fmt.Errorf("%w: --meta %q must be label=value", model.ErrInvalidInput, pair)
		}
		meta[label] = strings.TrimSpace(value)
	}
	return meta, nil
}

func newLogger(cfg *config.Config) (*util.Logger, error) {
	path := expandPath(cfg.Logging.File)
	if path != "" {
		if err := ensureDir(filepath.Dir(path)); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	return util.NewLogger(cfg.Logging.Level, path, debug)
}

func newGrapher(flags *pflag.FlagSet, cfg *config.Config, logger util.LoggerInterface) (*grapher.Grapher, error) {
	rasterizer, err := raster.New(raster.Options{
		Kind:        cfg.Raster.Kind,
		ChromeBin:   cfg.Raster.ChromeBin,
		ControlURL:  cfg.Raster.ControlURL,
		Scale:       cfg.Raster.Scale,
		JPEGQuality: cfg.Raster.JPEGQuality,
		Timeout:     cfg.Raster.Timeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	return grapher.New(&grapher.Config{
		Params: partition.Params{
			SamplingRate:  cfg.Recording.Frequency,
			StripDuration: cfg.Recording.StripDuration,
			StripsPerPage: cfg.Recording.StripsPerPage,
			LegendGap:     cfg.Recording.LegendGap,
		},
		OverrideRate: flags.Changed("frequency"),
		Export:       cfg.Output.Export,
		OutputDir:    expandPath(cfg.Output.Dir),
		Name:         cfg.Output.Name,
		Meta:         cfg.Meta,
		Channel:      cfg.Recording.Channel,
		MetadataFile: cfg.Output.MetadataFile,
		Rasterizer:   rasterizer,
		Logger:       logger,
	})
}

// Helper functions

func expandPath(path string) string {
	if path == "" {
		return path
	}
	path = config.ExpandPath(path)
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
