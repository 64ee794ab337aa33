// Package grapher runs one trace through partitioning, rendering,
// composition and rasterization.
package grapher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/kartikeyarokde/go-ecg-graph/internal/compose"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/constants"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/partition"
	"github.com/kartikeyarokde/go-ecg-graph/internal/data/source"
	"github.com/kartikeyarokde/go-ecg-graph/internal/presentation/formatter"
	"github.com/kartikeyarokde/go-ecg-graph/internal/raster"
	"github.com/kartikeyarokde/go-ecg-graph/internal/render"
	"github.com/kartikeyarokde/go-ecg-graph/internal/util"
	"github.com/kartikeyarokde/go-ecg-graph/internal/workspace"
)

// Display labels filled from the recording file
const (
	LabelChannel = "Channel"
	LabelPatient = "Patient ID"
)

type Config struct {
	Params partition.Params
	// OverrideRate forces Params.SamplingRate over a rate read from the file
	OverrideRate bool
	Export       string // pdf, jpg, png
	OutputDir    string
	Name         string // output file name without extension
	Meta         map[string]string
	Channel      string // EDF signal label
	MetadataFile bool   // also write <name>.json
	// WorkspaceDir is the parent of the per-run temp dir, empty for the system default
	WorkspaceDir string
	// RunID tags logs and the workspace. Empty generates one per run.
	RunID      string
	Rasterizer raster.Rasterizer
	Compositor *compose.Compositor
	Logger     util.LoggerInterface
}

type Grapher struct {
	config     *Config
	logger     util.LoggerInterface
	rasterizer raster.Rasterizer
	compositor *compose.Compositor
}

func New(config *Config) (*Grapher, error) {
	if config.Logger == nil {
		config.Logger = util.NopLogger()
	}
	if config.Params == (partition.Params{}) {
		config.Params = partition.DefaultParams()
	}
	if config.OutputDir == "" {
		config.OutputDir = "."
	}
	if config.Name == "" {
		config.Name = constants.DefaultOutputName
	}
	if config.Name != filepath.Base(config.Name) {
		return nil, fmt.Errorf("%w: output name %q must not contain a path", model.ErrInvalidInput, config.Name)
	}

	rasterizer := config.Rasterizer
	if rasterizer == nil {
		var err error
		rasterizer, err = raster.New(raster.Options{Logger: config.Logger})
		if err != nil {
			return nil, err
		}
	}
	compositor := config.Compositor
	if compositor == nil {
		compositor = compose.NewCompositor()
	}

	return &Grapher{
		config:     config,
		logger:     config.Logger,
		rasterizer: rasterizer,
		compositor: compositor,
	}, nil
}

// Named returns a grapher sharing every setting except the output name.
func (g *Grapher) Named(name string) (*Grapher, error) {
	if name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("%w: output name %q must not contain a path", model.ErrInvalidInput, name)
	}
	config := *g.config
	config.Name = name
	clone := *g
	clone.config = &config
	return &clone, nil
}

// Generate reads the trace file at input and writes the graph. Outputs are
// rasterized into the run's workspace and moved into OutputDir only on
// success, so a failed run leaves earlier outputs untouched.
func (g *Grapher) Generate(ctx context.Context, input string) (*model.GraphMetadata, error) {
	ctx = g.withRunID(ctx)
	logger := g.logger.WithContext(ctx)

	format, err := model.ParseExportFormat(g.config.Export)
	if err != nil {
		return nil, err
	}
	if err := util.CheckReadableFile(input); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
	}
	if err := util.CheckWritableDir(g.config.OutputDir); err != nil {
		return nil, fmt.Errorf("%w: output directory: %w", model.ErrInvalidInput, err)
	}
	if g.config.MetadataFile {
		if err := checkNotInput(g.metadataPath(), input); err != nil {
			return nil, err
		}
	}

	// Phase 1: Load the trace
	loadStart := time.Now()
	rec, err := source.Load(input, g.config.Channel)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Phase 1 - Trace load duration: %v, %d samples from %s",
		time.Since(loadStart), len(rec.Trace), source.DetectKind(input))

	return g.run(ctx, logger, format, rec)
}

// GenerateTrace writes the graph of an in-memory trace sampled at
// Params.SamplingRate.
func (g *Grapher) GenerateTrace(ctx context.Context, trace model.Trace) (*model.GraphMetadata, error) {
	ctx = g.withRunID(ctx)
	logger := g.logger.WithContext(ctx)

	format, err := model.ParseExportFormat(g.config.Export)
	if err != nil {
		return nil, err
	}
	if err := util.CheckWritableDir(g.config.OutputDir); err != nil {
		return nil, fmt.Errorf("%w: output directory: %w", model.ErrInvalidInput, err)
	}
	return g.run(ctx, logger, format, &source.Recording{Trace: trace})
}

func (g *Grapher) run(ctx context.Context, logger util.LoggerInterface, format model.ExportFormat, rec *source.Recording) (*model.GraphMetadata, error) {
	startTime := time.Now()
	runID, _ := util.RunID(ctx)

	// Phase 2: Partition into strips and pages
	partitionStart := time.Now()
	params := g.params(rec)
	result, err := partition.Partition(rec.Trace, params)
	if err != nil {
		return nil, err
	}
	layout := result.Layout
	logger.Debugf("Phase 2 - Partition duration: %v, %d strips on %d pages (gap %d, tail fill %d, pad strips %d)",
		time.Since(partitionStart), layout.TotalStrips, layout.PageCount,
		layout.GapSamples, layout.TailFill, layout.PadStrips)

	// Phase 3: Render every page
	renderStart := time.Now()
	renderer := render.NewRenderer(render.NewGeometry(params))
	scenes := make([]*render.Scene, 0, len(result.Pages))
	points := 0
	for _, page := range result.Pages {
		scene, err := renderer.RenderPage(page)
		if err != nil {
			return nil, err
		}
		points += scene.PointCount()
		scenes = append(scenes, scene)
	}
	logger.Debugf("Phase 3 - Render duration: %v, %d curve points", time.Since(renderStart), points)

	// Phase 4: Compose pages with the metadata panel
	composeStart := time.Now()
	meta := g.metadata(rec, params, result)
	doc, err := g.compositor.Compose(scenes, meta)
	if err != nil {
		return nil, err
	}

	ws, err := workspace.New(g.config.WorkspaceDir, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			logger.Warn("Failed to remove workspace", util.F("dir", ws.Dir()), util.F("error", err))
		}
	}()
	if err := g.compositor.Stage(ws, doc); err != nil {
		return nil, fmt.Errorf("failed to stage document: %w", err)
	}
	logger.Debugf("Phase 4 - Compose duration: %v, staged %d files in %s",
		time.Since(composeStart), len(ws.Files()), ws.Dir())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 5: Rasterize into the workspace, then publish
	rasterStart := time.Now()
	stageDir, err := ws.Mkdir("out")
	if err != nil {
		return nil, err
	}
	staged := raster.PlanDestination(stageDir, g.config.Name, format, doc.PageCount())
	if err := g.rasterizer.Rasterize(ctx, doc, staged); err != nil {
		return nil, rasterError(err)
	}
	logger.Debugf("Phase 5 - Rasterize duration: %v, %d files", time.Since(rasterStart), len(staged.Files))

	dest := raster.PlanDestination(g.config.OutputDir, g.config.Name, format, doc.PageCount())
	meta.Output = dest.Primary()
	meta.OutputFiles = dest.OutputFiles(doc.PageCount())

	sources := append([]string(nil), staged.Files...)
	targets := append([]string(nil), dest.Files...)
	if g.config.MetadataFile {
		path, err := writeMetadata(stageDir, g.config.Name, meta)
		if err != nil {
			return nil, err
		}
		sources = append(sources, path)
		targets = append(targets, g.metadataPath())
	}
	if err := publish(logger, sources, targets); err != nil {
		return nil, err
	}

	logger.Info("Graph generated",
		util.F("output", meta.Output),
		util.F("pages", meta.PageCount),
		util.F("samples", meta.SignalCount),
		util.F("duration", time.Since(startTime).String()))
	return meta, nil
}

// params applies the recording's own rate unless the caller forces one.
func (g *Grapher) params(rec *source.Recording) partition.Params {
	params := g.config.Params
	if rec.SamplingRate > 0 && !g.config.OverrideRate {
		params.SamplingRate = rec.SamplingRate
	}
	return params
}

func (g *Grapher) metadata(rec *source.Recording, params partition.Params, result *partition.Result) *model.GraphMetadata {
	meta := model.NewGraphMetadata(params.SamplingRate, constants.PlotScale,
		result.Layout.OriginalCount, result.RecordTimeSeconds)
	if rec.Channel != "" {
		meta.DisplayInformation.Set(LabelChannel, rec.Channel)
	}
	if rec.PatientID != "" {
		meta.DisplayInformation.Set(LabelPatient, rec.PatientID)
	}
	meta.DisplayInformation.Merge(g.config.Meta)
	meta.StripCount = result.Layout.TotalStrips
	meta.PageCount = result.Layout.PageCount
	return meta
}

func (g *Grapher) metadataPath() string {
	return filepath.Join(g.config.OutputDir, g.config.Name+".json")
}

func writeMetadata(dir, name string, meta *model.GraphMetadata) (string, error) {
	path := filepath.Join(dir, name+".json")
	data, err := formatter.MarshalMetadata(meta)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write metadata %s: %w", path, err)
	}
	return path, nil
}

// checkNotInput fails when writing target would replace the input file.
func checkNotInput(target, input string) error {
	targetInfo, err := os.Stat(target)
	if err != nil {
		return nil
	}
	inputInfo, err := os.Stat(input)
	if err != nil {
		return nil
	}
	if os.SameFile(targetInfo, inputInfo) {
		return fmt.Errorf("%w: %s would overwrite the input", model.ErrInvalidInput, target)
	}
	return nil
}

func (g *Grapher) withRunID(ctx context.Context) context.Context {
	if _, ok := util.RunID(ctx); ok {
		return ctx
	}
	runID := g.config.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	return util.WithRunID(ctx, runID)
}

// rasterError keeps error kinds and cancellation intact and marks
// anything else as a rendering failure.
func rasterError(err error) error {
	switch {
	case errors.Is(err, model.ErrRenderingFailure),
		errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrUnsupportedExport),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", model.ErrRenderingFailure, err)
	}
}

// publish moves the staged files of a successful run into place. If a
// move fails, the files already published by this run are removed.
func publish(logger util.LoggerInterface, sources, targets []string) error {
	for i, src := range sources {
		if err := util.MoveFile(src, targets[i]); err != nil {
			removeFiles(logger, targets[:i])
			return fmt.Errorf("failed to write %s: %w", targets[i], err)
		}
	}
	return nil
}

func removeFiles(logger util.LoggerInterface, paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove partial output", util.F("path", path), util.F("error", err))
		}
	}
}
