package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/ironsheep/repixelator/internal/config"
	"github.com/ironsheep/repixelator/internal/convert"
	"github.com/ironsheep/repixelator/internal/grid"
	"github.com/ironsheep/repixelator/internal/inspect"
	"github.com/ironsheep/repixelator/internal/media"
	"github.com/ironsheep/repixelator/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const desc = `Recovers the native resolution of upscaled pixel art by estimating its block grid and averaging every block to one pixel.`

// analysisFlags default to the values from the config file.
type analysisFlags struct {
	PreZoom       int     `default:"${pre_zoom}" help:"Bilinear upscale factor applied before edge detection."`
	NoiseSigma    float64 `default:"${noise_sigma}" help:"Gaussian blur sigma for noisy or JPEG sources (0 disables)."`
	EdgeThreshold float64 `default:"${edge_threshold}" help:"Grid offset in pixels that adds a partial block at the edge (0 disables)."`
}

func (f analysisFlags) apply(cfg *config.Config) {
	cfg.Analysis.PreZoom = f.PreZoom
	cfg.Analysis.NoiseSigma = f.NoiseSigma
	cfg.Analysis.EdgeThreshold = f.EdgeThreshold
}

type runContext struct {
	ctx context.Context
	cfg *config.Config
}

// params validates cfg and returns the analysis parameters, wired to the
// standard logger when debug logging is on.
func (rc *runContext) params() (grid.Params, error) {
	if err := rc.cfg.Validate(); err != nil {
		return grid.Params{}, err
	}
	p := rc.cfg.Params()
	if rc.cfg.Debug() {
		p.Logf = log.Printf
	}
	return p, nil
}

type convertCmd struct {
	Input    string        `arg:"" type:"existingfile" help:"Still image or animated GIF to convert."`
	Output   string        `arg:"" help:"Output file. Animations write OUTPUT_frame0001.ext and so on."`
	Analysis analysisFlags `embed:""`
	Workers  int           `default:"${workers}" help:"Animation frames resized concurrently."`
	Report   bool          `help:"Print the conversion report as JSON."`
}

func (c *convertCmd) Run(rc *runContext) error {
	c.Analysis.apply(rc.cfg)
	rc.cfg.Workers = c.Workers
	p, err := rc.params()
	if err != nil {
		return err
	}

	opts := []convert.Option{convert.WithWorkers(c.Workers)}
	if c.Report {
		opts = append(opts, convert.WithFidelity())
	}
	rep, err := convert.Convert(rc.ctx, c.Input, c.Output, p, opts...)
	if rep != nil && c.Report {
		if perr := printJSON(rep); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}
	log.Printf("Converted %s: %dx%d blocks, %d file(s) written", c.Input, rep.Estimate.CountX, rep.Estimate.CountY, len(rep.Outputs))
	return nil
}

type batchCmd struct {
	Files    []string      `arg:"" type:"existingfile" help:"Images to convert."`
	Analysis analysisFlags `embed:""`
	Pattern  string        `default:"${pattern}" help:"Output file name; %s is replaced by the input name."`
	OutDir   string        `default:"${out_dir}" help:"Output directory (default: next to each input)."`
	Workers  int           `default:"${workers}" help:"Animation frames resized concurrently."`
}

func (c *batchCmd) Run(rc *runContext) error {
	c.Analysis.apply(rc.cfg)
	rc.cfg.Output.Pattern = c.Pattern
	rc.cfg.Output.Dir = c.OutDir
	rc.cfg.Workers = c.Workers
	p, err := rc.params()
	if err != nil {
		return err
	}

	outputFor := func(in string) string {
		return convert.OutputName(c.Pattern, in, c.OutDir)
	}
	br := convert.Batch(rc.ctx, c.Files, outputFor, p, convert.WithWorkers(c.Workers))
	for _, rep := range br.Converted {
		log.Printf("Converted %s -> %s", rep.Input, describeOutputs(rep.Outputs))
	}
	if len(br.Failed) == 0 {
		return nil
	}

	fmt.Fprintf(os.Stderr, "Failed to convert %d of %d files:\n", len(br.Failed), len(c.Files))
	for _, f := range br.Failed {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", f.Input, f.Err)
	}
	return fmt.Errorf("%d file(s) failed", len(br.Failed))
}

// describeOutputs names the single output of a still, or the frame count
// and first frame of an animation.
func describeOutputs(outputs []string) string {
	switch len(outputs) {
	case 0:
		return "nothing"
	case 1:
		return outputs[0]
	default:
		return fmt.Sprintf("%d frames (%s ...)", len(outputs), outputs[0])
	}
}

type estimateCmd struct {
	Input     string        `arg:"" type:"existingfile" help:"Image to analyse."`
	Analysis  analysisFlags `embed:""`
	Overlay   string        `help:"Also write the source with the estimated grid drawn over it to this file."`
	LineColor string        `default:"#FF0000A0" help:"Overlay line color as #RRGGBB or #RRGGBBAA."`
}

func (c *estimateCmd) Run(rc *runContext) error {
	c.Analysis.apply(rc.cfg)
	p, err := rc.params()
	if err != nil {
		return err
	}
	img, err := media.Load(c.Input)
	if err != nil {
		return err
	}
	est, err := grid.Analyze(img, p)
	if err != nil {
		return err
	}
	if c.Overlay != "" {
		line, err := inspect.ParseHexColor(c.LineColor)
		if err != nil {
			return err
		}
		if err := media.Save(c.Overlay, inspect.GridOverlay(img, est, line)); err != nil {
			return err
		}
	}
	return printJSON(est)
}

type serveCmd struct{}

func (c *serveCmd) Run(rc *runContext) error {
	if err := rc.cfg.Validate(); err != nil {
		return err
	}
	if rc.cfg.Debug() {
		log.Printf("repixelator MCP server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}
	server.Version = Version
	return server.New(rc.cfg).Run()
}

type versionCmd struct{}

func (c *versionCmd) Run() error {
	fmt.Printf("repixelator %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	return nil
}

var cli struct {
	Convert  convertCmd  `cmd:"" help:"Convert one image or animation."`
	Batch    batchCmd    `cmd:"" help:"Convert many images, continuing past failures."`
	Estimate estimateCmd `cmd:"" help:"Print the estimated grid as JSON without writing anything."`
	Serve    serveCmd    `cmd:"" help:"Run the MCP server on stdin/stdout."`
	Version  versionCmd  `cmd:"" help:"Print version information."`
}

// configError reports a failed config load for every command but version.
func configError(command string, err error) error {
	if err == nil || command == "version" {
		return nil
	}
	return fmt.Errorf("config error: %w", err)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	// Configure logging to stderr (stdout carries JSON output and the MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime)

	// Config errors do not block the version command.
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}
	if cfg.Debug() {
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	}

	kctx := kong.Parse(&cli,
		kong.Name("repixelator"),
		kong.Description(desc),
		kong.UsageOnError(),
		kong.Vars{
			"pre_zoom":       fmt.Sprint(cfg.Analysis.PreZoom),
			"noise_sigma":    fmt.Sprint(cfg.Analysis.NoiseSigma),
			"edge_threshold": fmt.Sprint(cfg.Analysis.EdgeThreshold),
			"workers":        fmt.Sprint(cfg.Workers),
			"pattern":        cfg.Output.Pattern,
			"out_dir":        cfg.Output.Dir,
		},
	)

	kctx.FatalIfErrorf(configError(kctx.Command(), cfgErr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := kctx.Run(&runContext{ctx: ctx, cfg: cfg})
	kctx.FatalIfErrorf(err)
}
