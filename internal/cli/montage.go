package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asmqc/depthmontage/pkg/diagram"
	"github.com/asmqc/depthmontage/pkg/montage"
)

// montageCommand creates the montage command for the composite render.
func (c *CLI) montageCommand() *cobra.Command {
	var (
		opts       montage.Options
		configPath string
		generator  string
		noCache    bool

		windowSize    int
		maxDepthRatio float64
		minSafeDepth  int
		depthHeight   float64
		panelGap      float64
		topMargin     float64

		svgWidth      int
		svgHeight     int
		scaleYRatio   float64
		labelAngle    float64
		chroThickness int
		noLabel       bool
		noScale       bool
		chroAxis      bool
		style         string
	)

	cmd := &cobra.Command{
		Use:   "montage [alignments]",
		Short: "Composite depth panels around an alignment diagram",
		Long: `Composite per-base depth panels around a pairwise alignment diagram.

The montage command invokes the external alignment-diagram generator on the
given alignment records, extracts the pixel geometry of its chromosome
tracks, and anchors two combined HiFi/ONT depth panels above the first track
row and below the last. When the diagram's scale bar would collide with a
depth panel, the diagram is regenerated at candidate positions inside the
inter-row gap until a clear placement is found.

Exactly one artifact is produced: an SVG, or a PDF when --format pdf is
given and a converter (rsvg-convert or inkscape) is available.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := montage.LoadLayoutConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("window-size") {
				layout.WindowSize = windowSize
			}
			if cmd.Flags().Changed("max-depth-ratio") {
				layout.MaxDepthRatio = maxDepthRatio
			}
			if cmd.Flags().Changed("min-safe-depth") {
				layout.MinSafeDepth = minSafeDepth
			}
			if cmd.Flags().Changed("depth-height") {
				layout.DepthHeight = depthHeight
			}
			if cmd.Flags().Changed("panel-gap") {
				layout.PanelGap = panelGap
			}
			if cmd.Flags().Changed("top-margin") {
				layout.TopMargin = topMargin
			}

			dcfg := diagram.DefaultConfig()
			dcfg.Input = args[0]
			dcfg.SVGWidth = svgWidth
			dcfg.SVGHeight = svgHeight
			dcfg.ScaleYRatio = scaleYRatio
			dcfg.LabelAngle = labelAngle
			dcfg.ChroThickness = chroThickness
			dcfg.NoLabel = noLabel
			dcfg.NoScale = noScale
			dcfg.ChroAxis = chroAxis
			dcfg.Style = style

			return c.runMontage(cmd.Context(), dcfg, opts, layout, strings.Fields(generator), noCache)
		},
	}

	cmd.Flags().StringVar(&opts.FAI, "fai", "", "assembly FASTA index (.fai), used to enumerate sequences (required)")
	cmd.Flags().StringVar(&opts.Hifi, "hifi", "", "HiFi per-base depth file (plain or gzip)")
	cmd.Flags().StringVar(&opts.Nano, "nano", "", "ONT per-base depth file (plain or gzip)")
	cmd.Flags().StringVar(&opts.HifiA, "hifi-a", "", "HiFi depth file for the top row (overrides --hifi)")
	cmd.Flags().StringVar(&opts.NanoA, "nano-a", "", "ONT depth file for the top row (overrides --nano)")
	cmd.Flags().StringVar(&opts.HifiB, "hifi-b", "", "HiFi depth file for the bottom row (overrides --hifi)")
	cmd.Flags().StringVar(&opts.NanoB, "nano-b", "", "ONT depth file for the bottom row (overrides --nano)")
	cmd.Flags().StringVarP(&opts.Karyotype, "karyotype", "k", "", "karyotype file selecting the two row sequences, tokens name[:start:end]")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "montage", "output path prefix")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "svg", "output format: svg (default), pdf")
	cmd.Flags().BoolVar(&opts.KeepTmp, "keep-tmp", false, "keep the intermediate diagram SVG")

	cmd.Flags().StringVar(&configPath, "config", "", "layout config file (TOML)")
	cmd.Flags().StringVar(&generator, "generator", "linkview", "diagram generator command")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the diagram artifact cache")

	cmd.Flags().IntVarP(&windowSize, "window-size", "w", 1000, "depth aggregation window in bases")
	cmd.Flags().Float64Var(&maxDepthRatio, "max-depth-ratio", 3.0, "cap window means at ratio x nonzero mean")
	cmd.Flags().IntVar(&minSafeDepth, "min-safe-depth", 5, "minimum depth considered safe")
	cmd.Flags().Float64Var(&depthHeight, "depth-height", 160, "pixel height of one panel half")
	cmd.Flags().Float64Var(&panelGap, "panel-gap", 0, "gap between panel and track row (default 10% of height)")
	cmd.Flags().Float64Var(&topMargin, "top-margin", 40, "padding above the whole composition")

	cmd.Flags().IntVar(&svgWidth, "svg-width", 1200, "diagram canvas width")
	cmd.Flags().IntVar(&svgHeight, "svg-height", 800, "diagram canvas height")
	cmd.Flags().Float64Var(&scaleYRatio, "scale-y-ratio", 0.9, "scale-bar vertical position as a fraction of diagram height")
	cmd.Flags().Float64Var(&labelAngle, "label-angle", 0, "track label angle in degrees")
	cmd.Flags().IntVar(&chroThickness, "chro-thickness", 15, "chromosome track thickness")
	cmd.Flags().BoolVar(&noLabel, "no-label", false, "hide track labels")
	cmd.Flags().BoolVar(&noScale, "no-scale", false, "render the diagram without a scale bar")
	cmd.Flags().BoolVar(&chroAxis, "chro-axis", false, "draw the diagram's own coordinate axis")
	cmd.Flags().StringVar(&style, "style", "classic", "diagram style")

	_ = cmd.MarkFlagRequired("fai")

	return cmd
}

// runMontage wires up the renderer and reports the produced artifact.
func (c *CLI) runMontage(ctx context.Context, dcfg diagram.Config, opts montage.Options, layout montage.LayoutConfig, generator []string, noCache bool) error {
	logger := loggerFromContext(ctx)
	r := &montage.Renderer{
		Generator: newGenerator(logger, generator, noCache),
		Layout:    layout,
		Logger:    logger,
	}

	spinner := newSpinnerWithContext(ctx, "Rendering montage...")
	spinner.Start()

	out, err := r.Render(ctx, dcfg, opts)
	if err != nil {
		spinner.StopWithError("Montage failed")
		return err
	}
	spinner.StopWithSuccess("Montage rendered")
	if opts.Format == "pdf" && strings.HasSuffix(out, ".svg") {
		printWarning("PDF conversion unavailable, wrote SVG instead")
	}
	printFile(out)
	return nil
}
