package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/fatih/set.v0"

	"github.com/asmqc/depthmontage/pkg/depth"
	"github.com/asmqc/depthmontage/pkg/errors"
	"github.com/asmqc/depthmontage/pkg/montage"
	"github.com/asmqc/depthmontage/pkg/window"
)

// plotCommand creates the plot command for standalone per-sequence panels.
func (c *CLI) plotCommand() *cobra.Command {
	var (
		faiPath    string
		hifiPath   string
		nanoPath   string
		bedPath    string
		regionSpec string
		outDir     string
		configPath string
		width      float64

		windowSize    int
		maxDepthRatio float64
		minSafeDepth  int
		depthHeight   float64
	)

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render standalone depth panels, one SVG per sequence",
		Long: `Render standalone combined depth panels without an alignment diagram.

Each sequence found in the depth sources (or restricted by --fai or
--region) is rendered to its own SVG in the output directory. With
--regions, every BED interval becomes its own SVG with the depth arrays
sliced to the interval. Failures are counted per artifact and reported at
the end instead of aborting the batch.`,
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

			return c.runPlot(cmd.Context(), plotParams{
				fai:     faiPath,
				hifi:    hifiPath,
				nano:    nanoPath,
				bed:     bedPath,
				region:  regionSpec,
				outDir:  outDir,
				width:   width,
				layout:  layout,
			})
		},
	}

	cmd.Flags().StringVar(&faiPath, "fai", "", "assembly FASTA index (.fai) restricting the sequence set")
	cmd.Flags().StringVar(&hifiPath, "hifi", "", "HiFi per-base depth file (plain or gzip)")
	cmd.Flags().StringVar(&nanoPath, "nano", "", "ONT per-base depth file (plain or gzip)")
	cmd.Flags().StringVar(&bedPath, "regions", "", "BED file restricting which sequences are rendered")
	cmd.Flags().StringVar(&regionSpec, "region", "", "single region literal chrom:start-end")
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "output directory")
	cmd.Flags().StringVar(&configPath, "config", "", "layout config file (TOML)")
	cmd.Flags().Float64Var(&width, "width", 1200, "plot width in pixels")

	cmd.Flags().IntVarP(&windowSize, "window-size", "w", 1000, "depth aggregation window in bases")
	cmd.Flags().Float64Var(&maxDepthRatio, "max-depth-ratio", 3.0, "cap window means at ratio x nonzero mean")
	cmd.Flags().IntVar(&minSafeDepth, "min-safe-depth", 5, "minimum depth considered safe")
	cmd.Flags().Float64Var(&depthHeight, "depth-height", 160, "pixel height of one panel half")

	return cmd
}

type plotParams struct {
	fai    string
	hifi   string
	nano   string
	bed    string
	region string
	outDir string
	width  float64
	layout montage.LayoutConfig
}

// runPlot renders one panel per yielded sequence and region, tallying
// failures instead of aborting the batch.
func (c *CLI) runPlot(ctx context.Context, p plotParams) error {
	logger := loggerFromContext(ctx)
	targets := set.New(set.NonThreadSafe)
	var regionClip *window.Interval

	if p.region != "" {
		id, iv, err := depth.ParseRegionLiteral(p.region)
		if err != nil {
			return err
		}
		targets.Add(id)
		regionClip = &iv
	} else if p.fai != "" {
		lengths, err := depth.ParseFAI(p.fai)
		if err != nil {
			return err
		}
		for _, sl := range lengths {
			targets.Add(sl.ID)
		}
	}

	var regions map[string][]window.Interval
	if p.bed != "" {
		var err error
		regions, err = depth.ParseBED(p.bed, logger)
		if err != nil {
			return err
		}
	}

	reader := &depth.SynchronizedReader{
		PathA:   p.hifi,
		PathB:   p.nano,
		Targets: targets,
		Regions: regions,
		Logger:  logger,
	}

	prog := newProgress(logger)
	seqs, err := reader.Read(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		return err
	}
	if p.outDir != "." {
		printInfo("writing plots to %s", p.outDir)
	}

	var rendered, failed, skipped int
	for _, sq := range seqs {
		if sq.Empty() {
			skipped++
			continue
		}
		logDepthRegions(logger, sq, p.layout.MinSafeDepth)

		for _, job := range plotJobs(sq, regions[sq.ID], regionClip) {
			if job.seq.Empty() {
				logger.Warn("region outside sequence", "sequence", sq.ID, "file", job.name)
				skipped++
				continue
			}
			svg, err := montage.RenderPlot(job.seq, p.layout, p.width)
			if err != nil {
				logger.Error("rendering failed", "sequence", sq.ID, "err", err)
				failed++
				continue
			}
			out := filepath.Join(p.outDir, job.name)
			if err := os.WriteFile(out, svg, 0o644); err != nil {
				logger.Error("writing failed", "sequence", sq.ID, "err", err)
				failed++
				continue
			}
			printFile(out)
			rendered++
		}
	}

	prog.done("Plots rendered")
	printTally(rendered, failed, skipped)
	if failed > 0 && rendered == 0 {
		return errors.New(errors.ErrCodeNoData, "all %d plots failed to render", failed)
	}
	return nil
}

// plotJob is one artifact of the plot batch: a (possibly region-sliced)
// sequence and its output file name.
type plotJob struct {
	seq  depth.SeqDepths
	name string
}

// plotJobs expands a sequence into its render jobs: one per BED region when
// regions are given (1-based coordinates in the file name, so several
// regions of one sequence never collide), otherwise a single job over the
// whole sequence or the --region literal.
func plotJobs(sq depth.SeqDepths, regions []window.Interval, clip *window.Interval) []plotJob {
	if len(regions) == 0 {
		if clip != nil {
			sq.A, sq.B = clipRegion(sq.A, sq.B, *clip)
		}
		return []plotJob{{seq: sq, name: sq.ID + ".svg"}}
	}
	jobs := make([]plotJob, 0, len(regions))
	for _, iv := range regions {
		region := sq
		region.A, region.B = clipRegion(sq.A, sq.B, iv)
		name := fmt.Sprintf("%s_%d_%d.svg", sq.ID, iv.Start+1, iv.End+1)
		jobs = append(jobs, plotJob{seq: region, name: name})
	}
	return jobs
}

// logDepthRegions reports the zero and low-depth region counts over the
// combined depth of both technologies.
func logDepthRegions(logger *log.Logger, sq depth.SeqDepths, minSafe int) {
	combined := window.Combine(sq.A, sq.B)
	reg := window.Classify(combined, minSafe)
	logger.Info("depth regions", "sequence", sq.ID, "zero", len(reg.Zero), "low", len(reg.Low))
}

// clipRegion bounds both arrays to a closed interval, clamped to whichever
// arrays are present.
func clipRegion(a, b []int32, iv window.Interval) ([]int32, []int32) {
	clip := func(d []int32) []int32 {
		if len(d) == 0 {
			return d
		}
		s, e := iv.Start, iv.End
		if s < 0 {
			s = 0
		}
		if e > len(d)-1 {
			e = len(d) - 1
		}
		if e < s {
			return nil
		}
		return d[s : e+1]
	}
	return clip(a), clip(b)
}
