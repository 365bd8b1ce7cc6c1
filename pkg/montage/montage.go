package montage

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gopkg.in/fatih/set.v0"

	"github.com/asmqc/depthmontage/pkg/depth"
	"github.com/asmqc/depthmontage/pkg/diagram"
	"github.com/asmqc/depthmontage/pkg/errors"
)

// Options names the inputs of one montage render.
type Options struct {
	FAI  string
	Hifi string
	Nano string

	// Per-row overrides; empty falls back to the shared source.
	HifiA, NanoA string
	HifiB, NanoB string

	Karyotype string

	// Output is the artifact path prefix.
	Output string
	// Format is "svg" or "pdf".
	Format string
	// KeepTmp retains the intermediate diagram artifact.
	KeepTmp bool
}

// Renderer composites two depth panels around the alignment diagram.
type Renderer struct {
	Generator diagram.Generator
	Layout    LayoutConfig
	Logger    *log.Logger
}

// Render produces the composite artifact and returns its path. The
// intermediate diagram is regenerated as needed by the scale-bar search
// and deleted afterwards unless KeepTmp is set.
func (r *Renderer) Render(ctx context.Context, dcfg diagram.Config, opts Options) (string, error) {
	if r.Logger == nil {
		r.Logger = log.New(io.Discard)
	}
	if err := r.Layout.Validate(); err != nil {
		return "", err
	}

	tmpPrefix := fmt.Sprintf("%s.__diagram_%s", opts.Output, uuid.NewString()[:8])
	dcfg.Output = tmpPrefix
	dcfg.Karyotype = opts.Karyotype
	if dcfg.LabelAngle != 0 {
		// The diagram generator interprets angles clockwise.
		dcfg.LabelAngle = 360 - dcfg.LabelAngle
	}
	if !opts.KeepTmp {
		defer os.Remove(tmpPrefix + ".svg")
	}

	path, err := r.Generator.Generate(ctx, dcfg)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "reading diagram %s", path)
	}
	geo, err := diagram.ExtractGeometry(data, r.Layout.RowEpsilon)
	if err != nil {
		return "", err
	}
	r.Logger.Debug("diagram geometry extracted", "rows", len(geo.Rows), "scale_bar", geo.ScaleBar != nil)

	lay, topRow, bottomRow := r.place(geo, float64(dcfg.SVGHeight))

	geo, err = resolveScaleBar(ctx, r.Generator, dcfg, geo, lay, r.Layout, r.Logger)
	if err != nil {
		return "", err
	}

	sel, err := selectTargets(opts.Karyotype, opts.FAI, r.Logger)
	if err != nil {
		return "", err
	}
	r.Logger.Info("rendering montage", "top", sel.Chr1, "bottom", sel.Chr2)

	a1, b1, err := r.readOne(ctx, sel, sel.Chr1, coalesce(opts.HifiA, opts.Hifi), coalesce(opts.NanoA, opts.Nano))
	if err != nil {
		return "", err
	}
	a2, b2, err := r.readOne(ctx, sel, sel.Chr2, coalesce(opts.HifiB, opts.Hifi), coalesce(opts.NanoB, opts.Nano))
	if err != nil {
		return "", err
	}

	p1, err := buildPanel(sel.Chr1, a1, b1, topRow.X, topRow.Right(), lay.DepthRects[0].Y, r.Layout)
	if err != nil {
		return "", err
	}
	p2, err := buildPanel(sel.Chr2, a2, b2, bottomRow.X, bottomRow.Right(), lay.DepthRects[1].Y, r.Layout)
	if err != nil {
		return "", err
	}

	top := composite{Panel: p1}
	top.LabelStart, top.LabelEnd = axisRange(sel, sel.Chr1, p1.SeqLen)
	bottom := composite{Panel: p2}
	bottom.LabelStart, bottom.LabelEnd = axisRange(sel, sel.Chr2, p2.SeqLen)

	svg := assemble(top, bottom, geo.Inner, geo.Width, geo.Height, lay.MiddleY, r.Layout)

	outSVG := opts.Output + ".svg"
	if err := os.WriteFile(outSVG, svg, 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "writing %s", outSVG)
	}

	if opts.Format == "pdf" {
		outPDF := opts.Output + ".pdf"
		if err := ToPDF(ctx, outSVG, outPDF, r.Logger); err != nil {
			r.Logger.Warn("PDF conversion failed, keeping SVG output", "err", err)
			return outSVG, nil
		}
		os.Remove(outSVG)
		return outPDF, nil
	}
	return outSVG, nil
}

// place derives the panel anchors from the extracted rows: one combined
// panel sits a gap above the first row, the other a gap below the last.
// A negative top anchor shifts the whole composition down, and the fixed
// top margin is applied on top of that.
func (r *Renderer) place(geo *diagram.Geometry, svgHeight float64) (placement, diagram.Rect, diagram.Rect) {
	topRow := geo.Rows[0]
	bottomRow := geo.Rows[len(geo.Rows)-1]

	h := r.Layout.DepthHeight
	gap := r.Layout.EffectivePanelGap()

	blockYTop := topRow.Y - gap - 2*h
	blockYBottom := bottomRow.Bottom() + gap

	var offset float64
	if blockYTop < 0 {
		offset = -blockYTop
	}
	offset += r.Layout.TopMargin

	blockYTop += offset
	blockYBottom += offset
	topRow.Y += offset
	bottomRow.Y += offset

	lay := placement{
		MiddleY:   offset,
		SVGHeight: svgHeight,
		TopRow:    topRow,
		BottomRow: bottomRow,
		DepthRects: [2]diagram.Rect{
			{X: topRow.X, Y: blockYTop, Width: topRow.Width, Height: 2 * h},
			{X: bottomRow.X, Y: blockYBottom, Width: bottomRow.Width, Height: 2 * h},
		},
	}
	return lay, topRow, bottomRow
}

// readOne loads both technologies for one sequence and applies its
// karyotype range when present.
func (r *Renderer) readOne(ctx context.Context, sel targetSelection, id, hifiPath, nanoPath string) ([]int32, []int32, error) {
	if id == "" {
		return nil, nil, nil
	}
	targets := set.New(set.NonThreadSafe)
	targets.Add(id)

	reader := &depth.SynchronizedReader{
		PathA:   hifiPath,
		PathB:   nanoPath,
		Targets: targets,
		Logger:  r.Logger,
	}
	seqs, err := reader.Read(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, sq := range seqs {
		if sq.ID != id {
			continue
		}
		a, b := sq.A, sq.B
		if iv, ok := sel.Ranges[id]; ok {
			a, b = sliceToRange(a, b, iv)
		}
		return a, b, nil
	}
	return nil, nil, nil
}

// axisRange yields the 1-based label endpoints for a panel: the karyotype
// range when given, otherwise the whole sequence.
func axisRange(sel targetSelection, id string, seqLen int) (int, int) {
	if iv, ok := sel.Ranges[id]; ok {
		return iv.Start + 1, iv.End + 1
	}
	if seqLen < 1 {
		return 1, 1
	}
	return 1, seqLen
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
