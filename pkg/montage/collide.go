package montage

import (
	"context"
	"os"

	"github.com/charmbracelet/log"

	"github.com/asmqc/depthmontage/pkg/diagram"
	"github.com/asmqc/depthmontage/pkg/errors"
)

// placement anchors the diagram and the two depth panels in composite
// pixel space. Row boxes carry the global downward shift already applied.
type placement struct {
	MiddleY    float64
	SVGHeight  float64
	TopRow     diagram.Rect
	BottomRow  diagram.Rect
	DepthRects [2]diagram.Rect
}

// scaleBarAbs shifts a diagram-local scale-bar box into composite space.
func (p placement) scaleBarAbs(geo *diagram.Geometry) *diagram.Rect {
	if geo.ScaleBar == nil {
		return nil
	}
	box := *geo.ScaleBar
	box.Y += p.MiddleY
	return &box
}

// hitsPanels reports whether a composite-space box overlaps either depth
// panel.
func (p placement) hitsPanels(box diagram.Rect) bool {
	return box.Overlaps(p.DepthRects[0]) || box.Overlaps(p.DepthRects[1])
}

// resolveScaleBar runs the greedy scale-bar placement search. When the
// default position collides with a depth panel, the diagram is regenerated
// at candidate vertical ratios inside the inter-row gap; when the default
// is clear but the rendered box still overlaps, a short fixed list is
// tried instead. A regeneration whose output has no scale bar is accepted
// immediately. If every candidate overlaps, the last attempt is kept.
func resolveScaleBar(ctx context.Context, gen diagram.Generator, dcfg diagram.Config, geo *diagram.Geometry, lay placement, lc LayoutConfig, logger *log.Logger) (*diagram.Geometry, error) {
	regen := func(ratio float64) (*diagram.Geometry, error) {
		dcfg.ScaleYRatio = ratio
		path, err := gen.Generate(ctx, dcfg)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "reading regenerated diagram %s", path)
		}
		return diagram.ExtractGeometry(data, lc.RowEpsilon)
	}

	tryCandidates := func(ratios []float64) (*diagram.Geometry, error) {
		last := geo
		for _, r := range ratios {
			logger.Debug("retrying scale-bar placement", "ratio", r)
			g, err := regen(r)
			if err != nil {
				return nil, err
			}
			last = g
			box := lay.scaleBarAbs(g)
			if box == nil || !lay.hitsPanels(*box) {
				return g, nil
			}
		}
		logger.Warn("scale bar still overlaps depth panels, keeping last attempt")
		return last, nil
	}

	defaultAbsY := lay.MiddleY + lay.SVGHeight*dcfg.ScaleYRatio
	if withinVertical(defaultAbsY, lay.DepthRects[0]) || withinVertical(defaultAbsY, lay.DepthRects[1]) {
		return tryCandidates(lay.gapCandidates(lc))
	}

	if box := lay.scaleBarAbs(geo); box != nil && lay.hitsPanels(*box) {
		return tryCandidates(lc.FixedRatios)
	}
	return geo, nil
}

// gapCandidates builds the ordered candidate ratios inside the gap between
// the two geometry rows. The first candidate keeps a clearance margin from
// the bottom row edge; the closing candidate is the absolute fallback.
func (p placement) gapCandidates(lc LayoutConfig) []float64 {
	gap := p.BottomRow.Y - p.TopRow.Bottom()
	if gap < 0 {
		gap = 0
	}

	var ratios []float64
	if len(lc.GapFractions) > 0 {
		safeY := p.TopRow.Bottom() + gap*lc.GapFractions[0]
		if limit := p.BottomRow.Y - lc.Clearance; limit < safeY {
			safeY = limit
		}
		ratios = append(ratios, clamp01(safeY/p.SVGHeight))
		for _, f := range lc.GapFractions[1:] {
			ratios = append(ratios, clamp01((p.TopRow.Bottom()+gap*f)/p.SVGHeight))
		}
	}
	return append(ratios, lc.FallbackRatio)
}

func withinVertical(y float64, r diagram.Rect) bool {
	return r.Y <= y && y <= r.Bottom()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
