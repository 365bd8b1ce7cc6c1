package montage

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/asmqc/depthmontage/pkg/diagram"
	"github.com/asmqc/depthmontage/pkg/errors"
	"github.com/asmqc/depthmontage/pkg/window"
)

// Panel is the derived geometry of one combined depth panel: two dataset
// halves mirrored around a shared baseline, with background highlights for
// zero and low coverage. Elements are prebuilt SVG fragments; backgrounds
// must be emitted before bars.
type Panel struct {
	XLeft, XRight float64
	OriginY       float64
	BaselineY     float64
	HalfHeight    float64

	Background []string
	TopBars    []string
	BottomBars []string

	SeqLen int
}

// Rect is the panel's full bounding box, both halves included.
func (p *Panel) Rect() diagram.Rect {
	return diagram.Rect{X: p.XLeft, Y: p.OriginY, Width: p.XRight - p.XLeft, Height: 2 * p.HalfHeight}
}

// Empty reports whether the panel has nothing to draw.
func (p *Panel) Empty() bool { return p.SeqLen == 0 }

// xAt maps base index i of a sequence of length seqLen onto [xLeft,
// xRight] by linear interpolation. Index 0 lands on xLeft and index
// seqLen-1 on xRight exactly.
func xAt(i, seqLen int, xLeft, xRight float64) float64 {
	den := seqLen - 1
	if den < 1 {
		den = 1
	}
	return xLeft + float64(i)/float64(den)*(xRight-xLeft)
}

// sharedCap derives the common pixel-scaling cap for two datasets rendered
// in one panel: the larger of the two nonzero-mean x ratio products, with a
// floor of 1 so an all-zero panel still has a valid divisor.
func sharedCap(capA, capB float64) float64 {
	c := capA
	if capB > c {
		c = capB
	}
	if c <= 0 {
		c = 1.0
	}
	return c
}

// nonzeroMeanCap returns nonzero-mean x ratio for one dataset, zero when
// the dataset has no positive values.
func nonzeroMeanCap(depths []int32, ratio float64) float64 {
	var nz []float64
	for _, v := range depths {
		if v > 0 {
			nz = append(nz, float64(v))
		}
	}
	if len(nz) == 0 {
		return 0
	}
	return stat.Mean(nz, nil) * ratio
}

// buildPanel renders one combined panel for a sequence. The first dataset
// fills the upper half, the second the lower half. Both datasets present
// with differing lengths is a data inconsistency and fails before any
// geometry is produced.
func buildPanel(id string, a, b []int32, xLeft, xRight, originY float64, cfg LayoutConfig) (*Panel, error) {
	if len(a) > 0 && len(b) > 0 && len(a) != len(b) {
		return nil, errors.New(errors.ErrCodeShapeMismatch,
			"depth arrays for %s differ in length: %d vs %d", id, len(a), len(b))
	}

	seqLen := len(a)
	if len(b) > seqLen {
		seqLen = len(b)
	}

	p := &Panel{
		XLeft:      xLeft,
		XRight:     xRight,
		OriginY:    originY,
		BaselineY:  originY + cfg.DepthHeight,
		HalfHeight: cfg.DepthHeight,
		SeqLen:     seqLen,
	}
	if seqLen == 0 {
		return p, nil
	}

	capA := nonzeroMeanCap(a, cfg.MaxDepthRatio)
	capB := nonzeroMeanCap(b, cfg.MaxDepthRatio)
	shared := sharedCap(capA, capB)

	p.TopBars = p.halfBars(a, capA, shared, cfg, true)
	p.BottomBars = p.halfBars(b, capB, shared, cfg, false)
	return p, nil
}

// halfBars renders one dataset half: zero/low background rects, window
// bars, and the dashed mean line. up selects the half above the baseline.
func (p *Panel) halfBars(depths []int32, ownCap, shared float64, cfg LayoutConfig, up bool) []string {
	if len(depths) == 0 {
		return nil
	}
	if ownCap <= 0 {
		ownCap = shared
	}

	span := p.XRight - p.XLeft
	den := p.SeqLen - 1
	if den < 1 {
		den = 1
	}

	bgY := p.BaselineY
	if up {
		bgY = p.BaselineY - p.HalfHeight
	}
	regions := window.Classify(depths, cfg.MinSafeDepth)
	for _, rg := range []struct {
		class     string
		intervals []window.Interval
	}{
		{"depth-zero-bg", regions.Zero},
		{"depth-low-bg", regions.Low},
	} {
		for _, iv := range rg.intervals {
			x1 := xAt(iv.Start, p.SeqLen, p.XLeft, p.XRight)
			x2 := xAt(iv.End, p.SeqLen, p.XLeft, p.XRight)
			if x2-x1 <= 0 {
				continue
			}
			p.Background = append(p.Background, fmt.Sprintf(
				`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" class="%s"/>`,
				x1, bgY, x2-x1, p.HalfHeight, rg.class))
		}
	}

	class := "depth-bottom"
	if up {
		class = "depth-top"
	}
	var elems []string
	wins := window.Stats(depths, cfg.WindowSize)
	for i, m := range wins.Means {
		s, e := wins.Starts[i], wins.Ends[i]
		center := float64(s+e) / 2.0
		xCenter := p.XLeft + center/float64(den)*span
		wPx := span * float64(e-s+1) / float64(den)

		mc := m
		if mc > ownCap {
			mc = ownCap
		}
		hPx := p.HalfHeight * (mc / shared)
		yRect := p.BaselineY
		if up {
			yRect = p.BaselineY - hPx
		}
		elems = append(elems, fmt.Sprintf(
			`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" class="%s"/>`,
			xCenter-wPx/2.0, yRect, wPx, hPx, class))
	}

	if len(wins.Means) > 0 {
		avg := stat.Mean(wins.Means, nil)
		if avg > 0 {
			if avg > ownCap {
				avg = ownCap
			}
			off := p.HalfHeight * (avg / shared)
			yMean := p.BaselineY + off
			if up {
				yMean = p.BaselineY - off
			}
			elems = append(elems, fmt.Sprintf(
				`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" class="mean"/>`,
				p.XLeft, yMean, p.XRight, yMean))
		}
	}
	return elems
}
