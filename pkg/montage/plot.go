package montage

import (
	"bytes"
	"fmt"

	"github.com/asmqc/depthmontage/pkg/depth"
	"github.com/asmqc/depthmontage/pkg/errors"
	"github.com/asmqc/depthmontage/pkg/window"
)

// plotMargin is the horizontal padding of a standalone panel.
const plotMargin = 60.0

// traceMergeTol is the mean difference below which consecutive
// moving-average windows collapse into one trace segment.
const traceMergeTol = 0.1

// RenderPlot draws one sequence's combined depth panel as a standalone
// SVG, without an alignment diagram. When only one technology is present
// its moving-average trace is overlaid on the upper half.
func RenderPlot(sq depth.SeqDepths, cfg LayoutConfig, width float64) ([]byte, error) {
	if sq.Empty() {
		return nil, errors.New(errors.ErrCodeNoData, "no depth data for %s", sq.ID)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	xLeft, xRight := plotMargin, width-plotMargin
	originY := cfg.TopMargin
	p, err := buildPanel(sq.ID, sq.A, sq.B, xLeft, xRight, originY, cfg)
	if err != nil {
		return nil, err
	}

	totalHeight := originY + 2*cfg.DepthHeight + cfg.EffectivePanelGap() + 24

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg" version="1.1">`+"\n",
		int(width), int(totalHeight))
	buf.WriteString(styleDefs(cfg))
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, `<text x="%.2f" y="%.2f" class="axis-label" font-size="%d">%s</text>`+"\n",
		width/2, originY-16, cfg.AxisFontSize+4, sq.ID)

	for _, e := range p.Background {
		buf.WriteString(e)
		buf.WriteByte('\n')
	}
	for _, e := range p.TopBars {
		buf.WriteString(e)
		buf.WriteByte('\n')
	}
	for _, e := range p.BottomBars {
		buf.WriteString(e)
		buf.WriteByte('\n')
	}

	if trace := smoothedTrace(sq, p, cfg); trace != "" {
		buf.WriteString(trace)
		buf.WriteByte('\n')
	}

	fmt.Fprintf(&buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" class="baseline"/>`+"\n",
		p.XLeft, p.BaselineY, p.XRight, p.BaselineY)
	for _, e := range axisTicks(p.XLeft, p.XRight, p.BaselineY, 1, p.SeqLen, false, cfg) {
		buf.WriteString(e)
		buf.WriteByte('\n')
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// smoothedTrace renders the moving-average polyline for a single-source
// sequence. Two-source panels already carry per-half mean lines.
func smoothedTrace(sq depth.SeqDepths, p *Panel, cfg LayoutConfig) string {
	var depths []int32
	up := true
	switch {
	case len(sq.A) > 0 && len(sq.B) == 0:
		depths = sq.A
	case len(sq.B) > 0 && len(sq.A) == 0:
		depths = sq.B
		up = false
	default:
		return ""
	}

	positions, means := window.Moving(depths, cfg.WindowSize)
	if len(positions) == 0 {
		return ""
	}
	// Runs of near-identical windows collapse to one flat segment,
	// keeping the polyline small on long uniform stretches.
	intervals, merged := window.MergeSimilar(positions, means, traceMergeTol)
	ceil := nonzeroMeanCap(depths, cfg.MaxDepthRatio)
	if ceil <= 0 {
		ceil = 1.0
	}

	var pts bytes.Buffer
	for i, iv := range intervals {
		m := merged[i]
		if m > ceil {
			m = ceil
		}
		off := p.HalfHeight * (m / ceil)
		y := p.BaselineY + off
		if up {
			y = p.BaselineY - off
		}
		if pts.Len() > 0 {
			pts.WriteByte(' ')
		}
		fmt.Fprintf(&pts, "%.2f,%.2f", xAt(iv.Start, p.SeqLen, p.XLeft, p.XRight), y)
		if iv.End != iv.Start {
			fmt.Fprintf(&pts, " %.2f,%.2f", xAt(iv.End, p.SeqLen, p.XLeft, p.XRight), y)
		}
	}
	return fmt.Sprintf(`<polyline points="%s" fill="none" class="mean"/>`, pts.String())
}
