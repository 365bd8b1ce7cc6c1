package montage

import (
	"bytes"
	"fmt"
	"math"
)

// styleDefs returns the embedded stylesheet for the composite SVG.
func styleDefs(cfg LayoutConfig) string {
	return fmt.Sprintf(`<defs><style>
    .depth-top { fill: %s; opacity: 0.85; }
    .depth-bottom { fill: %s; opacity: 0.85; }
    .baseline { stroke: #555; stroke-width: 1px; }
    .axis-tick { stroke: #555; stroke-width: 1px; }
    .axis-label { fill: #222; text-anchor: middle; dominant-baseline: central; }
    .mean { stroke: #cc3333; stroke-width: 1.2px; stroke-dasharray: 6 4; }
    .depth-zero-bg { fill: %s; opacity: 0.8; }
    .depth-low-bg { fill: %s; opacity: 0.8; }
</style></defs>`, cfg.TopColor, cfg.BottomColor, cfg.ZeroColor, cfg.LowColor)
}

// axisTicks renders evenly spaced tick marks and 1-based position labels
// along a panel baseline. above places the labels over the axis.
func axisTicks(xLeft, xRight, y float64, labelStart, labelEnd int, above bool, cfg LayoutConfig) []string {
	n := cfg.TickCount
	if n < 2 {
		n = 2
	}
	span := xRight - xLeft

	const tickLen = 6.0
	var elems []string
	for i := 0; i <= n; i++ {
		frac := float64(i) / float64(n)
		x := xLeft + span*frac

		y1, y2 := y, y+tickLen
		if above {
			y1, y2 = y-tickLen, y
		}
		elems = append(elems, fmt.Sprintf(
			`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" class="axis-tick"/>`, x, y1, x, y2))

		val := labelStart + int(math.Round(float64(labelEnd-labelStart)*frac))
		dy := 18.0
		if above {
			dy = -10.0
		}
		elems = append(elems, fmt.Sprintf(
			`<text x="%.2f" y="%.2f" class="axis-label" font-size="%d">%d</text>`,
			x, y+dy, cfg.AxisFontSize, val))
	}
	return elems
}

// composite pairs a panel with its 1-based axis label range.
type composite struct {
	Panel      *Panel
	LabelStart int
	LabelEnd   int
}

// assemble builds the final SVG document: the top combined panel, the
// translated diagram contents, and the bottom combined panel.
func assemble(top, bottom composite, inner string, width, alignHeight, middleY float64, cfg LayoutConfig) []byte {
	gap := cfg.EffectivePanelGap()
	innerBottom := middleY + alignHeight
	blockBottom := bottom.Panel.OriginY + 2*cfg.DepthHeight
	totalHeight := innerBottom
	if blockBottom > totalHeight {
		totalHeight = blockBottom
	}
	totalHeight += gap

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg" version="1.1">`+"\n",
		int(width), int(totalHeight))
	buf.WriteString(styleDefs(cfg))
	buf.WriteByte('\n')

	writePanel := func(c composite, labelsAbove bool) {
		p := c.Panel
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
		fmt.Fprintf(&buf, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" class="baseline"/>`+"\n",
			p.XLeft, p.BaselineY, p.XRight, p.BaselineY)
		for _, e := range axisTicks(p.XLeft, p.XRight, p.BaselineY, c.LabelStart, c.LabelEnd, labelsAbove, cfg) {
			buf.WriteString(e)
			buf.WriteByte('\n')
		}
	}

	writePanel(top, true)
	fmt.Fprintf(&buf, `<g transform="translate(0,%.2f)">%s</g>`+"\n", middleY, inner)
	writePanel(bottom, false)

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}
