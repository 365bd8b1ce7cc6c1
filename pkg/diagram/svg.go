package diagram

import (
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/asmqc/depthmontage/pkg/errors"
)

const (
	// DefaultWidth and DefaultHeight are assumed when the outer svg element
	// carries no usable size attributes.
	DefaultWidth  = 1200
	DefaultHeight = 800

	// minRowHeight is the fallback thickness for degenerate track rects.
	minRowHeight = 15.0

	// DefaultRowEpsilon groups track rects into rows when their y
	// coordinates differ by less than this.
	DefaultRowEpsilon = 1e-6
)

// Rect is an axis-aligned pixel box.
type Rect struct {
	X, Y, Width, Height float64
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Overlaps reports whether two boxes intersect.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Geometry is the pixel layout recovered from a generated diagram.
type Geometry struct {
	// Rows are the chromosome track rows, ascending by y. Each row is the
	// union box of all track rects sharing (within epsilon) one y.
	Rows []Rect
	// ScaleBar is the scale-bar bounding box, nil when the diagram was
	// rendered without one.
	ScaleBar *Rect
	// Width and Height are the outer SVG dimensions.
	Width, Height float64
	// Inner is the markup between the outer svg tags, for re-embedding.
	Inner string
}

// ExtractGeometry parses a diagram SVG and recovers track-row and
// scale-bar geometry. Rects are recognized by class: "chro" marks
// chromosome tracks, "scale-bbox" the scale-bar extent. Zero track rects
// is an error since the compositor cannot place depth panels without them.
func ExtractGeometry(data []byte, epsilon float64) (*Geometry, error) {
	if epsilon <= 0 {
		epsilon = DefaultRowEpsilon
	}

	geo := &Geometry{Width: DefaultWidth, Height: DefaultHeight}

	var tracks []Rect
	sawSVG := false

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parsing diagram SVG")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "svg":
			if sawSVG {
				continue
			}
			sawSVG = true
			if w, ok := floatAttr(start, "width"); ok && w > 0 {
				geo.Width = w
			}
			if h, ok := floatAttr(start, "height"); ok && h > 0 {
				geo.Height = h
			}
		case "rect":
			class := attr(start, "class")
			switch class {
			case "chro":
				tracks = append(tracks, rectOf(start))
			case "scale-bbox":
				if geo.ScaleBar == nil {
					r := rectOf(start)
					geo.ScaleBar = &r
				}
			}
		}
	}

	if len(tracks) == 0 {
		return nil, errors.New(errors.ErrCodeGeometryMissing, "diagram SVG contains no chromosome track rects")
	}

	geo.Rows = groupRows(tracks, epsilon)
	geo.Inner = innerSVG(data)
	return geo, nil
}

// groupRows clusters track rects by y coordinate and returns the union box
// of each cluster, ascending by y. Degenerate heights are widened to the
// minimum row thickness.
func groupRows(tracks []Rect, epsilon float64) []Rect {
	sorted := append([]Rect(nil), tracks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Y < sorted[j].Y })

	var rows []Rect
	for _, t := range sorted {
		if n := len(rows); n > 0 && t.Y-rows[n-1].Y < epsilon {
			row := &rows[n-1]
			if t.X < row.X {
				row.Width = row.Right() - t.X
				row.X = t.X
			}
			if t.Right() > row.Right() {
				row.Width = t.Right() - row.X
			}
			if t.Height > row.Height {
				row.Height = t.Height
			}
			continue
		}
		rows = append(rows, t)
	}
	for i := range rows {
		if rows[i].Height == 0 {
			rows[i].Height = minRowHeight
		}
	}
	return rows
}

// innerSVG returns the markup between the outer svg tags, or the whole
// document when the tags cannot be located.
func innerSVG(data []byte) string {
	s := string(data)
	open := strings.Index(s, "<svg")
	if open < 0 {
		return s
	}
	gt := strings.Index(s[open:], ">")
	if gt < 0 {
		return s
	}
	close := strings.LastIndex(s, "</svg>")
	if close < open+gt+1 {
		return s
	}
	return s[open+gt+1 : close]
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func floatAttr(el xml.StartElement, name string) (float64, bool) {
	raw := attr(el, name)
	if raw == "" {
		return 0, false
	}
	// Sizes may carry a unit suffix ("1200px").
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "px")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func rectOf(el xml.StartElement) Rect {
	var r Rect
	if v, ok := floatAttr(el, "x"); ok {
		r.X = v
	}
	if v, ok := floatAttr(el, "y"); ok {
		r.Y = v
	}
	if v, ok := floatAttr(el, "width"); ok {
		r.Width = v
	}
	if v, ok := floatAttr(el, "height"); ok {
		r.Height = v
	}
	return r
}
