package montage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/asmqc/depthmontage/pkg/depth"
	"github.com/asmqc/depthmontage/pkg/diagram"
)

func seqDepths(id string, a, b []int32) depth.SeqDepths {
	return depth.SeqDepths{ID: id, A: a, B: b}
}

func writeDepthSource(t *testing.T, dir, name string, seqs map[string][]int) string {
	t.Helper()
	var b strings.Builder
	for _, id := range []string{"chr1", "chr2"} {
		vals, ok := seqs[id]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, ">%s\n", id)
		for _, v := range vals {
			fmt.Fprintf(&b, "%d\n", v)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenderEndToEnd(t *testing.T) {
	dir := t.TempDir()

	hifi := writeDepthSource(t, dir, "hifi.depth", map[string][]int{
		"chr1": {0, 0, 10, 12, 14, 10, 0, 20, 20, 18},
		"chr2": {8, 8, 8, 8, 8, 8, 8, 8},
	})
	nano := writeDepthSource(t, dir, "nano.depth", map[string][]int{
		"chr1": {5, 5, 9, 9, 9, 9, 9, 9, 9, 9},
		"chr2": {7, 7, 7, 7, 7, 7, 7, 7},
	})
	fai := writeTempFile(t, "asm.fai", "chr1\t10\nchr2\t8\n")

	layout := DefaultLayoutConfig()
	layout.WindowSize = 2
	layout.DepthHeight = 100

	gen := &ratioGenerator{dir: dir, noScale: true}
	r := &Renderer{Generator: gen, Layout: layout, Logger: quietLogger()}

	opts := Options{
		FAI:    fai,
		Hifi:   hifi,
		Nano:   nano,
		Output: filepath.Join(dir, "montage"),
		Format: "svg",
	}

	out, err := r.Render(context.Background(), diagram.DefaultConfig(), opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	svg := string(data)

	for _, want := range []string{
		`class="depth-top"`,
		`class="depth-bottom"`,
		`class="baseline"`,
		`class="depth-zero-bg"`,
		`<g transform="translate(0,`,
		`class="chro"`, // re-embedded diagram contents
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("output SVG missing %s", want)
		}
	}
	if !strings.HasPrefix(svg, "<svg ") || !strings.Contains(svg, "</svg>") {
		t.Error("output is not a complete SVG document")
	}
}

func TestPlaceAnchorsOutermostRows(t *testing.T) {
	layout := DefaultLayoutConfig()
	r := &Renderer{Layout: layout}

	geo := &diagram.Geometry{Rows: []diagram.Rect{
		{X: 100, Y: 100, Width: 800, Height: 15},
		{X: 100, Y: 300, Width: 800, Height: 15},
		{X: 100, Y: 500, Width: 800, Height: 15},
	}}
	lay, topRow, bottomRow := r.place(geo, 800)

	h := layout.DepthHeight
	gap := layout.EffectivePanelGap()
	// blockYTop = 100 - gap - 2h is negative, so the whole composition
	// shifts down by its magnitude plus the top margin.
	offset := -(100 - gap - 2*h) + layout.TopMargin
	if lay.MiddleY != offset {
		t.Errorf("MiddleY = %g, want %g", lay.MiddleY, offset)
	}
	if topRow.Y != 100+offset {
		t.Errorf("top row Y = %g, want %g", topRow.Y, 100+offset)
	}
	if want := 500 + offset; bottomRow.Y != want {
		t.Errorf("bottom row Y = %g, want last row at %g", bottomRow.Y, want)
	}
	if want := bottomRow.Bottom() + gap; lay.DepthRects[1].Y != want {
		t.Errorf("bottom panel Y = %g, want %g", lay.DepthRects[1].Y, want)
	}
}

func TestRenderNilLogger(t *testing.T) {
	dir := t.TempDir()

	hifi := writeDepthSource(t, dir, "hifi.depth", map[string][]int{
		"chr1": {4, 4, 4, 4},
		"chr2": {4, 4, 4, 4},
	})
	fai := writeTempFile(t, "asm.fai", "chr1\t4\nchr2\t4\n")

	gen := &ratioGenerator{dir: dir, noScale: true}
	r := &Renderer{Generator: gen, Layout: DefaultLayoutConfig()}

	out, err := r.Render(context.Background(), diagram.DefaultConfig(), Options{
		FAI:    fai,
		Hifi:   hifi,
		Output: filepath.Join(dir, "montage"),
	})
	if err != nil {
		t.Fatalf("Render with nil logger: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("output artifact missing: %v", err)
	}
}

func TestRenderShapeMismatchFatal(t *testing.T) {
	dir := t.TempDir()

	hifi := writeDepthSource(t, dir, "hifi.depth", map[string][]int{
		"chr1": make([]int, 100),
		"chr2": {1, 1},
	})
	nano := writeDepthSource(t, dir, "nano.depth", map[string][]int{
		"chr1": make([]int, 101),
		"chr2": {1, 1},
	})
	fai := writeTempFile(t, "asm.fai", "chr1\t100\nchr2\t2\n")

	gen := &ratioGenerator{dir: dir, noScale: true}
	r := &Renderer{Generator: gen, Layout: DefaultLayoutConfig(), Logger: quietLogger()}

	_, err := r.Render(context.Background(), diagram.DefaultConfig(), Options{
		FAI:    fai,
		Hifi:   hifi,
		Nano:   nano,
		Output: filepath.Join(dir, "montage"),
	})
	if err == nil {
		t.Fatal("expected shape-mismatch failure before rendering")
	}
}

func TestRenderPlotStandalone(t *testing.T) {
	cfg := DefaultLayoutConfig()
	cfg.WindowSize = 2

	sq := seqDepths("chrX", []int32{0, 4, 9, 9, 9, 9, 0, 0}, []int32{3, 3, 3, 3, 3, 3, 3, 3})
	svg, err := RenderPlot(sq, cfg, 1200)
	if err != nil {
		t.Fatalf("RenderPlot: %v", err)
	}
	s := string(svg)
	if !strings.Contains(s, "chrX") {
		t.Error("sequence title missing")
	}
	if !strings.Contains(s, `class="depth-top"`) || !strings.Contains(s, `class="depth-bottom"`) {
		t.Error("panel halves missing")
	}
}

func TestRenderPlotSingleSourceTrace(t *testing.T) {
	cfg := DefaultLayoutConfig()
	cfg.WindowSize = 2

	sq := seqDepths("chrY", []int32{4, 4, 4, 4, 4, 4}, nil)
	svg, err := RenderPlot(sq, cfg, 800)
	if err != nil {
		t.Fatalf("RenderPlot: %v", err)
	}
	if !strings.Contains(string(svg), "<polyline") {
		t.Error("moving-average trace missing for single-source plot")
	}
}

func TestRenderPlotTraceMergesUniformWindows(t *testing.T) {
	cfg := DefaultLayoutConfig()
	cfg.WindowSize = 4

	sq := seqDepths("chrY", []int32{8, 8, 8, 8, 8, 8, 8, 8, 8, 8}, nil)
	svg, err := RenderPlot(sq, cfg, 800)
	if err != nil {
		t.Fatalf("RenderPlot: %v", err)
	}

	s := string(svg)
	i := strings.Index(s, `<polyline points="`)
	if i < 0 {
		t.Fatal("trace polyline missing")
	}
	pts := s[i+len(`<polyline points="`):]
	pts = pts[:strings.Index(pts, `"`)]
	if got := len(strings.Fields(pts)); got != 2 {
		t.Errorf("uniform depth should merge to one flat segment, got %d points (%s)", got, pts)
	}
}

func TestRenderPlotEmpty(t *testing.T) {
	_, err := RenderPlot(seqDepths("empty", nil, nil), DefaultLayoutConfig(), 800)
	if err == nil {
		t.Fatal("expected error for empty sequence")
	}
}
