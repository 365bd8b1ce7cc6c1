package montage

import (
	"math"
	"strings"
	"testing"

	"github.com/asmqc/depthmontage/pkg/errors"
)

func TestXAtEndpoints(t *testing.T) {
	for _, seqLen := range []int{2, 3, 100, 12345} {
		if got := xAt(0, seqLen, 50, 950); got != 50 {
			t.Errorf("L=%d: xAt(0) = %g, want 50", seqLen, got)
		}
		if got := xAt(seqLen-1, seqLen, 50, 950); got != 950 {
			t.Errorf("L=%d: xAt(L-1) = %g, want 950", seqLen, got)
		}
	}
}

func TestXAtSingleBase(t *testing.T) {
	if got := xAt(0, 1, 50, 950); got != 50 {
		t.Errorf("xAt(0, 1) = %g, want left edge", got)
	}
}

func TestSharedCap(t *testing.T) {
	tests := []struct {
		name       string
		capA, capB float64
		want       float64
	}{
		{"a larger", 90, 60, 90},
		{"b larger", 30, 120, 120},
		{"both zero floors to one", 0, 0, 1},
		{"one zero", 0, 45, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sharedCap(tt.capA, tt.capB); got != tt.want {
				t.Errorf("sharedCap(%g, %g) = %g, want %g", tt.capA, tt.capB, got, tt.want)
			}
		})
	}
}

func TestNonzeroMeanCap(t *testing.T) {
	got := nonzeroMeanCap([]int32{0, 10, 20, 0, 30}, 3.0)
	if math.Abs(got-60.0) > 1e-9 {
		t.Errorf("cap = %g, want 60 (nonzero mean 20 x 3)", got)
	}
	if got := nonzeroMeanCap([]int32{0, 0}, 3.0); got != 0 {
		t.Errorf("all-zero cap = %g, want 0", got)
	}
}

func TestBuildPanelShapeMismatch(t *testing.T) {
	a := make([]int32, 100)
	b := make([]int32, 101)
	_, err := buildPanel("chr1", a, b, 0, 100, 0, DefaultLayoutConfig())
	if !errors.Is(err, errors.ErrCodeShapeMismatch) {
		t.Fatalf("err = %v, want SHAPE_MISMATCH", err)
	}
}

func TestBuildPanelEmpty(t *testing.T) {
	p, err := buildPanel("chr1", nil, nil, 0, 100, 20, DefaultLayoutConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !p.Empty() {
		t.Error("panel with no data should be empty")
	}
	if p.BaselineY != 20+DefaultLayoutConfig().DepthHeight {
		t.Errorf("baseline = %g", p.BaselineY)
	}
}

func TestBuildPanelOneSidedSource(t *testing.T) {
	cfg := DefaultLayoutConfig()
	cfg.WindowSize = 2
	a := []int32{10, 10, 10, 10}

	p, err := buildPanel("chr1", a, nil, 100, 500, 0, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.TopBars) == 0 {
		t.Error("upper half has no bars")
	}
	if len(p.BottomBars) != 0 {
		t.Error("bars rendered for absent lower source")
	}
	if p.SeqLen != 4 {
		t.Errorf("seqLen = %d, want 4", p.SeqLen)
	}
}

func TestBuildPanelBackgroundAndBars(t *testing.T) {
	cfg := DefaultLayoutConfig()
	cfg.WindowSize = 2
	cfg.MinSafeDepth = 5
	// Zero run, low run, then normal coverage on both halves.
	a := []int32{0, 0, 3, 3, 20, 20, 20, 20}
	b := []int32{20, 20, 20, 20, 20, 20, 0, 0}

	p, err := buildPanel("chr1", a, b, 0, 700, 0, cfg)
	if err != nil {
		t.Fatal(err)
	}

	joined := strings.Join(p.Background, "\n")
	if !strings.Contains(joined, "depth-zero-bg") {
		t.Error("zero-depth background missing")
	}
	if !strings.Contains(joined, "depth-low-bg") {
		t.Error("low-depth background missing")
	}

	// Each half carries its window bars plus one mean line.
	if !strings.Contains(strings.Join(p.TopBars, ""), `class="mean"`) {
		t.Error("upper mean line missing")
	}
	if !strings.Contains(strings.Join(p.BottomBars, ""), `class="mean"`) {
		t.Error("lower mean line missing")
	}

	rect := p.Rect()
	if rect.Height != 2*cfg.DepthHeight {
		t.Errorf("panel rect height = %g, want %g", rect.Height, 2*cfg.DepthHeight)
	}
}

func TestBuildPanelBarHeightRespectsSharedCap(t *testing.T) {
	cfg := DefaultLayoutConfig()
	cfg.WindowSize = 4
	cfg.MaxDepthRatio = 2.0
	// Uniform depth: window mean equals nonzero mean, so pixel height is
	// mean / (mean x ratio) = half the panel height.
	a := []int32{10, 10, 10, 10}

	p, err := buildPanel("chr1", a, nil, 0, 400, 0, cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := cfg.DepthHeight / 2
	bar := p.TopBars[0]
	if !strings.Contains(bar, `height="80.00"`) {
		t.Errorf("bar = %q, want height %.2f", bar, want)
	}
}
