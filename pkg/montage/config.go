// Package montage composites per-base depth panels around an externally
// generated alignment diagram, keeping both pixel-aligned, and resolves
// scale-bar collisions by regenerating the diagram at candidate positions.
package montage

import (
	"math"

	"github.com/BurntSushi/toml"

	"github.com/asmqc/depthmontage/pkg/errors"
)

// LayoutConfig controls depth-panel geometry and the collision-avoidance
// search. All fields have working defaults; a TOML file can override any
// subset.
type LayoutConfig struct {
	// WindowSize is the aggregation window in bases.
	WindowSize int `toml:"window_size"`
	// MaxDepthRatio caps a window mean at ratio x the dataset's nonzero
	// mean before pixel scaling.
	MaxDepthRatio float64 `toml:"max_depth_ratio"`
	// MinSafeDepth separates low from normal coverage.
	MinSafeDepth int `toml:"min_safe_depth"`

	// DepthHeight is the pixel height of one panel half.
	DepthHeight float64 `toml:"depth_height"`
	// PanelGap is the pixel gap between a panel and its anchor row.
	// Zero means 10% of DepthHeight, rounded, at least 1.
	PanelGap float64 `toml:"panel_gap"`
	// TopMargin is unconditional padding above the whole composition.
	TopMargin float64 `toml:"top_margin"`

	// TickCount is the number of axis intervals per panel baseline.
	TickCount int `toml:"tick_count"`
	// AxisFontSize is the axis label size in pixels.
	AxisFontSize int `toml:"axis_font_size"`

	// RowEpsilon groups diagram track rects into rows.
	RowEpsilon float64 `toml:"row_epsilon"`

	// Clearance is the minimum pixel distance kept between the scale bar
	// and a row edge when picking gap candidates.
	Clearance float64 `toml:"clearance"`
	// GapFractions are candidate scale-bar positions expressed as
	// fractions of the inter-row gap, tried in order.
	GapFractions []float64 `toml:"gap_fractions"`
	// FixedRatios are absolute fallback ratios of SVG height, used when
	// the default position is clear but the rendered box still overlaps.
	FixedRatios []float64 `toml:"fixed_ratios"`
	// FallbackRatio is the last-resort absolute ratio after all gap
	// candidates fail.
	FallbackRatio float64 `toml:"fallback_ratio"`

	// Colors, overridable for house styles.
	TopColor    string `toml:"top_color"`
	BottomColor string `toml:"bottom_color"`
	ZeroColor   string `toml:"zero_color"`
	LowColor    string `toml:"low_color"`
}

// DefaultLayoutConfig returns the empirically tuned defaults.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		WindowSize:    1000,
		MaxDepthRatio: 3.0,
		MinSafeDepth:  5,
		DepthHeight:   160,
		TopMargin:     40,
		TickCount:     5,
		AxisFontSize:  12,
		RowEpsilon:    1e-6,
		Clearance:     10,
		GapFractions:  []float64{0.75, 0.6, 0.3},
		FixedRatios:   []float64{0.42, 0.12, 0.95},
		FallbackRatio: 0.95,
		TopColor:      "#2ca25f",
		BottomColor:   "#3C5488",
		ZeroColor:     "#FAD7DD",
		LowColor:      "#B7DBEA",
	}
}

// LoadLayoutConfig reads a TOML override file on top of the defaults.
func LoadLayoutConfig(path string) (LayoutConfig, error) {
	cfg := DefaultLayoutConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "loading layout config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the compositor cannot render with.
func (c LayoutConfig) Validate() error {
	if c.WindowSize < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "window_size must be >= 1, got %d", c.WindowSize)
	}
	if c.MaxDepthRatio <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_depth_ratio must be positive, got %g", c.MaxDepthRatio)
	}
	if c.MinSafeDepth < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "min_safe_depth must be non-negative, got %d", c.MinSafeDepth)
	}
	if c.DepthHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "depth_height must be positive, got %g", c.DepthHeight)
	}
	return nil
}

// EffectivePanelGap resolves the panel gap default: 10% of the panel
// height, rounded, never below one pixel.
func (c LayoutConfig) EffectivePanelGap() float64 {
	if c.PanelGap > 0 {
		return c.PanelGap
	}
	return math.Max(1, math.Round(c.DepthHeight*0.1))
}
