// Package diagram drives the external pairwise-alignment diagram generator
// and extracts pixel geometry from the SVG it produces.
//
// The generator is treated as a pure function from a Config to rendered
// geometry: the montage compositor calls it repeatedly with different
// scale-bar ratios during collision avoidance, re-parsing the output each
// time. Only the final accepted artifact survives.
package diagram

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config mirrors the alignment-diagram generator's own CLI surface. Zero
// values mean "use the generator's default" except where noted.
type Config struct {
	Input     string // alignment records file (positional argument)
	Type      int
	Highlight string
	HLMin1px  bool
	Karyotype string

	SVGHeight int // default 800
	SVGWidth  int // default 1200
	SVGSpace  float64

	NoDash        bool
	ChroThickness int
	NoLabel       bool
	LabelFontSize int
	LabelAngle    float64

	ChroAxis         bool
	ChroAxisDensity  int
	ShowPosWithLabel bool

	Scale       string
	ScaleYRatio float64 // scale-bar vertical position, 0-1 of SVG height
	NoScale     bool

	MinIdentity        float64
	MinAlignmentLength int
	MaxEvalue          float64
	MinBitScore        float64
	GapLength          float64
	ChroLen            string
	Parameter          string
	GFF                string
	Bezier             bool
	Style              string

	// Output is the path prefix; the generator writes Output + ".svg".
	Output string
}

// DefaultConfig returns a Config carrying the generator's documented
// defaults for the fields the compositor depends on.
func DefaultConfig() Config {
	return Config{
		Type:               0,
		SVGHeight:          800,
		SVGWidth:           1200,
		SVGSpace:           0.2,
		ChroThickness:      15,
		LabelFontSize:      18,
		ChroAxisDensity:    2,
		ScaleYRatio:        0.9,
		MinIdentity:        95,
		MinAlignmentLength: 200,
		MaxEvalue:          1e-5,
		MinBitScore:        5000,
		GapLength:          0.2,
		Style:              "classic",
	}
}

// SVGPath returns the path of the SVG artifact the generator produces for
// this configuration.
func (c Config) SVGPath() string {
	return c.Output + ".svg"
}

// Argv renders the configuration as the generator's argument list.
func (c Config) Argv() []string {
	args := []string{c.Input,
		"--type", strconv.Itoa(c.Type),
		"--svg_height", strconv.Itoa(c.SVGHeight),
		"--svg_width", strconv.Itoa(c.SVGWidth),
		"--svg_space", formatFloat(c.SVGSpace),
		"--chro_thickness", strconv.Itoa(c.ChroThickness),
		"--label_font_size", strconv.Itoa(c.LabelFontSize),
		"--label_angle", formatFloat(c.LabelAngle),
		"--chro_axis_density", strconv.Itoa(c.ChroAxisDensity),
		"--scale_y_ratio", formatFloat(c.ScaleYRatio),
		"--min_identity", formatFloat(c.MinIdentity),
		"--min_alignment_length", strconv.Itoa(c.MinAlignmentLength),
		"--max_evalue", formatFloat(c.MaxEvalue),
		"--min_bit_score", formatFloat(c.MinBitScore),
		"--gap_length", formatFloat(c.GapLength),
		"--style", c.Style,
		"--output", c.Output,
	}
	if c.Highlight != "" {
		args = append(args, "--highlight", c.Highlight)
	}
	if c.HLMin1px {
		args = append(args, "--hl_min1px")
	}
	if c.Karyotype != "" {
		args = append(args, "--karyotype", c.Karyotype)
	}
	if c.NoDash {
		args = append(args, "--no_dash")
	}
	if c.NoLabel {
		args = append(args, "--no_label")
	}
	if c.ChroAxis {
		args = append(args, "--chro_axis")
	}
	if c.ShowPosWithLabel {
		args = append(args, "--show_pos_with_label")
	}
	if c.Scale != "" {
		args = append(args, "--scale", c.Scale)
	}
	if c.NoScale {
		args = append(args, "--no_scale")
	}
	if c.ChroLen != "" {
		args = append(args, "--chro_len", c.ChroLen)
	}
	if c.Parameter != "" {
		args = append(args, "--parameter", c.Parameter)
	}
	if c.GFF != "" {
		args = append(args, "--gff", c.GFF)
	}
	if c.Bezier {
		args = append(args, "--bezier")
	}
	return args
}

// Hash returns a stable cache key for the configuration. The output prefix
// is excluded so that the same diagram rendered to different temp paths
// shares one cache entry. The contents of the input, karyotype, and GFF
// files are folded into the key so that editing them invalidates cached
// diagrams; an unreadable file contributes only its path.
func (c Config) Hash() string {
	c.Output = ""
	data, _ := json.Marshal(c)
	h := sha256.New()
	h.Write(data)
	for _, path := range []string{c.Input, c.Karyotype, c.GFF} {
		if path == "" {
			continue
		}
		if content, err := os.ReadFile(path); err == nil {
			h.Write(content)
		}
	}
	return fmt.Sprintf("diagram:%s", hex.EncodeToString(h.Sum(nil)))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
