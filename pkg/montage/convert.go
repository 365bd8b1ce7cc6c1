package montage

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/charmbracelet/log"

	"github.com/asmqc/depthmontage/pkg/errors"
)

// ToPDF converts an SVG file to PDF using rsvg-convert, falling back to
// inkscape when librsvg is not installed. Conversion failure is reported
// so the caller can keep the vector source instead.
func ToPDF(ctx context.Context, svgPath, pdfPath string, logger *log.Logger) error {
	if _, err := exec.LookPath("rsvg-convert"); err == nil {
		if err := runConverter(ctx, "rsvg-convert", "-f", "pdf", "-o", pdfPath, svgPath); err == nil {
			return nil
		} else {
			logger.Warn("rsvg-convert failed, trying inkscape", "err", err)
		}
	}

	if _, err := exec.LookPath("inkscape"); err != nil {
		return errors.New(errors.ErrCodeConversionFailed,
			"PDF export requires librsvg (apt install librsvg2-bin) or inkscape")
	}
	if err := runConverter(ctx, "inkscape", svgPath, "--export-type=pdf", "--export-filename", pdfPath); err != nil {
		return errors.Wrap(errors.ErrCodeConversionFailed, err, "inkscape conversion failed")
	}
	return nil
}

func runConverter(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return errors.Wrap(errors.ErrCodeConversionFailed, err, "%s: %s", name, errBuf.String())
	}
	return nil
}
