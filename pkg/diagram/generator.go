package diagram

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"

	"github.com/asmqc/depthmontage/pkg/errors"
)

// Generator produces the alignment-diagram SVG for a configuration and
// returns the path of the artifact.
type Generator interface {
	Generate(ctx context.Context, cfg Config) (string, error)
}

// ExecGenerator runs the external diagram tool. Command holds the program
// and any fixed leading arguments (e.g. ["python3", "LINKVIEW.py"] or just
// ["linkview"]); the Config argv is appended per invocation.
type ExecGenerator struct {
	Command []string
	Logger  *log.Logger
}

// Generate invokes the external tool and verifies the SVG artifact exists.
func (g *ExecGenerator) Generate(ctx context.Context, cfg Config) (string, error) {
	if len(g.Command) == 0 {
		return "", errors.New(errors.ErrCodeInvalidConfig, "diagram generator command not configured")
	}
	if _, err := exec.LookPath(g.Command[0]); err != nil {
		return "", errors.Wrap(errors.ErrCodeDiagramFailed, err, "diagram generator %q not found in PATH", g.Command[0])
	}

	args := append(append([]string{}, g.Command[1:]...), cfg.Argv()...)
	cmd := exec.CommandContext(ctx, g.Command[0], args...)

	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf

	if g.Logger != nil {
		g.Logger.Debug("running diagram generator", "command", g.Command[0], "args", len(args))
	}
	if err := cmd.Run(); err != nil {
		return "", errors.Wrap(errors.ErrCodeDiagramFailed, err, "diagram generator failed: %s", errBuf.String())
	}

	path := cfg.SVGPath()
	if _, err := os.Stat(path); err != nil {
		return "", errors.Wrap(errors.ErrCodeDiagramFailed, err, "diagram generator produced no SVG at %s", path)
	}
	return path, nil
}

// CachedGenerator wraps a Generator with an artifact cache keyed by the
// configuration hash, so repeated collision-avoidance runs over the same
// inputs skip the external tool.
type CachedGenerator struct {
	Inner  Generator
	Cache  *Cache
	Logger *log.Logger
}

func (g *CachedGenerator) Generate(ctx context.Context, cfg Config) (string, error) {
	if g.Cache == nil {
		return g.Inner.Generate(ctx, cfg)
	}

	key := cfg.Hash()
	if data, ok := g.Cache.Get(key); ok {
		path := cfg.SVGPath()
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "writing cached diagram to %s", path)
		}
		if g.Logger != nil {
			g.Logger.Debug("diagram cache hit", "key", key[:16])
		}
		return path, nil
	}

	path, err := g.Inner.Generate(ctx, cfg)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "reading diagram artifact %s", path)
	}
	if err := g.Cache.Set(key, data); err != nil && g.Logger != nil {
		g.Logger.Warn("diagram cache write failed", "err", err)
	}
	return path, nil
}
