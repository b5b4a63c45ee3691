// Package export writes system profiles out as a static HTML site.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/pkweb/internal/progress"
	"github.com/ziadkadry99/pkweb/internal/view"
	"github.com/ziadkadry99/pkweb/internal/web"
)

// Generator renders system pages to OutputDir. Pages use relative links
// so the output can be hosted under any path.
type Generator struct {
	Loader        *view.Loader
	Renderer      *web.Renderer
	OutputDir     string
	NotFoundDelay time.Duration
	Reporter      progress.Reporter
	Logger        *zap.Logger
}

// Generate exports every system in ids. Systems that fail to load are
// skipped and reported in the returned error; the count is of pages written.
func (g *Generator) Generate(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, errors.New("no system ids given")
	}
	reporter := g.Reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Join(g.OutputDir, "static"), 0o755); err != nil {
		return 0, fmt.Errorf("creating output dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(g.OutputDir, "static", "style.css"), []byte(web.StyleCSS()), 0o644); err != nil {
		return 0, err
	}
	if err := g.writePage("404.html", "notfound", &web.PageData{
		Title:    "Not found",
		BasePath: ".",
		Delay:    web.DelaySeconds(g.NotFoundDelay),
	}); err != nil {
		return 0, fmt.Errorf("writing 404 page: %w", err)
	}

	reporter.Start(len(ids))
	defer reporter.Finish()

	var errs []error
	written := 0
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		reporter.Update(i+1, id)

		snap := g.Loader.LoadSync(ctx, id)
		if snap.State != view.Loaded {
			logger.Warn("skipping system", zap.String("system", id), zap.Error(snap.Err))
			errs = append(errs, fmt.Errorf("system %s: %w", id, snap.Err))
			continue
		}

		// Relative prefix from system/<id>/ back to the output root.
		basePath := "../.."
		data := &web.PageData{
			Title:    web.SystemName(snap.System),
			BasePath: basePath,
			System:   web.NewSystemData(id, basePath, snap),
		}
		rel := filepath.Join("system", safeName(id), "index.html")
		if err := g.writePage(rel, "system", data); err != nil {
			return written, fmt.Errorf("writing %s: %w", rel, err)
		}
		written++
	}
	return written, errors.Join(errs...)
}

func (g *Generator) writePage(rel, page string, data *web.PageData) error {
	var buf bytes.Buffer
	if err := g.Renderer.Page(&buf, page, data); err != nil {
		return err
	}
	outPath := filepath.Join(g.OutputDir, rel)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, buf.Bytes(), 0o644)
}

// safeName keeps an id usable as a single path segment.
func safeName(id string) string {
	id = strings.ReplaceAll(id, "/", "_")
	id = strings.ReplaceAll(id, `\`, "_")
	if id == "." || id == ".." || id == "" {
		return "_"
	}
	return id
}
