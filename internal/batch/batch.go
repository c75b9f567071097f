package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/captionkit/captioner/internal/export"
	"github.com/captionkit/captioner/internal/generation"
	"github.com/captionkit/captioner/internal/models"
	"github.com/captionkit/captioner/internal/parser"
)

// Runner captions every image in a directory.
type Runner struct {
	generator   generation.Generator
	template    string
	concurrency int
}

func NewRunner(generator generation.Generator, template string, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{generator: generator, template: template, concurrency: concurrency}
}

// ListImages returns the JPEG and PNG files under dir whose path relative to
// dir matches pattern, sorted. Patterns use doublestar syntax and are
// matched case-insensitively; "*" lists dir itself and "**/*" recurses.
func ListImages(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern,
		doublestar.WithCaseInsensitive(),
		doublestar.WithFilesOnly(),
	)
	if err != nil {
		return nil, fmt.Errorf("searching images with pattern '%s': %w", pattern, err)
	}

	var paths []string
	for _, m := range matches {
		switch strings.ToLower(path.Ext(m)) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, filepath.Join(dir, filepath.FromSlash(m)))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Run captions each path. Per-image failures are recorded in the row rather
// than stopping the batch; only context cancellation aborts it.
func (r *Runner) Run(ctx context.Context, paths []string) ([]export.BatchRow, error) {
	rows := make([]export.BatchRow, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slog.Info("Processing image", "path", p, "progress", fmt.Sprintf("%d/%d", i+1, len(paths)))
			rows[i] = r.processImage(gctx, p)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return rows, fmt.Errorf("batch aborted: %w", err)
	}
	return rows, nil
}

func (r *Runner) processImage(ctx context.Context, imagePath string) export.BatchRow {
	row := export.BatchRow{Filename: filepath.Base(imagePath)}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		row.Error = fmt.Sprintf("failed to read image: %v", err)
		return row
	}
	img, err := models.NewImage(data, row.Filename)
	if err != nil {
		row.Error = err.Error()
		return row
	}

	info := img.Info()
	row.Format = info.Format
	row.Width = int64(info.Width)
	row.Height = int64(info.Height)
	row.Checksum = info.Checksum

	start := time.Now()
	res := r.generator.Generate(ctx, img, r.template)
	row.ElapsedMillis = time.Since(start).Milliseconds()
	if !res.OK() {
		row.Error = res.Err().Error()
		return row
	}

	row.RawText = res.Text()
	row.Candidates = parser.Texts(parser.ParseCandidates(res.Text()))
	row.CandidateCount = int64(len(row.Candidates))
	return row
}
