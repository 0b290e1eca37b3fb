// Package importer bulk-loads image files from a folder into the catalog.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/example/artshop/pkg/models"
	"github.com/example/artshop/pkg/money"
	"github.com/example/artshop/pkg/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
}

type Catalog interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error)
	CreatePrint(ctx context.Context, p *models.ArtPrint) error
}

type Options struct {
	Source      string
	MediaRoot   string
	Category    string
	Price       decimal.Decimal
	StripPrefix string
	DryRun      bool
}

// Planned is one file the importer would turn into a print.
type Planned struct {
	File  string
	Title string
	Slug  string
}

type Report struct {
	Imported int
	Skipped  int
	Planned  []Planned
}

type Importer struct {
	catalog Catalog
	logger  *zap.Logger
}

func New(catalog Catalog, logger *zap.Logger) *Importer {
	return &Importer{catalog: catalog, logger: logger}
}

// CleanTitle turns Molishi_Mysticals_Molishi_at_the_temple_0.jpg into
// "Molishi At The Temple".
func CleanTitle(filename, stripPrefix string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if stripPrefix != "" {
		stem = strings.ReplaceAll(stem, stripPrefix, "")
	}
	stem = strings.ReplaceAll(stem, "_", " ")

	if i := strings.LastIndex(stem, " "); i >= 0 {
		if _, err := strconv.Atoi(stem[i+1:]); err == nil {
			stem = stem[:i]
		}
	}
	return cases.Title(language.English).String(strings.TrimSpace(stem))
}

// Images lists the supported image files directly under dir, sorted by name.
func Images(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source folder: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func (im *Importer) Run(ctx context.Context, opts Options) (*Report, error) {
	files, err := Images(opts.Source)
	if err != nil {
		return nil, err
	}
	report := &Report{}
	if len(files) == 0 {
		im.logger.Warn("No image files found", zap.String("source", opts.Source))
		return report, nil
	}
	im.logger.Info("Found images", zap.Int("count", len(files)), zap.String("source", opts.Source))

	var category *models.Category
	if !opts.DryRun {
		category, err = im.catalog.GetOrCreateCategory(ctx, opts.Category)
		if err != nil {
			return nil, err
		}
	}

	destDir := filepath.Join(opts.MediaRoot, "prints")
	if !opts.DryRun {
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create media folder: %w", err)
		}
	}

	used := map[string]bool{}
	for _, name := range files {
		title := CleanTitle(name, opts.StripPrefix)
		base := slug.Make(title)

		// A slug already in the catalog before this run means the file was
		// imported before. Clashes within the run get a numeric suffix.
		if !used[base] {
			exists, err := im.catalog.SlugExists(ctx, base)
			if err != nil {
				return nil, err
			}
			if exists {
				im.logger.Info("Skipping existing print", zap.String("file", name), zap.String("slug", base))
				report.Skipped++
				continue
			}
		}

		s, err := im.uniqueSlug(ctx, base, used)
		if err != nil {
			return nil, err
		}
		used[s] = true
		report.Planned = append(report.Planned, Planned{File: name, Title: title, Slug: s})

		if opts.DryRun {
			continue
		}

		if err := copyIfMissing(filepath.Join(opts.Source, name), filepath.Join(destDir, name)); err != nil {
			return nil, err
		}
		p := &models.ArtPrint{
			Title:       title,
			Slug:        s,
			Description: fmt.Sprintf("%q from the %s collection.", title, opts.Category),
			Image:       "prints/" + name,
			CategoryID:  &category.ID,
			Price:       opts.Price,
			IsAvailable: true,
		}
		if err := im.catalog.CreatePrint(ctx, p); err != nil {
			return nil, err
		}
		im.logger.Info("Imported print",
			zap.String("file", name),
			zap.String("title", title),
			zap.String("price", money.Format(opts.Price)))
		report.Imported++
	}
	return report, nil
}

func (im *Importer) uniqueSlug(ctx context.Context, base string, used map[string]bool) (string, error) {
	if !used[base] {
		return base, nil
	}
	for n := 1; ; n++ {
		s := fmt.Sprintf("%s-%d", base, n)
		if used[s] {
			continue
		}
		exists, err := im.catalog.SlugExists(ctx, s)
		if err != nil {
			return "", err
		}
		if !exists {
			return s, nil
		}
	}
}

func copyIfMissing(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
