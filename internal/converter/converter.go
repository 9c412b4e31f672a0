// Package converter assembles a COCO dataset from LabelMe annotation files.
package converter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/lehigh-university-libraries/labelme2coco/internal/coco"
	"github.com/lehigh-university-libraries/labelme2coco/internal/labelme"
	"github.com/lehigh-university-libraries/labelme2coco/internal/shape"
)

// Options configure one assembly run.
type Options struct {
	// SeedCategories are registered before any file is read.
	SeedCategories []coco.Category
	// SkipLabels are dropped entirely, with no annotation and no category.
	SkipLabels []string
	// CategoryIDStart is the ID given to the first newly seen label.
	CategoryIDStart int
	// ExcludeDirs are left out of discovery, so earlier outputs written
	// inside the input folder are never read back as annotations.
	ExcludeDirs []string
	// Progress, when set, is called after each file with the number of files
	// done so far.
	Progress func(done, total int, path string)
}

// FileError identifies the annotation file, and shape when known, that
// stopped a run.
type FileError struct {
	Path string
	// ShapeIndex is the zero-based index of the offending shape, or -1 for
	// file-level problems.
	ShapeIndex int
	Err        error
}

func (e *FileError) Error() string {
	if e.ShapeIndex >= 0 {
		return fmt.Sprintf("%s: shape %d: %v", e.Path, e.ShapeIndex, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Result is an assembled dataset plus what was left out of it.
type Result struct {
	Dataset *coco.Dataset
	Files   int
	// Skipped counts dropped shapes per skipped label.
	Skipped map[string]int
}

// Convert discovers every annotation file under dir and assembles them.
func Convert(ctx context.Context, dir string, opts Options) (*Result, error) {
	paths, err := labelme.Discover(dir, opts.ExcludeDirs...)
	if err != nil {
		return nil, err
	}
	return Assemble(ctx, paths, opts)
}

// Assemble processes the given annotation files in sorted path order and
// returns the dataset. The first malformed file or shape aborts the run; no
// partial dataset is returned.
func Assemble(ctx context.Context, paths []string, opts Options) (*Result, error) {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	registry := coco.NewRegistry(opts.CategoryIDStart, opts.SkipLabels)
	registry.Seed(opts.SeedCategories)

	if len(opts.SkipLabels) > 0 {
		slog.Info("Will skip the following annotated labels", "labels", opts.SkipLabels)
	}

	dataset := &coco.Dataset{
		Images: make([]coco.Image, 0, len(sorted)),
	}

	for i, path := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		file, err := labelme.Load(path)
		if err != nil {
			return nil, &FileError{Path: path, ShapeIndex: -1, Err: err}
		}

		img, ferr := buildImage(file, registry)
		if ferr != nil {
			ferr.Path = path
			return nil, ferr
		}
		dataset.AddImage(img)

		if opts.Progress != nil {
			opts.Progress(i+1, len(sorted), path)
		}
	}

	dataset.Categories = registry.Categories()

	return &Result{
		Dataset: dataset,
		Files:   len(sorted),
		Skipped: registry.Skipped(),
	}, nil
}

// buildImage converts one file's shapes in file order. The returned error has
// no path set; the caller fills it in.
func buildImage(file *labelme.File, registry *coco.Registry) (coco.Image, *FileError) {
	img := coco.Image{
		FileName:    file.ImagePath,
		Width:       file.ImageWidth,
		Height:      file.ImageHeight,
		Annotations: make([]coco.Annotation, 0, len(file.Shapes)),
	}

	for idx, s := range file.Shapes {
		categoryID, ok := registry.Resolve(s.Label)
		if !ok {
			continue
		}

		canonical, err := shape.Normalize(s)
		if err != nil {
			return coco.Image{}, &FileError{ShapeIndex: idx, Err: err}
		}

		img.Annotations = append(img.Annotations, coco.BuildAnnotation(canonical, categoryID, s.Label))
	}

	return img, nil
}
