package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/lehigh-university-libraries/labelme2coco/internal/categories"
	"github.com/lehigh-university-libraries/labelme2coco/internal/coco"
	"github.com/lehigh-university-libraries/labelme2coco/internal/config"
	"github.com/lehigh-university-libraries/labelme2coco/internal/converter"
	"github.com/lehigh-university-libraries/labelme2coco/internal/report"
	"github.com/lehigh-university-libraries/labelme2coco/internal/watch"
)

// convertOutcome lists what a conversion run produced.
type convertOutcome struct {
	Result  *converter.Result
	Outputs []string
}

func executeConvert(ctx context.Context, labelmeFolder string, cfg config.Config) (*convertOutcome, error) {
	slog.Info("Starting conversion",
		"labelme_folder", labelmeFolder,
		"export_dir", cfg.ExportDir,
		"train_split_rate", cfg.TrainSplitRate,
		"category_id_start", cfg.CategoryIDStart)

	var seeds []coco.Category
	if cfg.Categories != "" {
		var err error
		seeds, err = categories.Load(cfg.Categories)
		if err != nil {
			return nil, err
		}
		slog.Info("Loaded seed categories", "count", len(seeds))
	}

	res, err := converter.Convert(ctx, labelmeFolder, converter.Options{
		SeedCategories:  seeds,
		SkipLabels:      cfg.SkipLabels,
		CategoryIDStart: cfg.CategoryIDStart,
		ExcludeDirs:     []string{cfg.ExportDir},
		Progress: func(done, total int, path string) {
			slog.Debug("Converted annotation file", "path", path, "progress", fmt.Sprintf("%d/%d", done, total))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to convert labelme folder: %w", err)
	}

	slog.Info("Conversion complete",
		"images", len(res.Dataset.Images),
		"annotations", res.Dataset.AnnotationCount(),
		"categories", len(res.Dataset.Categories))

	outputs, err := writeDataset(res.Dataset, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Parquet {
		path := filepath.Join(cfg.ExportDir, "annotations.parquet")
		if err := coco.WriteParquet(res.Dataset, path); err != nil {
			return nil, err
		}
		outputs = append(outputs, path)
	}

	if cfg.Report {
		r := report.Build(report.RunConfig{
			LabelmeFolder:   labelmeFolder,
			ExportDir:       cfg.ExportDir,
			SkipLabels:      cfg.SkipLabels,
			CategoryIDStart: cfg.CategoryIDStart,
			CategoriesFile:  cfg.Categories,
			TrainSplitRate:  cfg.TrainSplitRate,
			SplitSeed:       cfg.SplitSeed,
		}, res, outputs)
		path, err := report.Save(r, cfg.ExportDir)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, path)
	}

	printSummary(res, outputs)

	return &convertOutcome{Result: res, Outputs: outputs}, nil
}

// writeDataset saves dataset.json, or train.json and val.json when a split
// rate below 1 is configured.
func writeDataset(ds *coco.Dataset, cfg config.Config) ([]string, error) {
	if cfg.TrainSplitRate >= 1 {
		path := filepath.Join(cfg.ExportDir, "dataset.json")
		slog.Info("Saving dataset", "output", path)
		if err := coco.Save(ds, path); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	train, val, err := coco.Split(ds, cfg.TrainSplitRate, cfg.SplitSeed)
	if err != nil {
		return nil, err
	}

	trainPath := filepath.Join(cfg.ExportDir, "train.json")
	valPath := filepath.Join(cfg.ExportDir, "val.json")
	slog.Info("Saving train/val split", "train", trainPath, "train_images", len(train.Images), "val", valPath, "val_images", len(val.Images))

	if err := coco.Save(train, trainPath); err != nil {
		return nil, err
	}
	if err := coco.Save(val, valPath); err != nil {
		return nil, err
	}
	return []string{trainPath, valPath}, nil
}

// executeWatch converts once, then again after every burst of annotation file
// changes until ctx is cancelled. Conversion failures are logged and the
// watch continues.
func executeWatch(ctx context.Context, labelmeFolder string, cfg config.Config) error {
	w, err := watch.New(labelmeFolder, cfg.ExportDir)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	if _, err := executeConvert(ctx, labelmeFolder, cfg); err != nil {
		slog.Error("Conversion failed", "err", err)
	}

	slog.Info("Watching for annotation changes", "dir", labelmeFolder)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping watch")
			return nil
		case _, ok := <-w.Changes:
			if !ok {
				return nil
			}
			slog.Info("Annotation files changed, converting again")
			if _, err := executeConvert(ctx, labelmeFolder, cfg); err != nil {
				slog.Error("Conversion failed", "err", err)
			}
		}
	}
}

func printSummary(res *converter.Result, outputs []string) {
	ds := res.Dataset
	counts := ds.CategoryCounts()

	fmt.Println("\n========================================")
	fmt.Println("Conversion Summary")
	fmt.Println("========================================")
	fmt.Printf("Annotation Files:   %d\n", res.Files)
	fmt.Printf("Images:             %d\n", len(ds.Images))
	fmt.Printf("Annotations:        %d\n", ds.AnnotationCount())
	fmt.Printf("Categories:         %d\n", len(ds.Categories))
	fmt.Println()
	fmt.Println("Categories:")
	for _, c := range ds.Categories {
		fmt.Printf("  %d %s: %d\n", c.ID, c.Name, counts[c.Name])
	}
	if len(res.Skipped) > 0 {
		fmt.Println()
		fmt.Println("Skipped Labels:")

		// Sort labels for consistent output
		var labels []string
		for label := range res.Skipped {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		for _, label := range labels {
			fmt.Printf("  %s: %d\n", label, res.Skipped[label])
		}
	}
	fmt.Println()
	fmt.Println("Outputs:")
	for _, path := range outputs {
		fmt.Printf("  %s\n", path)
	}
	fmt.Println("========================================")
}
