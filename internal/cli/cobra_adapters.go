package cli

import (
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/labelme2coco/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags binds the running command's flags to their viper keys. Binding
// happens at run time so commands sharing a key do not override each other.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}
	return nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("labelme folder not found: %s", path)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("labelme folder is not a directory: %s", path)
	}
	return nil
}

// NewConvertCmd creates the convert command
func NewConvertCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "convert <labelme_folder>",
		Short: "Convert a folder of LabelMe annotations into a COCO dataset",
		Long: `Convert every LabelMe JSON file under a folder into a single COCO dataset.

Rectangles and points become bounding boxes; polygons, circles and lines become
polygon segmentations. Labels are assigned category IDs in first-seen order
across the sorted list of annotation files, after any seeded categories.

With --train-split-rate below 1 the images are shuffled with --split-seed and
written as train.json and val.json; otherwise a single dataset.json is written.`,
		Example: `  # Convert a folder into runs/labelme2coco/dataset.json
  labelme2coco convert ./labelme_annotations

  # 85/15 train/val split, category ids starting at 1
  labelme2coco convert ./labelme_annotations --train-split-rate 0.85 --category-id-start 1

  # Reuse the categories of an existing COCO file and drop two labels
  labelme2coco convert ./labelme_annotations --categories coco.json --skip-labels background,ignore

  # Re-convert whenever an annotation file changes
  labelme2coco convert ./labelme_annotations --watch`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd.Flags(), map[string]string{
				"export-dir":        "export_dir",
				"train-split-rate":  "train_split_rate",
				"split-seed":        "split_seed",
				"skip-labels":       "skip_labels",
				"category-id-start": "category_id_start",
				"categories":        "categories",
				"parquet":           "parquet",
				"report":            "report",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireDir(args[0]); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if watch {
				return executeWatch(cmd.Context(), args[0], cfg)
			}
			_, err = executeConvert(cmd.Context(), args[0], cfg)
			return err
		},
	}

	cmd.Flags().String("export-dir", "runs/labelme2coco", "Output directory for COCO files")
	cmd.Flags().Float64("train-split-rate", 1, "Fraction of images in the train split (1 writes a single dataset.json)")
	cmd.Flags().Uint64("split-seed", 0, "Seed for the train/val shuffle")
	cmd.Flags().StringSlice("skip-labels", nil, "Labels to leave out of the dataset")
	cmd.Flags().Int("category-id-start", 0, "ID given to the first new category")
	cmd.Flags().String("categories", "", "Seed categories file (.json, .yaml, .yml or .toml)")
	cmd.Flags().Bool("parquet", false, "Also write annotations.parquet")
	cmd.Flags().Bool("report", true, "Write report.yaml next to the COCO files")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-run the conversion when annotation files change")

	return cmd
}

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <labelme_folder>",
		Short: "Summarize labels and shape types in a LabelMe folder",
		Long: `Load every LabelMe JSON file under a folder and print label and shape type
counts without writing anything.

Unlike convert, problems are collected rather than fatal: every file that
fails to load and every shape that cannot be converted is listed.`,
		Example: `  # Summarize a folder
  labelme2coco inspect ./labelme_annotations

  # Summarize while ignoring a label
  labelme2coco inspect ./labelme_annotations --skip-labels background`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd.Flags(), map[string]string{
				"skip-labels": "skip_labels",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireDir(args[0]); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			summary, err := executeInspect(cmd.Context(), args[0], cfg.SkipLabels, cfg.ExportDir)
			if err != nil {
				return err
			}
			summary.Print(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringSlice("skip-labels", nil, "Labels to leave out of the counts")

	return cmd
}
