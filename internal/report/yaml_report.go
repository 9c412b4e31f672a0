package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lehigh-university-libraries/labelme2coco/internal/converter"
	"gopkg.in/yaml.v3"
)

// RunConfig echoes the settings a conversion ran with.
type RunConfig struct {
	LabelmeFolder   string   `yaml:"labelmefolder"`
	ExportDir       string   `yaml:"exportdir"`
	SkipLabels      []string `yaml:"skiplabels,omitempty"`
	CategoryIDStart int      `yaml:"categoryidstart"`
	CategoriesFile  string   `yaml:"categoriesfile,omitempty"`
	TrainSplitRate  float64  `yaml:"trainsplitrate"`
	SplitSeed       uint64   `yaml:"splitseed"`
	Timestamp       string   `yaml:"timestamp"`
}

// Totals summarizes the converted dataset.
type Totals struct {
	Files       int `yaml:"files"`
	Images      int `yaml:"images"`
	Annotations int `yaml:"annotations"`
	Categories  int `yaml:"categories"`
}

// CategorySummary is one row of the per-category table.
type CategorySummary struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Annotations int    `yaml:"annotations"`
}

// SkippedLabel records how many shapes a skipped label accounted for.
type SkippedLabel struct {
	Label  string `yaml:"label"`
	Shapes int    `yaml:"shapes"`
}

// Report is the complete run report.
type Report struct {
	Config     RunConfig         `yaml:"config"`
	Totals     Totals            `yaml:"totals"`
	Categories []CategorySummary `yaml:"categories"`
	Skipped    []SkippedLabel    `yaml:"skipped,omitempty"`
	Outputs    []string          `yaml:"outputs"`
}

// Build summarizes a conversion result. Categories keep dataset order and
// skipped labels are sorted by name.
func Build(cfg RunConfig, res *converter.Result, outputs []string) *Report {
	if cfg.Timestamp == "" {
		cfg.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}

	ds := res.Dataset
	counts := ds.CategoryCounts()

	r := &Report{
		Config: cfg,
		Totals: Totals{
			Files:       res.Files,
			Images:      len(ds.Images),
			Annotations: ds.AnnotationCount(),
			Categories:  len(ds.Categories),
		},
		Categories: make([]CategorySummary, 0, len(ds.Categories)),
		Outputs:    outputs,
	}

	for _, c := range ds.Categories {
		r.Categories = append(r.Categories, CategorySummary{
			ID:          c.ID,
			Name:        c.Name,
			Annotations: counts[c.Name],
		})
	}

	labels := make([]string, 0, len(res.Skipped))
	for label := range res.Skipped {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		r.Skipped = append(r.Skipped, SkippedLabel{Label: label, Shapes: res.Skipped[label]})
	}

	return r
}

// Save writes the report as report.yaml in dir and returns its path.
func Save(r *Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	path := filepath.Join(dir, "report.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return path, nil
}
