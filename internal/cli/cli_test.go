package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lehigh-university-libraries/labelme2coco/internal/coco"
	"github.com/lehigh-university-libraries/labelme2coco/internal/config"
	"github.com/spf13/viper"
)

func writeAnnotation(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func sampleFolder(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeAnnotation(t, dir, "a.json", `{
  "imagePath": "a.jpg", "imageWidth": 64, "imageHeight": 48,
  "shapes": [
    {"label": "cat", "shape_type": "rectangle", "points": [[1, 1], [4, 6]]},
    {"label": "background", "shape_type": "polygon", "points": [[0, 0], [1, 0], [1, 1]]}
  ]
}`)
	writeAnnotation(t, dir, "sub/b.json", `{
  "imagePath": "b.jpg", "imageWidth": 32, "imageHeight": 32,
  "shapes": [
    {"label": "dog", "shape_type": "circle", "points": [[10, 10], [13, 10]]}
  ]
}`)
	writeAnnotation(t, dir, "c.json", `{
  "imagePath": "c.jpg", "imageWidth": 32, "imageHeight": 32,
  "shapes": [
    {"label": "cat", "shape_type": "point", "points": [[2, 2]]}
  ]
}`)
	return dir
}

func TestExecuteConvert(t *testing.T) {
	dir := sampleFolder(t)
	out := filepath.Join(t.TempDir(), "export")

	outcome, err := executeConvert(context.Background(), dir, config.Config{
		ExportDir:      out,
		TrainSplitRate: 1,
		SkipLabels:     []string{"background"},
		Parquet:        true,
		Report:         true,
	})
	if err != nil {
		t.Fatalf("executeConvert failed: %v", err)
	}

	wantOutputs := []string{
		filepath.Join(out, "dataset.json"),
		filepath.Join(out, "annotations.parquet"),
		filepath.Join(out, "report.yaml"),
	}
	if diff := cmp.Diff(wantOutputs, outcome.Outputs); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}
	for _, path := range wantOutputs {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected %s to exist: %v", path, err)
		}
	}

	f, err := coco.LoadFile(filepath.Join(out, "dataset.json"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	var names []string
	for _, img := range f.Images {
		names = append(names, img.FileName)
	}
	// a.json, c.json, sub/b.json in path order.
	if diff := cmp.Diff([]string{"a.jpg", "c.jpg", "b.jpg"}, names); diff != "" {
		t.Errorf("image order mismatch (-want +got):\n%s", diff)
	}

	wantCats := []coco.Category{{ID: 0, Name: "cat"}, {ID: 1, Name: "dog"}}
	if diff := cmp.Diff(wantCats, f.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	if len(f.Annotations) != 3 {
		t.Errorf("Expected 3 annotations, got %d", len(f.Annotations))
	}
}

func TestExecuteConvertExportInsideFolder(t *testing.T) {
	dir := sampleFolder(t)
	cfg := config.Config{
		ExportDir:      filepath.Join(dir, "runs", "labelme2coco"),
		TrainSplitRate: 1,
		Report:         true,
	}

	for run := 1; run <= 2; run++ {
		outcome, err := executeConvert(context.Background(), dir, cfg)
		if err != nil {
			t.Fatalf("run %d: executeConvert failed: %v", run, err)
		}
		if outcome.Result.Files != 3 {
			t.Errorf("run %d: Expected 3 annotation files, got %d", run, outcome.Result.Files)
		}
	}
}

func TestExecuteConvertSplit(t *testing.T) {
	dir := sampleFolder(t)
	out := filepath.Join(t.TempDir(), "export")

	outcome, err := executeConvert(context.Background(), dir, config.Config{
		ExportDir:      out,
		TrainSplitRate: 0.5,
		SplitSeed:      3,
	})
	if err != nil {
		t.Fatalf("executeConvert failed: %v", err)
	}

	wantOutputs := []string{filepath.Join(out, "train.json"), filepath.Join(out, "val.json")}
	if diff := cmp.Diff(wantOutputs, outcome.Outputs); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}

	train, err := coco.LoadFile(wantOutputs[0])
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	val, err := coco.LoadFile(wantOutputs[1])
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(train.Images) != 1 || len(val.Images) != 2 {
		t.Errorf("Expected 1/2 split, got %d/%d", len(train.Images), len(val.Images))
	}
}

func TestExecuteConvertSeedCategories(t *testing.T) {
	dir := sampleFolder(t)
	seedPath := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(seedPath, []byte("- id: 5\n  name: dog\n"), 0644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}

	outcome, err := executeConvert(context.Background(), dir, config.Config{
		ExportDir:       filepath.Join(t.TempDir(), "export"),
		TrainSplitRate:  1,
		CategoryIDStart: 1,
		Categories:      seedPath,
	})
	if err != nil {
		t.Fatalf("executeConvert failed: %v", err)
	}

	want := []coco.Category{{ID: 5, Name: "dog"}, {ID: 1, Name: "cat"}, {ID: 2, Name: "background"}}
	if diff := cmp.Diff(want, outcome.Result.Dataset.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteConvertFailsOnBadShape(t *testing.T) {
	dir := sampleFolder(t)
	writeAnnotation(t, dir, "d.json", `{
  "imagePath": "d.jpg", "imageWidth": 1, "imageHeight": 1,
  "shapes": [{"label": "x", "shape_type": "linestrip", "points": [[0, 0], [1, 1]]}]
}`)
	out := filepath.Join(t.TempDir(), "export")

	_, err := executeConvert(context.Background(), dir, config.Config{ExportDir: out, TrainSplitRate: 1})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "d.json") {
		t.Errorf("Expected error to name d.json, got %q", err.Error())
	}
	if _, err := os.Stat(filepath.Join(out, "dataset.json")); !os.IsNotExist(err) {
		t.Error("Expected no dataset to be written on failure")
	}
}

func TestConvertCommand(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := sampleFolder(t)
	out := filepath.Join(t.TempDir(), "export")

	cmd := NewConvertCmd()
	cmd.SetArgs([]string{dir, "--export-dir", out, "--skip-labels", "background", "--category-id-start", "1", "--report=false"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("convert command failed: %v", err)
	}

	f, err := coco.LoadFile(filepath.Join(out, "dataset.json"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	wantCats := []coco.Category{{ID: 1, Name: "cat"}, {ID: 2, Name: "dog"}}
	if diff := cmp.Diff(wantCats, f.Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(out, "report.yaml")); !os.IsNotExist(err) {
		t.Error("Expected no report with --report=false")
	}
}

func TestConvertCommandMissingFolder(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := NewConvertCmd()
	cmd.SetArgs([]string{"/nonexistent/labelme"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err == nil {
		t.Error("Expected error for missing folder, got nil")
	}
}

func TestExecuteInspect(t *testing.T) {
	dir := sampleFolder(t)
	writeAnnotation(t, dir, "broken.json", `{"imagePath": "x.jpg"}`)
	writeAnnotation(t, dir, "odd.json", `{
  "imagePath": "o.jpg", "imageWidth": 1, "imageHeight": 1,
  "shapes": [{"label": "cat", "shape_type": "linestrip", "points": [[0, 0], [1, 1]]}]
}`)

	summary, err := executeInspect(context.Background(), dir, []string{"background"})
	if err != nil {
		t.Fatalf("executeInspect failed: %v", err)
	}

	if summary.Files != 5 {
		t.Errorf("Expected 5 files, got %d", summary.Files)
	}
	if diff := cmp.Diff(map[string]int{"cat": 3, "dog": 1}, summary.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	wantTypes := map[string]int{"rectangle": 1, "circle": 1, "point": 1, "linestrip": 1}
	if diff := cmp.Diff(wantTypes, summary.ShapeTypes); diff != "" {
		t.Errorf("shape types mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"background": 1}, summary.Skipped); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
	if len(summary.Problems) != 2 {
		t.Errorf("Expected 2 problems, got %v", summary.Problems)
	}

	var buf bytes.Buffer
	summary.Print(&buf)
	for _, want := range []string{"LABELS", "SHAPE TYPES", "SKIPPED LABELS", "PROBLEMS (2)", "linestrip"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
}

func TestInspectSummaryPrintAlignment(t *testing.T) {
	summary := &inspectSummary{
		Files:      12,
		Shapes:     7,
		Labels:     map[string]int{"cat": 3, "hippopotamus": 4},
		ShapeTypes: map[string]int{"polygon": 7},
	}

	var buf bytes.Buffer
	summary.Print(&buf)

	for _, want := range []string{
		"Annotation files: 12\n",
		"Shapes:           7\n",
		"  cat          3\n",
		"  hippopotamus 4\n",
		"  polygon 7\n",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, buf.String())
		}
	}
}
