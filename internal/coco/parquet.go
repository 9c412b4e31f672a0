package coco

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// AnnotationRow is one annotation flattened for columnar export.
type AnnotationRow struct {
	AnnotationID int       `parquet:"annotation_id"`
	ImageID      int       `parquet:"image_id"`
	FileName     string    `parquet:"file_name"`
	Width        int       `parquet:"width"`
	Height       int       `parquet:"height"`
	CategoryID   int       `parquet:"category_id"`
	CategoryName string    `parquet:"category_name"`
	BBoxX        float64   `parquet:"bbox_x"`
	BBoxY        float64   `parquet:"bbox_y"`
	BBoxWidth    float64   `parquet:"bbox_width"`
	BBoxHeight   float64   `parquet:"bbox_height"`
	Area         float64   `parquet:"area"`
	Segmentation []float64 `parquet:"segmentation,list"`
}

// Rows flattens the exported document into one row per annotation.
func Rows(f *File) []AnnotationRow {
	images := make(map[int]ExportImage, len(f.Images))
	for _, img := range f.Images {
		images[img.ID] = img
	}

	rows := make([]AnnotationRow, 0, len(f.Annotations))
	for _, ann := range f.Annotations {
		img := images[ann.ImageID]
		row := AnnotationRow{
			AnnotationID: ann.ID,
			ImageID:      ann.ImageID,
			FileName:     img.FileName,
			Width:        img.Width,
			Height:       img.Height,
			CategoryID:   ann.CategoryID,
			CategoryName: ann.CategoryName,
			BBoxX:        ann.BBox[0],
			BBoxY:        ann.BBox[1],
			BBoxWidth:    ann.BBox[2],
			BBoxHeight:   ann.BBox[3],
			Area:         ann.Area,
		}
		for _, poly := range ann.Segmentation {
			row.Segmentation = append(row.Segmentation, poly...)
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteParquet writes the dataset's annotations as a flat Parquet table.
func WriteParquet(d *Dataset, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	rows := Rows(Export(d))

	writer := parquet.NewGenericWriter[AnnotationRow](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}

	slog.Debug("Wrote Parquet annotation table", "path", path, "rows", len(rows))

	return nil
}

// ReadParquet reads back an annotation table written by WriteParquet.
func ReadParquet(path string) ([]AnnotationRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[AnnotationRow](pf)
	defer reader.Close()

	rows := make([]AnnotationRow, 0, pf.NumRows())
	for {
		// Fresh batch each read so list columns never share backing arrays.
		batch := make([]AnnotationRow, 128)
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return rows, nil
}
