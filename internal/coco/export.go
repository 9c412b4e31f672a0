package coco

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// ExportImage is an image entry in a COCO file.
type ExportImage struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// ExportAnnotation is an annotation entry in a COCO file.
type ExportAnnotation struct {
	ID           int         `json:"id"`
	ImageID      int         `json:"image_id"`
	CategoryID   int         `json:"category_id"`
	CategoryName string      `json:"category_name,omitempty"`
	BBox         BBox        `json:"bbox"`
	Segmentation [][]float64 `json:"segmentation"`
	Area         float64     `json:"area"`
	IsCrowd      int         `json:"iscrowd"`
}

// File is the COCO JSON document.
type File struct {
	Images      []ExportImage      `json:"images"`
	Annotations []ExportAnnotation `json:"annotations"`
	Categories  []Category         `json:"categories"`
}

// Export assigns image and annotation IDs (both starting at 1, in dataset
// order) and produces the COCO document. Polygon annotations get a bbox
// derived from their extent; box annotations keep an empty segmentation.
func Export(d *Dataset) *File {
	f := &File{
		Images:      make([]ExportImage, 0, len(d.Images)),
		Annotations: make([]ExportAnnotation, 0, d.AnnotationCount()),
		Categories:  make([]Category, len(d.Categories)),
	}
	copy(f.Categories, d.Categories)

	annID := 1
	for i, img := range d.Images {
		imageID := i + 1
		f.Images = append(f.Images, ExportImage{
			ID:       imageID,
			FileName: img.FileName,
			Width:    img.Width,
			Height:   img.Height,
		})

		for _, ann := range img.Annotations {
			out := ExportAnnotation{
				ID:           annID,
				ImageID:      imageID,
				CategoryID:   ann.CategoryID,
				CategoryName: ann.CategoryName,
				Segmentation: [][]float64{},
			}
			switch {
			case ann.BBox != nil:
				out.BBox = *ann.BBox
				out.Area = ann.BBox.Area()
			case len(ann.Segmentation) > 0:
				out.Segmentation = ann.Segmentation
				out.BBox = SegmentationBBox(ann.Segmentation)
				out.Area = SegmentationArea(ann.Segmentation)
			}
			f.Annotations = append(f.Annotations, out)
			annID++
		}
	}

	return f
}

// SegmentationBBox returns the extent of all polygons in seg.
func SegmentationBBox(seg [][]float64) BBox {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, poly := range seg {
		for i := 0; i+1 < len(poly); i += 2 {
			minX = math.Min(minX, poly[i])
			maxX = math.Max(maxX, poly[i])
			minY = math.Min(minY, poly[i+1])
			maxY = math.Max(maxY, poly[i+1])
		}
	}
	if math.IsInf(minX, 1) {
		return BBox{}
	}
	return BBox{minX, minY, maxX - minX, maxY - minY}
}

// SegmentationArea sums the shoelace area of every polygon in seg.
func SegmentationArea(seg [][]float64) float64 {
	var total float64
	for _, poly := range seg {
		n := len(poly) / 2
		if n < 3 {
			continue
		}
		var sum float64
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			sum += poly[2*i]*poly[2*j+1] - poly[2*j]*poly[2*i+1]
		}
		total += math.Abs(sum) / 2
	}
	return total
}

// Save writes the dataset as indented COCO JSON to path.
func Save(d *Dataset, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create coco file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(Export(d)); err != nil {
		return fmt.Errorf("failed to encode coco file: %w", err)
	}

	return nil
}

// LoadFile reads a COCO JSON document.
func LoadFile(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open coco file: %w", err)
	}
	defer file.Close()

	var f File
	if err := json.NewDecoder(file).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode coco file: %w", err)
	}

	return &f, nil
}
