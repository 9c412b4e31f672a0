package coco

// Category is a named object class with a stable integer ID.
type Category struct {
	ID            int    `json:"id" yaml:"id" toml:"id"`
	Name          string `json:"name" yaml:"name" toml:"name"`
	Supercategory string `json:"supercategory,omitempty" yaml:"supercategory,omitempty" toml:"supercategory,omitempty"`
}

// BBox is an axis-aligned box as (x, y, width, height).
type BBox [4]float64

// Area returns width * height.
func (b BBox) Area() float64 {
	return b[2] * b[3]
}

// Annotation is one COCO object annotation. Exactly one of BBox and
// Segmentation is set.
type Annotation struct {
	CategoryID   int
	CategoryName string
	BBox         *BBox
	Segmentation [][]float64
}

// Image is one annotated image. Width and height come from the annotation
// file and are never recomputed from pixels.
type Image struct {
	FileName    string
	Width       int
	Height      int
	Annotations []Annotation
}

// Dataset is the converter's output: categories in first-seen order and images
// in sorted source path order.
type Dataset struct {
	Categories []Category
	Images     []Image
}

// AddImage appends img to the dataset.
func (d *Dataset) AddImage(img Image) {
	d.Images = append(d.Images, img)
}

// AnnotationCount returns the number of annotations across all images.
func (d *Dataset) AnnotationCount() int {
	n := 0
	for _, img := range d.Images {
		n += len(img.Annotations)
	}
	return n
}

// CategoryCounts returns the number of annotations per category name.
func (d *Dataset) CategoryCounts() map[string]int {
	counts := make(map[string]int, len(d.Categories))
	for _, img := range d.Images {
		for _, ann := range img.Annotations {
			counts[ann.CategoryName]++
		}
	}
	return counts
}
