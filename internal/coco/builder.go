package coco

import (
	"math"

	"github.com/lehigh-university-libraries/labelme2coco/internal/shape"
)

// BuildAnnotation turns a canonical shape into an annotation for the given
// category. Rectangle corners may arrive in any order; the box is built from
// their min/max so width and height are never negative.
func BuildAnnotation(c shape.Canonical, categoryID int, categoryName string) Annotation {
	ann := Annotation{
		CategoryID:   categoryID,
		CategoryName: categoryName,
	}

	switch c.Kind {
	case shape.Rectangle:
		p1, p2 := c.Points[0], c.Points[1]
		ann.BBox = &BBox{
			math.Min(p1[0], p2[0]),
			math.Min(p1[1], p2[1]),
			math.Abs(p2[0] - p1[0]),
			math.Abs(p2[1] - p1[1]),
		}
	case shape.Polygon:
		flat := make([]float64, 0, 2*len(c.Points))
		for _, p := range c.Points {
			flat = append(flat, p[0], p[1])
		}
		ann.Segmentation = [][]float64{flat}
	}

	return ann
}
