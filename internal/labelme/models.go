package labelme

import (
	"encoding/json"
	"fmt"
)

// ShapeType is the closed set of LabelMe shape kinds this converter understands.
type ShapeType int

const (
	ShapeUnknown ShapeType = iota
	ShapeRectangle
	ShapePolygon
	ShapeCircle
	ShapeLine
	ShapePoint
)

var shapeTypeNames = map[ShapeType]string{
	ShapeRectangle: "rectangle",
	ShapePolygon:   "polygon",
	ShapeCircle:    "circle",
	ShapeLine:      "line",
	ShapePoint:     "point",
}

// ParseShapeType maps a LabelMe shape_type string to a ShapeType.
// Unrecognized names return ShapeUnknown.
func ParseShapeType(s string) ShapeType {
	for t, name := range shapeTypeNames {
		if name == s {
			return t
		}
	}
	return ShapeUnknown
}

func (t ShapeType) String() string {
	if name, ok := shapeTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Point is an (x, y) pair as stored in LabelMe files.
type Point [2]float64

// Shape is a single annotated region from a LabelMe file.
type Shape struct {
	Label    string
	Type     ShapeType
	// TypeName is the shape_type as written in the file, kept so errors can name
	// types this converter does not support.
	TypeName string
	Points   []Point
}

// UnmarshalJSON decodes a LabelMe shape. A missing shape_type means polygon,
// which is what LabelMe itself writes by default.
func (s *Shape) UnmarshalJSON(data []byte) error {
	var raw struct {
		Label     *string `json:"label"`
		ShapeType *string `json:"shape_type"`
		Points    []Point `json:"points"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Label == nil {
		return fmt.Errorf("%w: shape is missing label", ErrMalformedFile)
	}
	if raw.Points == nil {
		return fmt.Errorf("%w: shape %q is missing points", ErrMalformedFile, *raw.Label)
	}

	typeName := "polygon"
	if raw.ShapeType != nil {
		typeName = *raw.ShapeType
	}

	s.Label = *raw.Label
	s.TypeName = typeName
	s.Type = ParseShapeType(typeName)
	s.Points = raw.Points
	return nil
}

// MarshalJSON writes the shape back in LabelMe's layout.
func (s Shape) MarshalJSON() ([]byte, error) {
	typeName := s.TypeName
	if typeName == "" {
		typeName = s.Type.String()
	}
	return json.Marshal(struct {
		Label     string  `json:"label"`
		ShapeType string  `json:"shape_type"`
		Points    []Point `json:"points"`
	}{s.Label, typeName, s.Points})
}

// File is the subset of a LabelMe annotation file the converter consumes.
// imageData, flags, version and per-shape extras are ignored.
type File struct {
	ImagePath   string  `json:"imagePath"`
	ImageWidth  int     `json:"imageWidth"`
	ImageHeight int     `json:"imageHeight"`
	Shapes      []Shape `json:"shapes"`
}
