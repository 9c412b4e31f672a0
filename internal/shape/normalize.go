package shape

import (
	"errors"
	"fmt"
	"math"

	"github.com/lehigh-university-libraries/labelme2coco/internal/labelme"
	"github.com/samber/lo"
)

const (
	// lineEpsilon offsets the second edge of a line's degenerate quadrilateral.
	lineEpsilon = 1e-3
	// circleSamplesPerPixel is the number of angle samples per unit of radius.
	circleSamplesPerPixel = 50
)

var (
	ErrUnsupportedShapeType = errors.New("unsupported shape type")
	ErrMalformedShape       = errors.New("malformed shape")
)

// UnsupportedShapeTypeError names a shape_type outside the supported set.
type UnsupportedShapeTypeError struct {
	Type string
}

func (e *UnsupportedShapeTypeError) Error() string {
	return fmt.Sprintf("shape_type=%s not supported", e.Type)
}

func (e *UnsupportedShapeTypeError) Is(target error) bool {
	return target == ErrUnsupportedShapeType
}

// Kind is one of the two terminal shape forms.
type Kind int

const (
	Rectangle Kind = iota + 1
	Polygon
)

func (k Kind) String() string {
	switch k {
	case Rectangle:
		return "rectangle"
	case Polygon:
		return "polygon"
	default:
		return "invalid"
	}
}

// Canonical is a shape reduced to a rectangle (two corner points) or a polygon
// (ordered vertex list).
type Canonical struct {
	Kind   Kind
	Points []labelme.Point
}

// Normalize reduces a LabelMe shape to its canonical form. The input shape is
// not modified; the returned points never alias s.Points.
func Normalize(s labelme.Shape) (Canonical, error) {
	switch s.Type {
	case labelme.ShapeRectangle:
		if err := expectPoints(s, 2, 2); err != nil {
			return Canonical{}, err
		}
		return Canonical{Kind: Rectangle, Points: clonePoints(s.Points)}, nil
	case labelme.ShapePolygon:
		if err := expectPoints(s, 3, -1); err != nil {
			return Canonical{}, err
		}
		return Canonical{Kind: Polygon, Points: clonePoints(s.Points)}, nil
	case labelme.ShapeCircle:
		if err := expectPoints(s, 2, 2); err != nil {
			return Canonical{}, err
		}
		return Canonical{Kind: Polygon, Points: circlePolygon(s.Points[0], s.Points[1])}, nil
	case labelme.ShapeLine:
		if err := expectPoints(s, 2, 2); err != nil {
			return Canonical{}, err
		}
		return Canonical{Kind: Polygon, Points: linePolygon(s.Points[0], s.Points[1])}, nil
	case labelme.ShapePoint:
		if err := expectPoints(s, 1, -1); err != nil {
			return Canonical{}, err
		}
		p := s.Points[0]
		return Canonical{
			Kind:   Rectangle,
			Points: []labelme.Point{p, {p[0] + 1, p[1] + 1}},
		}, nil
	case labelme.ShapeUnknown:
		return Canonical{}, &UnsupportedShapeTypeError{Type: s.TypeName}
	}
	return Canonical{}, &UnsupportedShapeTypeError{Type: s.TypeName}
}

// expectPoints checks the point count; most < 0 means unbounded.
func expectPoints(s labelme.Shape, least, most int) error {
	n := len(s.Points)
	if n < least || (most >= 0 && n > most) {
		want := fmt.Sprintf("%d", least)
		switch {
		case most < 0:
			want = fmt.Sprintf("at least %d", least)
		case most != least:
			want = fmt.Sprintf("%d to %d", least, most)
		}
		return fmt.Errorf("%w: %s needs %s points, got %d", ErrMalformedShape, s.Type, want, n)
	}
	return nil
}

// circlePolygon samples 50*(floor(r)+1) angles over [0, 2π] inclusive, rounds
// each sample to the nearest integer and drops repeats, keeping first
// occurrences in order.
func circlePolygon(center, rim labelme.Point) []labelme.Point {
	cx, cy := center[0], center[1]
	r := math.Hypot(rim[0]-cx, rim[1]-cy)

	n := circleSamplesPerPixel * (int(math.Floor(r)) + 1)
	samples := make([]labelme.Point, n)
	step := 2 * math.Pi / float64(n-1)
	for i := range samples {
		angle := float64(i) * step
		if i == n-1 {
			angle = 2 * math.Pi
		}
		samples[i] = labelme.Point{
			roundHalfEven(cx + r*math.Cos(angle)),
			roundHalfEven(cy + r*math.Sin(angle)),
		}
	}

	return lo.Uniq(samples)
}

func linePolygon(a, b labelme.Point) []labelme.Point {
	return []labelme.Point{
		a,
		b,
		{b[0] + lineEpsilon, b[1] + lineEpsilon},
		{a[0] + lineEpsilon, a[1] + lineEpsilon},
	}
}

// roundHalfEven rounds to the nearest integer, ties to even, and folds
// negative zero into zero so it serializes as 0.
func roundHalfEven(v float64) float64 {
	v = math.RoundToEven(v)
	if v == 0 {
		return 0
	}
	return v
}

func clonePoints(points []labelme.Point) []labelme.Point {
	out := make([]labelme.Point, len(points))
	copy(out, points)
	return out
}
