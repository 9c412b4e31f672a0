package shape

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lehigh-university-libraries/labelme2coco/internal/labelme"
)

func TestNormalizePassthrough(t *testing.T) {
	tests := []struct {
		name     string
		shape    labelme.Shape
		wantKind Kind
	}{
		{
			name: "rectangle stays rectangle",
			shape: labelme.Shape{
				Type:   labelme.ShapeRectangle,
				Points: []labelme.Point{{1, 1}, {4, 6}},
			},
			wantKind: Rectangle,
		},
		{
			name: "polygon stays polygon",
			shape: labelme.Shape{
				Type:   labelme.ShapePolygon,
				Points: []labelme.Point{{0, 0}, {4, 0}, {4, 3}},
			},
			wantKind: Polygon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.shape)
			if err != nil {
				t.Fatalf("Normalize returned error: %v", err)
			}
			if got.Kind != tt.wantKind {
				t.Errorf("Expected kind %s, got %s", tt.wantKind, got.Kind)
			}
			if diff := cmp.Diff(tt.shape.Points, got.Points); diff != "" {
				t.Errorf("points mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeDoesNotAliasInput(t *testing.T) {
	in := labelme.Shape{
		Type:   labelme.ShapePolygon,
		Points: []labelme.Point{{0, 0}, {4, 0}, {4, 3}},
	}

	got, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	got.Points[0] = labelme.Point{99, 99}

	if in.Points[0] != (labelme.Point{0, 0}) {
		t.Errorf("input shape was modified: %v", in.Points[0])
	}
}

func TestNormalizeLine(t *testing.T) {
	got, err := Normalize(labelme.Shape{
		Type:   labelme.ShapeLine,
		Points: []labelme.Point{{0, 0}, {5, 5}},
	})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if got.Kind != Polygon {
		t.Errorf("Expected polygon, got %s", got.Kind)
	}

	want := []labelme.Point{{0, 0}, {5, 5}, {5.001, 5.001}, {0.001, 0.001}}
	if diff := cmp.Diff(want, got.Points); diff != "" {
		t.Errorf("line polygon mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizePoint(t *testing.T) {
	got, err := Normalize(labelme.Shape{
		Type:   labelme.ShapePoint,
		Points: []labelme.Point{{2, 2}},
	})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if got.Kind != Rectangle {
		t.Errorf("Expected rectangle, got %s", got.Kind)
	}

	want := []labelme.Point{{2, 2}, {3, 3}}
	if diff := cmp.Diff(want, got.Points); diff != "" {
		t.Errorf("point box mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeCircle(t *testing.T) {
	in := labelme.Shape{
		Type:   labelme.ShapeCircle,
		Points: []labelme.Point{{10, 10}, {13, 10}},
	}

	got, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if got.Kind != Polygon {
		t.Fatalf("Expected polygon, got %s", got.Kind)
	}

	// 200 samples collapse onto far fewer integer vertices at radius 3.
	if len(got.Points) == 0 || len(got.Points) >= 200 {
		t.Errorf("Expected between 1 and 199 vertices, got %d", len(got.Points))
	}

	if got.Points[0] != (labelme.Point{13, 10}) {
		t.Errorf("Expected first vertex at angle 0 (13,10), got %v", got.Points[0])
	}

	seen := make(map[labelme.Point]bool)
	for i, p := range got.Points {
		if seen[p] {
			t.Errorf("duplicate vertex %v at index %d", p, i)
		}
		seen[p] = true

		if p[0] != math.Trunc(p[0]) || p[1] != math.Trunc(p[1]) {
			t.Errorf("vertex %v is not integer", p)
		}

		d := math.Hypot(p[0]-10, p[1]-10)
		if math.Abs(d-3) > 1 {
			t.Errorf("vertex %v is %.3f from center, want within 1 of radius 3", p, d)
		}
	}
}

func TestNormalizeCircleSampleDensity(t *testing.T) {
	// With radius 0 every sample rounds onto the center.
	got, err := Normalize(labelme.Shape{
		Type:   labelme.ShapeCircle,
		Points: []labelme.Point{{4, 4}, {4, 4}},
	})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if diff := cmp.Diff([]labelme.Point{{4, 4}}, got.Points); diff != "" {
		t.Errorf("degenerate circle mismatch (-want +got):\n%s", diff)
	}

	// A large circle keeps many distinct vertices.
	got, err = Normalize(labelme.Shape{
		Type:   labelme.ShapeCircle,
		Points: []labelme.Point{{100, 100}, {150, 100}},
	})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(got.Points) < 200 {
		t.Errorf("Expected at least 200 vertices for radius 50, got %d", len(got.Points))
	}
}

func TestNormalizeNoNegativeZero(t *testing.T) {
	got, err := Normalize(labelme.Shape{
		Type:   labelme.ShapeCircle,
		Points: []labelme.Point{{0, 0}, {0.4, 0}},
	})
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	for _, p := range got.Points {
		if math.Signbit(p[0]) || math.Signbit(p[1]) {
			t.Errorf("vertex %v carries a negative zero", p)
		}
	}
}

func TestNormalizeUnsupportedType(t *testing.T) {
	_, err := Normalize(labelme.Shape{
		Type:     labelme.ShapeUnknown,
		TypeName: "linestrip",
		Points:   []labelme.Point{{0, 0}, {1, 1}},
	})
	if !errors.Is(err, ErrUnsupportedShapeType) {
		t.Fatalf("Expected ErrUnsupportedShapeType, got %v", err)
	}

	var typeErr *UnsupportedShapeTypeError
	if !errors.As(err, &typeErr) || typeErr.Type != "linestrip" {
		t.Errorf("Expected error naming linestrip, got %v", err)
	}
}

func TestNormalizeWrongPointCount(t *testing.T) {
	tests := []struct {
		name  string
		shape labelme.Shape
	}{
		{"circle with one point", labelme.Shape{Type: labelme.ShapeCircle, Points: []labelme.Point{{1, 1}}}},
		{"circle with three points", labelme.Shape{Type: labelme.ShapeCircle, Points: []labelme.Point{{1, 1}, {2, 2}, {3, 3}}}},
		{"line with one point", labelme.Shape{Type: labelme.ShapeLine, Points: []labelme.Point{{1, 1}}}},
		{"point without points", labelme.Shape{Type: labelme.ShapePoint, Points: []labelme.Point{}}},
		{"rectangle with one point", labelme.Shape{Type: labelme.ShapeRectangle, Points: []labelme.Point{{1, 1}}}},
		{"polygon with two points", labelme.Shape{Type: labelme.ShapePolygon, Points: []labelme.Point{{1, 1}, {2, 2}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.shape)
			if !errors.Is(err, ErrMalformedShape) {
				t.Errorf("Expected ErrMalformedShape, got %v", err)
			}
		})
	}
}
