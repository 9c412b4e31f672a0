package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/labelme2coco/internal/labelme"
	"github.com/lehigh-university-libraries/labelme2coco/internal/shape"
	"github.com/samber/lo"
)

// inspectSummary tallies a LabelMe folder without converting it.
type inspectSummary struct {
	Files      int
	Shapes     int
	Labels     map[string]int
	ShapeTypes map[string]int
	Skipped    map[string]int
	Problems   []string
}

func executeInspect(ctx context.Context, labelmeFolder string, skipLabels []string, exclude ...string) (*inspectSummary, error) {
	paths, err := labelme.Discover(labelmeFolder, exclude...)
	if err != nil {
		return nil, err
	}

	skip := lo.SliceToMap(skipLabels, func(label string) (string, bool) {
		return label, true
	})

	summary := &inspectSummary{
		Labels:     make(map[string]int),
		ShapeTypes: make(map[string]int),
		Skipped:    make(map[string]int),
	}

	for _, path := range paths {
		// Check for context cancellation (e.g., Ctrl+C) between files
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		summary.Files++
		file, err := labelme.Load(path)
		if err != nil {
			summary.Problems = append(summary.Problems, fmt.Sprintf("%s: %v", path, err))
			continue
		}

		for idx, s := range file.Shapes {
			if skip[s.Label] {
				summary.Skipped[s.Label]++
				continue
			}

			summary.Shapes++
			summary.Labels[s.Label]++
			summary.ShapeTypes[s.TypeName]++

			if _, err := shape.Normalize(s); err != nil {
				summary.Problems = append(summary.Problems, fmt.Sprintf("%s: shape %d: %v", path, idx, err))
			}
		}
	}

	return summary, nil
}

// Print writes the summary as aligned count tables, each sorted by name.
func (s *inspectSummary) Print(w io.Writer) {
	printAligned(w, "", []string{"Annotation files:", "Shapes:"}, []int{s.Files, s.Shapes})
	fmt.Fprintln(w, strings.Repeat("=", 80))

	printCounts(w, "LABELS", s.Labels)
	printCounts(w, "SHAPE TYPES", s.ShapeTypes)
	if len(s.Skipped) > 0 {
		printCounts(w, "SKIPPED LABELS", s.Skipped)
	}

	if len(s.Problems) > 0 {
		fmt.Fprintf(w, "PROBLEMS (%d)\n", len(s.Problems))
		fmt.Fprintln(w, strings.Repeat("-", 80))
		for _, p := range s.Problems {
			fmt.Fprintf(w, "  %s\n", p)
		}
		fmt.Fprintln(w)
	}
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", 80))

	names := lo.Keys(counts)
	sort.Strings(names)

	values := lo.Map(names, func(name string, _ int) int {
		return counts[name]
	})
	printAligned(w, "  ", names, values)
	fmt.Fprintln(w)
}

// printAligned writes one "name value" row per name with the values in a
// single column.
func printAligned(w io.Writer, indent string, names []string, values []int) {
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}
	for i, name := range names {
		fmt.Fprintf(w, "%s%-*s %d\n", indent, width, name, values[i])
	}
}
