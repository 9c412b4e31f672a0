package labelme

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrMalformedFile is returned when an annotation file lacks a required field
// or carries a value of the wrong shape.
var ErrMalformedFile = errors.New("malformed annotation file")

// Discover walks dir recursively and returns every regular file whose name
// contains ".json", sorted lexicographically by path. Directories listed in
// exclude (typically the export dir) are not descended into.
func Discover(dir string, exclude ...string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat labelme folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("labelme folder %s is not a directory", dir)
	}

	skipDirs := make([]string, 0, len(exclude))
	for _, p := range exclude {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve excluded dir %s: %w", p, err)
		}
		skipDirs = append(skipDirs, abs)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && excluded(path, skipDirs) {
				slog.Debug("Skipping excluded directory", "dir", path)
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if strings.Contains(d.Name(), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk labelme folder: %w", err)
	}

	sort.Strings(paths)
	slog.Debug("Discovered annotation files", "dir", dir, "count", len(paths))

	return paths, nil
}

func excluded(path string, skipDirs []string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range skipDirs {
		if abs == dir {
			return true
		}
	}
	return false
}

// Load reads and validates a single LabelMe annotation file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation file: %w", err)
	}
	return Parse(data)
}

// Parse decodes LabelMe JSON, requiring imagePath, imageWidth, imageHeight
// and shapes to be present.
func Parse(data []byte) (*File, error) {
	var raw struct {
		ImagePath   *string `json:"imagePath"`
		ImageWidth  *int    `json:"imageWidth"`
		ImageHeight *int    `json:"imageHeight"`
		Shapes      []Shape `json:"shapes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		if errors.Is(err, ErrMalformedFile) {
			return nil, err
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: field %s: %v", ErrMalformedFile, typeErr.Field, err)
		}
		return nil, fmt.Errorf("failed to parse annotation JSON: %w", err)
	}

	var missing []string
	if raw.ImagePath == nil {
		missing = append(missing, "imagePath")
	}
	if raw.ImageWidth == nil {
		missing = append(missing, "imageWidth")
	}
	if raw.ImageHeight == nil {
		missing = append(missing, "imageHeight")
	}
	if raw.Shapes == nil {
		missing = append(missing, "shapes")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedFile, strings.Join(missing, ", "))
	}

	return &File{
		ImagePath:   *raw.ImagePath,
		ImageWidth:  *raw.ImageWidth,
		ImageHeight: *raw.ImageHeight,
		Shapes:      raw.Shapes,
	}, nil
}
