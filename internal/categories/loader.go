// Package categories loads seed category lists for a conversion run.
package categories

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/labelme2coco/internal/coco"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// document is the wrapped form shared by all formats: a COCO file or any file
// with a top-level "categories" list.
type document struct {
	Categories []coco.Category `json:"categories" yaml:"categories" toml:"categories"`
}

// Load reads seed categories from a .json, .yaml/.yml or .toml file. JSON and
// YAML accept either a bare list or a document with a "categories" key (so an
// existing COCO file works as a seed). TOML uses [[categories]] tables.
func Load(path string) ([]coco.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}

	var cats []coco.Category
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		cats, err = parseJSON(data)
	case ".yaml", ".yml":
		cats, err = parseYAML(data)
	case ".toml":
		cats, err = parseTOML(data)
	default:
		return nil, fmt.Errorf("unsupported categories format: %s (supported: .json, .yaml, .yml, .toml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse categories file %s: %w", path, err)
	}

	warnDuplicates(cats)
	slog.Debug("Loaded seed categories", "path", path, "count", len(cats))

	return cats, nil
}

func parseJSON(data []byte) ([]coco.Category, error) {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		var cats []coco.Category
		if err := json.Unmarshal(data, &cats); err != nil {
			return nil, err
		}
		return cats, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

func parseYAML(data []byte) ([]coco.Category, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	if node.Content[0].Kind == yaml.SequenceNode {
		var cats []coco.Category
		if err := node.Content[0].Decode(&cats); err != nil {
			return nil, err
		}
		return cats, nil
	}

	var doc document
	if err := node.Content[0].Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

func parseTOML(data []byte) ([]coco.Category, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

// warnDuplicates logs repeated names or IDs. Seed lists are trusted, so this
// does not fail the run.
func warnDuplicates(cats []coco.Category) {
	names := make(map[string]bool, len(cats))
	ids := make(map[int]bool, len(cats))
	for _, c := range cats {
		if names[c.Name] {
			slog.Warn("Duplicate seed category name", "name", c.Name)
		}
		if ids[c.ID] {
			slog.Warn("Duplicate seed category id", "id", c.ID)
		}
		names[c.Name] = true
		ids[c.ID] = true
	}
}
