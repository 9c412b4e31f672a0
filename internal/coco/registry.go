package coco

import (
	"github.com/samber/lo"
)

// Registry assigns category IDs to label strings for one conversion run.
// New IDs are handed out in first-seen order starting at the configured
// offset, skipping IDs already taken by seeds, and are never reused.
type Registry struct {
	categories []Category
	byName     map[string]int
	taken      map[int]struct{}
	skip       map[string]struct{}
	skipped    map[string]int
	next       int
}

// NewRegistry creates a registry whose first new category gets ID start.
// Shapes with a label in skip are dropped by Resolve.
func NewRegistry(start int, skip []string) *Registry {
	return &Registry{
		byName: make(map[string]int),
		taken:  make(map[int]struct{}),
		skip: lo.SliceToMap(skip, func(label string) (string, struct{}) {
			return label, struct{}{}
		}),
		skipped: make(map[string]int),
		next:    start,
	}
}

// Seed registers pre-existing categories. Callers must not pass duplicate
// names or IDs. The counter for new categories steps over seeded IDs.
func (r *Registry) Seed(categories []Category) {
	for _, c := range categories {
		r.byName[c.Name] = c.ID
		r.taken[c.ID] = struct{}{}
		r.categories = append(r.categories, c)
	}
}

// Resolve returns the category ID for label, creating a category for labels
// seen for the first time. ok is false when the label is in the skip set; the
// shape must then be omitted and nothing is recorded beyond the skip count.
func (r *Registry) Resolve(label string) (id int, ok bool) {
	if _, skip := r.skip[label]; skip {
		r.skipped[label]++
		return 0, false
	}

	if id, exists := r.byName[label]; exists {
		return id, true
	}

	for {
		if _, used := r.taken[r.next]; !used {
			break
		}
		r.next++
	}

	id = r.next
	r.next++
	r.byName[label] = id
	r.taken[id] = struct{}{}
	r.categories = append(r.categories, Category{ID: id, Name: label})
	return id, true
}

// Categories returns the registered categories, seeds first, then in the
// order labels were first resolved.
func (r *Registry) Categories() []Category {
	out := make([]Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// Skipped returns how many shapes were dropped per skipped label.
func (r *Registry) Skipped() map[string]int {
	out := make(map[string]int, len(r.skipped))
	for k, v := range r.skipped {
		out[k] = v
	}
	return out
}
