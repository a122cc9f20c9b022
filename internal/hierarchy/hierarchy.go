// Package hierarchy flattens a web log's category forest into the
// display-ordered, annotated sequence used by navigation and admin views.
package hierarchy

import (
	"context"
	"sort"
	"strings"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
)

// DisplayCategory is one category annotated for display.
type DisplayCategory struct {
	ID          string
	Slug        string
	Name        string
	Description string
	ParentNames []string
	PostCount   int
}

// PostCounter counts the distinct published posts categorized under any of
// the given category IDs. The resolver calls it once per category with that
// category's ID plus all of its descendants' IDs.
type PostCounter func(ctx context.Context, categoryIDs []string) (int, error)

// Resolve orders the flat category list by pre-order depth-first traversal:
// roots first, sorted case-insensitively by name, then each root's children
// (again name-sorted) before the next root. Each entry carries its full slug
// path, its ancestor names, and its rolled-up post count.
//
// A category whose parent no longer exists is treated as a root rather than
// dropped. A parent chain that loops back on itself is broken at the
// first-visited member of the cycle, which becomes an effective root.
func Resolve(ctx context.Context, categories []model.Category, count PostCounter) ([]DisplayCategory, error) {
	byParent := make(map[string][]model.Category)
	ids := make(map[string]struct{}, len(categories))
	for _, cat := range categories {
		ids[cat.ID] = struct{}{}
	}
	for _, cat := range categories {
		parent := cat.ParentID
		if _, ok := ids[parent]; !ok {
			parent = ""
		}
		byParent[parent] = append(byParent[parent], cat)
	}
	for _, siblings := range byParent {
		sortByName(siblings)
	}

	var (
		ordered     []DisplayCategory
		visited     = make(map[string]struct{}, len(categories))
		descendants = make(map[string][]string, len(categories))
	)

	var walk func(cat model.Category, slugs, names []string) []string
	walk = func(cat model.Category, slugs, names []string) []string {
		visited[cat.ID] = struct{}{}

		// Ancestor state is copied, never shared, so sibling branches
		// cannot observe each other's accumulated slugs or names.
		childSlugs := append(append([]string{}, slugs...), cat.Slug)
		childNames := append(append([]string{}, names...), cat.Name)

		ordered = append(ordered, DisplayCategory{
			ID:          cat.ID,
			Slug:        strings.Join(childSlugs, "/"),
			Name:        cat.Name,
			Description: cat.Description,
			ParentNames: append([]string{}, names...),
		})

		sub := []string{cat.ID}
		for _, child := range byParent[cat.ID] {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			sub = append(sub, walk(child, childSlugs, childNames)...)
		}
		descendants[cat.ID] = sub
		return sub
	}

	for _, root := range byParent[""] {
		if _, seen := visited[root.ID]; !seen {
			walk(root, nil, nil)
		}
	}

	// Anything still unvisited is part of a parent cycle; break each cycle
	// at its first member in name order.
	remaining := make([]model.Category, 0)
	for _, cat := range categories {
		if _, seen := visited[cat.ID]; !seen {
			remaining = append(remaining, cat)
		}
	}
	sortByName(remaining)
	for _, cat := range remaining {
		if _, seen := visited[cat.ID]; !seen {
			walk(cat, nil, nil)
		}
	}

	for i := range ordered {
		n, err := count(ctx, descendants[ordered[i].ID])
		if err != nil {
			return nil, err
		}
		ordered[i].PostCount = n
	}

	return ordered, nil
}

func sortByName(cats []model.Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		return strings.ToLower(cats[i].Name) < strings.ToLower(cats[j].Name)
	})
}
