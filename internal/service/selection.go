package service

import (
	"sort"
	"strings"

	"project-planner/internal/repository"
)

// Relation names a caller may request under a project.
const (
	RelCategories   = "categories"
	RelTasks        = "tasks"
	RelTaskCategory = "tasks.category"
)

var knownRelations = map[string]bool{
	RelCategories:   true,
	RelTasks:        true,
	RelTaskCategory: true,
}

// Selection is the set of nested relations requested for a project read.
// The zero value selects no relations.
type Selection struct {
	rels map[string]bool
}

// NewSelection builds a selection from relation names. Requesting
// tasks.category also selects tasks.
func NewSelection(rels ...string) (Selection, error) {
	sel := Selection{rels: make(map[string]bool, len(rels))}
	for _, rel := range rels {
		rel = strings.ToLower(strings.TrimSpace(rel))
		if rel == "" {
			continue
		}
		if !knownRelations[rel] {
			return Selection{}, &ValidationError{Message: "unknown relation " + rel}
		}
		sel.rels[rel] = true
	}
	if sel.rels[RelTaskCategory] {
		sel.rels[RelTasks] = true
	}
	return sel, nil
}

// MustSelection is NewSelection for constant inputs.
func MustSelection(rels ...string) Selection {
	sel, err := NewSelection(rels...)
	if err != nil {
		panic(err)
	}
	return sel
}

// ParseSelection parses a comma separated list such as
// "categories,tasks.category".
func ParseSelection(raw string) (Selection, error) {
	return NewSelection(strings.Split(raw, ",")...)
}

// FullSelection is what the client cache requests for its current project.
func FullSelection() Selection {
	return MustSelection(RelCategories, RelTaskCategory)
}

func (s Selection) Has(rel string) bool {
	return s.rels[rel]
}

func (s Selection) String() string {
	names := make([]string, 0, len(s.rels))
	for rel := range s.rels {
		names = append(names, rel)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func (s Selection) relations() repository.Relations {
	return repository.Relations{
		Categories:   s.Has(RelCategories),
		Tasks:        s.Has(RelTasks),
		TaskCategory: s.Has(RelTaskCategory),
	}
}
