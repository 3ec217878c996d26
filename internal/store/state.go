// Package store is a local mirror of one project at a time plus the list
// of projects. It is filled from api responses and patched in place after
// task reassignments.
package store

import "project-planner/internal/api"

// Task is a cached task with its category flattened to an id.
type Task struct {
	ID         string
	Name       string
	CategoryID string
}

type Category struct {
	ID   string
	Name string
}

// CurrentProject is the project being viewed. Tasks are keyed by id;
// categories keep server order.
type CurrentProject struct {
	ID         string
	Name       string
	Categories []Category
	Tasks      map[string]Task
}

type State struct {
	Projects []api.ProjectSummary
	Current  *CurrentProject
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{}
	if s.Projects != nil {
		out.Projects = append([]api.ProjectSummary(nil), s.Projects...)
	}
	if s.Current != nil {
		cur := s.Current.clone()
		out.Current = &cur
	}
	return out
}

func (p CurrentProject) clone() CurrentProject {
	out := CurrentProject{ID: p.ID, Name: p.Name}
	if p.Categories != nil {
		out.Categories = append([]Category(nil), p.Categories...)
	}
	if p.Tasks != nil {
		out.Tasks = make(map[string]Task, len(p.Tasks))
		for id, t := range p.Tasks {
			out.Tasks[id] = t
		}
	}
	return out
}

// ReplaceProjects swaps the project list wholesale.
func ReplaceProjects(s State, list []api.ProjectSummary) State {
	s.Projects = append(make([]api.ProjectSummary, 0, len(list)), list...)
	return s
}

// ReplaceCurrent swaps the current project wholesale, indexing tasks by id.
func ReplaceCurrent(s State, p *api.Project) State {
	cur := &CurrentProject{
		ID:         p.ID,
		Name:       p.Name,
		Categories: make([]Category, 0, len(p.Categories)),
		Tasks:      make(map[string]Task, len(p.Tasks)),
	}
	for _, c := range p.Categories {
		cur.Categories = append(cur.Categories, Category{ID: c.ID, Name: c.Name})
	}
	for _, t := range p.Tasks {
		cur.Tasks[t.ID] = Task{ID: t.ID, Name: t.Name, CategoryID: t.Category.ID}
	}
	s.Current = cur
	return s
}

// PatchTaskCategory sets the category of one cached task to the id the
// server returned. It reports false and returns s untouched when there is
// no current project or the task is not part of it. The input is never
// mutated.
func PatchTaskCategory(s State, taskID string, res api.ReassignTaskResult) (State, bool) {
	if s.Current == nil {
		return s, false
	}
	task, ok := s.Current.Tasks[taskID]
	if !ok {
		return s, false
	}

	cur := *s.Current
	cur.Tasks = make(map[string]Task, len(s.Current.Tasks))
	for id, t := range s.Current.Tasks {
		cur.Tasks[id] = t
	}
	task.CategoryID = res.Category.ID
	cur.Tasks[taskID] = task
	s.Current = &cur
	return s, true
}
