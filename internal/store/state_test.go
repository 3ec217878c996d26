package store

import (
	"reflect"
	"testing"

	"project-planner/internal/api"
)

func sampleState() State {
	return ReplaceCurrent(State{}, &api.Project{
		ID:         "1",
		Name:       "Project",
		Categories: []api.Category{{ID: "1", Name: "Category 1"}, {ID: "2", Name: "Category 2"}},
		Tasks: []api.Task{
			{ID: "1", Name: "Task A", Category: api.CategoryRef{ID: "1"}},
			{ID: "3", Name: "Task C", Category: api.CategoryRef{ID: "1"}},
		},
	})
}

func TestPatchTaskCategoryDoesNotMutateInput(t *testing.T) {
	in := sampleState()
	snapshot := in.Clone()

	out, ok := PatchTaskCategory(in, "3", api.ReassignTaskResult{Category: api.CategoryRef{ID: "2"}})
	if !ok {
		t.Fatal("patch not applied")
	}
	if !reflect.DeepEqual(in, snapshot) {
		t.Errorf("input mutated: %+v", in.Current.Tasks)
	}
	if got := out.Current.Tasks["3"].CategoryID; got != "2" {
		t.Errorf("patched category = %q", got)
	}
	if out.Current.Tasks["1"] != in.Current.Tasks["1"] {
		t.Errorf("other task changed")
	}
}

func TestPatchTaskCategoryNotApplicable(t *testing.T) {
	res := api.ReassignTaskResult{Category: api.CategoryRef{ID: "2"}}

	empty := State{Projects: []api.ProjectSummary{{ID: "1", Name: "Project"}}}
	if out, ok := PatchTaskCategory(empty, "1", res); ok || !reflect.DeepEqual(out, empty) {
		t.Errorf("patch applied without current project: %+v", out)
	}

	in := sampleState()
	if out, ok := PatchTaskCategory(in, "42", res); ok || !reflect.DeepEqual(out, in) {
		t.Errorf("patch applied to unknown task: %+v", out)
	}
}

func TestReplaceCurrentEmptyProject(t *testing.T) {
	out := ReplaceCurrent(sampleState(), &api.Project{ID: "2", Name: "Empty"})
	if out.Current.ID != "2" || len(out.Current.Tasks) != 0 || len(out.Current.Categories) != 0 {
		t.Errorf("current = %+v", out.Current)
	}
	if out.Current.Tasks == nil {
		t.Error("tasks map is nil")
	}
}

func TestCloneIsDeep(t *testing.T) {
	in := sampleState()
	in.Projects = []api.ProjectSummary{{ID: "1", Name: "Project"}}
	cp := in.Clone()

	cp.Projects[0].Name = "changed"
	cp.Current.Categories[0].Name = "changed"
	cp.Current.Tasks["1"] = Task{ID: "1", Name: "changed"}

	if in.Projects[0].Name != "Project" || in.Current.Categories[0].Name != "Category 1" || in.Current.Tasks["1"].Name != "Task A" {
		t.Errorf("clone shares memory with original: %+v", in)
	}
}
