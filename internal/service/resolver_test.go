package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"

	"project-planner/internal/metrics"
	"project-planner/internal/model"
	"project-planner/internal/repository"
	"project-planner/internal/service"
	plannertest "project-planner/internal/testutil"
)

type harness struct {
	db       *gorm.DB
	graph    *repository.Graph
	metrics  *metrics.Metrics
	resolver *service.Resolver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := plannertest.NewDB(t)
	m := metrics.New(prometheus.NewRegistry())
	if err := db.Use(m.QueryCounter()); err != nil {
		t.Fatalf("use query counter: %v", err)
	}
	graph := repository.NewGraph(db)
	return &harness{
		db:       db,
		graph:    graph,
		metrics:  m,
		resolver: service.NewResolver(graph, service.WithLogger(plannertest.QuietLogger()), service.WithMetrics(m)),
	}
}

var tables = []string{"projects", "categories", "tasks"}

// queries runs fn and returns how many SELECTs hit each table.
func (h *harness) queries(fn func()) map[string]float64 {
	before := make(map[string]float64, len(tables))
	for _, table := range tables {
		before[table] = testutil.ToFloat64(h.metrics.Queries.WithLabelValues(table))
	}
	fn()
	delta := make(map[string]float64, len(tables))
	for _, table := range tables {
		delta[table] = testutil.ToFloat64(h.metrics.Queries.WithLabelValues(table)) - before[table]
	}
	return delta
}

func TestResolveProjectList(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	plannertest.Seed(t, h.graph)
	if _, err := h.graph.CreateProject(ctx, "Second"); err != nil {
		t.Fatalf("create project: %v", err)
	}

	var list []service.ProjectSummary
	delta := h.queries(func() {
		var err error
		list, err = h.resolver.ResolveProjectList(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
	})

	if len(list) != 2 || list[0].Name != "Project" || list[1].Name != "Second" {
		t.Fatalf("list = %+v", list)
	}
	if delta["projects"] != 1 || delta["categories"] != 0 || delta["tasks"] != 0 {
		t.Errorf("flat list queries = %v, want one projects query", delta)
	}
}

func TestResolveProjectsWithCategories(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	ex := plannertest.Seed(t, h.graph)
	second, err := h.graph.CreateProject(ctx, "Second")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := h.graph.CreateCategory(ctx, "Backlog", second.ID); err != nil {
		t.Fatalf("create category: %v", err)
	}

	tests := []struct {
		name           string
		rels           []string
		wantCategories float64
	}{
		{"flat", nil, 0},
		{"categories", []string{service.RelCategories}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := service.MustSelection(tt.rels...)
			var views []service.ProjectView
			delta := h.queries(func() {
				var err error
				views, err = h.resolver.ResolveProjects(ctx, sel)
				if err != nil {
					t.Fatalf("resolve projects: %v", err)
				}
			})

			if delta["projects"] != 1 || delta["categories"] != tt.wantCategories || delta["tasks"] != 0 {
				t.Errorf("queries = %v, want projects=1 categories=%v tasks=0", delta, tt.wantCategories)
			}
			if len(views) != 2 || views[0].ID != ex.ProjectID || views[1].ID != second.ID {
				t.Fatalf("views = %+v", views)
			}
			for _, v := range views {
				if got := v.Categories != nil; got != sel.Has(service.RelCategories) {
					t.Errorf("project %d categories present = %t", v.ID, got)
				}
				if v.Tasks != nil {
					t.Errorf("project %d tasks loaded without selection", v.ID)
				}
				for _, c := range v.Categories {
					if c.ProjectID != v.ID {
						t.Errorf("category %d of project %d listed under %d", c.ID, c.ProjectID, v.ID)
					}
				}
			}
			if sel.Has(service.RelCategories) {
				if len(views[0].Categories) != 2 || len(views[1].Categories) != 1 {
					t.Errorf("category counts = %d, %d", len(views[0].Categories), len(views[1].Categories))
				}
			}
		})
	}
}

func TestResolveProjectLoadsExactlySelection(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	ex := plannertest.Seed(t, h.graph)

	tests := []struct {
		name           string
		rels           []string
		wantCategories float64
		wantTasks      float64
	}{
		{"no relations", nil, 0, 0},
		{"categories", []string{service.RelCategories}, 1, 0},
		{"tasks", []string{service.RelTasks}, 0, 1},
		{"tasks with category", []string{service.RelTaskCategory}, 1, 1},
		{"everything", []string{service.RelCategories, service.RelTaskCategory}, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := service.MustSelection(tt.rels...)
			var view *service.ProjectView
			delta := h.queries(func() {
				var err error
				view, err = h.resolver.ResolveProject(ctx, ex.ProjectID, sel)
				if err != nil {
					t.Fatalf("resolve: %v", err)
				}
			})

			if delta["projects"] != 1 {
				t.Errorf("projects queries = %v, want 1", delta["projects"])
			}
			if delta["categories"] != tt.wantCategories || delta["tasks"] != tt.wantTasks {
				t.Errorf("queries = %v, want categories=%v tasks=%v", delta, tt.wantCategories, tt.wantTasks)
			}

			if got := view.Categories != nil; got != sel.Has(service.RelCategories) {
				t.Errorf("categories present = %t, selection %s", got, sel)
			}
			if got := view.Tasks != nil; got != sel.Has(service.RelTasks) {
				t.Errorf("tasks present = %t, selection %s", got, sel)
			}
			for _, task := range view.Tasks {
				if got := task.Category != nil; got != sel.Has(service.RelTaskCategory) {
					t.Errorf("task category present = %t, selection %s", got, sel)
				}
			}
		})
	}
}

func TestResolveProjectCategoriesBelongToProject(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	var projectIDs []uint
	for _, name := range []string{"A", "B", "C"} {
		p, err := h.graph.CreateProject(ctx, name)
		if err != nil {
			t.Fatalf("create project: %v", err)
		}
		projectIDs = append(projectIDs, p.ID)
	}
	for i := 0; i < 9; i++ {
		if _, err := h.graph.CreateCategory(ctx, "cat", projectIDs[i%3]); err != nil {
			t.Fatalf("create category: %v", err)
		}
	}

	sel := service.MustSelection(service.RelCategories)
	for _, id := range projectIDs {
		view, err := h.resolver.ResolveProject(ctx, id, sel)
		if err != nil {
			t.Fatalf("resolve %d: %v", id, err)
		}
		if len(view.Categories) != 3 {
			t.Errorf("project %d has %d categories", id, len(view.Categories))
		}
		for i, c := range view.Categories {
			if c.ProjectID != id {
				t.Errorf("project %d returned category %d of project %d", id, c.ID, c.ProjectID)
			}
			if i > 0 && view.Categories[i-1].ID >= c.ID {
				t.Errorf("categories not in creation order: %+v", view.Categories)
			}
		}
	}
}

func TestResolveProjectNotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.resolver.ResolveProject(context.Background(), 99, service.FullSelection())
	var nf *service.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Error() != "no entity for id 99" {
		t.Errorf("message = %q", nf.Error())
	}
	if got := testutil.ToFloat64(h.metrics.ResolverOps.WithLabelValues("resolve_project", "not_found")); got != 1 {
		t.Errorf("not_found counter = %v", got)
	}
}

func TestResolveEndToEnd(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	ex := plannertest.Seed(t, h.graph)

	view, err := h.resolver.ResolveProject(ctx, ex.ProjectID, service.FullSelection())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if view.Name != "Project" || len(view.Categories) != 2 || len(view.Tasks) != 1 {
		t.Fatalf("view = %+v", view)
	}
	if task := view.Tasks[0]; task.Name != "Task A" || task.Category.ID != ex.CategoryIDs[0] {
		t.Fatalf("task = %+v", task)
	}

	res, err := h.resolver.ResolveTaskReassignment(ctx, ex.TaskID, ex.CategoryIDs[1])
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if res.TaskID != ex.TaskID || res.CategoryID != ex.CategoryIDs[1] {
		t.Fatalf("reassignment = %+v", res)
	}

	view, err = h.resolver.ResolveProject(ctx, ex.ProjectID, service.FullSelection())
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if got := view.Tasks[0].Category.ID; got != ex.CategoryIDs[1] {
		t.Errorf("task category after reassignment = %d", got)
	}
}

func TestResolveTaskReassignmentAcrossProjects(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	rows := []interface{}{
		&model.Project{ID: 1, Name: "One"},
		&model.Project{ID: 2, Name: "Two"},
		&model.Category{ID: 10, Name: "Ten", ProjectID: 1},
		&model.Category{ID: 20, Name: "Twenty", ProjectID: 2},
		&model.Task{ID: 100, Name: "Hundred", ProjectID: 1, CategoryID: 10},
	}
	for _, row := range rows {
		if err := h.db.Create(row).Error; err != nil {
			t.Fatalf("insert %T: %v", row, err)
		}
	}

	_, err := h.resolver.ResolveTaskReassignment(ctx, 100, 20)
	if !service.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	task, err := h.graph.GetTask(ctx, 100)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.CategoryID != 10 {
		t.Errorf("task category = %d, want 10", task.CategoryID)
	}

	if _, err := h.resolver.ResolveTaskReassignment(ctx, 100, 30); !service.IsNotFound(err) {
		t.Errorf("missing category: expected NotFoundError, got %v", err)
	}
	if _, err := h.resolver.ResolveTaskReassignment(ctx, 101, 10); !service.IsNotFound(err) {
		t.Errorf("missing task: expected NotFoundError, got %v", err)
	}
}

func TestResolverCreate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if _, err := h.resolver.CreateProject(ctx, service.CreateProjectInput{Name: "   "}); !service.IsValidation(err) {
		t.Fatalf("blank name: expected ValidationError, got %v", err)
	} else if err.Error() != "name is required" {
		t.Errorf("message = %q", err.Error())
	}

	project, err := h.resolver.CreateProject(ctx, service.CreateProjectInput{Name: "  Project "})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if project.Name != "Project" {
		t.Errorf("name not trimmed: %q", project.Name)
	}

	if _, err := h.resolver.CreateCategory(ctx, service.CreateCategoryInput{Name: "Cat", ProjectID: 42}); !service.IsNotFound(err) {
		t.Errorf("missing project: expected NotFoundError, got %v", err)
	}
	if _, err := h.resolver.CreateCategory(ctx, service.CreateCategoryInput{Name: "Cat"}); !service.IsValidation(err) {
		t.Errorf("zero project id: expected ValidationError, got %v", err)
	}

	category, err := h.resolver.CreateCategory(ctx, service.CreateCategoryInput{Name: "Cat", ProjectID: project.ID})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	task, err := h.resolver.CreateTask(ctx, service.CreateTaskInput{Name: "Task", ProjectID: project.ID, CategoryID: category.ID})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.CategoryID != category.ID || task.ProjectID != project.ID {
		t.Errorf("task = %+v", task)
	}

	other, _ := h.resolver.CreateProject(ctx, service.CreateProjectInput{Name: "Other"})
	if _, err := h.resolver.CreateTask(ctx, service.CreateTaskInput{Name: "Task", ProjectID: other.ID, CategoryID: category.ID}); !service.IsValidation(err) {
		t.Errorf("foreign category: expected ValidationError, got %v", err)
	}
}

func TestSelection(t *testing.T) {
	sel, err := service.ParseSelection(" tasks.category , categories")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !sel.Has(service.RelTasks) {
		t.Error("tasks.category should imply tasks")
	}
	if got := sel.String(); got != "categories,tasks,tasks.category" {
		t.Errorf("String() = %q", got)
	}

	empty, err := service.ParseSelection("")
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if empty.String() != "" {
		t.Errorf("empty selection = %q", empty.String())
	}

	if _, err := service.NewSelection("owner"); !service.IsValidation(err) {
		t.Errorf("unknown relation: expected ValidationError, got %v", err)
	}

	var zero service.Selection
	if zero.Has(service.RelCategories) {
		t.Error("zero selection has categories")
	}
}

func TestParseID(t *testing.T) {
	if id, err := service.ParseID("42"); err != nil || id != 42 {
		t.Errorf("ParseID(42) = %d, %v", id, err)
	}
	for _, raw := range []string{"", "0", "-1", "abc", "1.5"} {
		if _, err := service.ParseID(raw); !service.IsNotFound(err) {
			t.Errorf("ParseID(%q): expected NotFoundError, got %v", raw, err)
		}
	}
	if got := service.FormatID(7); got != "7" {
		t.Errorf("FormatID(7) = %q", got)
	}
}
