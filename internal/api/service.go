package api

import (
	"context"

	"project-planner/internal/service"
)

// Service exposes the resolver with wire ids and wire shapes.
type Service struct {
	resolver *service.Resolver
}

func NewService(resolver *service.Resolver) *Service {
	return &Service{resolver: resolver}
}

func (s *Service) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	list, err := s.resolver.ResolveProjectList(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProjectSummary, 0, len(list))
	for _, p := range list {
		out = append(out, ProjectSummary{ID: service.FormatID(p.ID), Name: p.Name})
	}
	return out, nil
}

// ResolveList lists every project with the relations in sel.
func (s *Service) ResolveList(ctx context.Context, sel service.Selection) ([]service.ProjectView, error) {
	return s.resolver.ResolveProjects(ctx, sel)
}

// GetProject returns the project with categories and tasks{category{id}}.
func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	view, err := s.Resolve(ctx, id, service.FullSelection())
	if err != nil {
		return nil, err
	}
	return projectFromView(view), nil
}

// Resolve is GetProject with a caller-chosen selection.
func (s *Service) Resolve(ctx context.Context, id string, sel service.Selection) (*service.ProjectView, error) {
	projectID, err := service.ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.resolver.ResolveProject(ctx, projectID, sel)
}

func (s *Service) ReassignTask(ctx context.Context, taskID, categoryID string) (*ReassignTaskResult, error) {
	tid, err := service.ParseID(taskID)
	if err != nil {
		return nil, err
	}
	cid, err := service.ParseID(categoryID)
	if err != nil {
		return nil, err
	}
	res, err := s.resolver.ResolveTaskReassignment(ctx, tid, cid)
	if err != nil {
		return nil, err
	}
	return &ReassignTaskResult{Category: CategoryRef{ID: service.FormatID(res.CategoryID)}}, nil
}

func (s *Service) CreateProject(ctx context.Context, name string) (*ProjectSummary, error) {
	p, err := s.resolver.CreateProject(ctx, service.CreateProjectInput{Name: name})
	if err != nil {
		return nil, err
	}
	return &ProjectSummary{ID: service.FormatID(p.ID), Name: p.Name}, nil
}

func (s *Service) CreateCategory(ctx context.Context, projectID, name string) (*Category, error) {
	pid, err := service.ParseID(projectID)
	if err != nil {
		return nil, err
	}
	c, err := s.resolver.CreateCategory(ctx, service.CreateCategoryInput{Name: name, ProjectID: pid})
	if err != nil {
		return nil, err
	}
	return &Category{ID: service.FormatID(c.ID), Name: c.Name}, nil
}

func (s *Service) CreateTask(ctx context.Context, projectID, categoryID, name string) (*Task, error) {
	pid, err := service.ParseID(projectID)
	if err != nil {
		return nil, err
	}
	cid, err := service.ParseID(categoryID)
	if err != nil {
		return nil, err
	}
	t, err := s.resolver.CreateTask(ctx, service.CreateTaskInput{Name: name, ProjectID: pid, CategoryID: cid})
	if err != nil {
		return nil, err
	}
	return &Task{
		ID:       service.FormatID(t.ID),
		Name:     t.Name,
		Category: CategoryRef{ID: service.FormatID(t.CategoryID)},
	}, nil
}

func projectFromView(view *service.ProjectView) *Project {
	p := &Project{
		ID:         service.FormatID(view.ID),
		Name:       view.Name,
		Categories: make([]Category, 0, len(view.Categories)),
		Tasks:      make([]Task, 0, len(view.Tasks)),
	}
	for _, c := range view.Categories {
		p.Categories = append(p.Categories, Category{ID: service.FormatID(c.ID), Name: c.Name})
	}
	for _, t := range view.Tasks {
		p.Tasks = append(p.Tasks, Task{
			ID:       service.FormatID(t.ID),
			Name:     t.Name,
			Category: CategoryRef{ID: service.FormatID(t.CategoryID)},
		})
	}
	return p
}

// shapedProject renders only the selected relations, for ?include= reads.
func shapedProject(view *service.ProjectView, sel service.Selection) map[string]interface{} {
	out := map[string]interface{}{
		"id":   service.FormatID(view.ID),
		"name": view.Name,
	}
	if sel.Has(service.RelCategories) {
		cats := make([]Category, 0, len(view.Categories))
		for _, c := range view.Categories {
			cats = append(cats, Category{ID: service.FormatID(c.ID), Name: c.Name})
		}
		out["categories"] = cats
	}
	if sel.Has(service.RelTasks) {
		tasks := make([]map[string]interface{}, 0, len(view.Tasks))
		for _, t := range view.Tasks {
			task := map[string]interface{}{"id": service.FormatID(t.ID), "name": t.Name}
			if t.Category != nil {
				task["category"] = CategoryRef{ID: service.FormatID(t.Category.ID)}
			}
			tasks = append(tasks, task)
		}
		out["tasks"] = tasks
	}
	return out
}
