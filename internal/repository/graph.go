package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"project-planner/internal/model"
)

// Graph is the canonical Project → Category → Task store. Every write
// checks references and the same-project rule inside one transaction.
type Graph struct {
	db       *gorm.DB
	projects *ProjectRepository
	tasks    *TaskRepository
}

func NewGraph(db *gorm.DB) *Graph {
	return &Graph{
		db:       db,
		projects: NewProjectRepository(db),
		tasks:    NewTaskRepository(db),
	}
}

func (g *Graph) CreateProject(ctx context.Context, name string) (*model.Project, error) {
	project := model.Project{Name: name}
	if err := g.projects.Create(ctx, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (g *Graph) CreateCategory(ctx context.Context, name string, projectID uint) (*model.Category, error) {
	var category model.Category
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := NewProjectRepository(tx).GetByID(ctx, projectID); err != nil {
			return lookupError("project", projectID, err)
		}
		category = model.Category{Name: name, ProjectID: projectID}
		return NewCategoryRepository(tx).Create(ctx, &category)
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (g *Graph) CreateTask(ctx context.Context, name string, projectID, categoryID uint) (*model.Task, error) {
	var task model.Task
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := NewProjectRepository(tx).GetByID(ctx, projectID); err != nil {
			return lookupError("project", projectID, err)
		}
		category, err := NewCategoryRepository(tx).GetByID(ctx, categoryID)
		if err != nil {
			return lookupError("category", categoryID, err)
		}
		if category.ProjectID != projectID {
			return &InvariantViolation{
				CategoryID:        categoryID,
				ProjectID:         projectID,
				CategoryProjectID: category.ProjectID,
			}
		}
		task = model.Task{Name: name, ProjectID: projectID, CategoryID: categoryID}
		return NewTaskRepository(tx).Create(ctx, &task)
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ReassignTaskCategory moves a task to another category of its own project
// and returns the task as stored after the change. Reassigning to the
// current category succeeds without writing.
func (g *Graph) ReassignTaskCategory(ctx context.Context, taskID, categoryID uint) (*model.Task, error) {
	var updated *model.Task
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := NewTaskRepository(tx)
		task, err := tasks.FindByID(ctx, taskID)
		if err != nil {
			return lookupError("task", taskID, err)
		}
		category, err := NewCategoryRepository(tx).GetByID(ctx, categoryID)
		if err != nil {
			return lookupError("category", categoryID, err)
		}
		if category.ProjectID != task.ProjectID {
			return &InvariantViolation{
				TaskID:            taskID,
				CategoryID:        categoryID,
				ProjectID:         task.ProjectID,
				CategoryProjectID: category.ProjectID,
			}
		}
		if task.CategoryID != categoryID {
			if err := tasks.UpdateCategory(ctx, taskID, categoryID); err != nil {
				return err
			}
		}
		updated, err = tasks.FindByID(ctx, taskID)
		if err != nil {
			return fmt.Errorf("reload task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (g *Graph) GetProject(ctx context.Context, id uint) (*model.Project, error) {
	return g.Load(ctx, id, Relations{})
}

func (g *Graph) ListProjects(ctx context.Context) ([]model.Project, error) {
	projects, err := g.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// ListProjectsWith lists every project with rel preloaded, one query per
// relation for the whole list.
func (g *Graph) ListProjectsWith(ctx context.Context, rel Relations) ([]model.Project, error) {
	projects, err := g.projects.ListWith(ctx, rel)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (g *Graph) GetProjectWithCategories(ctx context.Context, id uint) (*model.Project, error) {
	return g.Load(ctx, id, Relations{Categories: true})
}

func (g *Graph) GetProjectWithTasks(ctx context.Context, id uint, withCategory bool) (*model.Project, error) {
	return g.Load(ctx, id, Relations{Tasks: true, TaskCategory: withCategory})
}

// GetProjectFull loads categories and tasks, each task with its category.
func (g *Graph) GetProjectFull(ctx context.Context, id uint) (*model.Project, error) {
	return g.Load(ctx, id, Relations{Categories: true, Tasks: true, TaskCategory: true})
}

// Load fetches a project with the given relations preloaded.
func (g *Graph) Load(ctx context.Context, id uint, rel Relations) (*model.Project, error) {
	project, err := g.projects.Load(ctx, id, rel)
	if err != nil {
		return nil, lookupError("project", id, err)
	}
	return project, nil
}

func (g *Graph) GetTask(ctx context.Context, id uint) (*model.Task, error) {
	task, err := g.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError("task", id, err)
	}
	return task, nil
}

// Misassigned reports tasks whose stored category breaks the same-project
// rule. Writes through Graph never produce them; rows written around it can.
func (g *Graph) Misassigned(ctx context.Context) ([]MisassignedTask, error) {
	return g.tasks.FindMisassigned(ctx)
}
