package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"project-planner/internal/model"
)

// Relations selects which associations of a project are preloaded.
type Relations struct {
	Categories   bool
	Tasks        bool
	TaskCategory bool
}

// ProjectRepository manages projects and their eager-loaded associations.
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) List(ctx context.Context) ([]model.Project, error) {
	return r.ListWith(ctx, Relations{})
}

// ListWith lists projects by id with the requested relations preloaded.
func (r *ProjectRepository) ListWith(ctx context.Context, rel Relations) ([]model.Project, error) {
	var projects []model.Project
	if err := preload(r.db.WithContext(ctx), rel).Order("id ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uint) (*model.Project, error) {
	return r.Load(ctx, id, Relations{})
}

// Load fetches a project and preloads exactly the requested relations,
// each ordered by creation. TaskCategory implies Tasks.
func (r *ProjectRepository) Load(ctx context.Context, id uint, rel Relations) (*model.Project, error) {
	var project model.Project
	if err := preload(r.db.WithContext(ctx), rel).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func preload(q *gorm.DB, rel Relations) *gorm.DB {
	if rel.Categories {
		q = q.Preload("Categories", byCreation)
	}
	if rel.Tasks || rel.TaskCategory {
		q = q.Preload("Tasks", byCreation)
	}
	if rel.TaskCategory {
		q = q.Preload("Tasks.Category")
	}
	return q
}

func byCreation(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
