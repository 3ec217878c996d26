package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"project-planner/internal/model"
)

// MisassignedTask is a task whose category is missing or owned by
// another project. CategoryProjectID is nil when the category is missing.
type MisassignedTask struct {
	TaskID            uint
	ProjectID         uint
	CategoryID        uint
	CategoryProjectID *uint
}

// TaskRepository handles persistence for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) UpdateCategory(ctx context.Context, taskID, categoryID uint) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", taskID).
		Update("category_id", categoryID).Error; err != nil {
		return fmt.Errorf("update task category: %w", err)
	}
	return nil
}

// FindMisassigned lists tasks breaking the same-project rule, ordered by id.
func (r *TaskRepository) FindMisassigned(ctx context.Context) ([]MisassignedTask, error) {
	var rows []MisassignedTask
	err := r.db.WithContext(ctx).Raw(`
		SELECT t.id AS task_id, t.project_id, t.category_id, c.project_id AS category_project_id
		FROM tasks t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE c.id IS NULL OR c.project_id <> t.project_id
		ORDER BY t.id`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find misassigned tasks: %w", err)
	}
	return rows, nil
}
