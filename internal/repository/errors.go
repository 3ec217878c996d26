package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ReferenceError reports a foreign key or lookup id with no row behind it.
type ReferenceError struct {
	Entity string
	ID     uint
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("no %s for id %d", e.Entity, e.ID)
}

// InvariantViolation reports an attempt to assign a task to a category
// owned by a different project. TaskID is zero for task creation.
type InvariantViolation struct {
	TaskID            uint
	CategoryID        uint
	ProjectID         uint
	CategoryProjectID uint
}

func (e *InvariantViolation) Error() string {
	if e.TaskID == 0 {
		return fmt.Sprintf("category %d belongs to project %d, not project %d",
			e.CategoryID, e.CategoryProjectID, e.ProjectID)
	}
	return fmt.Sprintf("task %d: category %d belongs to project %d, not project %d",
		e.TaskID, e.CategoryID, e.CategoryProjectID, e.ProjectID)
}

// lookupError turns a missing row into a ReferenceError and wraps anything else.
func lookupError(entity string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ReferenceError{Entity: entity, ID: id}
	}
	return fmt.Errorf("find %s: %w", entity, err)
}
