package model

import "time"

// Task belongs to a project and is assigned to one of that project's
// categories. CategoryID is the only field that changes after creation.
type Task struct {
	ID         uint      `gorm:"primaryKey"`
	Name       string    `gorm:"not null"`
	ProjectID  uint      `gorm:"not null;index"`
	CategoryID uint      `gorm:"not null;index"`
	Category   *Category `gorm:"foreignKey:CategoryID"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
