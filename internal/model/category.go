package model

import "time"

// Category is a bucket inside a project. It never moves between projects.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	ProjectID uint   `gorm:"not null;index"`
	CreatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
}
