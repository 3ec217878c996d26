package model

import "time"

// Project is the root aggregate: it owns categories and tasks.
type Project struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"not null"`
	CreatedAt  time.Time
	Categories []Category `gorm:"foreignKey:ProjectID;constraint:OnDelete:RESTRICT"`
	Tasks      []Task     `gorm:"foreignKey:ProjectID;constraint:OnDelete:RESTRICT"`
}
