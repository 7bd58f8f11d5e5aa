package models

import "time"

// Feedback is a write-once rating a student leaves for a department visit
type Feedback struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	UserID       uint       `json:"user_id" gorm:"not null"`
	User         User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	DepartmentID uint       `json:"department_id" gorm:"not null"`
	Department   Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
	Rating       int        `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Experience   string     `json:"experience" gorm:"type:text;not null"`
	Suggestions  string     `json:"suggestions" gorm:"type:text"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName keeps the uncountable table name used by the schema
func (Feedback) TableName() string { return "feedback" }
