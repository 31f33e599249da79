package model

import "time"

// Trainer is a staff member responsible for equipment training in a department.
type Trainer struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	DepartmentID *int64    `gorm:"index" json:"department_id"`
	Telephone    string    `gorm:"size:20" json:"telephone"`
	Information  string    `gorm:"size:500" json:"information"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Department *Department `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}
