package model

import (
	"time"

	"ppm-tracker-backend/internal/quarter"
)

// Equipment is a PPM-tracked device. Quarters holds the four quarterly
// maintenance slots keyed PPM_Q_I..PPM_Q_IV.
type Equipment struct {
	ID               int64          `gorm:"primaryKey" json:"id"`
	Serial           string         `gorm:"uniqueIndex;size:128;not null" json:"serial"`
	Department       string         `gorm:"size:100;index" json:"department"`
	Name             string         `gorm:"size:256" json:"name"`
	Model            string         `gorm:"size:128" json:"model"`
	Manufacturer     string         `gorm:"size:128" json:"manufacturer"`
	LogNumber        string         `gorm:"size:64" json:"log_number"`
	InstallationDate string         `gorm:"size:10" json:"installation_date"`
	WarrantyEnd      string         `gorm:"size:10" json:"warranty_end"`
	Quarters         quarter.Record `gorm:"serializer:json;type:text" json:"quarters"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

// TableName keeps the plural of an uncountable noun readable.
func (Equipment) TableName() string { return "equipment" }
