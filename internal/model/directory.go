package model

import (
	"time"

	"gorm.io/gorm"
)

// Group and Student are the minimal directory tables this core reads:
// enrollment lookup for ticket allocation and display names for monitoring.
// Full directory management lives outside the core.

type Group struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Name      string         `json:"name" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type Student struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	FullName  string         `json:"full_name" gorm:"not null"`
	GroupID   uint           `json:"group_id" gorm:"not null;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
