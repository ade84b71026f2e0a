package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Category string

const (
	CategoryConsole   Category = "CONSOLE"
	CategoryBilliard  Category = "BILLIARD"
	CategoryBoardGame Category = "BOARD_GAME"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryConsole, CategoryBilliard, CategoryBoardGame:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusOccupied  Status = "OCCUPIED"
)

// Device is a bookable station. OCCUPIED devices point at their ACTIVE session.
type Device struct {
	ID              snowflake.ID  `json:"id" gorm:"primaryKey"`
	Name            string        `json:"name" gorm:"type:varchar(64);not null;uniqueIndex:ux_devices_name"`
	Category        Category      `json:"category" gorm:"type:varchar(32);not null;index"`
	Status          Status        `json:"status" gorm:"type:varchar(16);not null;default:AVAILABLE"`
	ActiveSessionID *snowflake.ID `json:"active_session_id,omitempty" gorm:"column:active_session_id"`
	CreatedAt       time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"not null"`
}

func (Device) TableName() string { return "devices" }
