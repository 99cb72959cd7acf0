package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser is a seeded administrative principal. There is no public
// registration path for admins.
type AdminUser struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}
