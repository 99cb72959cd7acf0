package models

import (
	"time"

	"github.com/google/uuid"
)

// Drop is a password-protected content record. The password hash never
// leaves the server; FileName and FileStorageName are set and cleared
// together (both nil means no attachment).
type Drop struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ShortID         string    `json:"shortId" gorm:"uniqueIndex;not null"`
	SerialNumber    int64     `json:"serialNumber" gorm:"uniqueIndex;not null"`
	PasswordHash    string    `json:"-" gorm:"not null"`
	TextContent     string    `json:"textContent" gorm:"type:text;not null"`
	Label           string    `json:"label"`
	FileName        *string   `json:"fileName"`        // client display name only
	FileStorageName *string   `json:"-"`               // randomized on-disk name
	DownloadCount   int64     `json:"downloadCount" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// HasFile reports whether the drop carries an attachment.
func (d *Drop) HasFile() bool {
	return d.FileName != nil && d.FileStorageName != nil
}
