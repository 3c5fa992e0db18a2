package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

type DataRoom struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	OrganizationID uint      `gorm:"index" json:"organization_id"`
	CreatedBy      uint      `json:"created_by"`
	NdaRequired    bool      `gorm:"default:false" json:"nda_required"`
	NdaText        string    `gorm:"type:text" json:"nda_text,omitempty"`
	NdaHash        string    `gorm:"size:64" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeforeSave keeps the NDA content hash in sync with the NDA text, so a
// changed agreement invalidates earlier guest signatures
func (d *DataRoom) BeforeSave(tx *gorm.DB) error {
	if d.NdaText != "" {
		d.NdaHash = HashContent(d.NdaText)
	} else {
		d.NdaHash = ""
	}
	return nil
}

// HashContent returns the hex sha256 digest of a document body
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
