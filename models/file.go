package models

import (
	"time"
)

type Folder struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DataRoomID uint      `gorm:"index" json:"data_room_id"`
	ParentID   *uint     `gorm:"index" json:"parent_id"` // nil = room root
	Name       string    `gorm:"size:255;not null" json:"name"`
	Restricted bool      `gorm:"default:false" json:"restricted"`
	CreatedBy  uint      `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// File rows are soft-deleted only; a referenced file is never removed
type File struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DataRoomID  uint      `gorm:"index" json:"data_room_id"`
	FolderID    *uint     `gorm:"index" json:"folder_id"` // nil = room root
	Name        string    `gorm:"size:255;not null" json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `gorm:"size:255" json:"content_type"`
	StoragePath string    `gorm:"size:1024" json:"-"`
	OwnerID     uint      `json:"owner_id"`
	Restricted  bool      `gorm:"default:false" json:"restricted"`
	Deleted     bool      `gorm:"default:false;index" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
