package models

import (
	"time"
)

const (
	ActivityRoomAccessed = "data room accessed"
	ActivityFolderViewed = "folder viewed"
	ActivityNdaSigned    = "nda signed"
)

// ActivityLog is the append-only audit trail for a data room. Rows are only
// ever inserted; writes are best-effort and must not fail the request that
// produced them.
type ActivityLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DataRoomID uint      `gorm:"index" json:"data_room_id"`
	InviteID   *uint     `gorm:"index" json:"invite_id,omitempty"`
	ActorName  string    `gorm:"size:255" json:"actor_name"`
	ActorEmail string    `gorm:"size:255" json:"actor_email"`
	Action     string    `gorm:"size:100;not null" json:"action"`
	FolderID   *uint     `json:"folder_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
