package models

import (
	"fmt"
	"time"
)

const (
	GranteeTeam  = "team"  // a platform member, GranteeID = user id
	GranteeGuest = "guest" // a data-room guest, GranteeID = invite id

	PermissionView = "view"
	PermissionEdit = "edit"
)

// FilePermission grants one grantee a permission level on one file. For a
// restricted file, the absence of a grant means no access.
type FilePermission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FileID      uint      `gorm:"not null;index:idx_perm_file_grantee,unique" json:"file_id"`
	GranteeType string    `gorm:"size:10;not null;index:idx_perm_file_grantee,unique" json:"grantee_type"`
	GranteeID   uint      `gorm:"not null;index:idx_perm_file_grantee,unique" json:"grantee_id"`
	Level       string    `gorm:"size:10;not null" json:"level"`
	CreatedAt   time.Time `json:"created_at"`
}

// ValidateGrant rejects unknown grantee types and permission levels at the
// boundary instead of passing free-form strings through to storage
func ValidateGrant(granteeType, level string) error {
	switch granteeType {
	case GranteeTeam, GranteeGuest:
	default:
		return fmt.Errorf("unknown grantee type %q", granteeType)
	}
	switch level {
	case PermissionView, PermissionEdit:
	default:
		return fmt.Errorf("unknown permission level %q", level)
	}
	return nil
}
