package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusExpired  = "expired"
)

// GuestInvite is the ledger row binding a guest email to a data room.
// The secret credential is stored only as a bcrypt digest; the plaintext
// exists only in the email sent at acceptance.
type GuestInvite struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	DataRoomID       uint       `gorm:"index:idx_invite_room_email,unique" json:"data_room_id"`
	DataRoom         DataRoom   `gorm:"foreignKey:DataRoomID" json:"data_room,omitempty"`
	Email            string     `gorm:"size:255;not null;index:idx_invite_room_email,unique" json:"email"`
	Name             string     `gorm:"size:255" json:"name"`
	Status           string     `gorm:"size:20;default:'pending'" json:"status"` // pending, accepted, expired
	AccessCode       string     `gorm:"size:16;not null;uniqueIndex" json:"-"`
	CredentialDigest string     `gorm:"size:255" json:"-"`
	ExpiresAt        time.Time  `json:"expires_at"`
	NdaSignedAt      *time.Time `json:"nda_signed_at,omitempty"`
	NdaSignedHash    string     `gorm:"size:64" json:"-"`
	InvitedBy        uint       `json:"invited_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Expired reports whether the invite's expiry is in the past
func (i *GuestInvite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// ValidateCredential checks a guest-supplied secret against the stored
// digest. The generated alphabet is uppercase-only, so the secret is
// uppercased first to tolerate autocapitalization and casual typing.
func (i *GuestInvite) ValidateCredential(secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(i.CredentialDigest), []byte(strings.ToUpper(secret)))
}

// NdaSatisfied reports whether the invite carries a signature matching the
// room's current NDA content hash
func (i *GuestInvite) NdaSatisfied(room *DataRoom) bool {
	if !room.NdaRequired {
		return true
	}
	return i.NdaSignedAt != nil && i.NdaSignedHash == room.NdaHash
}
