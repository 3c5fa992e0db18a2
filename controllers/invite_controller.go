package controllers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/atlasworks/dataroom_backend/database"
	"github.com/atlasworks/dataroom_backend/models"
	"github.com/atlasworks/dataroom_backend/utils"
	"github.com/gin-gonic/gin"
)

const defaultInviteTTL = 7 * 24 * time.Hour

type SendGuestInviteInput struct {
	Email         string `json:"email" binding:"required,email" example:"guest@example.com"`
	Name          string `json:"name" example:"Jane Doe"`
	ExpiresInDays int    `json:"expires_in_days" example:"7"`
}

// GetRoomInvites godoc
// @Summary List guest invites of a data room
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} map[string]interface{} "List of invites"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/rooms/{id}/invites [get]
func GetRoomInvites(c *gin.Context) {
	roomID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	room, ok := roomForMember(c, roomID)
	if !ok {
		return
	}

	var invites []models.GuestInvite
	if err := database.DB.Where("data_room_id = ?", room.ID).Find(&invites).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invites"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// SendGuestInvite godoc
// @Summary Invite a guest to a data room
// @Description Re-inviting an email with a pending or expired invite refreshes it in place instead of creating a duplicate
// @Tags invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param invite body SendGuestInviteInput true "Invite details"
// @Success 201 {object} map[string]interface{} "Invite created or refreshed"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/rooms/{id}/invites [post]
func SendGuestInvite(c *gin.Context) {
	roomID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	room, ok := roomForMember(c, roomID)
	if !ok {
		return
	}

	var input SendGuestInviteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(input.Email)
	ttl := defaultInviteTTL
	if input.ExpiresInDays > 0 {
		ttl = time.Duration(input.ExpiresInDays) * 24 * time.Hour
	}
	expiresAt := time.Now().Add(ttl)

	// A pending or lapsed invite for this email is refreshed in place; the
	// (room, email) slot is unique and expired rows are never hard-deleted
	var existing models.GuestInvite
	if err := database.DB.Where("data_room_id = ? AND email = ? AND status IN ?",
		room.ID, email, []string{models.InviteStatusPending, models.InviteStatusExpired}).
		First(&existing).Error; err == nil {
		existing.Status = models.InviteStatusPending
		existing.ExpiresAt = expiresAt
		if input.Name != "" {
			existing.Name = input.Name
		}
		if err := database.DB.Save(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh invitation"})
			return
		}

		if err := utils.SendInviteEmail(email, room.Name, existing.AccessCode); err != nil {
			log.Printf("failed to send invite email to %s: %v", email, err)
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Invitation refreshed successfully",
			"invite":  existing,
		})
		return
	}

	// An accepted invite already grants access
	var accepted models.GuestInvite
	if err := database.DB.Where("data_room_id = ? AND email = ? AND status = ?",
		room.ID, email, models.InviteStatusAccepted).First(&accepted).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This guest already has access to the data room"})
		return
	}

	accessCode, err := utils.GenerateAccessCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access code"})
		return
	}

	invite := models.GuestInvite{
		DataRoomID: room.ID,
		Email:      email,
		Name:       input.Name,
		Status:     models.InviteStatusPending,
		AccessCode: accessCode,
		ExpiresAt:  expiresAt,
		InvitedBy:  c.MustGet("userID").(uint),
	}

	if err := database.DB.Create(&invite).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	if err := utils.SendInviteEmail(email, room.Name, accessCode); err != nil {
		log.Printf("failed to send invite email to %s: %v", email, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Invitation sent successfully",
		"invite":  invite,
	})
}

// RevokeInvite godoc
// @Summary Revoke a guest invite
// @Description Revocation is the only hard delete of an invite row
// @Tags invites
// @Produce json
// @Security BearerAuth
// @Param id path int true "Invite ID"
// @Success 200 {object} map[string]string "Invite revoked"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/invites/{id} [delete]
func RevokeInvite(c *gin.Context) {
	inviteID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var invite models.GuestInvite
	if err := database.DB.First(&invite, inviteID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return
	}

	if _, ok := roomForMember(c, invite.DataRoomID); !ok {
		return
	}

	if err := database.DB.Delete(&invite).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke invitation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation revoked successfully"})
}
