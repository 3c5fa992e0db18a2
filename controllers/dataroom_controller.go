package controllers

import (
	"net/http"
	"strconv"

	"github.com/atlasworks/dataroom_backend/database"
	"github.com/atlasworks/dataroom_backend/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateRoomInput struct {
	Name        string `json:"name" binding:"required" example:"Series A Diligence"`
	NdaRequired bool   `json:"nda_required"`
	NdaText     string `json:"nda_text"`
}

type UpdateRoomInput struct {
	Name        string  `json:"name"`
	NdaRequired *bool   `json:"nda_required"`
	NdaText     *string `json:"nda_text"`
}

type CreateFolderInput struct {
	Name       string `json:"name" binding:"required"`
	ParentID   *uint  `json:"parent_id"`
	Restricted bool   `json:"restricted"`
}

type CreateFileInput struct {
	Name        string `json:"name" binding:"required"`
	FolderID    *uint  `json:"folder_id"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	StoragePath string `json:"storage_path" binding:"required"`
	Restricted  bool   `json:"restricted"`
}

type GrantInput struct {
	GranteeType string `json:"grantee_type" binding:"required"` // team or guest
	GranteeID   uint   `json:"grantee_id" binding:"required"`
	Level       string `json:"level" binding:"required"` // view or edit
}

type SetRestrictionInput struct {
	Restricted  *bool        `json:"restricted" binding:"required"`
	Permissions []GrantInput `json:"permissions"`
}

// roomForMember loads a data room and checks the authenticated member
// belongs to its organization
func roomForMember(c *gin.Context, roomID uint) (*models.DataRoom, bool) {
	userID := c.MustGet("userID").(uint)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return nil, false
	}

	var room models.DataRoom
	if err := database.DB.First(&room, roomID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Data room not found"})
		return nil, false
	}

	if room.OrganizationID != user.OrganizationID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this data room"})
		return nil, false
	}

	return &room, true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// GetRooms godoc
// @Summary List data rooms of the member's organization
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "List of data rooms"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/rooms [get]
func GetRooms(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	var rooms []models.DataRoom
	if err := database.DB.Where("organization_id = ?", user.OrganizationID).Find(&rooms).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data rooms"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// CreateRoom godoc
// @Summary Create a data room
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param room body CreateRoomInput true "Room details"
// @Success 201 {object} map[string]interface{} "Room created"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /api/rooms [post]
func CreateRoom(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var input CreateRoomInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	if input.NdaRequired && input.NdaText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "NDA text is required when an NDA is mandatory"})
		return
	}

	room := models.DataRoom{
		Name:           input.Name,
		OrganizationID: user.OrganizationID,
		CreatedBy:      userID,
		NdaRequired:    input.NdaRequired,
		NdaText:        input.NdaText,
	}

	if err := database.DB.Create(&room).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create data room"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Data room created successfully",
		"room":    room,
	})
}

// GetRoom godoc
// @Summary Get a data room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} map[string]interface{} "Room details"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/rooms/{id} [get]
func GetRoom(c *gin.Context) {
	roomID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	room, ok := roomForMember(c, roomID)
	if !ok {
		return
	}

	var inviteCount int64
	database.DB.Model(&models.GuestInvite{}).Where("data_room_id = ?", room.ID).Count(&inviteCount)

	var fileCount int64
	database.DB.Model(&models.File{}).Where("data_room_id = ? AND deleted = ?", room.ID, false).Count(&fileCount)

	c.JSON(http.StatusOK, gin.H{
		"room":        room,
		"inviteCount": inviteCount,
		"fileCount":   fileCount,
	})
}

// UpdateRoom godoc
// @Summary Update a data room's name or NDA settings
// @Description Changing the NDA text invalidates existing guest signatures
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param room body UpdateRoomInput true "Fields to update"
// @Success 200 {object} map[string]interface{} "Room updated"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/rooms/{id} [put]
func UpdateRoom(c *gin.Context) {
	roomID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	room, ok := roomForMember(c, roomID)
	if !ok {
		return
	}

	var input UpdateRoomInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name != "" {
		room.Name = input.Name
	}
	if input.NdaRequired != nil {
		room.NdaRequired = *input.NdaRequired
	}
	if input.NdaText != nil {
		room.NdaText = *input.NdaText
	}

	if room.NdaRequired && room.NdaText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "NDA text is required when an NDA is mandatory"})
		return
	}

	// Save runs the hook that recomputes the NDA content hash
	if err := database.DB.Save(room).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update data room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Data room updated successfully",
		"room":    room,
	})
}

// DeleteRoom godoc
// @Summary Delete a data room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} map[string]string "Room deleted"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/rooms/{id} [delete]
func DeleteRoom(c *gin.Context) {
	roomID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	room, ok := roomForMember(c, roomID)
	if !ok {
		return
	}

	if err := database.DB.Delete(room).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete data room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Data room deleted successfully"})
}

// CreateFolder godoc
// @Summary Create a folder in a data room
// @Tags content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param folder body CreateFolderInput true "Folder details"
// @Success 201 {object} map[string]interface{} "Folder created"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/rooms/{id}/folders [post]
func CreateFolder(c *gin.Context) {
	roomID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	room, ok := roomForMember(c, roomID)
	if !ok {
		return
	}

	var input CreateFolderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.ParentID != nil {
		var parent models.Folder
		if err := database.DB.Where("id = ? AND data_room_id = ?", *input.ParentID, room.ID).
			First(&parent).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Parent folder not found"})
			return
		}
	}

	folder := models.Folder{
		DataRoomID: room.ID,
		ParentID:   input.ParentID,
		Name:       input.Name,
		Restricted: input.Restricted,
		CreatedBy:  c.MustGet("userID").(uint),
	}

	if err := database.DB.Create(&folder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create folder"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Folder created successfully",
		"folder":  folder,
	})
}

// CreateFile godoc
// @Summary Register an uploaded file's metadata in a data room
// @Tags content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param file body CreateFileInput true "File metadata"
// @Success 201 {object} map[string]interface{} "File registered"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/rooms/{id}/files [post]
func CreateFile(c *gin.Context) {
	roomID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	room, ok := roomForMember(c, roomID)
	if !ok {
		return
	}

	var input CreateFileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.FolderID != nil {
		var folder models.Folder
		if err := database.DB.Where("id = ? AND data_room_id = ?", *input.FolderID, room.ID).
			First(&folder).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
			return
		}
	}

	file := models.File{
		DataRoomID:  room.ID,
		FolderID:    input.FolderID,
		Name:        input.Name,
		Size:        input.Size,
		ContentType: input.ContentType,
		StoragePath: input.StoragePath,
		OwnerID:     c.MustGet("userID").(uint),
		Restricted:  input.Restricted,
	}

	if err := database.DB.Create(&file).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register file"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "File registered successfully",
		"file":    file,
	})
}

// DeleteFile godoc
// @Summary Soft-delete a file
// @Description The row is kept; the file stops appearing in listings
// @Tags content
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {object} map[string]string "File deleted"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/files/{id} [delete]
func DeleteFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var file models.File
	if err := database.DB.First(&file, fileID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	if _, ok := roomForMember(c, file.DataRoomID); !ok {
		return
	}

	if err := database.DB.Model(&file).Update("deleted", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

// SetFileRestriction godoc
// @Summary Set a file's restriction flag and replace its grant list
// @Tags content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Param restriction body SetRestrictionInput true "Restriction and grants"
// @Success 200 {object} map[string]string "Restriction updated"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/files/{id}/restriction [put]
func SetFileRestriction(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var file models.File
	if err := database.DB.Where("id = ? AND deleted = ?", fileID, false).First(&file).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	if _, ok := roomForMember(c, file.DataRoomID); !ok {
		return
	}

	var input SetRestrictionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, grant := range input.Permissions {
		if err := models.ValidateGrant(grant.GranteeType, grant.Level); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := replaceFileGrants(&file, *input.Restricted, input.Permissions); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update restriction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Restriction updated successfully"})
}

// replaceFileGrants swaps the file's grant list and restriction flag in one
// transaction, so concurrent readers never observe the transient empty set
// between the delete and the inserts
func replaceFileGrants(file *models.File, restricted bool, grants []GrantInput) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(file).Update("restricted", restricted).Error; err != nil {
			return err
		}

		if err := tx.Where("file_id = ?", file.ID).Delete(&models.FilePermission{}).Error; err != nil {
			return err
		}

		for _, grant := range grants {
			perm := models.FilePermission{
				FileID:      file.ID,
				GranteeType: grant.GranteeType,
				GranteeID:   grant.GranteeID,
				Level:       grant.Level,
			}
			if err := tx.Create(&perm).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// GetRoomActivity godoc
// @Summary Get the audit trail of a data room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} map[string]interface{} "Activity entries, newest first"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/rooms/{id}/activity [get]
func GetRoomActivity(c *gin.Context) {
	roomID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	room, ok := roomForMember(c, roomID)
	if !ok {
		return
	}

	var entries []models.ActivityLog
	if err := database.DB.Where("data_room_id = ?", room.ID).
		Order("created_at DESC").Limit(200).
		Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": entries})
}
