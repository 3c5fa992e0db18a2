package controllers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atlasworks/dataroom_backend/database"
	"github.com/atlasworks/dataroom_backend/models"
	"github.com/atlasworks/dataroom_backend/utils"
	"github.com/atlasworks/dataroom_backend/websocket"
	"github.com/gin-gonic/gin"
)

// Machine-readable error codes returned to guest callers
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeExpired            = "EXPIRED"
	CodeNdaRequired        = "NDA_REQUIRED"
	CodeNdaUpdated         = "NDA_UPDATED"
)

// GuestContext is the verified identity of a guest, re-established from
// email + secret on every call. Handlers pass it around explicitly; nothing
// is held between requests.
type GuestContext struct {
	InviteID       uint
	DataRoomID     uint
	OrganizationID uint
	GuestName      string
	Email          string

	invite *models.GuestInvite
	room   *models.DataRoom
}

type VerifyInviteInput struct {
	Token string `json:"token" binding:"required" example:"AB12CD34"`
	Email string `json:"email" binding:"required,email" example:"guest@example.com"`
}

type GuestCredentialsInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GuestContentInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FolderID *uint  `json:"folderId"`
}

type GuestNdaInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

type GuestRestrictionInput struct {
	Email        string       `json:"email" binding:"required,email"`
	Password     string       `json:"password" binding:"required"`
	FileID       uint         `json:"fileId" binding:"required"`
	IsRestricted *bool        `json:"isRestricted" binding:"required"`
	Permissions  []GrantInput `json:"permissions"`
}

// FileListing is a file row annotated with the guest's effective permission
type FileListing struct {
	models.File
	PermissionLevel string `json:"permission_level"`
}

// Breadcrumb is one (id, name) step of the ancestor chain of a folder
type Breadcrumb struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// lookupInviteByToken resolves a pre-acceptance invite from an access code
// or a numeric invite id, case-insensitively
func lookupInviteByToken(token string) (*models.GuestInvite, error) {
	var invite models.GuestInvite
	code := strings.ToUpper(strings.TrimSpace(token))
	if err := database.DB.Where("access_code = ?", code).First(&invite).Error; err == nil {
		return &invite, nil
	}
	id, err := strconv.ParseUint(token, 10, 32)
	if err != nil {
		return nil, err
	}
	if err := database.DB.First(&invite, uint(id)).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// verifyGuest authenticates a guest from email + secret. The same
// INVALID_CREDENTIALS code covers unknown emails and wrong secrets, so
// callers cannot probe which emails were invited.
func verifyGuest(email, secret string) (*GuestContext, string) {
	var invites []models.GuestInvite
	if err := database.DB.Where("email = ? AND status = ?",
		strings.ToLower(email), models.InviteStatusAccepted).Find(&invites).Error; err != nil {
		return nil, CodeInvalidCredentials
	}

	for i := range invites {
		invite := &invites[i]
		if invite.CredentialDigest == "" {
			continue
		}
		if invite.ValidateCredential(secret) != nil {
			continue
		}
		if invite.Expired(time.Now()) {
			return nil, CodeExpired
		}

		var room models.DataRoom
		if err := database.DB.First(&room, invite.DataRoomID).Error; err != nil {
			return nil, CodeInvalidCredentials
		}

		return &GuestContext{
			InviteID:       invite.ID,
			DataRoomID:     room.ID,
			OrganizationID: room.OrganizationID,
			GuestName:      invite.Name,
			Email:          invite.Email,
			invite:         invite,
			room:           &room,
		}, ""
	}

	return nil, CodeInvalidCredentials
}

// authFailureMessage keeps the human-readable body consistent with the code:
// a correct secret on a lapsed invite says so, everything else stays opaque.
func authFailureMessage(code string) string {
	if code == CodeExpired {
		return "This invitation has expired"
	}
	return "Invalid credentials"
}

// ndaGate checks the NDA policy for content access. Returns an error code
// when the guest's signature is missing or was made against an older
// agreement text.
func ndaGate(ctx *GuestContext) string {
	if !ctx.room.NdaRequired {
		return ""
	}
	if ctx.invite.NdaSignedAt == nil {
		return CodeNdaRequired
	}
	if ctx.invite.NdaSignedHash != ctx.room.NdaHash {
		return CodeNdaUpdated
	}
	return ""
}

// recordActivity appends an audit-trail entry and pushes it to connected
// members. Best-effort: a failed write never fails the request.
func recordActivity(ctx *GuestContext, action string, folderID *uint) {
	entry := models.ActivityLog{
		DataRoomID: ctx.DataRoomID,
		InviteID:   &ctx.InviteID,
		ActorName:  ctx.GuestName,
		ActorEmail: ctx.Email,
		Action:     action,
		FolderID:   folderID,
	}
	if err := database.DB.Create(&entry).Error; err != nil {
		log.Printf("failed to record activity for room %d: %v", ctx.DataRoomID, err)
		return
	}
	websocket.BroadcastActivity(ctx.DataRoomID, entry)
}

// VerifyInvite godoc
// @Summary Verify and accept a guest invitation
// @Description Matches the access code (or invite id) against the guest's email, then generates the guest's credential and emails it
// @Tags guest
// @Accept json
// @Produce json
// @Param invite body VerifyInviteInput true "Access token and email"
// @Success 200 {object} map[string]interface{} "Invite accepted"
// @Failure 400 {object} map[string]string "Missing fields, expired, or NDA required"
// @Failure 403 {object} map[string]string "Email mismatch"
// @Failure 404 {object} map[string]string "Invite not found"
// @Router /api/guest/verify-invite [post]
func VerifyInvite(c *gin.Context) {
	var input VerifyInviteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invite, err := lookupInviteByToken(input.Token)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return
	}

	if !strings.EqualFold(invite.Email, input.Email) {
		c.JSON(http.StatusForbidden, gin.H{"error": "This invitation was issued for a different email address"})
		return
	}

	if invite.Expired(time.Now()) {
		// pending -> expired is the only time-driven transition
		if invite.Status == models.InviteStatusPending {
			database.DB.Model(invite).Update("status", models.InviteStatusExpired)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "This invitation has expired", "code": CodeExpired})
		return
	}

	var room models.DataRoom
	if err := database.DB.First(&room, invite.DataRoomID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Data room not found"})
		return
	}

	if room.NdaRequired && invite.NdaSignedAt == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "The NDA must be signed before accepting this invitation",
			"code":  CodeNdaRequired,
		})
		return
	}

	credential, err := utils.GenerateCredential()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate credential"})
		return
	}

	digest, err := utils.HashCredential(credential)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate credential"})
		return
	}

	invite.CredentialDigest = digest
	invite.Status = models.InviteStatusAccepted
	if err := database.DB.Save(invite).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept invitation"})
		return
	}

	// Delivery failure is non-fatal; the guest can use the resend endpoint
	utils.SendCredentialEmail(invite.Email, room.Name, credential)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"dataRoomId": invite.DataRoomID,
	})
}

// ResendCredential godoc
// @Summary Regenerate and re-email a guest's credential
// @Description Recovery path for a lost or never-delivered credential; the previous credential stops working
// @Tags guest
// @Accept json
// @Produce json
// @Param invite body VerifyInviteInput true "Access token and email"
// @Success 200 {object} map[string]interface{} "Credential re-sent"
// @Failure 400 {object} map[string]string "Missing fields, expired, or invite not accepted"
// @Failure 403 {object} map[string]string "Email mismatch"
// @Failure 404 {object} map[string]string "Invite not found"
// @Router /api/guest/resend-credential [post]
func ResendCredential(c *gin.Context) {
	var input VerifyInviteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invite, err := lookupInviteByToken(input.Token)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return
	}

	if !strings.EqualFold(invite.Email, input.Email) {
		c.JSON(http.StatusForbidden, gin.H{"error": "This invitation was issued for a different email address"})
		return
	}

	if invite.Status != models.InviteStatusAccepted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This invitation has not been accepted yet"})
		return
	}

	if invite.Expired(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This invitation has expired", "code": CodeExpired})
		return
	}

	var room models.DataRoom
	if err := database.DB.First(&room, invite.DataRoomID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Data room not found"})
		return
	}

	credential, err := utils.GenerateCredential()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate credential"})
		return
	}

	digest, err := utils.HashCredential(credential)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate credential"})
		return
	}

	if err := database.DB.Model(invite).Update("credential_digest", digest).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update credential"})
		return
	}

	utils.SendCredentialEmail(invite.Email, room.Name, credential)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// guestFromNdaInput authenticates through either credential: the secret for
// accepted guests, or the access token for guests who have not accepted yet.
// NDA endpoints stay reachable while content is gated, so a guest can always
// read and re-sign the agreement.
func guestFromNdaInput(c *gin.Context, input GuestNdaInput) (*models.GuestInvite, *models.DataRoom, bool) {
	if input.Password != "" {
		ctx, code := verifyGuest(input.Email, input.Password)
		if code != "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": authFailureMessage(code), "code": code})
			return nil, nil, false
		}
		return ctx.invite, ctx.room, true
	}

	if input.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either password or token is required"})
		return nil, nil, false
	}

	invite, err := lookupInviteByToken(input.Token)
	if err != nil || !strings.EqualFold(invite.Email, input.Email) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invitation not found"})
		return nil, nil, false
	}

	if invite.Expired(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This invitation has expired", "code": CodeExpired})
		return nil, nil, false
	}

	var room models.DataRoom
	if err := database.DB.First(&room, invite.DataRoomID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Data room not found"})
		return nil, nil, false
	}

	return invite, &room, true
}

// GetNda godoc
// @Summary Fetch the data room's current NDA text
// @Tags guest
// @Accept json
// @Produce json
// @Param auth body GuestNdaInput true "Email plus password or access token"
// @Success 200 {object} map[string]interface{} "NDA text and signature state"
// @Failure 400 {object} map[string]string "Missing fields or expired"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/guest/nda [post]
func GetNda(c *gin.Context) {
	var input GuestNdaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invite, room, ok := guestFromNdaInput(c, input)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ndaRequired": room.NdaRequired,
		"ndaText":     room.NdaText,
		"signed":      invite.NdaSignedAt != nil,
		"needsResign": room.NdaRequired && invite.NdaSignedAt != nil && invite.NdaSignedHash != room.NdaHash,
	})
}

// SignNda godoc
// @Summary Sign the data room's current NDA
// @Description Records the signature against the current agreement hash; a later text change requires re-signing
// @Tags guest
// @Accept json
// @Produce json
// @Param auth body GuestNdaInput true "Email plus password or access token"
// @Success 200 {object} map[string]interface{} "NDA signed"
// @Failure 400 {object} map[string]string "Missing fields or expired"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/guest/sign-nda [post]
func SignNda(c *gin.Context) {
	var input GuestNdaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invite, room, ok := guestFromNdaInput(c, input)
	if !ok {
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"nda_signed_at":   &now,
		"nda_signed_hash": room.NdaHash,
	}
	if err := database.DB.Model(invite).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record signature"})
		return
	}

	entry := models.ActivityLog{
		DataRoomID: room.ID,
		InviteID:   &invite.ID,
		ActorName:  invite.Name,
		ActorEmail: invite.Email,
		Action:     models.ActivityNdaSigned,
	}
	if err := database.DB.Create(&entry).Error; err != nil {
		log.Printf("failed to record NDA signature activity for room %d: %v", room.ID, err)
	} else {
		websocket.BroadcastActivity(room.ID, entry)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GuestContent godoc
// @Summary List visible folders and files of a data room scope
// @Description Verifies the guest's credential, applies the NDA gate, then returns exactly the content the guest may see with effective permission levels
// @Tags guest
// @Accept json
// @Produce json
// @Param request body GuestContentInput true "Credentials and optional folder scope"
// @Success 200 {object} map[string]interface{} "Visible content"
// @Failure 400 {object} map[string]string "Missing credentials"
// @Failure 401 {object} map[string]string "Invalid credentials or expired"
// @Failure 403 {object} map[string]string "NDA required or updated"
// @Failure 404 {object} map[string]string "Folder not found"
// @Router /api/guest/content [post]
func GuestContent(c *gin.Context) {
	var input GuestContentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, code := verifyGuest(input.Email, input.Password)
	if code != "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": authFailureMessage(code), "code": code})
		return
	}

	if code := ndaGate(ctx); code != "" {
		message := "The NDA must be signed before accessing content"
		if code == CodeNdaUpdated {
			message = "The NDA has changed and must be signed again"
		}
		c.JSON(http.StatusForbidden, gin.H{"error": message, "code": code})
		return
	}

	// Scope must exist and belong to the guest's room
	var scope *models.Folder
	if input.FolderID != nil {
		var folder models.Folder
		if err := database.DB.Where("id = ? AND data_room_id = ?", *input.FolderID, ctx.DataRoomID).
			First(&folder).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Folder not found"})
			return
		}
		scope = &folder
	}

	folders, files, err := listVisibleContent(ctx, input.FolderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list content"})
		return
	}

	breadcrumbs, err := folderBreadcrumbs(ctx.DataRoomID, scope)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list content"})
		return
	}

	action := models.ActivityRoomAccessed
	if input.FolderID != nil {
		action = models.ActivityFolderViewed
	}
	recordActivity(ctx, action, input.FolderID)

	c.JSON(http.StatusOK, gin.H{
		"dataRoom":        ctx.room,
		"guestName":       ctx.GuestName,
		"folders":         folders,
		"files":           files,
		"breadcrumbs":     breadcrumbs,
		"currentFolderId": input.FolderID,
	})
}

// listVisibleContent applies the restricted-content rules for one scope:
// unrestricted files are always included (default view), restricted files
// only with an explicit guest grant, restricted folders are hidden as
// containers. Folder and file restriction are independent mechanisms.
func listVisibleContent(ctx *GuestContext, folderID *uint) ([]models.Folder, []FileListing, error) {
	folderQuery := database.DB.Where("data_room_id = ? AND restricted = ?", ctx.DataRoomID, false)
	fileQuery := database.DB.Where("data_room_id = ? AND deleted = ?", ctx.DataRoomID, false)
	if folderID == nil {
		folderQuery = folderQuery.Where("parent_id IS NULL")
		fileQuery = fileQuery.Where("folder_id IS NULL")
	} else {
		folderQuery = folderQuery.Where("parent_id = ?", *folderID)
		fileQuery = fileQuery.Where("folder_id = ?", *folderID)
	}

	var folders []models.Folder
	if err := folderQuery.Find(&folders).Error; err != nil {
		return nil, nil, err
	}

	var candidates []models.File
	if err := fileQuery.Find(&candidates).Error; err != nil {
		return nil, nil, err
	}

	fileIDs := make([]uint, 0, len(candidates))
	for _, f := range candidates {
		fileIDs = append(fileIDs, f.ID)
	}

	grantByFile := map[uint]models.FilePermission{}
	if len(fileIDs) > 0 {
		var grants []models.FilePermission
		if err := database.DB.Where("file_id IN ? AND grantee_type = ? AND grantee_id = ?",
			fileIDs, models.GranteeGuest, ctx.InviteID).Find(&grants).Error; err != nil {
			return nil, nil, err
		}
		for _, g := range grants {
			grantByFile[g.FileID] = g
		}
	}

	files := make([]FileListing, 0, len(candidates))
	for _, f := range candidates {
		grant, granted := grantByFile[f.ID]
		if f.Restricted && !granted {
			continue
		}
		level := models.PermissionView
		if granted {
			level = grant.Level
		}
		files = append(files, FileListing{File: f, PermissionLevel: level})
	}

	return folders, files, nil
}

// folderBreadcrumbs walks parent references from the scope to the root and
// returns (id, name) pairs in root-to-leaf order. Restriction flags are
// ignored: ancestor names are always visible to a guest who reached the
// scope.
func folderBreadcrumbs(roomID uint, scope *models.Folder) ([]Breadcrumb, error) {
	trail := []Breadcrumb{}
	seen := map[uint]bool{}
	current := scope
	for current != nil {
		if seen[current.ID] {
			break // defensive stop on a corrupted parent chain
		}
		seen[current.ID] = true
		trail = append(trail, Breadcrumb{ID: current.ID, Name: current.Name})

		if current.ParentID == nil {
			break
		}
		var parent models.Folder
		if err := database.DB.Where("id = ? AND data_room_id = ?", *current.ParentID, roomID).
			First(&parent).Error; err != nil {
			break
		}
		current = &parent
	}

	// Reverse into root-to-leaf order
	for i, j := 0, len(trail)-1; i < j; i, j = i+1, j-1 {
		trail[i], trail[j] = trail[j], trail[i]
	}
	return trail, nil
}

// GuestFileRestriction godoc
// @Summary Change a file's restriction and grant list as a guest
// @Description Requires an edit grant on the file; replaces the grant list atomically
// @Tags guest
// @Accept json
// @Produce json
// @Param request body GuestRestrictionInput true "Credentials, file and new grants"
// @Success 200 {object} map[string]interface{} "Restriction updated"
// @Failure 400 {object} map[string]string "Missing fields"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 403 {object} map[string]string "Insufficient rights"
// @Failure 404 {object} map[string]string "File not found"
// @Router /api/guest/file-restriction [post]
func GuestFileRestriction(c *gin.Context) {
	var input GuestRestrictionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, code := verifyGuest(input.Email, input.Password)
	if code != "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": authFailureMessage(code), "code": code})
		return
	}

	var file models.File
	if err := database.DB.Where("id = ? AND data_room_id = ? AND deleted = ?",
		input.FileID, ctx.DataRoomID, false).First(&file).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	// Managing restrictions requires an edit grant on the file
	var grant models.FilePermission
	if err := database.DB.Where("file_id = ? AND grantee_type = ? AND grantee_id = ? AND level = ?",
		file.ID, models.GranteeGuest, ctx.InviteID, models.PermissionEdit).
		First(&grant).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have rights to manage this file"})
		return
	}

	for _, g := range input.Permissions {
		if err := models.ValidateGrant(g.GranteeType, g.Level); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := replaceFileGrants(&file, *input.IsRestricted, input.Permissions); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update restriction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
