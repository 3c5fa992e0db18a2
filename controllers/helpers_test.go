package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atlasworks/dataroom_backend/database"
	"github.com/atlasworks/dataroom_backend/middleware"
	"github.com/atlasworks/dataroom_backend/models"
	"github.com/atlasworks/dataroom_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTest points database.DB at a fresh in-memory sqlite database and
// returns a router with the full route table
func setupTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.DataRoom{},
		&models.GuestInvite{},
		&models.Folder{},
		&models.File{},
		&models.FilePermission{},
		&models.ActivityLog{},
	))

	database.DB = db

	router := gin.New()

	auth := router.Group("/api")
	{
		auth.POST("/register", Register)
		auth.POST("/login", Login)
	}

	guest := router.Group("/api/guest")
	{
		guest.POST("/verify-invite", VerifyInvite)
		guest.POST("/resend-credential", ResendCredential)
		guest.POST("/nda", GetNda)
		guest.POST("/sign-nda", SignNda)
		guest.POST("/content", GuestContent)
		guest.POST("/file-restriction", GuestFileRestriction)
	}

	api := router.Group("/api")
	api.Use(middleware.JWTAuth())
	{
		api.GET("/rooms", GetRooms)
		api.POST("/rooms", CreateRoom)
		api.GET("/rooms/:id", GetRoom)
		api.PUT("/rooms/:id", UpdateRoom)
		api.DELETE("/rooms/:id", DeleteRoom)
		api.GET("/rooms/:id/activity", GetRoomActivity)
		api.POST("/rooms/:id/folders", CreateFolder)
		api.POST("/rooms/:id/files", CreateFile)
		api.DELETE("/files/:id", DeleteFile)
		api.PUT("/files/:id/restriction", SetFileRestriction)
		api.GET("/rooms/:id/invites", GetRoomInvites)
		api.POST("/rooms/:id/invites", SendGuestInvite)
		api.DELETE("/invites/:id", RevokeInvite)
	}

	return router
}

// doJSON performs a JSON request and decodes the response body
func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := map[string]interface{}{}
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return w, resp
}

// createMember creates a platform member and returns it with a valid JWT
func createMember(t *testing.T, email string) (models.User, string) {
	t.Helper()

	user := models.User{Name: "Test Member", Email: email, Password: "password123"}
	require.NoError(t, database.DB.Create(&user).Error)
	require.NoError(t, database.DB.Model(&user).UpdateColumn("organization_id", user.ID).Error)
	user.OrganizationID = user.ID

	token, err := utils.GenerateToken(user.ID)
	require.NoError(t, err)
	return user, token
}

// createRoom creates a data room owned by the member's organization
func createRoom(t *testing.T, owner models.User, ndaRequired bool, ndaText string) models.DataRoom {
	t.Helper()

	room := models.DataRoom{
		Name:           "Test Room",
		OrganizationID: owner.OrganizationID,
		CreatedBy:      owner.ID,
		NdaRequired:    ndaRequired,
		NdaText:        ndaText,
	}
	require.NoError(t, database.DB.Create(&room).Error)
	return room
}

// createAcceptedInvite seeds an accepted invite whose credential is the
// given secret, the way VerifyInvite would have left it
func createAcceptedInvite(t *testing.T, room models.DataRoom, email, accessCode, secret string) models.GuestInvite {
	t.Helper()

	digest, err := utils.HashCredential(secret)
	require.NoError(t, err)

	invite := models.GuestInvite{
		DataRoomID:       room.ID,
		Email:            email,
		Name:             "Test Guest",
		Status:           models.InviteStatusAccepted,
		AccessCode:       accessCode,
		CredentialDigest: digest,
		ExpiresAt:        time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, database.DB.Create(&invite).Error)
	return invite
}

func contentRequest(email, password string, folderID *uint) map[string]interface{} {
	body := map[string]interface{}{"email": email, "password": password}
	if folderID != nil {
		body["folderId"] = *folderID
	}
	return body
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "body: %s", w.Body.String())
}
