package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/atlasworks/dataroom_backend/database"
	"github.com/atlasworks/dataroom_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndListRooms(t *testing.T) {
	router := setupTest(t)
	_, token := createMember(t, "owner@acme.com")

	w, resp := doJSON(t, router, "POST", "/api/rooms", map[string]interface{}{
		"name": "Series A Diligence",
	}, token)
	requireStatus(t, w, http.StatusCreated)
	room := resp["room"].(map[string]interface{})
	assert.Equal(t, "Series A Diligence", room["name"])

	w, resp = doJSON(t, router, "GET", "/api/rooms", nil, token)
	requireStatus(t, w, http.StatusOK)
	assert.Len(t, resp["rooms"], 1)
}

func TestCreateRoomRequiresNdaText(t *testing.T) {
	router := setupTest(t)
	_, token := createMember(t, "owner@acme.com")

	w, _ := doJSON(t, router, "POST", "/api/rooms", map[string]interface{}{
		"name": "Gated Room", "nda_required": true,
	}, token)
	requireStatus(t, w, http.StatusBadRequest)
}

func TestUpdateRoomRecomputesNdaHash(t *testing.T) {
	router := setupTest(t)
	owner, token := createMember(t, "owner@acme.com")
	room := createRoom(t, owner, true, "Original text.")

	var before models.DataRoom
	require.NoError(t, database.DB.First(&before, room.ID).Error)
	require.NotEmpty(t, before.NdaHash)

	w, _ := doJSON(t, router, "PUT", fmt.Sprintf("/api/rooms/%d", room.ID),
		map[string]interface{}{"nda_text": "Revised text."}, token)
	requireStatus(t, w, http.StatusOK)

	var after models.DataRoom
	require.NoError(t, database.DB.First(&after, room.ID).Error)
	assert.NotEqual(t, before.NdaHash, after.NdaHash)
	assert.Equal(t, models.HashContent("Revised text."), after.NdaHash)
}

func TestRoomAccessScopedToOrganization(t *testing.T) {
	router := setupTest(t)
	owner, _ := createMember(t, "owner@acme.com")
	room := createRoom(t, owner, false, "")
	_, outsiderToken := createMember(t, "outsider@other.com")

	w, _ := doJSON(t, router, "GET", fmt.Sprintf("/api/rooms/%d", room.ID), nil, outsiderToken)
	requireStatus(t, w, http.StatusForbidden)

	w, _ = doJSON(t, router, "GET", "/api/rooms/99999", nil, outsiderToken)
	requireStatus(t, w, http.StatusNotFound)
}

func TestCreateFolderAndFile(t *testing.T) {
	router := setupTest(t)
	owner, token := createMember(t, "owner@acme.com")
	room := createRoom(t, owner, false, "")

	w, resp := doJSON(t, router, "POST", fmt.Sprintf("/api/rooms/%d/folders", room.ID),
		map[string]interface{}{"name": "Financials"}, token)
	requireStatus(t, w, http.StatusCreated)
	folderID := uint(resp["folder"].(map[string]interface{})["id"].(float64))

	w, _ = doJSON(t, router, "POST", fmt.Sprintf("/api/rooms/%d/files", room.ID),
		map[string]interface{}{
			"name": "q1.xlsx", "folder_id": folderID,
			"storage_path": "rooms/1/q1.xlsx", "size": 2048,
		}, token)
	requireStatus(t, w, http.StatusCreated)

	// A parent folder from another room is rejected
	other := createRoom(t, owner, false, "")
	w, _ = doJSON(t, router, "POST", fmt.Sprintf("/api/rooms/%d/folders", other.ID),
		map[string]interface{}{"name": "Broken", "parent_id": folderID}, token)
	requireStatus(t, w, http.StatusNotFound)
}

func TestDeleteFileIsSoft(t *testing.T) {
	router := setupTest(t)
	owner, token := createMember(t, "owner@acme.com")
	room := createRoom(t, owner, false, "")

	file := models.File{DataRoomID: room.ID, Name: "gone.pdf", StoragePath: "g"}
	require.NoError(t, database.DB.Create(&file).Error)

	w, _ := doJSON(t, router, "DELETE", fmt.Sprintf("/api/files/%d", file.ID), nil, token)
	requireStatus(t, w, http.StatusOK)

	// The row survives with the deleted marker set
	var kept models.File
	require.NoError(t, database.DB.First(&kept, file.ID).Error)
	assert.True(t, kept.Deleted)
}

func TestSetFileRestrictionReplacesGrants(t *testing.T) {
	router := setupTest(t)
	owner, token := createMember(t, "owner@acme.com")
	room := createRoom(t, owner, false, "")
	guest := createAcceptedInvite(t, room, "guest@x.com", "PQ34RS56", "LLLL2345")

	file := models.File{DataRoomID: room.ID, Name: "contract.pdf", StoragePath: "c"}
	require.NoError(t, database.DB.Create(&file).Error)
	require.NoError(t, database.DB.Create(&models.FilePermission{
		FileID: file.ID, GranteeType: models.GranteeTeam,
		GranteeID: owner.ID, Level: models.PermissionEdit,
	}).Error)

	path := fmt.Sprintf("/api/files/%d/restriction", file.ID)
	w, _ := doJSON(t, router, "PUT", path, map[string]interface{}{
		"restricted": true,
		"permissions": []map[string]interface{}{
			{"grantee_type": "guest", "grantee_id": guest.ID, "level": "view"},
		},
	}, token)
	requireStatus(t, w, http.StatusOK)

	var grants []models.FilePermission
	require.NoError(t, database.DB.Where("file_id = ?", file.ID).Find(&grants).Error)
	require.Len(t, grants, 1)
	assert.Equal(t, models.GranteeGuest, grants[0].GranteeType)
	assert.Equal(t, guest.ID, grants[0].GranteeID)

	// Unknown grantee types never reach storage
	w, _ = doJSON(t, router, "PUT", path, map[string]interface{}{
		"restricted": true,
		"permissions": []map[string]interface{}{
			{"grantee_type": "everyone", "grantee_id": 1, "level": "view"},
		},
	}, token)
	requireStatus(t, w, http.StatusBadRequest)
}

func TestGetRoomActivity(t *testing.T) {
	router := setupTest(t)
	owner, token := createMember(t, "owner@acme.com")
	room := createRoom(t, owner, false, "")
	createAcceptedInvite(t, room, "guest@x.com", "RS56TV78", "MMMM2345")

	w, _ := doJSON(t, router, "POST", "/api/guest/content",
		contentRequest("guest@x.com", "MMMM2345", nil), "")
	requireStatus(t, w, http.StatusOK)

	w, resp := doJSON(t, router, "GET", fmt.Sprintf("/api/rooms/%d/activity", room.ID), nil, token)
	requireStatus(t, w, http.StatusOK)
	entries := resp["activity"].([]interface{})
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActivityRoomAccessed, entries[0].(map[string]interface{})["action"])
}
