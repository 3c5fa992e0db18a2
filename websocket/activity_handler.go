package websocket

import (
	"encoding/json"
	"log"

	"github.com/atlasworks/dataroom_backend/database"
	"github.com/atlasworks/dataroom_backend/models"
)

// canWatchRoom checks the member belongs to the data room's organization
func canWatchRoom(userID, roomID uint) bool {
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return false
	}

	var room models.DataRoom
	if err := database.DB.First(&room, roomID).Error; err != nil {
		return false
	}

	return room.OrganizationID == user.OrganizationID
}

// sendErrorToClient delivers an error message to a single client
func sendErrorToClient(client *Client, errorMsg string) {
	msg := Message{
		Type:    "error",
		Payload: errorMsg,
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling error message: %v", err)
		return
	}

	select {
	case client.send <- msgBytes:
	default:
		log.Printf("failed to send error to client %d", client.userID)
	}
}

// HandleIncomingMessage processes an incoming WebSocket message. Clients
// only subscribe and unsubscribe; activity entries originate server-side.
func HandleIncomingMessage(client *Client, messageBytes []byte) {
	var msg Message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		return
	}

	switch msg.Type {
	case "watch_room":
		roomIDStr, ok := msg.Payload.(string)
		if !ok {
			return
		}
		roomID := parseRoomID(roomIDStr)
		if roomID == 0 {
			return
		}

		if !canWatchRoom(client.userID, roomID) {
			log.Printf("User %d attempted to watch room %d without access", client.userID, roomID)
			sendErrorToClient(client, "You don't have access to this data room")
			return
		}

		client.watchRoom(roomID)
	case "unwatch_room":
		if roomIDStr, ok := msg.Payload.(string); ok {
			client.unwatchRoom(parseRoomID(roomIDStr))
		}
	default:
		log.Printf("unknown message type: %s", msg.Type)
	}
}
