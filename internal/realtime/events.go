package realtime

import (
	"encoding/json"
	"log"

	"studyhub/internal/metrics"
	"studyhub/internal/models"
)

// Envelope is the wire format for every event in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinUserPayload struct {
	UserID string `json:"userId"`
}

type joinGroupPayload struct {
	GroupID string `json:"groupId"`
}

type sendMessagePayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	Type       string `json:"type"`
}

type sendGroupMessagePayload struct {
	GroupID  string `json:"groupId"`
	SenderID string `json:"senderId"`
	Content  string `json:"content"`
}

type startStudySessionPayload struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Subject   string `json:"subject"`
}

type typingPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// handleEvent processes one inbound event from a connection. Malformed or
// unauthorized events answer with an error event on the offending
// connection and nothing else.
func (h *Hub) handleEvent(c *Client, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.sendError(c, "malformed event")
		return
	}
	metrics.RealtimeEvents.WithLabelValues(env.Event, "in").Inc()

	switch env.Event {
	case "join-user":
		h.onJoinUser(c, env.Data)
	case "join-group":
		h.onJoinGroup(c, env.Data)
	case "send-message":
		h.onSendMessage(c, env.Data)
	case "send-group-message":
		h.onSendGroupMessage(c, env.Data)
	case "start-study-session":
		h.onStartStudySession(c, env.Data)
	case "typing":
		h.onTyping(c, env.Data)
	default:
		h.sendError(c, "unknown event: "+env.Event)
	}
}

// onJoinUser subscribes the connection to its own user room. Only the
// authenticated identity is accepted; any connected client claiming an
// arbitrary id would otherwise receive that user's reminders and messages.
func (h *Hub) onJoinUser(c *Client, data json.RawMessage) {
	var p joinUserPayload
	if err := json.Unmarshal(data, &p); err != nil || p.UserID == "" {
		h.sendError(c, "malformed join-user payload")
		return
	}
	if p.UserID != c.username {
		h.sendError(c, "cannot join another user's room")
		return
	}
	h.Join(c, UserRoom(p.UserID))
}

// onJoinGroup subscribes the connection to a group room after a
// membership check
func (h *Hub) onJoinGroup(c *Client, data json.RawMessage) {
	var p joinGroupPayload
	if err := json.Unmarshal(data, &p); err != nil || p.GroupID == "" {
		h.sendError(c, "malformed join-group payload")
		return
	}

	member, err := h.store.IsApprovedMember(c.username, p.GroupID)
	if err != nil {
		log.Printf("Error: membership check for %s in group %s failed: %v", c.username, p.GroupID, err)
		h.sendError(c, "failed to verify group membership")
		return
	}
	if !member {
		h.sendError(c, "not a member of this group")
		return
	}
	h.Join(c, GroupRoom(p.GroupID))
}

// onSendMessage persists a direct message, then relays it to the receiver
// room and acks the sending connection. Persist failure suppresses both
// emissions.
func (h *Hub) onSendMessage(c *Client, data json.RawMessage) {
	var p sendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverID == "" || p.Content == "" {
		h.sendError(c, "malformed send-message payload")
		return
	}
	if p.SenderID != c.username {
		h.sendError(c, "sender does not match connection identity")
		return
	}

	message, err := h.store.SaveDirectMessage(c.username, p.ReceiverID, p.Content, p.Type)
	if err != nil {
		log.Printf("Error: failed to save direct message from %s: %v", c.username, err)
		h.sendError(c, "failed to send message")
		return
	}

	h.EmitToUser(p.ReceiverID, "new-message", message)
	h.EmitToConn(c, "message-sent", message)
}

// onSendGroupMessage persists a group message, relays it to the whole
// group room (sender included, being a member), then leaves unread
// notifications for approved members not currently in the room.
func (h *Hub) onSendGroupMessage(c *Client, data json.RawMessage) {
	var p sendGroupMessagePayload
	if err := json.Unmarshal(data, &p); err != nil || p.GroupID == "" || p.Content == "" {
		h.sendError(c, "malformed send-group-message payload")
		return
	}
	if p.SenderID != c.username {
		h.sendError(c, "sender does not match connection identity")
		return
	}

	member, err := h.store.IsApprovedMember(c.username, p.GroupID)
	if err != nil {
		log.Printf("Error: membership check for %s in group %s failed: %v", c.username, p.GroupID, err)
		h.sendError(c, "failed to verify group membership")
		return
	}
	if !member {
		h.sendError(c, "not a member of this group")
		return
	}

	message, err := h.store.SaveGroupMessage(p.GroupID, c.username, p.Content)
	if err != nil {
		log.Printf("Error: failed to save group message from %s: %v", c.username, err)
		h.sendError(c, "failed to send message")
		return
	}

	h.EmitToRoom(GroupRoom(p.GroupID), "new-group-message", message)
	h.notifyAbsentMembers(p.GroupID, c.username)
}

// notifyAbsentMembers creates an unread-messages notification for each
// approved member without a connection in the group room, unless one is
// already pending
func (h *Hub) notifyAbsentMembers(groupID, sender string) {
	members, err := h.store.ApprovedMemberUsernames(groupID)
	if err != nil {
		log.Printf("Error: failed to list members of group %s: %v", groupID, err)
		return
	}

	room := GroupRoom(groupID)
	for _, member := range members {
		if member == sender || h.userInRoom(room, member) {
			continue
		}

		pending, err := h.store.HasUnreadNotification(member, groupID)
		if err != nil {
			log.Printf("Error: unread notification check for %s failed: %v", member, err)
			continue
		}
		if pending {
			continue
		}

		_, err = h.store.CreateNotification(member, models.NotifUnreadMessages,
			"New group messages", "You have unread messages in your study group",
			groupID, models.RelatedStudyGroup)
		if err != nil {
			log.Printf("Error: failed to create unread notification for %s: %v", member, err)
			continue
		}
		metrics.NotificationsCreated.WithLabelValues(models.NotifUnreadMessages).Inc()
	}
}

// onStartStudySession tells each of the user's study friends that a
// session just started. The session's status transition belongs to the
// REST API, not to this event.
func (h *Hub) onStartStudySession(c *Client, data json.RawMessage) {
	var p startStudySessionPayload
	if err := json.Unmarshal(data, &p); err != nil || p.SessionID == "" {
		h.sendError(c, "malformed start-study-session payload")
		return
	}
	if p.UserID != c.username {
		h.sendError(c, "user does not match connection identity")
		return
	}

	friends, err := h.store.StudyingFriends(c.username)
	if err != nil {
		log.Printf("Error: failed to load study friends of %s: %v", c.username, err)
		return
	}

	for _, friend := range friends {
		h.EmitToUser(friend, "friend-started-study", startStudySessionPayload{
			SessionID: p.SessionID,
			UserID:    c.username,
			Subject:   p.Subject,
		})
	}
}

// onTyping relays a typing indicator to the receiver's room only
func (h *Hub) onTyping(c *Client, data json.RawMessage) {
	var p typingPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverID == "" {
		h.sendError(c, "malformed typing payload")
		return
	}
	if p.SenderID != c.username {
		h.sendError(c, "sender does not match connection identity")
		return
	}

	h.EmitToUser(p.ReceiverID, "user-typing", map[string]string{"senderId": c.username})
}

func (h *Hub) sendError(c *Client, message string) {
	h.EmitToConn(c, "error", errorPayload{Message: message})
}
