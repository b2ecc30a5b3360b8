package server

import (
	"context"
	"encoding/json"
	"log"

	"liberty/internal/models"
)

// Event type constants prevent typos in event names.
const (
	EventPostCreated        = "post_created"
	EventCommentCreated     = "comment_created"
	EventChatMessage        = "chat_message"
	EventChatMessageDeleted = "chat_message_deleted"

	EventReportFiled       = "report_filed"
	EventReportResolved    = "report_resolved"
	EventReportDismissed   = "report_dismissed"
	EventWarningIssued     = "warning_issued"
	EventUserBanned        = "user_banned"
	EventUserUnbanned      = "user_unbanned"
	EventRoleChanged       = "role_changed"
	EventUserDeleted       = "user_deleted"
	EventApplicationFiled  = "application_submitted"
	EventApplicationResult = "application_decided"

	EventTicketOpened  = "ticket_opened"
	EventTicketClosed  = "ticket_closed"
	EventTicketMessage = "ticket_message"

	EventPresenceChanged = "presence_changed"
)

// wirePresenceEvents republishes websocket presence transitions to staff
// dashboards, keeping the support queue's requester-online indicator live
// without polling.
func (s *Server) wirePresenceEvents() {
	if s.hub == nil {
		return
	}
	s.hub.SetPresenceCallbacks(
		func(userID uint) {
			s.publishModerationEvent(EventPresenceChanged, map[string]interface{}{
				"user_id": userID,
				"online":  true,
			})
		},
		func(userID uint) {
			s.publishModerationEvent(EventPresenceChanged, map[string]interface{}{
				"user_id": userID,
				"online":  false,
			})
		},
	)
}

// Events go through Redis when available so every instance's hub delivers
// them, including our own via its subscriber. Local broadcast is the
// fallback for single-instance deployments without Redis.
func (s *Server) publishUserEvent(userID uint, eventType string, payload map[string]interface{}) {
	message, ok := marshalEvent(eventType, payload)
	if !ok {
		return
	}
	if s.notifier != nil {
		if err := s.notifier.PublishUser(context.Background(), userID, message); err != nil {
			log.Printf("failed to publish %s event to user %d: %v", eventType, userID, err)
		}
		return
	}
	if s.hub != nil {
		s.hub.Broadcast(userID, message)
	}
}

func (s *Server) publishBroadcastEvent(eventType string, payload map[string]interface{}) {
	message, ok := marshalEvent(eventType, payload)
	if !ok {
		return
	}
	if s.notifier != nil {
		if err := s.notifier.PublishBroadcast(context.Background(), message); err != nil {
			log.Printf("failed to publish %s broadcast event: %v", eventType, err)
		}
		return
	}
	if s.hub != nil {
		s.hub.BroadcastAll(message)
	}
}

// publishModerationEvent fans out to staff dashboard connections only.
func (s *Server) publishModerationEvent(eventType string, payload map[string]interface{}) {
	message, ok := marshalEvent(eventType, payload)
	if !ok {
		return
	}
	if s.notifier != nil {
		if err := s.notifier.PublishModerationEvent(context.Background(), message); err != nil {
			log.Printf("failed to publish %s moderation event: %v", eventType, err)
		}
		return
	}
	if s.hub != nil {
		s.hub.BroadcastStaff(message)
	}
}

// publishTicketEvent fans out to everyone attached to a ticket room.
func (s *Server) publishTicketEvent(ticketID uint, eventType string, payload map[string]interface{}) {
	message, ok := marshalEvent(eventType, payload)
	if !ok {
		return
	}
	if s.notifier != nil {
		if err := s.notifier.PublishTicketMessage(context.Background(), ticketID, message); err != nil {
			log.Printf("failed to publish %s event to ticket %d: %v", eventType, ticketID, err)
		}
		return
	}
	if s.supportHub != nil {
		s.supportHub.BroadcastTicket(ticketID, []byte(message))
	}
}

func (s *Server) publishChatEvent(eventType string, payload map[string]interface{}) {
	message, ok := marshalEvent(eventType, payload)
	if !ok {
		return
	}
	if s.notifier != nil {
		if err := s.notifier.PublishGlobalChat(context.Background(), message); err != nil {
			log.Printf("failed to publish %s chat event: %v", eventType, err)
		}
		return
	}
	if s.chatHub != nil {
		s.chatHub.BroadcastRoom([]byte(message))
	}
}

func marshalEvent(eventType string, payload map[string]interface{}) (string, bool) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return "", false
	}
	return string(eventJSON), true
}

func userSummary(user models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
		"avatar":   user.Avatar,
		"badges":   user.Badges,
	}
}

func userSummaryPtr(user *models.User) map[string]interface{} {
	if user == nil {
		return nil
	}
	return userSummary(*user)
}
