// internal/handlers/message.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pigmarket/pigmarket-backend/internal/i18n"
	"github.com/pigmarket/pigmarket-backend/internal/services"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

type MessageHandler struct {
	messagingService *services.MessagingService
	userService      *services.UserService
}

func NewMessageHandler(messagingService *services.MessagingService, userService *services.UserService) *MessageHandler {
	return &MessageHandler{
		messagingService: messagingService,
		userService:      userService,
	}
}

// GET /messages and GET /manage/messages
func (h *MessageHandler) Inbox(c *gin.Context) {
	user, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	conversations, unread, err := h.messagingService.Inbox(user)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"conversations": conversations,
		"total_unread":  unread,
	})
}

// POST /messages
func (h *MessageHandler) Start(c *gin.Context) {
	user, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	var req services.StartConversationRequest
	if !bindJSON(c, &req) {
		return
	}

	conversation, err := h.messagingService.Start(user, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, conversation)
}

// GET /messages/:conversation_id
func (h *MessageHandler) Open(c *gin.Context) {
	user, ok := currentUser(c, h.userService)
	if !ok {
		return
	}
	conversationID, ok := paramUUID(c, "conversation_id")
	if !ok {
		return
	}

	view, err := h.messagingService.Open(user, conversationID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, view)
}

// POST /messages/:conversation_id and POST /manage/messages/:conversation_id
func (h *MessageHandler) Send(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	user, ok := currentUser(c, h.userService)
	if !ok {
		return
	}
	conversationID, ok := paramUUID(c, "conversation_id")
	if !ok {
		return
	}

	var req services.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.messagingService.Send(user, conversationID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponseWithMessage(c, i18n.T(lang, i18n.KeyMessageSent), msg)
}

// GET /api/check-message-status/:conversation_id
func (h *MessageHandler) CheckMessageStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	conversationID, ok := paramUUID(c, "conversation_id")
	if !ok {
		return
	}

	statuses, err := h.messagingService.MessageStatuses(userID, conversationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message_statuses": statuses,
	})
}

// DELETE /manage/messages/:conversation_id
func (h *MessageHandler) DeleteConversation(c *gin.Context) {
	conversationID, ok := paramUUID(c, "conversation_id")
	if !ok {
		return
	}

	message, err := h.messagingService.Delete(conversationID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, message, nil)
}
