// internal/services/messaging_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pigmarket/pigmarket-backend/internal/models"
)

type MessagingService struct {
	db  *gorm.DB
	now func() time.Time
}

type StartConversationRequest struct {
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"max=5000"`
}

type SendMessageRequest struct {
	Message string `json:"message" validate:"required,max=5000"`
}

// ConversationSummary is an inbox row.
type ConversationSummary struct {
	models.Conversation
	UnreadCount int64           `json:"unread_count"`
	LastMessage *models.Message `json:"last_message,omitempty"`
}

type MessageView struct {
	models.Message
	Status models.MessageStatus `json:"status"`
}

type ConversationView struct {
	Conversation *models.Conversation `json:"conversation"`
	Messages     []MessageView        `json:"messages"`
}

func NewMessagingService(db *gorm.DB) *MessagingService {
	return &MessagingService{db: db, now: time.Now}
}

func senderTypeOf(user *models.User) models.SenderType {
	if user.IsStaff() {
		return models.SenderAdmin
	}
	return models.SenderCustomer
}

func otherParty(t models.SenderType) models.SenderType {
	if t == models.SenderAdmin {
		return models.SenderCustomer
	}
	return models.SenderAdmin
}

// Start finds or opens the customer's conversation on a subject and posts
// the optional first message.
func (s *MessagingService) Start(user *models.User, req *StartConversationRequest) (*models.Conversation, error) {
	if user.IsStaff() {
		return nil, fmt.Errorf("%w: Staff reply from the inbox.", ErrForbidden)
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = models.DefaultConversationSubject
	}

	var conversation models.Conversation
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND subject = ?", user.ID, subject).
			Attrs(models.Conversation{UserID: user.ID, Subject: subject, IsActive: true}).
			FirstOrCreate(&conversation).Error; err != nil {
			return fmt.Errorf("failed to open conversation: %w", err)
		}
		if !conversation.IsActive {
			if err := tx.Model(&conversation).Update("is_active", true).Error; err != nil {
				return fmt.Errorf("failed to reopen conversation: %w", err)
			}
		}

		if text := strings.TrimSpace(req.Message); text != "" {
			if _, err := s.post(tx, &conversation, user, text); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// post writes the message as delivered and bumps the conversation so it
// sorts first in the inbox.
func (s *MessagingService) post(tx *gorm.DB, conversation *models.Conversation, sender *models.User, text string) (*models.Message, error) {
	now := s.now()
	msg := &models.Message{
		ConversationID: conversation.ID,
		SenderID:       sender.ID,
		SenderType:     senderTypeOf(sender),
		Content:        text,
		DeliveredAt:    &now,
	}
	if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if err := tx.Model(&models.Conversation{}).Where("id = ?", conversation.ID).
		Update("updated_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	conversation.UpdatedAt = now
	return msg, nil
}

// conversationFor loads a conversation the user may see: staff see all,
// customers only their own.
func (s *MessagingService) conversationFor(user *models.User, id uuid.UUID) (*models.Conversation, error) {
	query := s.db.Preload("User").Where("id = ?", id)
	if !user.IsStaff() {
		query = query.Where("user_id = ?", user.ID)
	}

	var conversation models.Conversation
	if err := query.First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Conversation not found", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &conversation, nil
}

// Send posts a message to an existing conversation.
func (s *MessagingService) Send(user *models.User, conversationID uuid.UUID, req *SendMessageRequest) (*MessageView, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, fmt.Errorf("%w: Message cannot be empty", ErrValidation)
	}

	conversation, err := s.conversationFor(user, conversationID)
	if err != nil {
		return nil, err
	}

	var msg *models.Message
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		msg, err = s.post(tx, conversation, user, text)
		return err
	}); err != nil {
		return nil, err
	}
	return &MessageView{Message: *msg, Status: msg.Status()}, nil
}

// Open returns the conversation and marks the other side's messages seen.
func (s *MessagingService) Open(user *models.User, conversationID uuid.UUID) (*ConversationView, error) {
	conversation, err := s.conversationFor(user, conversationID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_type = ? AND is_read = ?", conversation.ID, otherParty(senderTypeOf(user)), false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}

	var messages []models.Message
	if err := s.db.Where("conversation_id = ?", conversation.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	view := &ConversationView{
		Conversation: conversation,
		Messages:     make([]MessageView, 0, len(messages)),
	}
	for _, m := range messages {
		view.Messages = append(view.Messages, MessageView{Message: m, Status: m.Status()})
	}
	return view, nil
}

// MessageStatuses maps each of the customer's own messages in the
// conversation to sent, delivered or seen.
func (s *MessagingService) MessageStatuses(userID, conversationID uuid.UUID) (map[string]models.MessageStatus, error) {
	var conversation models.Conversation
	if err := s.db.Where("id = ? AND user_id = ?", conversationID, userID).First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Conversation not found", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var messages []models.Message
	if err := s.db.Select("id", "delivered_at", "read_at").
		Where("conversation_id = ? AND sender_type = ?", conversation.ID, models.SenderCustomer).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	statuses := make(map[string]models.MessageStatus, len(messages))
	for _, m := range messages {
		statuses[m.ID.String()] = m.Status()
	}
	return statuses, nil
}

// Inbox lists active conversations, most recently updated first. Staff see
// every conversation with unread customer messages counted; customers see
// their own with unread staff replies counted.
func (s *MessagingService) Inbox(user *models.User) ([]ConversationSummary, int64, error) {
	query := s.db.Model(&models.Conversation{}).Preload("User").Where("is_active = ?", true)
	if !user.IsStaff() {
		query = query.Where("user_id = ?", user.ID)
	}

	var conversations []models.Conversation
	if err := query.Order("updated_at DESC").Find(&conversations).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch conversations: %w", err)
	}
	if len(conversations) == 0 {
		return []ConversationSummary{}, 0, nil
	}

	ids := make([]uuid.UUID, 0, len(conversations))
	for _, c := range conversations {
		ids = append(ids, c.ID)
	}

	var counts []struct {
		ConversationID uuid.UUID
		Unread         int64
	}
	if err := s.db.Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS unread").
		Where("conversation_id IN ? AND sender_type = ? AND is_read = ?", ids, otherParty(senderTypeOf(user)), false).
		Group("conversation_id").
		Scan(&counts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	unread := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		unread[c.ConversationID] = c.Unread
	}

	var totalUnread int64
	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, c := range conversations {
		summary := ConversationSummary{Conversation: c, UnreadCount: unread[c.ID]}

		var last models.Message
		err := s.db.Where("conversation_id = ?", c.ID).Order("created_at DESC").Limit(1).Find(&last).Error
		if err != nil {
			return nil, 0, fmt.Errorf("failed to fetch last message: %w", err)
		}
		if last.ID != uuid.Nil {
			summary.LastMessage = &last
		}

		totalUnread += summary.UnreadCount
		summaries = append(summaries, summary)
	}
	return summaries, totalUnread, nil
}

// Delete removes a conversation and all its messages.
func (s *MessagingService) Delete(id uuid.UUID) (string, error) {
	var conversation models.Conversation
	if err := s.db.Preload("User").Where("id = ?", id).First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: Conversation not found", ErrNotFound)
		}
		return "", fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return deleteConversations(tx, []uuid.UUID{conversation.ID})
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Conversation with %s deleted successfully.", conversation.User.FullName()), nil
}

func deleteConversations(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("conversation_id IN ?", ids).Delete(&models.Message{}).Error; err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Conversation{}).Error; err != nil {
		return fmt.Errorf("failed to delete conversations: %w", err)
	}
	return nil
}

// CustomerRecentlyActive reports whether the customer wrote within window.
func (s *MessagingService) CustomerRecentlyActive(userID uuid.UUID, window time.Duration) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("conversations.user_id = ? AND messages.sender_type = ? AND messages.created_at >= ?",
			userID, models.SenderCustomer, s.now().Add(-window)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return count > 0, nil
}
