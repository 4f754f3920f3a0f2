package services

import (
	"time"

	"github.com/pigmarket/pigmarket-backend/internal/models"
)

func (s *serviceSuite) TestMessageStatusFollowsStaffReading() {
	customer := s.newCustomer("juan")
	staff := s.newStaff("staff")

	conversation, err := s.messaging.Start(customer, &StartConversationRequest{Message: "Is the Duroc still available?"})
	s.Require().NoError(err)
	s.Equal(models.DefaultConversationSubject, conversation.Subject)

	statuses, err := s.messaging.MessageStatuses(customer.ID, conversation.ID)
	s.Require().NoError(err)
	s.Require().Len(statuses, 1)
	for _, status := range statuses {
		s.Equal(models.MessageStatusDelivered, status)
	}

	_, err = s.messaging.Open(staff, conversation.ID)
	s.Require().NoError(err)

	statuses, err = s.messaging.MessageStatuses(customer.ID, conversation.ID)
	s.Require().NoError(err)
	for _, status := range statuses {
		s.Equal(models.MessageStatusSeen, status)
	}
}

func (s *serviceSuite) TestMessageWithoutDeliveryIsSent() {
	msg := models.Message{}
	s.Equal(models.MessageStatusSent, msg.Status())
}

func (s *serviceSuite) TestStartReusesConversationPerSubject() {
	customer := s.newCustomer("juan")

	first, err := s.messaging.Start(customer, &StartConversationRequest{Subject: "Delivery", Message: "Hello"})
	s.Require().NoError(err)
	second, err := s.messaging.Start(customer, &StartConversationRequest{Subject: "Delivery", Message: "Again"})
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal(int64(2), s.countRows(&models.Message{}, "conversation_id = ?", first.ID))
}

func (s *serviceSuite) TestInboxCountsUnreadFromOtherSide() {
	customer := s.newCustomer("juan")
	staff := s.newStaff("staff")

	conversation, err := s.messaging.Start(customer, &StartConversationRequest{Message: "Hi"})
	s.Require().NoError(err)
	_, err = s.messaging.Send(customer, conversation.ID, &SendMessageRequest{Message: "Anyone there?"})
	s.Require().NoError(err)

	summaries, unread, err := s.messaging.Inbox(staff)
	s.Require().NoError(err)
	s.Len(summaries, 1)
	s.Equal(int64(2), unread)

	_, unread, err = s.messaging.Inbox(customer)
	s.Require().NoError(err)
	s.Zero(unread)

	reply, err := s.messaging.Send(staff, conversation.ID, &SendMessageRequest{Message: "Yes, how can we help?"})
	s.Require().NoError(err)
	s.Equal(models.SenderAdmin, reply.SenderType)

	_, unread, err = s.messaging.Inbox(customer)
	s.Require().NoError(err)
	s.Equal(int64(1), unread)
}

func (s *serviceSuite) TestCustomersCannotReadOthersConversations() {
	owner := s.newCustomer("juan")
	other := s.newCustomer("maria")

	conversation, err := s.messaging.Start(owner, &StartConversationRequest{Message: "Hi"})
	s.Require().NoError(err)

	_, err = s.messaging.Open(other, conversation.ID)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.messaging.Send(other, conversation.ID, &SendMessageRequest{Message: "Hello"})
	s.ErrorIs(err, ErrNotFound)
}

func (s *serviceSuite) TestStaffCannotStartConversations() {
	staff := s.newStaff("staff")
	_, err := s.messaging.Start(staff, &StartConversationRequest{Message: "Hi"})
	s.ErrorIs(err, ErrForbidden)
}

func (s *serviceSuite) TestDeleteConversationRemovesMessages() {
	customer := s.newCustomer("juan")
	conversation, err := s.messaging.Start(customer, &StartConversationRequest{Message: "Hi"})
	s.Require().NoError(err)

	message, err := s.messaging.Delete(conversation.ID)
	s.Require().NoError(err)
	s.Contains(message, "Test juan")
	s.Zero(s.countRows(&models.Message{}, ""))
	s.Zero(s.countRows(&models.Conversation{}, ""))
}

func (s *serviceSuite) TestCustomerRecentlyActive() {
	customer := s.newCustomer("juan")

	active, err := s.messaging.CustomerRecentlyActive(customer.ID, 5*time.Minute)
	s.Require().NoError(err)
	s.False(active)

	_, err = s.messaging.Start(customer, &StartConversationRequest{Message: "Hi"})
	s.Require().NoError(err)

	active, err = s.messaging.CustomerRecentlyActive(customer.ID, 5*time.Minute)
	s.Require().NoError(err)
	s.True(active)
}
