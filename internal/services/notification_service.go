// internal/services/notification_service.go
package services

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pigmarket/pigmarket-backend/internal/config"
	"github.com/pigmarket/pigmarket-backend/internal/models"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

func declineMessage(breed string, price string) string {
	return fmt.Sprintf("We're sorry, but your order for %s pig (₱%s) has been declined by the admin. You can place a new order if you wish.", breed, price)
}

// createDeclineNotification snapshots the pig's breed and price so the notice
// survives the reservation it describes.
func createDeclineNotification(tx *gorm.DB, r *models.Reservation) (*models.DeclineNotification, error) {
	n := &models.DeclineNotification{
		UserID:   r.UserID,
		PigBreed: string(r.Pig.Breed),
		PigPrice: r.Pig.Price,
		Message:  declineMessage(string(r.Pig.Breed), r.Pig.Price.StringFixed(2)),
	}
	if err := tx.Create(n).Error; err != nil {
		return nil, fmt.Errorf("failed to create decline notification: %w", err)
	}
	return n, nil
}

func (s *NotificationService) ListDeclineNotifications(userID uuid.UUID, unreadOnly bool) ([]models.DeclineNotification, int64, error) {
	query := s.db.Model(&models.DeclineNotification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.DeclineNotification
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	var unread int64
	if err := s.db.Model(&models.DeclineNotification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	return notifications, unread, nil
}

func (s *NotificationService) MarkRead(userID, id uuid.UUID) error {
	res := s.db.Model(&models.DeclineNotification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to update notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: notification not found", ErrNotFound)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(userID uuid.UUID) error {
	if err := s.db.Model(&models.DeclineNotification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error; err != nil {
		return fmt.Errorf("failed to update notifications: %w", err)
	}
	return nil
}

// SendOrderDeclinedEmail mirrors a decline notice to the customer's inbox.
func (s *NotificationService) SendOrderDeclinedEmail(userID uuid.UUID, n *models.DeclineNotification) error {
	user, err := s.recipient(userID)
	if err != nil || user == nil {
		return err
	}

	data := map[string]interface{}{
		"Name":    user.FullName(),
		"Message": n.Message,
	}
	return s.sendTemplate(user.Email, "order_declined", data)
}

func (s *NotificationService) SendOrderAcceptedEmail(r *models.Reservation) error {
	user, err := s.recipient(r.UserID)
	if err != nil || user == nil {
		return err
	}

	pickup := "to be scheduled"
	if r.PickupDate != nil {
		pickup = r.PickupDate.Format("January 2, 2006")
		if r.PickupTime != "" {
			pickup += " " + r.PickupTime
		}
	}

	data := map[string]interface{}{
		"Name":     r.Fullname,
		"Breed":    r.Pig.Breed,
		"Price":    r.Pig.Price.StringFixed(2),
		"Delivery": r.DeliveryOption,
		"Pickup":   pickup,
	}
	return s.sendTemplate(user.Email, "order_accepted", data)
}

func (s *NotificationService) recipient(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load recipient: %w", err)
	}
	if user.Email == "" {
		return nil, nil
	}
	return &user, nil
}

func (s *NotificationService) sendTemplate(to, templateType string, data map[string]interface{}) error {
	tpl := s.getEmailTemplate(templateType)
	data["PlatformName"] = s.config.Email.FromName

	body, err := s.renderTemplate(tpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}
	return s.sendEmail(to, tpl.Subject, body)
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email not sent: SMTP not configured")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"order_declined": {
			Subject: "Your order was declined",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<p>Hi {{.Name}},</p>
	<p>{{.Message}}</p>
	<p>{{.PlatformName}}</p>
</body>
</html>`,
		},
		"order_accepted": {
			Subject: "Your order has been accepted",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<p>Hi {{.Name}},</p>
	<p>Your order for a {{.Breed}} pig (₱{{.Price}}) has been accepted.</p>
	<p>Delivery option: {{.Delivery}}. Schedule: {{.Pickup}}.</p>
	<p>{{.PlatformName}}</p>
</body>
</html>`,
		},
	}

	if tpl, ok := templates[templateType]; ok {
		return tpl
	}
	return EmailTemplate{Subject: "Notification", Body: "<p>{{.Message}}</p>"}
}
