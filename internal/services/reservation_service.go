// internal/services/reservation_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pigmarket/pigmarket-backend/internal/config"
	"github.com/pigmarket/pigmarket-backend/internal/events"
	"github.com/pigmarket/pigmarket-backend/internal/metrics"
	"github.com/pigmarket/pigmarket-backend/internal/models"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

type ReservationService struct {
	db                  *gorm.DB
	pricing             Pricing
	notificationService *NotificationService
	paymentService      *PaymentService
	publisher           events.Publisher
	pickupLeadDays      int
	now                 func() time.Time
}

// OrderRequest is the customer's order form, shared by reservations,
// purchases and cart checkout.
type OrderRequest struct {
	Fullname       string          `json:"fullname" form:"fullname" validate:"required,max=100"`
	ContactNumber  string          `json:"contact_number" form:"contact_number" validate:"required,ph_mobile"`
	Address        string          `json:"address" form:"address" validate:"required,max=1000"`
	DeliveryOption string          `json:"delivery_option" form:"delivery_option" validate:"required,oneof=home pickup"`
	PaymentMethod  string          `json:"payment_method" form:"payment_method" validate:"required,oneof=cash gcash"`
	DownPayment    decimal.Decimal `json:"down_payment" form:"down_payment,default=0"`
	PickupDate     string          `json:"pickup_date" form:"pickup_date"`
	PickupTime     string          `json:"pickup_time" form:"pickup_time"`
}

// AdminOrderRequest records a face-to-face sale. Without a customer email the
// order is filed under the staff member who entered it.
type AdminOrderRequest struct {
	OrderRequest
	PigID         string `json:"pig_id" form:"pig_id" validate:"required,uuid"`
	CustomerEmail string `json:"customer_email" form:"customer_email" validate:"omitempty,email"`
	Status        string `json:"status" form:"status" validate:"omitempty,oneof=pending accepted completed"`
}

// AdminUpdateRequest holds the fields staff may correct on an order.
type AdminUpdateRequest struct {
	Fullname      *string `json:"fullname" validate:"omitempty,max=100"`
	ContactNumber *string `json:"contact_number" validate:"omitempty,ph_mobile"`
	Address       *string `json:"address"`
	PickupDate    *string `json:"pickup_date"`
	PickupTime    *string `json:"pickup_time"`
	PaymentMethod *string `json:"payment_method" validate:"omitempty,oneof=cash gcash"`
}

type ReservationListParams struct {
	utils.PaginationParams
	Status         string
	OrderType      string
	DeliveryOption string
}

// PendingOrder is one row of the staff notification feed.
type PendingOrder struct {
	ID                uuid.UUID       `json:"id"`
	OrderType         string          `json:"order_type"`
	Fullname          string          `json:"fullname"`
	Email             string          `json:"email"`
	ContactNumber     string          `json:"contact_number"`
	Address           string          `json:"address"`
	PigBreed          string          `json:"pig_breed"`
	PigID             uuid.UUID       `json:"pig_id"`
	PigPrice          decimal.Decimal `json:"pig_price"`
	DownPayment       decimal.Decimal `json:"down_payment"`
	RequiredPayment   decimal.Decimal `json:"required_payment"`
	HasProofOfPayment bool            `json:"has_proof_of_payment"`
	DeliveryOption    string          `json:"delivery_option"`
	PaymentMethod     string          `json:"payment_method"`
	PickupTime        string          `json:"pickup_time"`
	CreatedAt         string          `json:"created_at"`
}

func NewReservationService(db *gorm.DB, cfg *config.Config, notificationService *NotificationService, paymentService *PaymentService, publisher events.Publisher) *ReservationService {
	return &ReservationService{
		db:                  db,
		pricing:             NewPricing(cfg.Business),
		notificationService: notificationService,
		paymentService:      paymentService,
		publisher:           publisher,
		pickupLeadDays:      cfg.Business.PickupLeadDays,
		now:                 time.Now,
	}
}

func (s *ReservationService) today() time.Time {
	return models.DateOnly(s.now())
}

func (s *ReservationService) defaultPickupDate() *time.Time {
	d := s.today().AddDate(0, 0, s.pickupLeadDays)
	return &d
}

// normalize validates the form and canonicalizes the phone number.
func (req *OrderRequest) normalize() error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	phone, err := utils.NormalizePhone(req.ContactNumber)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	req.ContactNumber = phone
	req.Fullname = strings.TrimSpace(req.Fullname)
	req.Address = strings.TrimSpace(req.Address)

	if req.DownPayment.IsNegative() {
		return fmt.Errorf("%w: Down payment cannot be negative.", ErrValidation)
	}
	return checkPickupTime(req.PickupTime)
}

func checkPickupTime(value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse("15:04", value); err != nil {
		return fmt.Errorf("%w: Pickup time must be in HH:MM format.", ErrValidation)
	}
	return nil
}

func (s *ReservationService) parsePickupDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("%w: Pickup date must be in YYYY-MM-DD format.", ErrValidation)
	}
	if d.Before(s.today()) {
		return nil, fmt.Errorf("%w: Pickup date cannot be in the past.", ErrValidation)
	}
	return &d, nil
}

func (s *ReservationService) loadAvailablePig(pigID uuid.UUID) (*models.Pig, error) {
	var pig models.Pig
	if err := s.db.Where("id = ?", pigID).First(&pig).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Pig not found", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !pig.IsAvailable {
		metrics.IncConflict()
		return nil, fmt.Errorf("%w: This pig is no longer available.", ErrConflict)
	}
	return &pig, nil
}

func newOrder(userID uuid.UUID, pig *models.Pig, orderType models.OrderType, req *OrderRequest) *models.Reservation {
	return &models.Reservation{
		UserID:         userID,
		PigID:          pig.ID,
		OrderType:      orderType,
		Fullname:       req.Fullname,
		ContactNumber:  req.ContactNumber,
		Address:        req.Address,
		DeliveryOption: models.DeliveryOption(req.DeliveryOption),
		PaymentMethod:  models.PaymentMethod(req.PaymentMethod),
		DownPayment:    req.DownPayment,
		Status:         models.ReservationStatusPending,
		PickupTime:     req.PickupTime,
		Pig:            *pig,
	}
}

// insertOrder claims the pig and writes the order inside tx.
func insertOrder(tx *gorm.DB, r *models.Reservation) error {
	if err := claimPig(tx, r.PigID); err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.IncConflict()
		}
		return err
	}
	r.Pig.IsAvailable = false
	if err := tx.Omit(clause.Associations).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}
	return nil
}

// Reserve places a reservation with a down payment of at least half the
// total. Proof files, if any, are stored with the order.
func (s *ReservationService) Reserve(userID, pigID uuid.UUID, req *OrderRequest, proofs []*multipart.FileHeader) (*models.Reservation, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	pickupDate, err := s.parsePickupDate(req.PickupDate)
	if err != nil {
		return nil, err
	}

	pig, err := s.loadAvailablePig(pigID)
	if err != nil {
		return nil, err
	}

	if err := s.pricing.CheckDownPayment(pig.Price, req.DownPayment, models.DeliveryOption(req.DeliveryOption)); err != nil {
		return nil, err
	}

	r := newOrder(userID, pig, models.OrderTypeReservation, req)
	r.PickupDate = pickupDate
	return s.place(r, proofs)
}

// Purchase buys the pig outright. Nothing is paid up front and the pig is
// scheduled for pickup a couple of days out.
func (s *ReservationService) Purchase(userID, pigID uuid.UUID, req *OrderRequest, proofs []*multipart.FileHeader) (*models.Reservation, error) {
	req.DownPayment = decimal.Zero
	if err := req.normalize(); err != nil {
		return nil, err
	}

	pig, err := s.loadAvailablePig(pigID)
	if err != nil {
		return nil, err
	}

	r := newOrder(userID, pig, models.OrderTypePurchase, req)
	r.PickupDate = s.defaultPickupDate()
	return s.place(r, proofs)
}

func (s *ReservationService) place(r *models.Reservation, proofs []*multipart.FileHeader) (*models.Reservation, error) {
	var stored []storedProof
	if len(proofs) > 0 {
		stored, _ = s.paymentService.storeProofFiles(proofs)
		if len(stored) == 0 {
			return nil, fmt.Errorf("%w: No valid files uploaded. Only JPG, PNG, or PDF files are allowed.", ErrValidation)
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := insertOrder(tx, r); err != nil {
			return err
		}
		if len(stored) > 0 {
			return insertProofs(tx, r, stored, "")
		}
		return nil
	})
	if err != nil {
		if len(stored) > 0 {
			s.paymentService.storageService.DeleteFiles(storedKeys(stored))
		}
		return nil, err
	}

	publishOrderEvent(s.publisher, events.ReservationCreated, r)
	return r, nil
}

// ListForUser returns the customer's orders, newest first.
func (s *ReservationService) ListForUser(userID uuid.UUID) ([]models.Reservation, error) {
	var reservations []models.Reservation
	if err := s.db.Preload("Pig").Preload("PaymentProofs").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch reservations: %w", err)
	}
	return reservations, nil
}

func (s *ReservationService) GetForUser(userID, id uuid.UUID) (*models.Reservation, error) {
	var r models.Reservation
	if err := s.db.Preload("Pig").Preload("PaymentProofs").
		Where("id = ? AND user_id = ?", id, userID).
		First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Reservation not found", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &r, nil
}

// CanCancel reports whether the customer may still cancel the order, and why
// not.
func (s *ReservationService) CanCancel(r *models.Reservation) (bool, string) {
	switch r.Status {
	case models.ReservationStatusPending:
		return true, ""
	case models.ReservationStatusAccepted:
		if r.PickupDate != nil && !models.CalendarDate(*r.PickupDate).After(s.today()) {
			return false, "Cannot cancel order. It's already the delivery day or has passed."
		}
		return true, ""
	default:
		return false, "Cannot cancel order. This order has already been completed."
	}
}

// UpdateByCustomer edits an order that is not completed. The pig stays the
// same and the down payment rule is checked again for reservations.
func (s *ReservationService) UpdateByCustomer(userID, id uuid.UUID, req *OrderRequest) (*models.Reservation, error) {
	r, err := s.GetForUser(userID, id)
	if err != nil {
		return nil, err
	}
	if r.Status == models.ReservationStatusCompleted {
		return nil, fmt.Errorf("%w: This order has already been completed.", ErrValidation)
	}

	if !r.OrderType.RequiresDownPayment() {
		req.DownPayment = r.DownPayment
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"fullname":        req.Fullname,
		"contact_number":  req.ContactNumber,
		"address":         req.Address,
		"delivery_option": req.DeliveryOption,
		"payment_method":  req.PaymentMethod,
		"pickup_time":     req.PickupTime,
	}

	if r.OrderType.RequiresDownPayment() {
		if err := s.pricing.CheckDownPayment(r.Pig.Price, req.DownPayment, models.DeliveryOption(req.DeliveryOption)); err != nil {
			return nil, err
		}
		updates["down_payment"] = req.DownPayment

		if req.PickupDate != "" {
			pickupDate, err := s.parsePickupDate(req.PickupDate)
			if err != nil {
				return nil, err
			}
			updates["pickup_date"] = pickupDate
		}
	}

	if err := s.db.Model(&models.Reservation{}).Where("id = ?", r.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update reservation: %w", err)
	}

	return s.GetForUser(userID, id)
}

// Cancel withdraws the customer's order and puts the pig back on sale.
func (s *ReservationService) Cancel(userID, id uuid.UUID) error {
	r, err := s.GetForUser(userID, id)
	if err != nil {
		return err
	}

	if ok, reason := s.CanCancel(r); !ok {
		return fmt.Errorf("%w: %s", ErrValidation, reason)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := lockLiveOrder(tx, r.ID)
		if err != nil {
			return err
		}
		if ok, reason := s.CanCancel(locked); !ok {
			return fmt.Errorf("%w: %s", ErrValidation, reason)
		}
		if err := releasePig(tx, locked.PigID); err != nil {
			return err
		}
		return deleteReservationRows(tx, []uuid.UUID{locked.ID})
	}); err != nil {
		return err
	}

	publishOrderEvent(s.publisher, events.ReservationCancelled, r)
	return nil
}

// CountAcceptedUnpaid counts the customer's accepted orders still awaiting
// payment.
func (s *ReservationService) CountAcceptedUnpaid(userID uuid.UUID) (int64, error) {
	var count int64
	if err := s.db.Model(&models.Reservation{}).
		Where("user_id = ? AND status = ? AND is_paid = ?", userID, models.ReservationStatusAccepted, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// Staff operations

func (s *ReservationService) Get(id uuid.UUID) (*models.Reservation, error) {
	var r models.Reservation
	if err := s.db.Preload("Pig").Preload("User").Preload("PaymentProofs").Preload("Revenue").
		Where("id = ?", id).
		First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Reservation not found", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &r, nil
}

// List is the order management view. It shows accepted orders unless a status
// is asked for: pending ones live in the notification feed and completed ones
// in the tracking records.
func (s *ReservationService) List(params ReservationListParams) ([]models.Reservation, int64, error) {
	status := params.Status
	if status == "" {
		status = string(models.ReservationStatusAccepted)
	}
	query := s.db.Model(&models.Reservation{})
	if status != "all" {
		query = query.Where("status = ?", status)
	}

	if params.OrderType != "" {
		query = query.Where("order_type = ?", params.OrderType)
	}
	if params.DeliveryOption != "" {
		query = query.Where("delivery_option = ?", params.DeliveryOption)
	}
	if params.Search != "" {
		term := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(fullname) LIKE ? OR contact_number LIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reservations: %w", err)
	}

	allowedSortFields := []string{"created_at", "pickup_date", "fullname", "status"}
	query = query.Scopes(utils.SortBy(params.PaginationParams, allowedSortFields...), utils.Paginate(params.PaginationParams))

	var reservations []models.Reservation
	if err := query.Preload("Pig").Preload("User").Find(&reservations).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reservations: %w", err)
	}
	return reservations, total, nil
}

// Accept confirms a pending order. Reservations that carry a down payment are
// checked against the minimum again; a failed check leaves the order pending.
func (s *ReservationService) Accept(id uuid.UUID) (*models.Reservation, string, error) {
	r, err := s.Get(id)
	if err != nil {
		return nil, "", err
	}
	if r.Status != models.ReservationStatusPending {
		return nil, "", fmt.Errorf("%w: Only pending orders can be accepted.", ErrValidation)
	}

	checked := r.OrderType.RequiresDownPayment() && r.DownPayment.IsPositive()
	if checked {
		if err := s.pricing.CheckAcceptable(r); err != nil {
			return nil, "", err
		}
	}

	res := s.db.Model(&models.Reservation{}).
		Where("id = ? AND status = ?", r.ID, models.ReservationStatusPending).
		Update("status", models.ReservationStatusAccepted)
	if res.Error != nil {
		return nil, "", fmt.Errorf("failed to accept reservation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, "", fmt.Errorf("%w: This order was changed by someone else.", ErrConflict)
	}
	r.Status = models.ReservationStatusAccepted

	publishOrderEvent(s.publisher, events.ReservationAccepted, r)
	if err := s.notificationService.SendOrderAcceptedEmail(r); err != nil {
		logrus.WithError(err).WithField("reservation_id", r.ID).Warn("Failed to send acceptance email")
	}

	var message string
	if checked {
		message = fmt.Sprintf("Reservation for %s has been accepted! Down payment of ₱%s confirmed.", r.Fullname, r.DownPayment.StringFixed(2))
	} else {
		message = fmt.Sprintf("Order for %s has been accepted! Full payment will be collected during delivery/pickup.", r.Fullname)
	}
	return r, message, nil
}

// Decline rejects a pending or accepted order: the pig goes back on sale, the
// customer gets a notice and the order is removed, all in one transaction.
func (s *ReservationService) Decline(id uuid.UUID) (*models.DeclineNotification, error) {
	r, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !r.IsLive() {
		return nil, fmt.Errorf("%w: Completed orders cannot be declined.", ErrValidation)
	}

	var notice *models.DeclineNotification
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := lockLiveOrder(tx, r.ID); err != nil {
			return err
		}
		if err := releasePig(tx, r.PigID); err != nil {
			return err
		}
		n, err := createDeclineNotification(tx, r)
		if err != nil {
			return err
		}
		notice = n
		return deleteReservationRows(tx, []uuid.UUID{r.ID})
	}); err != nil {
		return nil, err
	}

	publishOrderEvent(s.publisher, events.ReservationDeclined, r)
	if err := s.notificationService.SendOrderDeclinedEmail(r.UserID, notice); err != nil {
		logrus.WithError(err).WithField("user_id", r.UserID).Warn("Failed to send decline email")
	}
	return notice, nil
}

// Update lets staff correct contact and schedule details.
func (s *ReservationService) Update(id uuid.UUID, req *AdminUpdateRequest) (*models.Reservation, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	r, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Fullname != nil {
		updates["fullname"] = strings.TrimSpace(*req.Fullname)
	}
	if req.ContactNumber != nil {
		phone, err := utils.NormalizePhone(*req.ContactNumber)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
		updates["contact_number"] = phone
	}
	if req.Address != nil {
		updates["address"] = strings.TrimSpace(*req.Address)
	}
	if req.PickupDate != nil {
		if *req.PickupDate == "" {
			updates["pickup_date"] = nil
		} else {
			d, err := time.Parse("2006-01-02", *req.PickupDate)
			if err != nil {
				return nil, fmt.Errorf("%w: Pickup date must be in YYYY-MM-DD format.", ErrValidation)
			}
			updates["pickup_date"] = d
		}
	}
	if req.PickupTime != nil {
		if err := checkPickupTime(*req.PickupTime); err != nil {
			return nil, err
		}
		updates["pickup_time"] = *req.PickupTime
	}
	if req.PaymentMethod != nil {
		updates["payment_method"] = *req.PaymentMethod
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.Reservation{}).Where("id = ?", r.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update reservation: %w", err)
		}
	}
	return s.Get(id)
}

// AdminCreate records a face-to-face order. The pig is always taken off sale;
// a completed order is booked as paid revenue straight away.
func (s *ReservationService) AdminCreate(staffID uuid.UUID, req *AdminOrderRequest) (*models.Reservation, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := req.OrderRequest.normalize(); err != nil {
		return nil, err
	}

	status := models.ReservationStatus(req.Status)
	if status == "" {
		status = models.ReservationStatusPending
	}

	pigID, err := uuid.Parse(req.PigID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pig id", ErrValidation)
	}
	pig, err := s.loadAvailablePig(pigID)
	if err != nil {
		return nil, err
	}

	var pickupDate *time.Time
	if req.PickupDate != "" {
		d, err := time.Parse("2006-01-02", req.PickupDate)
		if err != nil {
			return nil, fmt.Errorf("%w: Pickup date must be in YYYY-MM-DD format.", ErrValidation)
		}
		pickupDate = &d
	}

	orderType := models.OrderTypePurchase
	if req.DownPayment.IsPositive() {
		orderType = models.OrderTypeReservation
	}

	var r *models.Reservation
	err = s.db.Transaction(func(tx *gorm.DB) error {
		customerID := staffID
		if req.CustomerEmail != "" {
			customer, err := findOrCreateCustomer(tx, req.CustomerEmail, req.Fullname)
			if err != nil {
				return err
			}
			customerID = customer.ID
		}

		r = newOrder(customerID, pig, orderType, &req.OrderRequest)
		r.PickupDate = pickupDate
		r.Status = status
		r.IsPaid = status == models.ReservationStatusCompleted
		if err := insertOrder(tx, r); err != nil {
			return err
		}
		if status == models.ReservationStatusCompleted {
			return bookRevenue(tx, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishOrderEvent(s.publisher, events.ReservationCreated, r)
	return r, nil
}

// findOrCreateCustomer looks a customer up by email and opens an account for
// them when none exists. The generated username is derived from the email.
func findOrCreateCustomer(tx *gorm.DB, email, fullname string) (*models.User, error) {
	var user models.User
	err := tx.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	base := email
	if at := strings.Index(email, "@"); at > 0 {
		base = email[:at]
	}
	username := base
	for i := 1; ; i++ {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if count == 0 {
			break
		}
		username = fmt.Sprintf("%s%d", base, i)
	}

	first, last := splitName(fullname)
	user = models.User{
		Username:  username,
		Email:     email,
		UserType:  models.UserTypeCustomer,
		Status:    models.UserStatusActive,
		FirstName: first,
		LastName:  last,
	}
	// The customer sets a real password through a reset.
	if err := user.SetPassword(uuid.NewString()); err != nil {
		return nil, fmt.Errorf("failed to set password: %w", err)
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &user, nil
}

func splitName(fullname string) (string, string) {
	parts := strings.Fields(fullname)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// PendingOrders is the staff notification feed, newest first.
func (s *ReservationService) PendingOrders() ([]PendingOrder, error) {
	var reservations []models.Reservation
	if err := s.db.Preload("Pig").Preload("User").Preload("PaymentProofs").
		Where("status = ?", models.ReservationStatusPending).
		Order("created_at DESC").
		Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch pending orders: %w", err)
	}

	orders := make([]PendingOrder, 0, len(reservations))
	for i := range reservations {
		r := &reservations[i]
		email := r.User.Email
		if email == "" {
			email = "Not provided"
		}
		pickupTime := r.PickupTime
		if pickupTime == "" {
			pickupTime = "Not specified"
		}
		orders = append(orders, PendingOrder{
			ID:                r.ID,
			OrderType:         string(r.OrderType),
			Fullname:          r.Fullname,
			Email:             email,
			ContactNumber:     r.ContactNumber,
			Address:           r.Address,
			PigBreed:          string(r.Pig.Breed),
			PigID:             r.PigID,
			PigPrice:          r.Pig.Price,
			DownPayment:       r.DownPayment,
			RequiredPayment:   s.pricing.RequiredPayment(r),
			HasProofOfPayment: r.HasProofOfPayment(),
			DeliveryOption:    string(r.DeliveryOption),
			PaymentMethod:     string(r.PaymentMethod),
			PickupTime:        pickupTime,
			CreatedAt:         r.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return orders, nil
}

func (s *ReservationService) PendingCount() (int64, error) {
	var count int64
	if err := s.db.Model(&models.Reservation{}).
		Where("status = ?", models.ReservationStatusPending).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count pending orders: %w", err)
	}
	return count, nil
}

// deleteReservationRows removes orders with their proofs. Revenue and
// feedback rows stay and lose their link.
// lockLiveOrder re-reads the order inside tx with a row lock. It fails with
// ErrConflict once the order has been completed, so a paid order is never
// removed and its pig never put back on sale.
func lockLiveOrder(tx *gorm.DB, id uuid.UUID) (*models.Reservation, error) {
	var r models.Reservation
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&r, "id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("%w: Reservation not found", ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !r.IsLive() {
		metrics.IncConflict()
		return nil, fmt.Errorf("%w: This order has already been completed.", ErrConflict)
	}
	return &r, nil
}

func deleteReservationRows(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("reservation_id IN ?", ids).Delete(&models.PaymentProof{}).Error; err != nil {
		return fmt.Errorf("failed to delete payment proofs: %w", err)
	}
	if err := tx.Model(&models.Revenue{}).Where("reservation_id IN ?", ids).
		Update("reservation_id", nil).Error; err != nil {
		return fmt.Errorf("failed to detach revenue: %w", err)
	}
	if err := tx.Model(&models.Feedback{}).Where("reservation_id IN ?", ids).
		Update("reservation_id", nil).Error; err != nil {
		return fmt.Errorf("failed to detach feedback: %w", err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Reservation{}).Error; err != nil {
		return fmt.Errorf("failed to delete reservations: %w", err)
	}
	return nil
}

// publishOrderEvent counts the transition and hands the event to the broker
// in the background.
func publishOrderEvent(publisher events.Publisher, eventType events.EventType, r *models.Reservation) {
	metrics.IncTransition(string(eventType), string(r.OrderType))
	if publisher == nil {
		return
	}

	event := events.OrderEvent{
		Type:          eventType,
		ReservationID: r.ID,
		UserID:        r.UserID,
		PigID:         r.PigID,
		PigBreed:      string(r.Pig.Breed),
		Price:         r.Pig.Price,
		DownPayment:   r.DownPayment,
		OrderType:     string(r.OrderType),
		Status:        string(r.Status),
		OccurredAt:    time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := publisher.Publish(ctx, event); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"event":          event.Type,
				"reservation_id": event.ReservationID,
			}).Warn("Failed to publish order event")
		}
	}()
}
