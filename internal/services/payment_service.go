// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pigmarket/pigmarket-backend/internal/events"
	"github.com/pigmarket/pigmarket-backend/internal/models"
)

type PaymentService struct {
	db             *gorm.DB
	pricing        Pricing
	storageService *StorageService
	publisher      events.Publisher
}

type PaymentStatusResult struct {
	IsPaid  bool                     `json:"is_paid"`
	Status  models.ReservationStatus `json:"status"`
	Message string                   `json:"message"`
}

type ProofUploadResult struct {
	FilesCount   int      `json:"files_count"`
	SkippedFiles []string `json:"skipped_files,omitempty"`
	Message      string   `json:"message"`
}

type PaymentDetails struct {
	ID                uuid.UUID       `json:"id"`
	PigBreed          string          `json:"pig_breed"`
	CustomerName      string          `json:"customer_name"`
	PigPrice          decimal.Decimal `json:"pig_price"`
	DeliveryFee       decimal.Decimal `json:"delivery_fee"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	DownpaymentAmount decimal.Decimal `json:"downpayment_amount"`
	RemainingBalance  decimal.Decimal `json:"remaining_balance"`
	DeliveryOption    string          `json:"delivery_option"`
	PaymentMethod     string          `json:"payment_method"`
	PickupDate        *string         `json:"pickup_date"`
	PickupTime        *string         `json:"pickup_time"`
	HasProofOfPayment bool            `json:"has_proof_of_payment"`
	ProofCount        int             `json:"proof_count"`
	ProofURLs         []string        `json:"proof_urls"`
}

func NewPaymentService(db *gorm.DB, pricing Pricing, storageService *StorageService, publisher events.Publisher) *PaymentService {
	return &PaymentService{
		db:             db,
		pricing:        pricing,
		storageService: storageService,
		publisher:      publisher,
	}
}

// TogglePaymentStatus flips is_paid, or sets it when isPaid is given. Paid
// orders are completed and booked as revenue; unpaying reopens the order and
// drops its revenue row.
func (s *PaymentService) TogglePaymentStatus(id uuid.UUID, isPaid *bool) (*PaymentStatusResult, error) {
	var r models.Reservation
	var transition events.EventType

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Pig").Where("id = ?", id).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: Reservation not found", ErrNotFound)
			}
			return fmt.Errorf("database error: %w", err)
		}

		if r.Status == models.ReservationStatusPending {
			return fmt.Errorf("%w: This order must be accepted first", ErrValidation)
		}

		target := !r.IsPaid
		if isPaid != nil {
			target = *isPaid
		}

		if target {
			if r.Status != models.ReservationStatusCompleted {
				transition = events.ReservationCompleted
			}
			r.IsPaid = true
			r.Status = models.ReservationStatusCompleted
			if err := bookRevenue(tx, &r); err != nil {
				return err
			}
		} else {
			if r.Status == models.ReservationStatusCompleted {
				transition = events.ReservationReopened
			}
			r.IsPaid = false
			r.Status = models.ReservationStatusAccepted
			if err := tx.Where("reservation_id = ?", r.ID).Delete(&models.Revenue{}).Error; err != nil {
				return fmt.Errorf("failed to remove revenue: %w", err)
			}
		}

		if err := tx.Model(&models.Reservation{}).Where("id = ?", r.ID).Updates(map[string]interface{}{
			"is_paid": r.IsPaid,
			"status":  r.Status,
		}).Error; err != nil {
			return fmt.Errorf("failed to update reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transition != "" {
		publishOrderEvent(s.publisher, transition, &r)
	}

	result := &PaymentStatusResult{IsPaid: r.IsPaid, Status: r.Status}
	if r.IsPaid {
		result.Message = "Order marked as paid and moved to Tracking Records"
	} else {
		result.Message = "Order unmarked and moved back to Order Management"
	}
	return result, nil
}

// bookRevenue creates the revenue row for a completed order unless one
// already exists. r.Pig must be loaded.
func bookRevenue(tx *gorm.DB, r *models.Reservation) error {
	var revenue models.Revenue
	reservationID := r.ID
	if err := tx.Where("reservation_id = ?", r.ID).
		Attrs(models.Revenue{
			ReservationID: &reservationID,
			Amount:        r.Pig.Price,
			PigBreed:      string(r.Pig.Breed),
			CustomerName:  r.Fullname,
			PaymentMethod: r.PaymentMethod,
		}).
		FirstOrCreate(&revenue).Error; err != nil {
		return fmt.Errorf("failed to record revenue: %w", err)
	}
	return nil
}

// UploadProofs stores every acceptable file as a payment proof of the
// customer's order. Files with a wrong extension or content are skipped; the
// rows are written in one transaction and stored files are removed again if it
// fails. Uploading proof does not mark the order paid.
func (s *PaymentService) UploadProofs(userID, reservationID uuid.UUID, files []*multipart.FileHeader, description string) (*ProofUploadResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: No files uploaded. Please select at least one file.", ErrValidation)
	}

	var r models.Reservation
	if err := s.db.Where("id = ? AND user_id = ?", reservationID, userID).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Reservation not found", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	stored, skipped := s.storeProofFiles(files)
	if len(stored) == 0 {
		return nil, fmt.Errorf("%w: No valid files uploaded. Only JPG, PNG, or PDF files are allowed.", ErrValidation)
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return insertProofs(tx, &r, stored, description)
	}); err != nil {
		s.storageService.DeleteFiles(storedKeys(stored))
		return nil, err
	}

	message := fmt.Sprintf("%d proof(s) of payment uploaded successfully!", len(stored))
	if len(skipped) > 0 {
		message += fmt.Sprintf(" (%d file(s) skipped due to invalid format)", len(skipped))
	}

	return &ProofUploadResult{
		FilesCount:   len(stored),
		SkippedFiles: skipped,
		Message:      message,
	}, nil
}

type storedProof struct {
	name   string
	result *UploadResult
}

func (s *PaymentService) storeProofFiles(files []*multipart.FileHeader) ([]storedProof, []string) {
	opts := s.storageService.UploadPreset(UploadPaymentProof)

	var stored []storedProof
	var skipped []string
	for _, fh := range files {
		result, err := s.storageService.UploadFile(fh, opts)
		if err != nil {
			if !errors.Is(err, ErrValidation) {
				logrus.WithError(err).WithField("file", fh.Filename).Warn("Failed to store payment proof")
			}
			skipped = append(skipped, fh.Filename)
			continue
		}
		stored = append(stored, storedProof{name: fh.Filename, result: result})
	}
	return stored, skipped
}

func storedKeys(stored []storedProof) []string {
	keys := make([]string, 0, len(stored))
	for _, p := range stored {
		keys = append(keys, p.result.Key)
	}
	return keys
}

// insertProofs appends proof rows and fills the order's main proof field if
// it is still empty.
func insertProofs(tx *gorm.DB, r *models.Reservation, stored []storedProof, description string) error {
	now := time.Now()
	if description == "" {
		description = "Payment proof uploaded on " + now.Format("2006-01-02 15:04")
	}

	for _, p := range stored {
		proof := &models.PaymentProof{
			ReservationID: r.ID,
			FileURL:       p.result.URL,
			FileKey:       p.result.Key,
			FileName:      p.name,
			Checksum:      p.result.Checksum,
			Description:   description,
			UploadedAt:    now,
		}
		if err := tx.Create(proof).Error; err != nil {
			return fmt.Errorf("failed to save payment proof: %w", err)
		}
	}

	if r.ProofOfPayment == "" {
		r.ProofOfPayment = stored[0].result.URL
		if err := tx.Model(&models.Reservation{}).Where("id = ?", r.ID).
			Update("proof_of_payment", r.ProofOfPayment).Error; err != nil {
			return fmt.Errorf("failed to update reservation: %w", err)
		}
	}
	return nil
}

// ListPaymentDetails returns the balance owed on each accepted, unpaid order
// of the customer.
func (s *PaymentService) ListPaymentDetails(userID uuid.UUID) ([]PaymentDetails, error) {
	var reservations []models.Reservation
	if err := s.db.Preload("Pig").Preload("PaymentProofs").
		Where("user_id = ? AND status = ? AND is_paid = ?", userID, models.ReservationStatusAccepted, false).
		Order("created_at DESC").
		Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}

	details := make([]PaymentDetails, 0, len(reservations))
	for i := range reservations {
		details = append(details, s.paymentDetails(&reservations[i]))
	}
	return details, nil
}

func (s *PaymentService) GetPaymentDetails(userID, reservationID uuid.UUID) (*PaymentDetails, error) {
	var r models.Reservation
	if err := s.db.Preload("Pig").Preload("PaymentProofs").
		Where("id = ? AND user_id = ?", reservationID, userID).
		First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Reservation not found", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	d := s.paymentDetails(&r)
	return &d, nil
}

func (s *PaymentService) paymentDetails(r *models.Reservation) PaymentDetails {
	total := s.pricing.Total(r.Pig.Price, r.DeliveryOption)
	d := PaymentDetails{
		ID:                r.ID,
		PigBreed:          string(r.Pig.Breed),
		CustomerName:      r.Fullname,
		PigPrice:          r.Pig.Price,
		DeliveryFee:       s.pricing.Fee(r.DeliveryOption),
		TotalAmount:       total,
		DownpaymentAmount: r.DownPayment,
		RemainingBalance:  total.Sub(r.DownPayment),
		DeliveryOption:    string(r.DeliveryOption),
		PaymentMethod:     string(r.PaymentMethod),
		HasProofOfPayment: r.HasProofOfPayment(),
		ProofCount:        len(r.PaymentProofs),
		ProofURLs:         make([]string, 0, len(r.PaymentProofs)),
	}
	for _, proof := range r.PaymentProofs {
		d.ProofURLs = append(d.ProofURLs, s.storageService.ResolveURL(proof.FileKey, proof.FileURL))
	}
	if r.PickupDate != nil {
		date := r.PickupDate.Format("2006-01-02")
		d.PickupDate = &date
	}
	if r.PickupTime != "" {
		pickup := r.PickupTime
		d.PickupTime = &pickup
	}
	return d
}
