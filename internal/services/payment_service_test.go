package services

import (
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pigmarket/pigmarket-backend/internal/models"
)

func (s *serviceSuite) acceptedPurchase(breed models.Breed, price string) *models.Reservation {
	customer := s.newCustomer("buyer" + string(breed))
	pig := s.newPig(breed, price)
	r, err := s.reservations.Purchase(customer.ID, pig.ID, orderForm("pickup", "0"), nil)
	s.Require().NoError(err)
	_, _, err = s.reservations.Accept(r.ID)
	s.Require().NoError(err)
	return r
}

func (s *serviceSuite) TestMarkPaidBooksRevenueOnce() {
	r := s.acceptedPurchase(models.BreedDuroc, "5000")
	paid := true

	result, err := s.payments.TogglePaymentStatus(r.ID, &paid)
	s.Require().NoError(err)
	s.True(result.IsPaid)
	s.Equal(models.ReservationStatusCompleted, result.Status)

	_, err = s.payments.TogglePaymentStatus(r.ID, &paid)
	s.Require().NoError(err)
	s.Equal(int64(1), s.countRows(&models.Revenue{}, "reservation_id = ?", r.ID))

	var revenue models.Revenue
	s.Require().NoError(s.db.Where("reservation_id = ?", r.ID).First(&revenue).Error)
	s.True(revenue.Amount.Equal(decimal.NewFromInt(5000)))
	s.Equal("Duroc", revenue.PigBreed)

	// The pig stays sold while the order is completed
	s.False(s.pigAvailable(r.PigID))
}

func (s *serviceSuite) TestToggleUnpaidReopensOrder() {
	r := s.acceptedPurchase(models.BreedDuroc, "5000")

	result, err := s.payments.TogglePaymentStatus(r.ID, nil)
	s.Require().NoError(err)
	s.True(result.IsPaid)

	result, err = s.payments.TogglePaymentStatus(r.ID, nil)
	s.Require().NoError(err)
	s.False(result.IsPaid)
	s.Equal(models.ReservationStatusAccepted, result.Status)
	s.Contains(result.Message, "Order Management")
	s.Zero(s.countRows(&models.Revenue{}, ""))
}

func (s *serviceSuite) TestPendingOrderCannotBeToggled() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")
	r, err := s.reservations.Purchase(customer.ID, pig.ID, orderForm("pickup", "0"), nil)
	s.Require().NoError(err)

	_, err = s.payments.TogglePaymentStatus(r.ID, nil)
	s.ErrorIs(err, ErrValidation)
	s.Zero(s.countRows(&models.Revenue{}, ""))
}

func (s *serviceSuite) TestRevenueSurvivesOrderDeletion() {
	r := s.acceptedPurchase(models.BreedDuroc, "5000")
	paid := true
	_, err := s.payments.TogglePaymentStatus(r.ID, &paid)
	s.Require().NoError(err)

	s.Require().NoError(deleteReservationRows(s.db, []uuid.UUID{r.ID}))

	s.Equal(int64(1), s.countRows(&models.Revenue{}, "reservation_id IS NULL"))
}

func (s *serviceSuite) TestUploadProofsRequiresFiles() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")
	r, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("pickup", "2500"), nil)
	s.Require().NoError(err)

	_, err = s.payments.UploadProofs(customer.ID, r.ID, nil, "")
	s.ErrorIs(err, ErrValidation)
}

func (s *serviceSuite) TestPaymentDetailsBreakdown() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")
	r, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("home", "3000"), nil)
	s.Require().NoError(err)

	details, err := s.payments.GetPaymentDetails(customer.ID, r.ID)
	s.Require().NoError(err)
	s.True(details.DeliveryFee.Equal(decimal.NewFromInt(125)))
	s.True(details.TotalAmount.Equal(decimal.NewFromInt(5125)))
	s.True(details.RemainingBalance.Equal(decimal.NewFromInt(2125)))
	s.False(details.HasProofOfPayment)

	other := s.newCustomer("maria")
	_, err = s.payments.GetPaymentDetails(other.ID, r.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *serviceSuite) TestUploadProofsSkipsInvalidFiles() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")
	r, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("pickup", "2500"), nil)
	s.Require().NoError(err)

	files := []*multipart.FileHeader{
		fileHeader(s.T(), "receipt.png", pngHeader),
		fileHeader(s.T(), "notes.txt", []byte("paid")),
	}
	result, err := s.payments.UploadProofs(customer.ID, r.ID, files, "")
	s.Require().NoError(err)
	s.Equal(1, result.FilesCount)
	s.Equal([]string{"notes.txt"}, result.SkippedFiles)
	s.Contains(result.Message, "1 file(s) skipped")

	details, err := s.payments.GetPaymentDetails(customer.ID, r.ID)
	s.Require().NoError(err)
	s.True(details.HasProofOfPayment)
	s.Equal(1, details.ProofCount)
	s.Len(details.ProofURLs, 1)

	var stored models.Reservation
	s.Require().NoError(s.db.First(&stored, "id = ?", r.ID).Error)
	s.False(stored.IsPaid)
	s.Equal(details.ProofURLs[0], stored.ProofOfPayment)
}
