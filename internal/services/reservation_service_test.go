package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pigmarket/pigmarket-backend/internal/models"
)

func (s *serviceSuite) TestReserveEnforcesMinimumDownPayment() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")

	_, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("home", "2562.49"), nil)
	s.ErrorIs(err, ErrValidation)
	s.Contains(err.Error(), "₱2562.50")
	s.Contains(err.Error(), "delivery fee")
	s.True(s.pigAvailable(pig.ID))
	s.Zero(s.countRows(&models.Reservation{}, ""))

	r, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("home", "2562.50"), nil)
	s.Require().NoError(err)
	s.Equal(models.ReservationStatusPending, r.Status)
	s.Equal(models.OrderTypeReservation, r.OrderType)
	s.Equal("09171234567", r.ContactNumber)
	s.False(s.pigAvailable(pig.ID))
}

func (s *serviceSuite) TestReservePickupMinimumHasNoFee() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")

	_, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("pickup", "2500"), nil)
	s.NoError(err)
}

func (s *serviceSuite) TestReserveRejectsPastPickupDate() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")

	form := orderForm("pickup", "2500")
	form.PickupDate = time.Now().AddDate(0, 0, -3).Format("2006-01-02")
	_, err := s.reservations.Reserve(customer.ID, pig.ID, form, nil)
	s.ErrorIs(err, ErrValidation)
	s.True(s.pigAvailable(pig.ID))
}

func (s *serviceSuite) TestReserveRejectsBadPhone() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")

	form := orderForm("pickup", "2500")
	form.ContactNumber = "08171234567"
	_, err := s.reservations.Reserve(customer.ID, pig.ID, form, nil)
	s.ErrorIs(err, ErrValidation)
}

func (s *serviceSuite) TestSecondOrderForSamePigConflicts() {
	first := s.newCustomer("juan")
	second := s.newCustomer("maria")
	pig := s.newPig(models.BreedLandrace, "4000")

	_, err := s.reservations.Reserve(first.ID, pig.ID, orderForm("pickup", "2000"), nil)
	s.Require().NoError(err)

	_, err = s.reservations.Purchase(second.ID, pig.ID, orderForm("pickup", "0"), nil)
	s.ErrorIs(err, ErrConflict)
	s.Equal(int64(1), s.countRows(&models.Reservation{}, ""))
}

func (s *serviceSuite) TestConcurrentOrdersForSamePig() {
	const buyers = 8
	pig := s.newPig(models.BreedLandrace, "4000")
	customers := make([]*models.User, buyers)
	for i := range customers {
		customers[i] = s.newCustomer(fmt.Sprintf("buyer%d", i))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
		others    []error
	)
	start := make(chan struct{})
	for _, customer := range customers {
		wg.Add(1)
		go func(customer *models.User) {
			defer wg.Done()
			<-start
			_, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("pickup", "2000"), nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}(customer)
	}
	close(start)
	wg.Wait()

	s.Empty(others)
	s.Equal(1, succeeded)
	s.Equal(buyers-1, conflicts)
	s.Equal(int64(1), s.countRows(&models.Reservation{}, ""))
	s.False(s.pigAvailable(pig.ID))
}

func (s *serviceSuite) TestPurchaseSchedulesPickup() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedLandrace, "4000")

	r, err := s.reservations.Purchase(customer.ID, pig.ID, orderForm("home", "1000"), nil)
	s.Require().NoError(err)
	s.Equal(models.OrderTypePurchase, r.OrderType)
	s.True(r.DownPayment.IsZero())
	s.Require().NotNil(r.PickupDate)
	s.True(models.DateOnly(time.Now()).AddDate(0, 0, 2).Equal(*r.PickupDate))
}

func (s *serviceSuite) TestAcceptFailureLeavesOrderPending() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")
	s.Require().NoError(s.db.Model(pig).Update("is_available", false).Error)

	r := &models.Reservation{
		UserID:         customer.ID,
		PigID:          pig.ID,
		OrderType:      models.OrderTypeReservation,
		Fullname:       "Juan Dela Cruz",
		ContactNumber:  "09171234567",
		Address:        "Purok 3",
		DeliveryOption: models.DeliveryHome,
		PaymentMethod:  models.PaymentGCash,
		DownPayment:    decimal.NewFromInt(1000),
		Status:         models.ReservationStatusPending,
	}
	s.Require().NoError(s.db.Omit(clause.Associations).Create(r).Error)

	_, _, err := s.reservations.Accept(r.ID)
	s.ErrorIs(err, ErrValidation)
	s.Contains(err.Error(), "Cannot accept reservation for Juan Dela Cruz")

	got, err := s.reservations.Get(r.ID)
	s.Require().NoError(err)
	s.Equal(models.ReservationStatusPending, got.Status)
}

func (s *serviceSuite) TestAcceptConfirmsDownPayment() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")

	r, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("home", "2562.50"), nil)
	s.Require().NoError(err)

	accepted, message, err := s.reservations.Accept(r.ID)
	s.Require().NoError(err)
	s.Equal(models.ReservationStatusAccepted, accepted.Status)
	s.Contains(message, "Down payment of ₱2562.50 confirmed")

	_, _, err = s.reservations.Accept(r.ID)
	s.ErrorIs(err, ErrValidation)
}

func (s *serviceSuite) TestAcceptPurchaseSkipsDownPaymentCheck() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")

	r, err := s.reservations.Purchase(customer.ID, pig.ID, orderForm("home", "0"), nil)
	s.Require().NoError(err)

	_, message, err := s.reservations.Accept(r.ID)
	s.Require().NoError(err)
	s.Contains(message, "Full payment will be collected")
}

func (s *serviceSuite) TestDeclineNotifiesCustomerAndFreesPig() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedHampshire, "6500")

	r, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("pickup", "3250"), nil)
	s.Require().NoError(err)

	notice, err := s.reservations.Decline(r.ID)
	s.Require().NoError(err)
	s.Equal(customer.ID, notice.UserID)
	s.Equal(string(models.BreedHampshire), notice.PigBreed)
	s.True(notice.PigPrice.Equal(decimal.NewFromInt(6500)))
	s.Contains(notice.Message, "Hampshire")

	s.Zero(s.countRows(&models.Reservation{}, "id = ?", r.ID))
	s.True(s.pigAvailable(pig.ID))

	list, unread, err := s.notifications.ListDeclineNotifications(customer.ID, false)
	s.Require().NoError(err)
	s.Len(list, 1)
	s.Equal(int64(1), unread)

	s.Require().NoError(s.notifications.MarkRead(customer.ID, notice.ID))
	_, unread, err = s.notifications.ListDeclineNotifications(customer.ID, false)
	s.Require().NoError(err)
	s.Zero(unread)
}

func (s *serviceSuite) TestDeclineRejectsCompletedOrders() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")

	r, err := s.reservations.Purchase(customer.ID, pig.ID, orderForm("pickup", "0"), nil)
	s.Require().NoError(err)
	_, _, err = s.reservations.Accept(r.ID)
	s.Require().NoError(err)
	paid := true
	_, err = s.payments.TogglePaymentStatus(r.ID, &paid)
	s.Require().NoError(err)

	_, err = s.reservations.Decline(r.ID)
	s.ErrorIs(err, ErrValidation)
	s.Zero(s.countRows(&models.DeclineNotification{}, ""))
}

func (s *serviceSuite) TestCancelRules() {
	customer := s.newCustomer("juan")
	pending := s.newPig(models.BreedDuroc, "5000")
	dueToday := s.newPig(models.BreedNative, "3000")

	r1, err := s.reservations.Reserve(customer.ID, pending.ID, orderForm("pickup", "2500"), nil)
	s.Require().NoError(err)
	s.Require().NoError(s.reservations.Cancel(customer.ID, r1.ID))
	s.True(s.pigAvailable(pending.ID))

	r2, err := s.reservations.Reserve(customer.ID, dueToday.ID, orderForm("pickup", "1500"), nil)
	s.Require().NoError(err)
	_, _, err = s.reservations.Accept(r2.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.db.Model(&models.Reservation{}).Where("id = ?", r2.ID).
		Update("pickup_date", models.DateOnly(time.Now())).Error)

	err = s.reservations.Cancel(customer.ID, r2.ID)
	s.ErrorIs(err, ErrValidation)
	s.Contains(err.Error(), "delivery day")
	s.False(s.pigAvailable(dueToday.ID))
}

func (s *serviceSuite) TestCancelOtherCustomersOrderIsNotFound() {
	owner := s.newCustomer("juan")
	other := s.newCustomer("maria")
	pig := s.newPig(models.BreedDuroc, "5000")

	r, err := s.reservations.Reserve(owner.ID, pig.ID, orderForm("pickup", "2500"), nil)
	s.Require().NoError(err)

	s.ErrorIs(s.reservations.Cancel(other.ID, r.ID), ErrNotFound)
}

func (s *serviceSuite) TestCustomerEditRechecksDownPayment() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")

	r, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("pickup", "2500"), nil)
	s.Require().NoError(err)

	// Switching to home delivery raises the minimum to 2562.50
	_, err = s.reservations.UpdateByCustomer(customer.ID, r.ID, orderForm("home", "2500"))
	s.ErrorIs(err, ErrValidation)

	updated, err := s.reservations.UpdateByCustomer(customer.ID, r.ID, orderForm("home", "3000"))
	s.Require().NoError(err)
	s.Equal(models.DeliveryHome, updated.DeliveryOption)
	s.True(updated.DownPayment.Equal(decimal.NewFromInt(3000)))
}

func (s *serviceSuite) TestCustomerCannotEditCompletedOrder() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")

	r, err := s.reservations.Purchase(customer.ID, pig.ID, orderForm("pickup", "0"), nil)
	s.Require().NoError(err)
	_, _, err = s.reservations.Accept(r.ID)
	s.Require().NoError(err)
	paid := true
	_, err = s.payments.TogglePaymentStatus(r.ID, &paid)
	s.Require().NoError(err)

	_, err = s.reservations.UpdateByCustomer(customer.ID, r.ID, orderForm("pickup", "0"))
	s.ErrorIs(err, ErrValidation)
}

func (s *serviceSuite) TestAdminCreateCompletedBooksRevenue() {
	staff := s.newStaff("staff")
	pig := s.newPig(models.BreedYorkshire, "7000")

	req := &AdminOrderRequest{
		OrderRequest:  *orderForm("pickup", "0"),
		PigID:         pig.ID.String(),
		CustomerEmail: "walkin@example.com",
		Status:        string(models.ReservationStatusCompleted),
	}
	r, err := s.reservations.AdminCreate(staff.ID, req)
	s.Require().NoError(err)
	s.Equal(models.ReservationStatusCompleted, r.Status)
	s.True(r.IsPaid)
	s.Equal(models.OrderTypePurchase, r.OrderType)
	s.NotEqual(staff.ID, r.UserID)

	s.False(s.pigAvailable(pig.ID))
	s.Equal(int64(1), s.countRows(&models.Revenue{}, "reservation_id = ?", r.ID))
	s.Equal(int64(1), s.countRows(&models.User{}, "email = ?", "walkin@example.com"))
}

func (s *serviceSuite) TestAdminCreateWithoutEmailFilesUnderStaff() {
	staff := s.newStaff("staff")
	pig := s.newPig(models.BreedYorkshire, "7000")

	req := &AdminOrderRequest{
		OrderRequest: *orderForm("pickup", "3500"),
		PigID:        pig.ID.String(),
	}
	r, err := s.reservations.AdminCreate(staff.ID, req)
	s.Require().NoError(err)
	s.Equal(staff.ID, r.UserID)
	s.Equal(models.OrderTypeReservation, r.OrderType)
	s.Equal(models.ReservationStatusPending, r.Status)
	s.Zero(s.countRows(&models.Revenue{}, ""))
}

func (s *serviceSuite) TestPendingOrdersFeed() {
	customer := s.newCustomer("juan")
	reserved := s.newPig(models.BreedDuroc, "5000")
	bought := s.newPig(models.BreedNative, "3000")

	_, err := s.reservations.Reserve(customer.ID, reserved.ID, orderForm("home", "2562.50"), nil)
	s.Require().NoError(err)
	_, err = s.reservations.Purchase(customer.ID, bought.ID, orderForm("pickup", "0"), nil)
	s.Require().NoError(err)

	orders, err := s.reservations.PendingOrders()
	s.Require().NoError(err)
	s.Require().Len(orders, 2)

	byBreed := map[string]PendingOrder{}
	for _, o := range orders {
		byBreed[o.PigBreed] = o
	}
	s.True(byBreed["Duroc"].RequiredPayment.Equal(decimal.RequireFromString("2562.50")))
	s.True(byBreed["Native"].RequiredPayment.IsZero())
	s.False(byBreed["Duroc"].HasProofOfPayment)
	s.Equal("09:30", byBreed["Duroc"].PickupTime)

	count, err := s.reservations.PendingCount()
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

func (s *serviceSuite) TestStaffListDefaultsToAccepted() {
	customer := s.newCustomer("juan")
	first := s.newPig(models.BreedDuroc, "5000")
	second := s.newPig(models.BreedNative, "3000")

	r1, err := s.reservations.Purchase(customer.ID, first.ID, orderForm("pickup", "0"), nil)
	s.Require().NoError(err)
	_, err = s.reservations.Purchase(customer.ID, second.ID, orderForm("pickup", "0"), nil)
	s.Require().NoError(err)
	_, _, err = s.reservations.Accept(r1.ID)
	s.Require().NoError(err)

	params := ReservationListParams{}
	params.Page, params.Limit, params.Sort, params.Order = 1, 20, "created_at", "desc"

	list, total, err := s.reservations.List(params)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(r1.ID, list[0].ID)

	params.Status = "all"
	_, total, err = s.reservations.List(params)
	s.Require().NoError(err)
	s.Equal(int64(2), total)
}

// afterFirstRead runs fn once, right after the first query on table returns,
// to interleave a concurrent change.
func (s *serviceSuite) afterFirstRead(table string, fn func()) {
	fired := false
	s.Require().NoError(s.db.Callback().Query().After("gorm:query").Register("test:interleave", func(db *gorm.DB) {
		if fired || db.Statement.Schema == nil || db.Statement.Schema.Table != table {
			return
		}
		fired = true
		fn()
	}))
}

func (s *serviceSuite) assertStillCompleted(r *models.Reservation) {
	var stored models.Reservation
	s.Require().NoError(s.db.First(&stored, "id = ?", r.ID).Error)
	s.Equal(models.ReservationStatusCompleted, stored.Status)
	s.False(s.pigAvailable(r.PigID))
	s.Equal(int64(1), s.countRows(&models.Revenue{}, "reservation_id = ?", r.ID))
}

func (s *serviceSuite) TestCancelLosesToPaymentInBetween() {
	r := s.acceptedPurchase(models.BreedDuroc, "5000")
	s.afterFirstRead("reservations", func() {
		paid := true
		_, err := s.payments.TogglePaymentStatus(r.ID, &paid)
		s.Require().NoError(err)
	})

	err := s.reservations.Cancel(r.UserID, r.ID)
	s.ErrorIs(err, ErrConflict)
	s.assertStillCompleted(r)
}

func (s *serviceSuite) TestDeclineLosesToPaymentInBetween() {
	r := s.acceptedPurchase(models.BreedDuroc, "5000")
	s.afterFirstRead("reservations", func() {
		paid := true
		_, err := s.payments.TogglePaymentStatus(r.ID, &paid)
		s.Require().NoError(err)
	})

	_, err := s.reservations.Decline(r.ID)
	s.ErrorIs(err, ErrConflict)
	s.assertStillCompleted(r)
	s.Zero(s.countRows(&models.DeclineNotification{}, ""))
}
