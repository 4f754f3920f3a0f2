package services

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"

	"github.com/pigmarket/pigmarket-backend/internal/models"
)

func (s *serviceSuite) checkoutForm(items ...uuid.UUID) *CheckoutRequest {
	return &CheckoutRequest{OrderRequest: *orderForm("home", "0"), ItemIDs: items}
}

func (s *serviceSuite) TestAddToCartTwice() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")

	item, created, err := s.carts.Add(customer.ID, pig.ID)
	s.Require().NoError(err)
	s.True(created)

	again, created, err := s.carts.Add(customer.ID, pig.ID)
	s.Require().NoError(err)
	s.False(created)
	s.Equal(item.ID, again.ID)

	count, err := s.carts.Count(customer.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *serviceSuite) TestAddToCartRacingSameAdd() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")

	var racer models.CartItem
	s.afterFirstRead("cart_items", func() {
		racer = models.CartItem{UserID: customer.ID, PigID: pig.ID, Quantity: 1}
		s.Require().NoError(s.db.Omit(clause.Associations).Create(&racer).Error)
	})

	item, created, err := s.carts.Add(customer.ID, pig.ID)
	s.Require().NoError(err)
	s.False(created)
	s.Equal(racer.ID, item.ID)
	s.Equal(pig.ID, item.Pig.ID)
	s.Equal(int64(1), s.countRows(&models.CartItem{}, "user_id = ?", customer.ID))
}

func (s *serviceSuite) TestAddUnavailablePigIsNotFound() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")
	s.Require().NoError(s.db.Model(pig).Update("is_available", false).Error)

	_, _, err := s.carts.Add(customer.ID, pig.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *serviceSuite) TestCartListDropsSoldPigs() {
	customer := s.newCustomer("juan")
	kept := s.newPig(models.BreedDuroc, "5000")
	sold := s.newPig(models.BreedNative, "3000")

	_, _, err := s.carts.Add(customer.ID, kept.ID)
	s.Require().NoError(err)
	_, _, err = s.carts.Add(customer.ID, sold.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.db.Model(sold).Update("is_available", false).Error)

	view, err := s.carts.List(customer.ID)
	s.Require().NoError(err)
	s.Len(view.Items, 1)
	s.Equal(int64(1), view.RemovedCount)
	s.True(view.TotalPrice.Equal(decimal.NewFromInt(5000)))
}

func (s *serviceSuite) TestUpdateQuantityToZeroRemoves() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")
	item, _, err := s.carts.Add(customer.ID, pig.ID)
	s.Require().NoError(err)

	updated, err := s.carts.UpdateQuantity(customer.ID, item.ID, 0)
	s.Require().NoError(err)
	s.Nil(updated)
	s.Zero(s.countRows(&models.CartItem{}, ""))
}

func (s *serviceSuite) TestCheckoutCreatesOrders() {
	customer := s.newCustomer("juan")
	first := s.newPig(models.BreedDuroc, "5000")
	second := s.newPig(models.BreedNative, "3000")

	a, _, err := s.carts.Add(customer.ID, first.ID)
	s.Require().NoError(err)
	b, _, err := s.carts.Add(customer.ID, second.ID)
	s.Require().NoError(err)

	orders, err := s.carts.Checkout(customer.ID, s.checkoutForm(a.ID, b.ID))
	s.Require().NoError(err)
	s.Len(orders, 2)
	for _, o := range orders {
		s.Equal(models.OrderTypeCheckout, o.OrderType)
		s.Equal(models.ReservationStatusPending, o.Status)
		s.True(o.DownPayment.IsZero())
		s.NotNil(o.PickupDate)
	}

	s.False(s.pigAvailable(first.ID))
	s.False(s.pigAvailable(second.ID))
	s.Zero(s.countRows(&models.CartItem{}, ""))
}

func (s *serviceSuite) TestCheckoutIsAllOrNothing() {
	customer := s.newCustomer("juan")
	rival := s.newCustomer("maria")
	first := s.newPig(models.BreedDuroc, "5000")
	second := s.newPig(models.BreedNative, "3000")

	a, _, err := s.carts.Add(customer.ID, first.ID)
	s.Require().NoError(err)
	b, _, err := s.carts.Add(customer.ID, second.ID)
	s.Require().NoError(err)

	_, err = s.reservations.Purchase(rival.ID, second.ID, orderForm("pickup", "0"), nil)
	s.Require().NoError(err)

	_, err = s.carts.Checkout(customer.ID, s.checkoutForm(a.ID, b.ID))
	s.ErrorIs(err, ErrConflict)

	s.True(s.pigAvailable(first.ID))
	s.Zero(s.countRows(&models.Reservation{}, "user_id = ?", customer.ID))
	s.Equal(int64(2), s.countRows(&models.CartItem{}, "user_id = ?", customer.ID))
}

func (s *serviceSuite) TestCheckoutRejectsForeignItems() {
	customer := s.newCustomer("juan")
	other := s.newCustomer("maria")
	pig := s.newPig(models.BreedDuroc, "5000")

	item, _, err := s.carts.Add(other.ID, pig.ID)
	s.Require().NoError(err)

	_, err = s.carts.Checkout(customer.ID, s.checkoutForm(item.ID))
	s.ErrorIs(err, ErrNotFound)
	s.True(s.pigAvailable(pig.ID))
}
