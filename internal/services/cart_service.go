// internal/services/cart_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pigmarket/pigmarket-backend/internal/events"
	"github.com/pigmarket/pigmarket-backend/internal/models"
)

type CartService struct {
	db                 *gorm.DB
	reservationService *ReservationService
	publisher          events.Publisher
}

type CartLine struct {
	models.CartItem
	TotalPrice decimal.Decimal `json:"total_price"`
	AgeDisplay string          `json:"age_display"`
}

type CartView struct {
	Items        []CartLine      `json:"items"`
	TotalItems   int             `json:"total_items"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	RemovedCount int64           `json:"removed_count"`
}

type CheckoutRequest struct {
	OrderRequest
	ItemIDs []uuid.UUID `json:"selected_items" validate:"required,min=1"`
}

func NewCartService(db *gorm.DB, reservationService *ReservationService, publisher events.Publisher) *CartService {
	return &CartService{
		db:                 db,
		reservationService: reservationService,
		publisher:          publisher,
	}
}

// List drops entries whose pig has been sold or reserved meanwhile and
// returns what is left.
func (s *CartService) List(userID uuid.UUID) (*CartView, error) {
	unavailable := s.db.Model(&models.Pig{}).Select("id").Where("is_available = ?", false)
	res := s.db.Where("user_id = ? AND pig_id IN (?)", userID, unavailable).Delete(&models.CartItem{})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to clean cart: %w", res.Error)
	}

	var items []models.CartItem
	if err := s.db.Preload("Pig").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	view := &CartView{
		Items:        make([]CartLine, 0, len(items)),
		TotalPrice:   decimal.Zero,
		RemovedCount: res.RowsAffected,
	}
	for _, item := range items {
		line := CartLine{
			CartItem:   item,
			TotalPrice: item.TotalPrice(),
			AgeDisplay: item.Pig.AgeDisplay(),
		}
		view.Items = append(view.Items, line)
		view.TotalItems += item.Quantity
		view.TotalPrice = view.TotalPrice.Add(line.TotalPrice)
	}
	return view, nil
}

// Add puts an available pig in the cart. Adding it twice is not an error; the
// returned flag tells whether a new entry was created.
func (s *CartService) Add(userID, pigID uuid.UUID) (*models.CartItem, bool, error) {
	var pig models.Pig
	if err := s.db.Where("id = ? AND is_available = ?", pigID, true).First(&pig).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("%w: Pig not found", ErrNotFound)
		}
		return nil, false, fmt.Errorf("database error: %w", err)
	}

	item, err := s.findCartEntry(userID, pigID)
	if err == nil {
		item.Pig = pig
		return item, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("database error: %w", err)
	}

	// A concurrent add may insert the same pair after the lookup above; the
	// unique index then skips this insert and the existing entry is returned.
	item = &models.CartItem{UserID: userID, PigID: pigID, Quantity: 1}
	result := s.db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "pig_id"}},
		DoNothing: true,
	}).Create(item)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to add to cart: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if item, err = s.findCartEntry(userID, pigID); err != nil {
			return nil, false, fmt.Errorf("database error: %w", err)
		}
		item.Pig = pig
		return item, false, nil
	}

	item.Pig = pig
	return item, true, nil
}

func (s *CartService) findCartEntry(userID, pigID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := s.db.Where("user_id = ? AND pig_id = ?", userID, pigID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *CartService) getItem(userID, id uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := s.db.Preload("Pig").Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Cart item not found", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &item, nil
}

// UpdateQuantity sets the quantity; zero or less removes the entry and
// returns nil.
func (s *CartService) UpdateQuantity(userID, id uuid.UUID, quantity int) (*models.CartItem, error) {
	item, err := s.getItem(userID, id)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		if err := s.db.Delete(item).Error; err != nil {
			return nil, fmt.Errorf("failed to remove cart item: %w", err)
		}
		return nil, nil
	}

	if err := s.db.Model(item).Update("quantity", quantity).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	item.Quantity = quantity
	return item, nil
}

func (s *CartService) Remove(userID, id uuid.UUID) (*models.CartItem, error) {
	item, err := s.getItem(userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Delete(item).Error; err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return item, nil
}

func (s *CartService) Count(userID uuid.UUID) (int64, error) {
	var count int64
	if err := s.db.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}
	return count, nil
}

// Checkout turns the selected entries into one pending order each. It is all
// or nothing: if any pig was taken meanwhile no order is created and the cart
// is left as it was.
func (s *CartService) Checkout(userID uuid.UUID, req *CheckoutRequest) ([]models.Reservation, error) {
	if len(req.ItemIDs) == 0 {
		return nil, fmt.Errorf("%w: Please select items to checkout!", ErrValidation)
	}

	req.DownPayment = decimal.Zero
	if err := req.OrderRequest.normalize(); err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := s.db.Preload("Pig").
		Where("user_id = ? AND id IN ?", userID, req.ItemIDs).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}
	if len(items) != len(uniqueIDs(req.ItemIDs)) {
		return nil, fmt.Errorf("%w: Selected items not found!", ErrNotFound)
	}

	pickupDate := s.reservationService.defaultPickupDate()
	orders := make([]models.Reservation, 0, len(items))

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range items {
			r := newOrder(userID, &items[i].Pig, models.OrderTypeCheckout, &req.OrderRequest)
			r.PickupDate = pickupDate
			if err := insertOrder(tx, r); err != nil {
				return err
			}
			orders = append(orders, *r)
		}

		ids := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ID)
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range orders {
		publishOrderEvent(s.publisher, events.ReservationCreated, &orders[i])
	}
	return orders, nil
}

func uniqueIDs(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
