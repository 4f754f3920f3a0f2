// internal/services/catalog_service.go
package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pigmarket/pigmarket-backend/internal/models"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

type CatalogService struct {
	db             *gorm.DB
	storageService *StorageService
}

type PigRequest struct {
	Breed       string          `json:"breed" form:"breed" validate:"required,pig_breed"`
	AgeMonths   int             `json:"age_months" form:"age_months" validate:"min=0,max=240"`
	WeightKg    decimal.Decimal `json:"weight_kg" form:"weight_kg,default=0"`
	Sex         string          `json:"sex" form:"sex" validate:"required,oneof=M F"`
	Price       decimal.Decimal `json:"price" form:"price,default=0"`
	Description string          `json:"description" form:"description" validate:"max=5000"`
	IsAvailable *bool           `json:"is_available,omitempty" form:"is_available"`
}

type PigSearchParams struct {
	utils.PaginationParams
	Breed     string
	MinWeight *decimal.Decimal
	MaxWeight *decimal.Decimal
	MinAge    *int
	MaxAge    *int
	AgeFilter string // pigs or piglets

	// IncludeUnavailable lists sold and reserved pigs too (staff inventory).
	IncludeUnavailable bool
}

func NewCatalogService(db *gorm.DB, storageService *StorageService) *CatalogService {
	return &CatalogService{
		db:             db,
		storageService: storageService,
	}
}

func (req *PigRequest) validate() error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !req.Price.IsPositive() {
		return fmt.Errorf("%w: price must be greater than zero", ErrValidation)
	}
	if !req.WeightKg.IsPositive() {
		return fmt.Errorf("%w: weight must be greater than zero", ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreatePig(req *PigRequest) (*models.Pig, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	pig := &models.Pig{
		Breed:       models.Breed(req.Breed),
		AgeMonths:   req.AgeMonths,
		WeightKg:    req.WeightKg,
		Sex:         models.Sex(req.Sex),
		Price:       req.Price,
		Description: req.Description,
		IsAvailable: true,
	}

	if err := s.db.Create(pig).Error; err != nil {
		return nil, fmt.Errorf("failed to create pig: %w", err)
	}

	return pig, nil
}

func (s *CatalogService) GetPig(id uuid.UUID) (*models.Pig, error) {
	var pig models.Pig
	if err := s.db.Where("id = ?", id).First(&pig).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: pig not found", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &pig, nil
}

// UpdatePig edits the listing. Availability can only be set by staff when no
// live order holds the pig.
func (s *CatalogService) UpdatePig(id uuid.UUID, req *PigRequest) (*models.Pig, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	pig, err := s.GetPig(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"breed":       req.Breed,
		"age_months":  req.AgeMonths,
		"weight_kg":   req.WeightKg,
		"sex":         req.Sex,
		"price":       req.Price,
		"description": req.Description,
	}

	if req.IsAvailable != nil && *req.IsAvailable != pig.IsAvailable {
		var held int64
		if err := s.db.Model(&models.Reservation{}).Where("pig_id = ?", id).Count(&held).Error; err != nil {
			return nil, fmt.Errorf("failed to check reservations: %w", err)
		}
		if held > 0 {
			return nil, fmt.Errorf("%w: availability is controlled by this pig's orders", ErrConflict)
		}
		updates["is_available"] = *req.IsAvailable
	}

	if err := s.db.Model(pig).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update pig: %w", err)
	}

	return s.GetPig(id)
}

// DeletePig removes a listing. Pigs held by pending or accepted orders cannot
// be deleted; completed orders are removed while their revenue rows stay.
func (s *CatalogService) DeletePig(id uuid.UUID) error {
	pig, err := s.GetPig(id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var live int64
		if err := tx.Model(&models.Reservation{}).
			Where("pig_id = ? AND status IN ?", id, []models.ReservationStatus{models.ReservationStatusPending, models.ReservationStatusAccepted}).
			Count(&live).Error; err != nil {
			return fmt.Errorf("failed to check reservations: %w", err)
		}
		if live > 0 {
			return fmt.Errorf("%w: this pig has open orders; decline or complete them first", ErrConflict)
		}

		var done []uuid.UUID
		if err := tx.Model(&models.Reservation{}).Where("pig_id = ?", id).Pluck("id", &done).Error; err != nil {
			return fmt.Errorf("failed to load reservations: %w", err)
		}
		if err := deleteReservationRows(tx, done); err != nil {
			return err
		}

		if err := tx.Where("pig_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart entries: %w", err)
		}

		if err := tx.Delete(pig).Error; err != nil {
			return fmt.Errorf("failed to delete pig: %w", err)
		}
		return nil
	})
}

func (s *CatalogService) SearchPigs(params PigSearchParams) ([]models.Pig, int64, error) {
	query := s.db.Model(&models.Pig{})

	if !params.IncludeUnavailable {
		query = query.Where("is_available = ?", true)
	}

	if params.Breed != "" {
		query = query.Where("breed = ?", params.Breed)
	}

	if params.MinWeight != nil {
		query = query.Where("weight_kg >= ?", *params.MinWeight)
	}

	if params.MaxWeight != nil {
		query = query.Where("weight_kg <= ?", *params.MaxWeight)
	}

	if params.MinAge != nil {
		query = query.Where("age_months >= ?", *params.MinAge)
	}

	if params.MaxAge != nil {
		query = query.Where("age_months <= ?", *params.MaxAge)
	}

	switch params.AgeFilter {
	case "pigs":
		query = query.Where("age_months >= ?", models.AdultAgeMonths)
	case "piglets":
		query = query.Where("age_months < ?", models.AdultAgeMonths)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(breed) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count pigs: %w", err)
	}

	allowedSortFields := []string{"created_at", "price", "weight_kg", "age_months", "breed"}
	query = query.Scopes(utils.SortBy(params.PaginationParams, allowedSortFields...), utils.Paginate(params.PaginationParams))

	var pigs []models.Pig
	if err := query.Find(&pigs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch pigs: %w", err)
	}

	return pigs, total, nil
}

// Breeds lists every breed with how many of them are on sale.
func (s *CatalogService) Breeds() ([]map[string]interface{}, error) {
	type row struct {
		Breed string
		Count int64
	}
	var rows []row
	if err := s.db.Model(&models.Pig{}).
		Select("breed, COUNT(*) AS count").
		Where("is_available = ?", true).
		Group("breed").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count breeds: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Breed] = r.Count
	}

	out := make([]map[string]interface{}, 0, len(models.Breeds))
	for _, b := range models.Breeds {
		out = append(out, map[string]interface{}{
			"breed":     b,
			"available": counts[string(b)],
		})
	}
	return out, nil
}

// SetPicture replaces the main picture; the previous main picture is kept in
// the gallery.
func (s *CatalogService) SetPicture(id uuid.UUID, header *multipart.FileHeader) (*models.Pig, error) {
	pig, err := s.GetPig(id)
	if err != nil {
		return nil, err
	}

	result, err := s.storageService.UploadFile(header, s.storageService.UploadPreset(UploadPigPicture))
	if err != nil {
		return nil, err
	}

	images := pig.Images
	if pig.Picture != "" {
		images = append(images, pig.Picture)
	}

	if err := s.db.Model(pig).Updates(map[string]interface{}{
		"picture": result.URL,
		"images":  images,
	}).Error; err != nil {
		s.storageService.DeleteFiles([]string{result.Key})
		return nil, fmt.Errorf("failed to save picture: %w", err)
	}

	return s.GetPig(id)
}

// claimPig flips availability off only if it is still on, so two racing
// orders cannot both take the same pig.
func claimPig(tx *gorm.DB, pigID uuid.UUID) error {
	res := tx.Model(&models.Pig{}).
		Where("id = ? AND is_available = ?", pigID, true).
		Update("is_available", false)
	if res.Error != nil {
		return fmt.Errorf("failed to reserve pig: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("%w: This pig is no longer available.", ErrConflict)
	}
	return nil
}

func releasePig(tx *gorm.DB, pigID uuid.UUID) error {
	if err := tx.Model(&models.Pig{}).Where("id = ?", pigID).Update("is_available", true).Error; err != nil {
		return fmt.Errorf("failed to release pig: %w", err)
	}
	return nil
}
