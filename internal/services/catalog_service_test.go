package services

import (
	"github.com/shopspring/decimal"

	"github.com/pigmarket/pigmarket-backend/internal/models"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

func pigForm(breed string, ageMonths int, price string) *PigRequest {
	return &PigRequest{
		Breed:     breed,
		AgeMonths: ageMonths,
		WeightKg:  decimal.NewFromInt(30),
		Sex:       "M",
		Price:     decimal.RequireFromString(price),
	}
}

func (s *serviceSuite) TestCreatePigValidation() {
	pig, err := s.catalog.CreatePig(pigForm("Duroc", 8, "6500"))
	s.Require().NoError(err)
	s.True(pig.IsAvailable)
	s.Equal("8 months", pig.AgeDisplay())

	_, err = s.catalog.CreatePig(pigForm("Berkshire", 8, "6500"))
	s.ErrorIs(err, ErrValidation)

	_, err = s.catalog.CreatePig(pigForm("Duroc", 8, "0"))
	s.ErrorIs(err, ErrValidation)
}

func (s *serviceSuite) TestSearchPigsFilters() {
	piglet := s.newPig(models.BreedDuroc, "3000")
	adult, err := s.catalog.CreatePig(pigForm("Landrace", 14, "9000"))
	s.Require().NoError(err)
	sold := s.newPig(models.BreedDuroc, "3500")
	s.Require().NoError(s.db.Model(sold).Update("is_available", false).Error)

	pigs, total, err := s.catalog.SearchPigs(PigSearchParams{})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(pigs, 2)

	pigs, _, err = s.catalog.SearchPigs(PigSearchParams{AgeFilter: "piglets"})
	s.Require().NoError(err)
	s.Require().Len(pigs, 1)
	s.Equal(piglet.ID, pigs[0].ID)

	pigs, _, err = s.catalog.SearchPigs(PigSearchParams{AgeFilter: "pigs"})
	s.Require().NoError(err)
	s.Require().Len(pigs, 1)
	s.Equal(adult.ID, pigs[0].ID)
	s.Equal("1 years 2 months", pigs[0].AgeDisplay())

	_, total, err = s.catalog.SearchPigs(PigSearchParams{Breed: "Duroc", IncludeUnavailable: true})
	s.Require().NoError(err)
	s.Equal(int64(2), total)

	pigs, _, err = s.catalog.SearchPigs(PigSearchParams{
		PaginationParams: utils.PaginationParams{Sort: "price", Order: "asc"},
	})
	s.Require().NoError(err)
	s.Require().Len(pigs, 2)
	s.Equal(piglet.ID, pigs[0].ID)
}

func (s *serviceSuite) TestBreedsCountsAvailablePigs() {
	s.newPig(models.BreedDuroc, "3000")
	s.newPig(models.BreedDuroc, "3000")

	breeds, err := s.catalog.Breeds()
	s.Require().NoError(err)
	s.Len(breeds, len(models.Breeds))
	for _, b := range breeds {
		if b["breed"] == models.BreedDuroc {
			s.Equal(int64(2), b["available"])
		}
	}
}

func (s *serviceSuite) TestUpdatePigAvailabilityFollowsOrders() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")
	_, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("pickup", "2500"), nil)
	s.Require().NoError(err)

	available := true
	form := pigForm("Duroc", 5, "5200")
	form.IsAvailable = &available
	_, err = s.catalog.UpdatePig(pig.ID, form)
	s.ErrorIs(err, ErrConflict)

	form.IsAvailable = nil
	updated, err := s.catalog.UpdatePig(pig.ID, form)
	s.Require().NoError(err)
	s.True(updated.Price.Equal(decimal.NewFromInt(5200)))
	s.False(updated.IsAvailable)
}

func (s *serviceSuite) TestDeletePigWithOpenOrder() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")
	r, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("pickup", "2500"), nil)
	s.Require().NoError(err)

	s.ErrorIs(s.catalog.DeletePig(pig.ID), ErrConflict)

	_, err = s.reservations.Decline(r.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.catalog.DeletePig(pig.ID))

	_, err = s.catalog.GetPig(pig.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *serviceSuite) TestSetPictureKeepsGallery() {
	pig := s.newPig(models.BreedDuroc, "5000")

	first, err := s.catalog.SetPicture(pig.ID, fileHeader(s.T(), "front.png", pngHeader))
	s.Require().NoError(err)
	s.NotEmpty(first.Picture)
	s.Empty(first.Images)

	second, err := s.catalog.SetPicture(pig.ID, fileHeader(s.T(), "side.png", pngHeader))
	s.Require().NoError(err)
	s.NotEqual(first.Picture, second.Picture)
	s.Equal([]string{first.Picture}, []string(second.Images))

	_, err = s.catalog.SetPicture(pig.ID, fileHeader(s.T(), "notes.pdf", []byte("%PDF-1.4")))
	s.ErrorIs(err, ErrValidation)
}
