package services

import (
	"github.com/pigmarket/pigmarket-backend/internal/models"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

func feedbackForm(r *models.Reservation, overall int, recommend bool) *FeedbackRequest {
	return &FeedbackRequest{
		ReservationID:      r.ID,
		OverallRating:      overall,
		ServiceQuality:     4,
		PigQuality:         4,
		DeliveryExperience: 4,
		Comments:           "Healthy pig, friendly staff.",
		WouldRecommend:     recommend,
	}
}

func (s *serviceSuite) TestFeedbackOncePerReservation() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")
	r, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("pickup", "2500"), nil)
	s.Require().NoError(err)

	ctx, err := s.feedback.FormContext(customer, r.ID)
	s.Require().NoError(err)
	s.Equal(models.FeedbackTypeReservation, ctx["feedback_type"])

	feedback, err := s.feedback.Submit(customer, feedbackForm(r, 5, true))
	s.Require().NoError(err)
	s.Equal(models.FeedbackTypeReservation, feedback.FeedbackType)

	_, err = s.feedback.Submit(customer, feedbackForm(r, 3, false))
	s.ErrorIs(err, ErrConflict)
	_, err = s.feedback.FormContext(customer, r.ID)
	s.ErrorIs(err, ErrConflict)
}

func (s *serviceSuite) TestFeedbackIsForCustomersOnly() {
	staff := s.newStaff("staff")
	pig := s.newPig(models.BreedDuroc, "5000")
	r, err := s.reservations.AdminCreate(staff.ID, &AdminOrderRequest{
		OrderRequest: *orderForm("pickup", "0"),
		PigID:        pig.ID.String(),
	})
	s.Require().NoError(err)

	_, err = s.feedback.Submit(staff, feedbackForm(r, 5, true))
	s.ErrorIs(err, ErrForbidden)
}

func (s *serviceSuite) TestFeedbackOnOthersReservationIsNotFound() {
	owner := s.newCustomer("juan")
	other := s.newCustomer("maria")
	pig := s.newPig(models.BreedDuroc, "5000")
	r, err := s.reservations.Reserve(owner.ID, pig.ID, orderForm("pickup", "2500"), nil)
	s.Require().NoError(err)

	_, err = s.feedback.Submit(other, feedbackForm(r, 5, true))
	s.ErrorIs(err, ErrNotFound)
}

func (s *serviceSuite) TestFeedbackStatsAverageAllCategories() {
	customer := s.newCustomer("juan")
	first := s.newPig(models.BreedDuroc, "5000")
	second := s.newPig(models.BreedNative, "3000")

	r1, err := s.reservations.Reserve(customer.ID, first.ID, orderForm("pickup", "2500"), nil)
	s.Require().NoError(err)
	r2, err := s.reservations.Reserve(customer.ID, second.ID, orderForm("pickup", "1500"), nil)
	s.Require().NoError(err)

	// (5+4+4+4)/4 = 4.25 and (1+4+4+4)/4 = 3.25
	_, err = s.feedback.Submit(customer, feedbackForm(r1, 5, true))
	s.Require().NoError(err)
	_, err = s.feedback.Submit(customer, feedbackForm(r2, 1, false))
	s.Require().NoError(err)

	params := FeedbackListParams{PaginationParams: utils.PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}}
	rating := 5
	params.Rating = &rating

	list, total, stats, err := s.feedback.List(params)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Len(list, 1)
	s.Equal(int64(2), stats.TotalFeedbacks)
	s.InDelta(3.8, stats.AverageRating, 0.001)
	s.InDelta(50.0, stats.RecommendationRate, 0.001)
}
