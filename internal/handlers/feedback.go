// internal/handlers/feedback.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pigmarket/pigmarket-backend/internal/i18n"
	"github.com/pigmarket/pigmarket-backend/internal/services"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

type FeedbackHandler struct {
	feedbackService *services.FeedbackService
	userService     *services.UserService
}

func NewFeedbackHandler(feedbackService *services.FeedbackService, userService *services.UserService) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		userService:     userService,
	}
}

// GET /feedback/:reservation_id
func (h *FeedbackHandler) FormContext(c *gin.Context) {
	user, ok := currentUser(c, h.userService)
	if !ok {
		return
	}
	reservationID, ok := paramUUID(c, "reservation_id")
	if !ok {
		return
	}

	form, err := h.feedbackService.FormContext(user, reservationID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, form)
}

// POST /feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	user, ok := currentUser(c, h.userService)
	if !ok {
		return
	}

	var req services.FeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	feedback, err := h.feedbackService.Submit(user, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponseWithMessage(c, i18n.T(lang, i18n.KeyFeedbackSubmitted), feedback)
}

// GET /manage/feedback
func (h *FeedbackHandler) List(c *gin.Context) {
	params := services.FeedbackListParams{
		PaginationParams: utils.GetPaginationParams(c),
		FeedbackType:     c.Query("feedback_type"),
	}
	if rating, err := strconv.Atoi(c.Query("rating")); err == nil {
		params.Rating = &rating
	}

	feedbacks, total, stats, err := h.feedbackService.List(params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.NewPaginationResult(feedbacks, total, params.PaginationParams)
	utils.SuccessResponseWithMeta(c, result, gin.H{
		"stats": stats,
	})
}

// GET /manage/feedback/:id
func (h *FeedbackHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	feedback, err := h.feedbackService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, feedback)
}
