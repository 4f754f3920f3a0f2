// internal/handlers/payment.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pigmarket/pigmarket-backend/internal/i18n"
	"github.com/pigmarket/pigmarket-backend/internal/services"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /api/toggle-payment-status/:id
func (h *PaymentHandler) TogglePaymentStatus(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	// An empty body flips the flag
	var req struct {
		IsPaid *bool `json:"is_paid"`
	}
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
	}

	h.setPaid(c, id, req.IsPaid)
}

// POST /manage/reservations/mark-complete/:id
func (h *PaymentHandler) MarkComplete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	paid := true
	h.setPaid(c, id, &paid)
}

func (h *PaymentHandler) setPaid(c *gin.Context, id uuid.UUID, isPaid *bool) {
	result, err := h.paymentService.TogglePaymentStatus(id, isPaid)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"is_paid": result.IsPaid,
		"status":  result.Status,
		"message": result.Message,
	})
}

// POST /api/upload-payment-proof/:id
func (h *PaymentHandler) UploadPaymentProof(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	files := formFiles(c, proofFields...)
	if len(files) == 0 {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileRequired), nil)
		return
	}

	result, err := h.paymentService.UploadProofs(userID, id, files, c.PostForm("description"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, result.Message, result)
}

// GET /api/payment-details/:id
func (h *PaymentHandler) GetPaymentDetails(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	details, err := h.paymentService.GetPaymentDetails(userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, details)
}

// GET /api/payment-details
func (h *PaymentHandler) ListPaymentDetails(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	details, err := h.paymentService.ListPaymentDetails(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"orders": details,
	})
}
