// internal/handlers/reservation.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pigmarket/pigmarket-backend/internal/i18n"
	"github.com/pigmarket/pigmarket-backend/internal/services"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

// Form fields that may carry proof-of-payment files.
var proofFields = []string{"proof_of_payment", "payment_proofs"}

type ReservationHandler struct {
	reservationService *services.ReservationService
}

func NewReservationHandler(reservationService *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
	}
}

// POST /reservation/:pig_id
func (h *ReservationHandler) Reserve(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	pigID, ok := paramUUID(c, "pig_id")
	if !ok {
		return
	}

	var req services.OrderRequest
	if !bindForm(c, &req) {
		return
	}

	reservation, err := h.reservationService.Reserve(userID, pigID, &req, formFiles(c, proofFields...))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponseWithMessage(c, i18n.T(lang, i18n.KeyReservationCreated), reservation)
}

// POST /purchase/:pig_id
func (h *ReservationHandler) Purchase(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	pigID, ok := paramUUID(c, "pig_id")
	if !ok {
		return
	}

	var req services.OrderRequest
	if !bindForm(c, &req) {
		return
	}

	reservation, err := h.reservationService.Purchase(userID, pigID, &req, formFiles(c, proofFields...))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponseWithMessage(c, i18n.T(lang, i18n.KeyPurchaseCreated), reservation)
}

// GET /my-reservations
func (h *ReservationHandler) MyReservations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	reservations, err := h.reservationService.ListForUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	rows := make([]gin.H, 0, len(reservations))
	for i := range reservations {
		canCancel, reason := h.reservationService.CanCancel(&reservations[i])
		rows = append(rows, gin.H{
			"reservation":   reservations[i],
			"can_cancel":    canCancel,
			"cancel_reason": reason,
		})
	}

	utils.SuccessResponse(c, gin.H{
		"reservations": rows,
	})
}

// PUT /my-reservations/:id
func (h *ReservationHandler) UpdateMyReservation(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.OrderRequest
	if !bindForm(c, &req) {
		return
	}

	reservation, err := h.reservationService.UpdateByCustomer(userID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.T(lang, i18n.KeyReservationUpdated), reservation)
}

// POST /my-reservations/:id/cancel
func (h *ReservationHandler) CancelMyReservation(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.reservationService.Cancel(userID, id); err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.T(lang, i18n.KeyReservationCancelled), nil)
}

// GET /api/check-accepted-orders
func (h *ReservationHandler) CheckAcceptedOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := h.reservationService.CountAcceptedUnpaid(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"has_accepted_orders": count > 0,
		"accepted_count":      count,
	})
}

// Staff endpoints

// GET /manage/reservations
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	params := services.ReservationListParams{
		PaginationParams: utils.GetPaginationParams(c),
		Status:           c.Query("status"),
		OrderType:        c.Query("order_type"),
		DeliveryOption:   c.Query("delivery_option"),
	}

	reservations, total, err := h.reservationService.List(params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.NewPaginationResult(reservations, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// POST /manage/reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	staffID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.AdminOrderRequest
	if !bindForm(c, &req) {
		return
	}

	reservation, err := h.reservationService.AdminCreate(staffID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponseWithMessage(c, i18n.T(lang, i18n.KeyReservationCreated), reservation)
}

// GET /manage/reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	reservation, err := h.reservationService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, reservation)
}

// PUT /manage/reservations/:id
func (h *ReservationHandler) UpdateReservation(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.AdminUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	reservation, err := h.reservationService.Update(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.T(lang, i18n.KeyReservationUpdated), reservation)
}

// POST /manage/reservations/confirm/:id
func (h *ReservationHandler) Confirm(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	reservation, message, err := h.reservationService.Accept(id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, message, reservation)
}

// POST /manage/reservations/decline/:id and DELETE /manage/reservations/:id
func (h *ReservationHandler) Decline(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	notice, err := h.reservationService.Decline(id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.T(lang, i18n.KeyReservationDeclined), gin.H{
		"notification": notice,
	})
}

// GET /api/pending-orders
func (h *ReservationHandler) PendingOrders(c *gin.Context) {
	orders, err := h.reservationService.PendingOrders()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  orders,
		"count":   len(orders),
	})
}

// GET /api/pending-orders-count
func (h *ReservationHandler) PendingOrdersCount(c *gin.Context) {
	count, err := h.reservationService.PendingCount()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   count,
	})
}
