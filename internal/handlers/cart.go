// internal/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pigmarket/pigmarket-backend/internal/i18n"
	"github.com/pigmarket/pigmarket-backend/internal/services"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	view, err := h.cartService.List(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, view)
}

// POST /cart/add/:pig_id
func (h *CartHandler) AddToCart(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	pigID, ok := paramUUID(c, "pig_id")
	if !ok {
		return
	}

	item, created, err := h.cartService.Add(userID, pigID)
	if err != nil {
		respondError(c, err)
		return
	}

	count, err := h.cartService.Count(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	data := gin.H{
		"item":       item,
		"cart_count": count,
	}
	if !created {
		utils.MessageResponse(c, i18n.T(lang, i18n.KeyCartItemExists), data)
		return
	}
	utils.CreatedResponseWithMessage(c, i18n.T(lang, i18n.KeyCartItemAdded), data)
}

// PUT /cart/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.cartService.UpdateQuantity(userID, id, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	if item == nil {
		utils.MessageResponse(c, i18n.T(lang, i18n.KeyCartItemRemoved), nil)
		return
	}

	utils.MessageResponse(c, i18n.T(lang, i18n.KeyCartItemUpdated), gin.H{
		"item": item,
	})
}

// DELETE /cart/:id
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if _, err := h.cartService.Remove(userID, id); err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.T(lang, i18n.KeyCartItemRemoved), nil)
}

// POST /cart/checkout
func (h *CartHandler) Checkout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	orders, err := h.cartService.Checkout(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponseWithMessage(c, i18n.T(lang, i18n.KeyCartCheckedOut), gin.H{
		"reservations": orders,
	})
}
