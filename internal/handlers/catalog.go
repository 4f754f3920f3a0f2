// internal/handlers/catalog.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/pigmarket/pigmarket-backend/internal/i18n"
	"github.com/pigmarket/pigmarket-backend/internal/models"
	"github.com/pigmarket/pigmarket-backend/internal/services"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// GET /pigs
func (h *CatalogHandler) ListPigs(c *gin.Context) {
	params := services.PigSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
		Breed:            c.Query("breed"),
		AgeFilter:        c.Query("age_filter"),
	}

	// Parse filters; malformed numbers are ignored
	if v, err := decimal.NewFromString(c.Query("min_weight")); err == nil {
		params.MinWeight = &v
	}
	if v, err := decimal.NewFromString(c.Query("max_weight")); err == nil {
		params.MaxWeight = &v
	}
	if v, err := strconv.Atoi(c.Query("min_age")); err == nil {
		params.MinAge = &v
	}
	if v, err := strconv.Atoi(c.Query("max_age")); err == nil {
		params.MaxAge = &v
	}

	// Staff see the whole inventory
	if userType, ok := utils.GetUserTypeFromContext(c); ok && c.Query("all") == "true" && models.IsStaffType(models.UserType(userType)) {
		params.IncludeUnavailable = true
	}

	pigs, total, err := h.catalogService.SearchPigs(params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.NewPaginationResult(pigs, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// GET /pigs/breeds
func (h *CatalogHandler) GetBreeds(c *gin.Context) {
	breeds, err := h.catalogService.Breeds()
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"breeds": breeds,
	})
}

// GET /pigs/:id
func (h *CatalogHandler) GetPig(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	pig, err := h.catalogService.GetPig(id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, pig)
}

// POST /manage/pigs
func (h *CatalogHandler) CreatePig(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.PigRequest
	if !bindForm(c, &req) {
		return
	}

	pig, err := h.catalogService.CreatePig(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	// The picture may come with the form
	if file, err := c.FormFile("picture"); err == nil {
		if pig, err = h.catalogService.SetPicture(pig.ID, file); err != nil {
			respondError(c, err)
			return
		}
	}

	utils.CreatedResponseWithMessage(c, i18n.T(lang, i18n.KeyPigCreated), pig)
}

// PUT /manage/pigs/:id
func (h *CatalogHandler) UpdatePig(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.PigRequest
	if !bindForm(c, &req) {
		return
	}

	pig, err := h.catalogService.UpdatePig(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.T(lang, i18n.KeyPigUpdated), pig)
}

// DELETE /manage/pigs/:id
func (h *CatalogHandler) DeletePig(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeletePig(id); err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.T(lang, i18n.KeyPigDeleted), nil)
}

// POST /manage/pigs/:id/picture
func (h *CatalogHandler) UploadPicture(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("picture")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileRequired), nil)
		return
	}

	pig, err := h.catalogService.SetPicture(id, file)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.T(lang, i18n.KeyPigUpdated), pig)
}
