// internal/handlers/admin.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pigmarket/pigmarket-backend/internal/i18n"
	"github.com/pigmarket/pigmarket-backend/internal/services"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

type AdminHandler struct {
	adminService  *services.AdminService
	exportService *services.ExportService
}

func NewAdminHandler(adminService *services.AdminService, exportService *services.ExportService) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		exportService: exportService,
	}
}

// GET /manage/dashboard
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /manage/revenue
func (h *AdminHandler) GetRevenue(c *gin.Context) {
	dashboard, err := h.adminService.GetRevenueDashboard()
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, dashboard)
}

// GET /manage/tracking
func (h *AdminHandler) GetTrackingRecords(c *gin.Context) {
	records, err := h.adminService.GetTrackingRecords()
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, records)
}

// GET /manage/tracking/export
func (h *AdminHandler) ExportTrackingRecords(c *gin.Context) {
	f, name, err := h.exportService.TrackingWorkbook()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Content-Type", services.XLSXContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		logrus.WithError(err).Error("Failed to stream tracking export")
	}
}

// GET /manage/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdminUserFilter{
		PaginationParams: params,
		Status:           c.Query("status"),
	}

	users, total, err := h.adminService.GetUsers(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	stats, err := h.adminService.GetUserStats()
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.NewPaginationResult(users, total, params)
	utils.SuccessResponseWithMeta(c, result, gin.H{
		"stats": stats,
	})
}

// GET /manage/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.adminService.GetUser(id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, user)
}

// POST /manage/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.AdminUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.adminService.CreateUser(adminID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponseWithMessage(c, i18n.T(lang, i18n.KeyUserCreated), user)
}

// PUT /manage/users/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.AdminUserUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.adminService.UpdateUser(adminID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.T(lang, i18n.KeyUserProfileUpdated), user)
}

// POST /manage/users/:id/password
func (h *AdminHandler) SetUserPassword(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password" validate:"required,password"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.adminService.SetUserPassword(adminID, id, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, i18n.T(lang, i18n.KeyAuthPasswordChanged), user)
}

// DELETE /manage/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	message, err := h.adminService.DeleteUser(adminID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, message, nil)
}

// GET /manage/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	logs, total, err := h.adminService.GetAuditLogs(params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.NewPaginationResult(logs, total, params)
	utils.PaginatedResponse(c, result)
}
