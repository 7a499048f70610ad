package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/competency-assessment/internal/models"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories"
	"github.com/SAP-F-2025/competency-assessment/internal/services"
	"github.com/SAP-F-2025/competency-assessment/internal/utils"
)

type AdminHandler struct {
	BaseHandler
	adminService services.AdminService
}

func NewAdminHandler(adminService services.AdminService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  NewBaseHandler(logger),
		adminService: adminService,
	}
}

// Dashboard returns platform-wide statistics
// @Summary Dashboard statistics
// @Tags admin
// @Produce json
// @Success 200 {object} Response{data=repositories.DashboardStats}
// @Router /admin/dashboard/stats [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminService.Dashboard(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "", stats)
}

// ===== USERS =====

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page := parsePage(c)
	filters := repositories.UserFilters{
		Search: c.Query("search"),
		Page:   page.Query,
	}
	if raw := c.Query("role"); raw != "" {
		role := models.UserRole(raw)
		if !role.IsValid() {
			h.RespondWithError(c, http.StatusBadRequest, "invalid_role", "Unknown role", nil)
			return
		}
		filters.Role = &role
	}

	users, total, err := h.adminService.ListUsers(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithPage(c, users, total, page)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	user, err := h.adminService.GetUser(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "", user)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	actor := h.currentUser(c)
	if actor == nil {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Updating user", "target_user_id", id)

	user, err := h.adminService.UpdateUser(c.Request.Context(), actor.ID, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "User updated", user)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor := h.currentUser(c)
	if actor == nil {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting user", "target_user_id", id)

	if err := h.adminService.DeleteUser(c.Request.Context(), actor.ID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "User deleted", nil)
}

// SetBlocked blocks or unblocks a user
// @Summary Block user
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body services.BlockUserRequest true "Block flag"
// @Success 200 {object} Response{data=models.User}
// @Failure 409 {object} Response
// @Router /admin/users/{id}/block [patch]
func (h *AdminHandler) SetBlocked(c *gin.Context) {
	actor := h.currentUser(c)
	if actor == nil {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var req services.BlockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "bad_request", "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Changing block state", "target_user_id", id, "blocked", req.Blocked)

	user, err := h.adminService.SetBlocked(c.Request.Context(), actor.ID, id, req.Blocked)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	message := "User unblocked"
	if req.Blocked {
		message = "User blocked"
	}
	h.RespondWithSuccess(c, http.StatusOK, message, user)
}

// ===== RESULTS =====

func (h *AdminHandler) ListResults(c *gin.Context) {
	page := parsePage(c)
	level, ok := optionalLevel(c, "level")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid_level", "Unknown level", nil)
		return
	}
	filters := repositories.ResultFilters{
		UserID: optionalString(c, "userId"),
		Level:  level,
		Page:   page.Query,
	}
	if raw := c.Query("step"); raw != "" {
		step, ok := parseStep(raw)
		if !ok {
			h.RespondWithError(c, http.StatusBadRequest, "invalid_step", "Step must be 1, 2 or 3", nil)
			return
		}
		filters.Step = &step
	}

	results, total, err := h.adminService.ListResults(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithPage(c, results, total, page)
}

func (h *AdminHandler) GetResult(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	result, err := h.adminService.GetResult(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "", result)
}
