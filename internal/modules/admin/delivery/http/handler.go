package handler

import (
	"net/http"

	"fedlearn.dev/dashboard/internal/entity"
	adminDto "fedlearn.dev/dashboard/internal/modules/admin/dto"
	adminService "fedlearn.dev/dashboard/internal/modules/admin/service"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
	"fedlearn.dev/dashboard/pkg/response"
	"fedlearn.dev/dashboard/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService adminService.AdminService
}

func NewAdminHandler(adminService adminService.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
}

func (h *AdminHandler) GetUsers(c *gin.Context) {
	admin, _ := response.GetUser(c)

	var filter adminDto.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.adminService.Users(c.Request.Context(), admin, filter)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch users")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	admin, _ := response.GetUser(c)
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), admin, id); err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *AdminHandler) AssignRole(c *gin.Context) {
	admin, _ := response.GetUser(c)
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	var input adminDto.AssignRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.adminService.AssignRole(c.Request.Context(), admin, id, entity.Role(input.RoleID)); err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to assign role")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role assigned successfully"})
}

func (h *AdminHandler) GetContributions(c *gin.Context) {
	admin, _ := response.GetUser(c)

	var filter adminDto.ContributionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.adminService.Contributions(c.Request.Context(), admin, filter)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch contributions")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) UpdateContributionStatus(c *gin.Context) {
	admin, _ := response.GetUser(c)
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	var input adminDto.UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.adminService.UpdateContributionStatus(c.Request.Context(), admin, id, input); err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to update contribution status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contribution status updated successfully"})
}

func (h *AdminHandler) DeleteContribution(c *gin.Context) {
	admin, _ := response.GetUser(c)
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteContribution(c.Request.Context(), admin, id); err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to delete contribution")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contribution deleted successfully"})
}

func (h *AdminHandler) CreateExperimentalModel(c *gin.Context) {
	admin, _ := response.GetUser(c)

	var input adminDto.ExperimentalModelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.adminService.CreateExperimentalModel(c.Request.Context(), admin, input)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to create experimental model")
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *AdminHandler) CreateFAQ(c *gin.Context) {
	admin, _ := response.GetUser(c)

	var input adminDto.CreateFAQInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.adminService.CreateFAQ(c.Request.Context(), admin, input)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to create FAQ")
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *AdminHandler) GetAudit(c *gin.Context) {
	var page commonDto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.adminService.Audit(c.Request.Context(), page)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch audit log")
		return
	}
	c.JSON(http.StatusOK, res)
}
