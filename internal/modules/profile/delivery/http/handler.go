package handler

import (
	"net/http"

	profileDto "fedlearn.dev/dashboard/internal/modules/profile/dto"
	profileService "fedlearn.dev/dashboard/internal/modules/profile/service"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
	"fedlearn.dev/dashboard/pkg/response"
	"fedlearn.dev/dashboard/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService profileService.ProfileService
}

func NewProfileHandler(profileService profileService.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) GetCurrentProfile(c *gin.Context) {
	user, _ := response.GetUser(c)

	res, err := h.profileService.GetCurrentProfile(c.Request.Context(), user)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch contributions")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) Contributions(c *gin.Context) {
	user, _ := response.GetUser(c)

	var page commonDto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.profileService.Contributions(c.Request.Context(), user, page)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch contributions")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ProfileHandler) Upload(c *gin.Context) {
	user, _ := response.GetUser(c)

	var input profileDto.UploadInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please select a target model"})
		return
	}

	var file *profileDto.ContributionFile
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		defer f.Close()
		file = &profileDto.ContributionFile{Reader: f, FileName: fh.Filename}
	}

	res, err := h.profileService.Upload(c.Request.Context(), user, input, file)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to upload contribution")
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *ProfileHandler) DeleteContribution(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	user, _ := response.GetUser(c)

	if err := h.profileService.DeleteContribution(c.Request.Context(), user, id); err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to delete contribution")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contribution deleted successfully"})
}
