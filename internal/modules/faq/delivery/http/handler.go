package handler

import (
	"net/http"

	faqService "fedlearn.dev/dashboard/internal/modules/faq/service"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
	"fedlearn.dev/dashboard/pkg/response"
	"fedlearn.dev/dashboard/pkg/validator"
	"github.com/gin-gonic/gin"
)

type FAQHandler struct {
	faqService faqService.FAQService
}

func NewFAQHandler(faqService faqService.FAQService) *FAQHandler {
	return &FAQHandler{faqService: faqService}
}

func (h *FAQHandler) GetFAQs(c *gin.Context) {
	var page commonDto.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.faqService.List(c.Request.Context(), page)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch FAQs")
		return
	}
	c.JSON(http.StatusOK, res)
}
