package handler

import (
	"io"
	"net/http"

	downloadDto "fedlearn.dev/dashboard/internal/modules/download/dto"
	downloadService "fedlearn.dev/dashboard/internal/modules/download/service"
	"fedlearn.dev/dashboard/pkg/logger"
	"fedlearn.dev/dashboard/pkg/response"
	"fedlearn.dev/dashboard/pkg/validator"
	"github.com/gin-gonic/gin"
)

type DownloadHandler struct {
	downloadService downloadService.DownloadService
}

func NewDownloadHandler(downloadService downloadService.DownloadService) *DownloadHandler {
	return &DownloadHandler{downloadService: downloadService}
}

// Proxy streams a Drive file to the browser, forwarding type and disposition.
func (h *DownloadHandler) Proxy(c *gin.Context) {
	user, _ := response.GetUser(c)

	var query downloadDto.ProxyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	stream, err := h.downloadService.Open(c.Request.Context(), user, query.URL)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to download file")
		return
	}
	defer stream.Close()

	contentType := stream.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	if stream.Disposition != "" {
		c.Header("Content-Disposition", stream.Disposition)
	}
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, stream.Body); err != nil {
		logger.For(logger.DOWNLOAD).Warn("proxy stream interrupted", "user_id", user.ID, "error", err)
	}
}

func (h *DownloadHandler) Batch(c *gin.Context) {
	user, _ := response.GetUser(c)

	var input downloadDto.BatchDownloadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.downloadService.Batch(c.Request.Context(), user, input)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to download contributions")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *DownloadHandler) History(c *gin.Context) {
	user, _ := response.GetUser(c)

	records, err := h.downloadService.History(c.Request.Context(), user, 50)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch download history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}
