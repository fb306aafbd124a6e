package handler

import (
	"net/http"
	"strconv"

	"fedlearn.dev/dashboard/internal/modules/model/dto"
	modelService "fedlearn.dev/dashboard/internal/modules/model/service"
	"fedlearn.dev/dashboard/pkg/response"
	"fedlearn.dev/dashboard/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ModelHandler struct {
	modelService modelService.ModelService
}

func NewModelHandler(modelService modelService.ModelService) *ModelHandler {
	return &ModelHandler{modelService: modelService}
}

func (h *ModelHandler) List(c *gin.Context) {
	user, err := response.GetUser(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var filter dto.ModelFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.modelService.List(c.Request.Context(), user, filter)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch models")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ModelHandler) Experimental(c *gin.Context) {
	user, _ := response.GetUser(c)
	res, err := h.modelService.Experimental(c.Request.Context(), user)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch experimental models")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *ModelHandler) Search(c *gin.Context) {
	user, _ := response.GetUser(c)
	res, err := h.modelService.Search(c.Request.Context(), user, c.Query("q"), c.Query("status"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

func (h *ModelHandler) Detail(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	user, _ := response.GetUser(c)

	res, err := h.modelService.Detail(c.Request.Context(), user, id)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch model details")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ModelHandler) Weights(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	user, _ := response.GetUser(c)

	w, err := h.modelService.Weights(c.Request.Context(), user, id)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch model weights")
		return
	}
	c.JSON(http.StatusOK, gin.H{"weights": w})
}

func (h *ModelHandler) Bundle(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	user, _ := response.GetUser(c)

	b, fileName, err := h.modelService.Bundle(c.Request.Context(), user, id)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to download model")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.IndentedJSON(http.StatusOK, b)
}

func (h *ModelHandler) Rate(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var input dto.RateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}
	user, _ := response.GetUser(c)

	rating, err := h.modelService.Rate(c.Request.Context(), user, id, input.Rating)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to rate model")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rating})
}

func (h *ModelHandler) Comment(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var input dto.CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a comment"})
		return
	}
	user, _ := response.GetUser(c)

	comments, err := h.modelService.Comment(c.Request.Context(), user, id, input.CommentText)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to post comment")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": comments})
}

func (h *ModelHandler) Predict(c *gin.Context) {
	modelID, err := strconv.ParseInt(c.PostForm("model_id"), 10, 64)
	fileHeader, fileErr := c.FormFile("image")
	if err != nil || fileErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please select both a model and an image"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please select an image file"})
		return
	}
	defer file.Close()

	user, _ := response.GetUser(c)
	res, err := h.modelService.Predict(c.Request.Context(), user, modelID, fileHeader.Filename, file)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to process image")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Admin endpoints

func (h *ModelHandler) Create(c *gin.Context) {
	var input dto.CreateModelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}
	admin, _ := response.GetUser(c)

	m, err := h.modelService.Create(c.Request.Context(), admin, input)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to create model")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": m})
}

func (h *ModelHandler) UploadWeights(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please upload model weights"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	defer file.Close()

	admin, _ := response.GetUser(c)
	w, err := h.modelService.UploadWeights(c.Request.Context(), admin, fileHeader.Filename, file)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to upload to Google Drive")
		return
	}
	c.JSON(http.StatusOK, gin.H{"weights": w})
}

func (h *ModelHandler) Update(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var input dto.UpdateModelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}
	admin, _ := response.GetUser(c)

	m, err := h.modelService.Update(c.Request.Context(), admin, id, input)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to update model")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": m})
}

func (h *ModelHandler) AddMetric(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var input dto.MetricInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter both metric name and value"})
		return
	}
	admin, _ := response.GetUser(c)

	m, err := h.modelService.AddMetric(c.Request.Context(), admin, id, input)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to update model")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": m})
}

func (h *ModelHandler) Delete(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	admin, _ := response.GetUser(c)

	if err := h.modelService.Delete(c.Request.Context(), admin, id); err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to delete model")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Model deleted successfully"})
}

func (h *ModelHandler) Publish(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	admin, _ := response.GetUser(c)

	if err := h.modelService.Publish(c.Request.Context(), admin, id); err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to publish model")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Model published successfully"})
}

func (h *ModelHandler) Moderate(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	var input dto.ModerateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}
	admin, _ := response.GetUser(c)

	comments, err := h.modelService.Moderate(c.Request.Context(), admin, id, input)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to moderate comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": comments})
}
