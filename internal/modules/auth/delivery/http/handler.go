package handler

import (
	"net/http"

	"fedlearn.dev/dashboard/internal/middleware"
	"fedlearn.dev/dashboard/internal/modules/auth/dto"
	authService "fedlearn.dev/dashboard/internal/modules/auth/service"
	"fedlearn.dev/dashboard/pkg/response"
	"fedlearn.dev/dashboard/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService   authService.AuthService
	secureCookies bool
}

func NewAuthHandler(authService authService.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookies: secureCookies}
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", h.secureCookies, true)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	res, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Login failed")
		return
	}

	// browser session cookie; idle expiry is enforced server-side
	h.setCookie(c, res.Token, 0)
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	user, _ := response.GetUser(c)
	if err := h.authService.Logout(c.Request.Context(), response.GetSessionID(c), user); err != nil {
		response.ResponseError(c, err)
		return
	}
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Session(c *gin.Context) {
	res, err := h.authService.Session(c.Request.Context(), response.GetSessionID(c))
	if err != nil {
		h.setCookie(c, "", -1)
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) GetGDrive(c *gin.Context) {
	user, _ := response.GetUser(c)
	res, err := h.authService.GDrive(c.Request.Context(), user)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to load Google Drive configuration")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) SetupGDrive(c *gin.Context) {
	var input dto.GDriveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please fill in all required fields"})
		return
	}

	user, _ := response.GetUser(c)
	updated, err := h.authService.SetupGDrive(c.Request.Context(), response.GetSessionID(c), user, input)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to update Google Drive settings. Please check your credentials and try again.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Google Drive settings updated successfully", "user": updated})
}
