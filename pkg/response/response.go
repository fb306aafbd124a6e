package response

import (
	"log/slog"
	"net/http"
	"strconv"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/pkg/apperror"
	"github.com/gin-gonic/gin"
)

const (
	ContextUser      = "user"
	ContextSessionID = "session_id"
)

// GetUser retrieves the session user placed in the context by the auth middleware.
func GetUser(c *gin.Context) (entity.User, error) {
	v, exists := c.Get(ContextUser)
	if !exists {
		return entity.User{}, apperror.ErrUnauthorized
	}
	user, ok := v.(entity.User)
	if !ok {
		return entity.User{}, apperror.ErrUnauthorized
	}
	return user, nil
}

// GetSessionID returns the id of the session that authenticated the request.
func GetSessionID(c *gin.Context) string {
	return c.GetString(ContextSessionID)
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "status", code, "error", err)
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

// ResponseErrorWithFallback answers with the carried message or the operation's fallback text.
func ResponseErrorWithFallback(c *gin.Context, err error, fallback string) {
	code := apperror.MapErrorToStatus(err)
	if code >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "status", code, "error", err)
	}
	c.JSON(code, gin.H{"error": apperror.Message(err, fallback)})
}

// ParamID reads a positive numeric path parameter, answering 400 when it is not one.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
