package handler

import (
	"net/http"

	"fedlearn.dev/dashboard/internal/modules/notification/dto"
	notifService "fedlearn.dev/dashboard/internal/modules/notification/service"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
	"fedlearn.dev/dashboard/pkg/logger"
	"fedlearn.dev/dashboard/pkg/response"
	"fedlearn.dev/dashboard/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type NotificationHandler struct {
	service  notifService.NotificationService
	upgrader websocket.Upgrader
}

func NewNotificationHandler(service notifService.NotificationService, allowedOrigins []string) *NotificationHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &NotificationHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// REST Endpoints

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	user, _ := response.GetUser(c)

	var query dto.NotificationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	st, err := h.service.Fetch(c.Request.Context(), user, c.Query("refresh") == "true")
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch notifications")
		return
	}

	items := st.Items
	switch query.Filter {
	case dto.FilterUnread:
		items = h.service.Unread(user.ID)
	case dto.FilterRead:
		items = h.service.Read(user.ID)
	}

	page := commonDto.Paginate(items, query.Page, query.Limit)
	c.JSON(http.StatusOK, dto.NotificationListResponse{
		Data:        page.Data,
		Meta:        page.Meta,
		UnreadCount: st.Unread,
		Error:       st.Error,
	})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	user, _ := response.GetUser(c)

	if err := h.service.MarkAsRead(c.Request.Context(), user, id); err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to mark notification as read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Marked as read", "unread_count": h.service.Snapshot(user.ID).Unread})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	user, _ := response.GetUser(c)

	if err := h.service.MarkAllAsRead(c.Request.Context(), user); err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to mark all notifications as read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read", "unread_count": 0})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	user, _ := response.GetUser(c)

	if err := h.service.Delete(c.Request.Context(), user, id); err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to delete notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted", "unread_count": h.service.Snapshot(user.ID).Unread})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user, _ := response.GetUser(c)

	st, err := h.service.Fetch(c.Request.Context(), user, false)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": st.Unread})
}

// WebSocket Endpoint

func (h *NotificationHandler) HandleWebSocket(c *gin.Context) {
	user, err := response.GetUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	log := logger.For(logger.NOTIFY)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("failed to upgrade websocket", "error", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	events, release, err := h.service.Subscribe(ctx, user.ID)
	if err != nil {
		log.Error("failed to subscribe to notifications", "user_id", user.ID, "error", err)
		return
	}
	defer release()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case payload, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug("websocket write failed", "user_id", user.ID, "error", err)
				return
			}
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}
	}
}
