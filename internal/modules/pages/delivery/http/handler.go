package handler

import (
	"net/http"

	adminDto "fedlearn.dev/dashboard/internal/modules/admin/dto"
	adminService "fedlearn.dev/dashboard/internal/modules/admin/service"
	analyticsDto "fedlearn.dev/dashboard/internal/modules/analytics/dto"
	analyticsService "fedlearn.dev/dashboard/internal/modules/analytics/service"
	faqService "fedlearn.dev/dashboard/internal/modules/faq/service"
	modelDto "fedlearn.dev/dashboard/internal/modules/model/dto"
	modelService "fedlearn.dev/dashboard/internal/modules/model/service"
	pageDto "fedlearn.dev/dashboard/internal/modules/pages/dto"
	pageService "fedlearn.dev/dashboard/internal/modules/pages/service"
	profileService "fedlearn.dev/dashboard/internal/modules/profile/service"
	commonDto "fedlearn.dev/dashboard/pkg/dto"
	"fedlearn.dev/dashboard/pkg/response"
	"fedlearn.dev/dashboard/pkg/validator"
	"github.com/gin-gonic/gin"
)

// PageHandler serves the view model of each dashboard page. Role gating is
// done by the PageGuard middleware in front of these routes.
type PageHandler struct {
	pages     pageService.PageService
	models    modelService.ModelService
	profiles  profileService.ProfileService
	faqs      faqService.FAQService
	admin     adminService.AdminService
	analytics analyticsService.AnalyticsService
}

func NewPageHandler(
	pages pageService.PageService,
	models modelService.ModelService,
	profiles profileService.ProfileService,
	faqs faqService.FAQService,
	admin adminService.AdminService,
	analytics analyticsService.AnalyticsService,
) *PageHandler {
	return &PageHandler{
		pages:     pages,
		models:    models,
		profiles:  profiles,
		faqs:      faqs,
		admin:     admin,
		analytics: analytics,
	}
}

func render(c *gin.Context, title string, data any) {
	page := pageDto.Page{Title: title, Data: data}
	if user, err := response.GetUser(c); err == nil {
		page.User = &user
	}
	c.JSON(http.StatusOK, page)
}

func bind(c *gin.Context, query any) bool {
	if err := c.ShouldBindQuery(query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return false
	}
	return true
}

func (h *PageHandler) Dashboard(c *gin.Context) {
	user, _ := response.GetUser(c)
	render(c, "Dashboard", h.pages.Dashboard(c.Request.Context(), user))
}

func (h *PageHandler) Models(c *gin.Context) {
	user, _ := response.GetUser(c)

	var filter modelDto.ModelFilter
	if !bind(c, &filter) {
		return
	}
	res, err := h.models.List(c.Request.Context(), user, filter)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch models")
		return
	}
	render(c, "Global Models", res)
}

func (h *PageHandler) ModelDetail(c *gin.Context) {
	user, _ := response.GetUser(c)
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	res, err := h.models.Detail(c.Request.Context(), user, id)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch model")
		return
	}
	render(c, res.Model.Name, res)
}

func (h *PageHandler) Notifications(c *gin.Context) {
	user, _ := response.GetUser(c)

	var query pageDto.NotificationsQuery
	if !bind(c, &query) {
		return
	}
	render(c, "Notifications", h.pages.Notifications(c.Request.Context(), user, query, c.Query("refresh") == "true"))
}

func (h *PageHandler) Profile(c *gin.Context) {
	user, _ := response.GetUser(c)

	res, err := h.profiles.GetCurrentProfile(c.Request.Context(), user)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch contributions")
		return
	}
	render(c, "Profile", res)
}

func (h *PageHandler) Guide(c *gin.Context) {
	render(c, "Platform Guide", pageService.Guide())
}

func (h *PageHandler) UseModel(c *gin.Context) {
	user, _ := response.GetUser(c)

	res, err := h.pages.UseModel(c.Request.Context(), user)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch models")
		return
	}
	render(c, "Use Model", res)
}

func (h *PageHandler) UploadContribution(c *gin.Context) {
	user, _ := response.GetUser(c)

	res, err := h.pages.Upload(c.Request.Context(), user)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch models")
		return
	}
	render(c, "Upload Contribution", res)
}

func (h *PageHandler) AdminUsers(c *gin.Context) {
	admin, _ := response.GetUser(c)

	var filter adminDto.UserFilter
	if !bind(c, &filter) {
		return
	}
	res, err := h.admin.Users(c.Request.Context(), admin, filter)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch users")
		return
	}
	render(c, "Manage Users", res)
}

func (h *PageHandler) AdminModels(c *gin.Context) {
	admin, _ := response.GetUser(c)

	var filter modelDto.ModelFilter
	if !bind(c, &filter) {
		return
	}
	if filter.Status == "" {
		filter.Status = "all"
	}
	res, err := h.models.List(c.Request.Context(), admin, filter)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch models")
		return
	}
	render(c, "Manage Models", res)
}

func (h *PageHandler) AdminContributions(c *gin.Context) {
	admin, _ := response.GetUser(c)

	var filter adminDto.ContributionFilter
	if !bind(c, &filter) {
		return
	}
	res, err := h.admin.Contributions(c.Request.Context(), admin, filter)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch contributions")
		return
	}
	render(c, "Review Contributions", res)
}

func (h *PageHandler) AdminAnalytics(c *gin.Context) {
	admin, _ := response.GetUser(c)

	var query analyticsDto.AnalyticsQuery
	if !bind(c, &query) {
		return
	}
	res, err := h.analytics.Dashboard(c.Request.Context(), admin, query)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to load analytics")
		return
	}
	render(c, "Analytics Dashboard", res)
}

func (h *PageHandler) FAQ(c *gin.Context) {
	var page commonDto.PageQuery
	if !bind(c, &page) {
		return
	}
	res, err := h.faqs.List(c.Request.Context(), page)
	if err != nil {
		response.ResponseErrorWithFallback(c, err, "Failed to fetch FAQs")
		return
	}
	render(c, "Frequently Asked Questions", res)
}

// Login sends signed-in visitors back to the dashboard.
func (h *PageHandler) Login(c *gin.Context) {
	if _, err := response.GetUser(c); err == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	render(c, "Login", pageDto.LoginPage{})
}
