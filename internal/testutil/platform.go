// Package testutil provides an in-memory stand-in for the platform REST API.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/pkg/apiclient"
	"github.com/gin-gonic/gin"
)

// Platform is a fake platform API backed by maps. Fail makes the named
// route ("GET /models/") answer with the given status and message.
type Platform struct {
	mu sync.Mutex

	Server *httptest.Server

	Users         map[int64]*entity.User
	Passwords     map[string]string
	Models        map[int64]*entity.Model
	ModelWeights  map[int64]entity.Weights
	Comments      map[int64][]entity.Comment
	Contributions map[int64]*entity.Contribution
	ContribFiles  map[int64]string
	Notifications map[int64][]entity.Notification
	FAQs          []entity.FAQ
	Files         map[string]string

	Calls        map[string]int
	LastBody     map[string]map[string]any
	Uploads      []Upload
	Experimental []map[string]any

	failures map[string]failure
	nextID   int64
}

type Upload struct {
	Field    string
	FileName string
	Form     map[string]string
	Content  string
}

type failure struct {
	status  int
	message string
	times   int
}

func NewPlatform(t *testing.T) *Platform {
	t.Helper()
	gin.SetMode(gin.TestMode)

	p := &Platform{
		Users:         map[int64]*entity.User{},
		Passwords:     map[string]string{},
		Models:        map[int64]*entity.Model{},
		ModelWeights:  map[int64]entity.Weights{},
		Comments:      map[int64][]entity.Comment{},
		Contributions: map[int64]*entity.Contribution{},
		ContribFiles:  map[int64]string{},
		Notifications: map[int64][]entity.Notification{},
		Files:         map[string]string{},
		Calls:         map[string]int{},
		LastBody:      map[string]map[string]any{},
		failures:      map[string]failure{},
		nextID:        1000,
	}
	p.Server = httptest.NewServer(p.routes())
	t.Cleanup(p.Server.Close)
	return p
}

// Client returns an API client pointed at the fake with fast retries.
func (p *Platform) Client() *apiclient.Client {
	return apiclient.New(apiclient.Config{
		BaseURL:     p.Server.URL + "/api",
		Timeout:     5 * time.Second,
		LongTimeout: 5 * time.Second,
		Attempts:    3,
		RetryWait:   time.Millisecond,
	})
}

// Fail makes the route fail the next times calls (times <= 0 means always).
func (p *Platform) Fail(route string, status int, message string, times int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[route] = failure{status: status, message: message, times: times}
}

func (p *Platform) Recover(route string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failures, route)
}

func (p *Platform) CallCount(route string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Calls[route]
}

func (p *Platform) AddUser(u entity.User, password string) *entity.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := u
	p.Users[u.ID] = &cp
	p.Passwords[u.Username] = password
	return &cp
}

func (p *Platform) AddModel(m entity.Model) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := m
	p.Models[m.ID] = &cp
	if m.Weights != nil {
		p.ModelWeights[m.ID] = m.Weights
	}
}

func (p *Platform) AddContribution(c entity.Contribution, fileURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := c
	if m, ok := p.Models[c.ModelID]; ok && cp.ModelDetails == nil {
		cp.ModelDetails = &entity.ModelRef{ID: m.ID, Name: m.Name, Version: m.Version}
	}
	p.Contributions[c.ID] = &cp
	if fileURL != "" {
		p.ContribFiles[c.ID] = fileURL
	}
}

func (p *Platform) AddNotification(userID int64, n entity.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Notifications[userID] = append(p.Notifications[userID], n)
}

func (p *Platform) NotificationsOf(userID int64) []entity.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entity.Notification, len(p.Notifications[userID]))
	copy(out, p.Notifications[userID])
	return out
}

func (p *Platform) id() int64 {
	p.nextID++
	return p.nextID
}

func qid(c *gin.Context, key string) int64 {
	v, _ := strconv.ParseInt(c.Query(key), 10, 64)
	return v
}

func pid(c *gin.Context, key string) int64 {
	v, _ := strconv.ParseInt(c.Param(key), 10, 64)
	return v
}

func num(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// track counts calls, captures JSON bodies and applies injected failures.
func (p *Platform) track() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.Request.Method + " " + strings.TrimPrefix(c.FullPath(), "/api")

		p.mu.Lock()
		p.Calls[route]++
		f, failing := p.failures[route]
		if failing && f.times > 0 {
			f.times--
			if f.times == 0 {
				delete(p.failures, route)
			} else {
				p.failures[route] = f
			}
		}
		p.mu.Unlock()

		if failing {
			if f.message == "" {
				c.AbortWithStatus(f.status)
				return
			}
			fail(c, f.status, f.message)
			return
		}

		if c.ContentType() == gin.MIMEJSON {
			var body map[string]any
			if err := c.ShouldBindBodyWithJSON(&body); err == nil {
				p.mu.Lock()
				p.LastBody[route] = body
				p.mu.Unlock()
			}
		}
		c.Next()
	}
}

func (p *Platform) body(c *gin.Context) map[string]any {
	var body map[string]any
	_ = c.ShouldBindBodyWithJSON(&body)
	if body == nil {
		body = map[string]any{}
	}
	return body
}

func (p *Platform) routes() http.Handler {
	r := gin.New()
	api := r.Group("/api", p.track())

	api.POST("/login/", func(c *gin.Context) {
		b := p.body(c)
		p.mu.Lock()
		defer p.mu.Unlock()
		name, _ := b["username"].(string)
		pass, _ := b["password"].(string)
		want, ok := p.Passwords[name]
		if !ok || want != pass {
			fail(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		for _, u := range p.Users {
			if u.Username == name {
				out := *u
				out.GDrive = nil
				c.JSON(http.StatusOK, gin.H{"user": out, "message": "Login successful"})
				return
			}
		}
	})

	api.GET("/users/gdrive-config/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		u, ok := p.Users[qid(c, "user_id")]
		if !ok {
			fail(c, http.StatusNotFound, "User not found")
			return
		}
		if u.GDrive == nil {
			c.JSON(http.StatusOK, gin.H{"gdrive": gin.H{}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"gdrive": u.GDrive})
	})

	api.POST("/users/gdrive-setup/", func(c *gin.Context) {
		var b struct {
			UserID int64               `json:"user_id"`
			GDrive entity.GDriveConfig `json:"gdrive"`
		}
		_ = c.ShouldBindBodyWithJSON(&b)
		p.mu.Lock()
		defer p.mu.Unlock()
		u, ok := p.Users[b.UserID]
		if !ok {
			fail(c, http.StatusNotFound, "User not found")
			return
		}
		g := b.GDrive
		u.GDrive = &g
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	api.GET("/users/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		admin := qid(c, "admin_id")
		out := []entity.User{}
		for _, u := range p.Users {
			if u.ID != admin {
				out = append(out, *u)
			}
		}
		c.JSON(http.StatusOK, out)
	})

	api.POST("/users/assign-role/", func(c *gin.Context) {
		b := p.body(c)
		p.mu.Lock()
		defer p.mu.Unlock()
		u, ok := p.Users[num(b["user_id"])]
		if !ok {
			fail(c, http.StatusNotFound, "User not found")
			return
		}
		u.Role = entity.Role(num(b["role_id"]))
		c.JSON(http.StatusOK, gin.H{"message": "Role assigned successfully"})
	})

	api.DELETE("/users/:id/delete/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		id := pid(c, "id")
		if id == qid(c, "admin_id") {
			fail(c, http.StatusBadRequest, "Cannot delete yourself")
			return
		}
		delete(p.Users, id)
		c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
	})

	api.GET("/models/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		status := c.Query("status")
		out := []entity.Model{}
		for _, m := range p.Models {
			if status == "" || m.Status == status {
				cp := *m
				cp.Weights = nil
				out = append(out, cp)
			}
		}
		c.JSON(http.StatusOK, out)
	})

	api.POST("/models/", func(c *gin.Context) {
		b := p.body(c)
		p.mu.Lock()
		defer p.mu.Unlock()
		w, _ := b["weights"].(map[string]any)
		if w == nil || w["weights_url"] == nil {
			fail(c, http.StatusBadRequest, "Invalid weights format. Must include weights_url")
			return
		}
		metrics := map[string]float64{}
		if mm, ok := b["metrics"].(map[string]any); ok {
			for k, v := range mm {
				f, _ := v.(float64)
				metrics[k] = f
			}
		}
		version := 0
		for _, m := range p.Models {
			if m.Version > version {
				version = m.Version
			}
		}
		m := &entity.Model{
			ID:          p.id(),
			Name:        b["model_name"].(string),
			Description: b["model_description"].(string),
			Version:     version + 1,
			Status:      entity.ModelStatusExperimental,
			Metrics:     metrics,
			Weights:     w,
		}
		p.Models[m.ID] = m
		p.ModelWeights[m.ID] = w
		c.JSON(http.StatusCreated, m)
	})

	api.POST("/models/upload-weights/", func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			fail(c, http.StatusBadRequest, "No file provided")
			return
		}
		p.recordUpload(c, "file")
		c.JSON(http.StatusOK, gin.H{"weights_url": "https://drive.google.com/uc?id=" + fh.Filename})
	})

	api.POST("/models/publish/", func(c *gin.Context) {
		b := p.body(c)
		p.mu.Lock()
		defer p.mu.Unlock()
		m, ok := p.Models[num(b["model_id"])]
		if !ok {
			fail(c, http.StatusNotFound, "Model not found")
			return
		}
		m.Status = entity.ModelStatusActive
		c.JSON(http.StatusOK, gin.H{"message": "Model published successfully"})
	})

	api.GET("/models/:id/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		m, ok := p.Models[pid(c, "id")]
		if !ok {
			fail(c, http.StatusNotFound, "Model not found")
			return
		}
		c.JSON(http.StatusOK, m)
	})

	api.PUT("/models/:id/", func(c *gin.Context) {
		b := p.body(c)
		p.mu.Lock()
		defer p.mu.Unlock()
		m, ok := p.Models[pid(c, "id")]
		if !ok {
			fail(c, http.StatusNotFound, "Model not found")
			return
		}
		if v, ok := b["model_name"].(string); ok {
			m.Name = v
		}
		if v, ok := b["model_description"].(string); ok {
			m.Description = v
		}
		if mm, ok := b["metrics"].(map[string]any); ok {
			m.Metrics = map[string]float64{}
			for k, v := range mm {
				f, _ := v.(float64)
				m.Metrics[k] = f
			}
		}
		c.JSON(http.StatusOK, m)
	})

	api.GET("/models/:id/weights/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		w, ok := p.ModelWeights[pid(c, "id")]
		if !ok {
			fail(c, http.StatusNotFound, "Model not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"weights": w})
	})

	api.DELETE("/models/:id/delete/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		id := pid(c, "id")
		if _, ok := p.Models[id]; !ok {
			fail(c, http.StatusNotFound, "Model not found")
			return
		}
		delete(p.Models, id)
		c.JSON(http.StatusOK, gin.H{"message": "Model deleted successfully"})
	})

	api.POST("/rate-model/", func(c *gin.Context) {
		b := p.body(c)
		c.JSON(http.StatusCreated, entity.Rating{ID: p.id(), UserID: num(b["user"]), ModelID: num(b["model"]), Rating: int(num(b["rating"]))})
	})

	api.POST("/comment-model/", func(c *gin.Context) {
		b := p.body(c)
		p.mu.Lock()
		defer p.mu.Unlock()
		uid, mid := num(b["user"]), num(b["model"])
		text, _ := b["comment_text"].(string)
		name := ""
		if u, ok := p.Users[uid]; ok {
			name = u.Username
		}
		cm := entity.Comment{ID: p.id(), User: entity.CommentAuthor{ID: uid, Username: name}, ModelID: mid, Text: text}
		p.Comments[mid] = append(p.Comments[mid], cm)
		c.JSON(http.StatusCreated, cm)
	})

	api.GET("/comments/:id/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		out := p.Comments[pid(c, "id")]
		if out == nil {
			out = []entity.Comment{}
		}
		c.JSON(http.StatusOK, out)
	})

	api.PUT("/comments/:id/moderate/", func(c *gin.Context) {
		b := p.body(c)
		p.mu.Lock()
		defer p.mu.Unlock()
		id := pid(c, "id")
		for mid, list := range p.Comments {
			for i := range list {
				if list[i].ID == id {
					list[i].IsApproved, _ = b["is_approved"].(bool)
					p.Comments[mid] = list
					c.JSON(http.StatusOK, gin.H{"message": "Comment moderated"})
					return
				}
			}
		}
		fail(c, http.StatusNotFound, "Comment not found")
	})

	api.POST("/predict/", func(c *gin.Context) {
		if _, err := c.FormFile("image"); err != nil {
			fail(c, http.StatusBadRequest, "No image provided")
			return
		}
		p.recordUpload(c, "image")
		c.JSON(http.StatusOK, gin.H{"predicted_class": 7, "confidence": 0.93})
	})

	api.GET("/contributions/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		rid := qid(c, "researcher_id")
		out := []entity.Contribution{}
		for _, ct := range p.Contributions {
			if ct.ResearcherID == rid {
				out = append(out, *ct)
			}
		}
		c.JSON(http.StatusOK, out)
	})

	api.POST("/contributions/upload/", func(c *gin.Context) {
		if _, err := c.FormFile("file"); err != nil {
			fail(c, http.StatusBadRequest, "No file provided")
			return
		}
		up := p.recordUpload(c, "file")
		p.mu.Lock()
		defer p.mu.Unlock()
		rid := num(up.Form["researcher_id"])
		ct := &entity.Contribution{ID: p.id(), ResearcherID: rid, ModelID: num(up.Form["model"]), Status: entity.ContributionPending}
		if u, ok := p.Users[rid]; ok {
			ct.ResearcherName = u.Username
		}
		p.Contributions[ct.ID] = ct
		c.JSON(http.StatusCreated, ct)
	})

	api.DELETE("/contributions/:id/delete/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		ct, ok := p.Contributions[pid(c, "id")]
		if !ok {
			fail(c, http.StatusNotFound, "Contribution not found")
			return
		}
		rid := qid(c, "researcher_id")
		admin := false
		if u, ok := p.Users[rid]; ok && u.Role == entity.RoleAdmin {
			admin = true
		}
		if !admin && (ct.ResearcherID != rid || ct.Status != entity.ContributionPending) {
			fail(c, http.StatusForbidden, "Cannot delete this contribution")
			return
		}
		delete(p.Contributions, ct.ID)
		c.JSON(http.StatusOK, gin.H{"message": "Contribution deleted successfully"})
	})

	api.GET("/contributions/:id/weights/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		url, ok := p.ContribFiles[pid(c, "id")]
		if !ok {
			fail(c, http.StatusNotFound, "Contribution not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"weights": gin.H{"weights_url": url}})
	})

	api.GET("/contributions/review/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		status := c.Query("status")
		out := []entity.Contribution{}
		for _, ct := range p.Contributions {
			if status == "" || status == "all" || ct.Status == status {
				out = append(out, *ct)
			}
		}
		c.JSON(http.StatusOK, out)
	})

	api.PUT("/contributions/:id/update-status/", func(c *gin.Context) {
		b := p.body(c)
		p.mu.Lock()
		defer p.mu.Unlock()
		ct, ok := p.Contributions[pid(c, "id")]
		if !ok {
			fail(c, http.StatusNotFound, "Contribution not found")
			return
		}
		ct.Status, _ = b["status"].(string)
		ct.PointsEarned = int(num(b["points_earned"]))
		c.JSON(http.StatusOK, ct)
	})

	api.POST("/experimental-models/create/", func(c *gin.Context) {
		b := p.body(c)
		p.mu.Lock()
		defer p.mu.Unlock()
		p.Experimental = append(p.Experimental, b)
		m := &entity.Model{ID: p.id(), Name: b["model_name"].(string), Description: b["model_description"].(string), Status: entity.ModelStatusExperimental, Version: 99}
		p.Models[m.ID] = m
		c.JSON(http.StatusCreated, gin.H{"message": "Experimental model created", "model": m})
	})

	api.GET("/notifications/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		out := p.Notifications[qid(c, "user_id")]
		if out == nil {
			out = []entity.Notification{}
		}
		c.JSON(http.StatusOK, out)
	})

	api.PUT("/notifications/:id/read/", func(c *gin.Context) {
		b := p.body(c)
		p.mu.Lock()
		defer p.mu.Unlock()
		uid, id := num(b["user_id"]), pid(c, "id")
		for i, n := range p.Notifications[uid] {
			if n.ID == id {
				p.Notifications[uid][i].IsRead = true
				c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
				return
			}
		}
		fail(c, http.StatusNotFound, "Notification not found")
	})

	api.PUT("/notifications/mark-all-read/", func(c *gin.Context) {
		b := p.body(c)
		p.mu.Lock()
		defer p.mu.Unlock()
		uid := num(b["user_id"])
		for i := range p.Notifications[uid] {
			p.Notifications[uid][i].IsRead = true
		}
		c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
	})

	api.DELETE("/notifications/:id/delete/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		uid, id := qid(c, "user_id"), pid(c, "id")
		list := p.Notifications[uid]
		for i, n := range list {
			if n.ID == id {
				p.Notifications[uid] = append(list[:i:i], list[i+1:]...)
				c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
				return
			}
		}
		fail(c, http.StatusNotFound, "Notification not found")
	})

	api.GET("/faq/", func(c *gin.Context) {
		p.mu.Lock()
		defer p.mu.Unlock()
		out := append([]entity.FAQ{}, p.FAQs...)
		c.JSON(http.StatusOK, out)
	})

	api.POST("/faq/create/", func(c *gin.Context) {
		b := p.body(c)
		p.mu.Lock()
		defer p.mu.Unlock()
		f := entity.FAQ{ID: p.id(), Question: b["question"].(string), Answer: b["answer"].(string), CreatedBy: num(b["created_by"])}
		p.FAQs = append(p.FAQs, f)
		c.JSON(http.StatusCreated, f)
	})

	api.GET("/proxy-download/", func(c *gin.Context) {
		p.mu.Lock()
		content, ok := p.Files[c.Query("url")]
		p.mu.Unlock()
		if !ok {
			fail(c, http.StatusNotFound, "File not found")
			return
		}
		c.Header("Content-Disposition", `attachment; filename="weights.h5"`)
		c.Data(http.StatusOK, "application/octet-stream", []byte(content))
	})

	return r
}

func (p *Platform) recordUpload(c *gin.Context, field string) Upload {
	fh, _ := c.FormFile(field)
	f, _ := fh.Open()
	content, _ := io.ReadAll(f)
	f.Close()

	form := map[string]string{}
	if mf, err := c.MultipartForm(); err == nil {
		for k, v := range mf.Value {
			if len(v) > 0 {
				form[k] = v[0]
			}
		}
	}

	up := Upload{Field: field, FileName: fh.Filename, Form: form, Content: string(content)}
	p.mu.Lock()
	p.Uploads = append(p.Uploads, up)
	p.mu.Unlock()
	return up
}
