// Package api exposes the JobRecruit services as a JSON HTTP API. Handlers
// only bind input, call a service and render the result.
package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/B-Mitchell/JobRecruit/models"
	"github.com/B-Mitchell/JobRecruit/service"
)

// Pool is the database as the health check sees it.
type Pool interface {
	Ping(ctx context.Context) error
	Stats() sql.DBStats
}

// Options configures the router. Logger receives the request log and
// defaults to the handler's logger.
type Options struct {
	IdentityHeader string
	EmailHeader    string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Handler holds the dependencies of every endpoint.
type Handler struct {
	svc    *service.Services
	db     Pool
	logger *slog.Logger
}

// NewHandler creates the handler with its dependencies.
func NewHandler(svc *service.Services, db Pool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, db: db, logger: logger}
}

// NewRouter builds the gin engine with middleware and every route under
// /api/v1.
func NewRouter(h *Handler, opts Options) *gin.Engine {
	requestLog := opts.Logger
	if requestLog == nil {
		requestLog = h.logger
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(requestLog))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = opts.AllowedOrigins
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	corsCfg.AddAllowHeaders(opts.IdentityHeader, opts.EmailHeader)
	corsCfg.MaxAge = 12 * time.Hour
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	v1 := r.Group("/api/v1")
	v1.GET("/health", h.Health)

	authed := v1.Group("")
	authed.Use(RequireIdentity(opts.IdentityHeader, opts.EmailHeader))
	{
		authed.GET("/me", h.Me)
		authed.POST("/me/profile", h.CompleteProfile)
		authed.GET("/me/jobs", h.MyJobs)
		authed.GET("/me/applications", h.MyApplications)

		authed.GET("/jobs", h.ListJobs)
		authed.POST("/jobs", h.CreateJob)
		authed.GET("/jobs/:id", h.GetJob)
		authed.PATCH("/jobs/:id", h.UpdateJob)
		authed.DELETE("/jobs/:id", h.DeleteJob)
		authed.POST("/jobs/:id/applications", h.SubmitApplication)
		authed.GET("/jobs/:id/applications", h.ListApplications)
		authed.PATCH("/applications/:id/status", h.UpdateApplicationStatus)

		authed.GET("/messages", h.Inbox)
		authed.GET("/messages/:counterpart", h.Conversation)
		authed.POST("/messages", h.SendMessage)

		authed.GET("/admin/stats", h.AdminStats)
		authed.GET("/admin/users", h.AdminUsers)
		authed.GET("/admin/jobs", h.AdminJobs)
	}
	return r
}

// ─────────────────────────────────────────────────────────────────────────────
// Health and identity
// ─────────────────────────────────────────────────────────────────────────────

func (h *Handler) Health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "api: health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	st := h.db.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"open_connections": st.OpenConnections,
		"in_use":           st.InUse,
		"wait_count":       st.WaitCount,
	})
}

// Me reports the caller's identity and profile. complete is false until the
// caller has chosen a role.
func (h *Handler) Me(c *gin.Context) {
	who := identity(c)
	p, err := h.svc.Identities.Resolve(c.Request.Context(), who.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"identity_id": who.ID,
		"email":       who.Email,
		"complete":    p != nil,
		"profile":     p,
	})
}

func (h *Handler) CompleteProfile(c *gin.Context) {
	var req models.CompleteProfileParams
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.svc.Profiles.Complete(c.Request.Context(), identity(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ─────────────────────────────────────────────────────────────────────────────
// Listings
// ─────────────────────────────────────────────────────────────────────────────

func (h *Handler) ListJobs(c *gin.Context) {
	var f models.ListingFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, err)
		return
	}
	jobs, err := h.svc.Listings.List(c.Request.Context(), identity(c).ID, f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) MyJobs(c *gin.Context) {
	jobs, err := h.svc.Listings.ListMine(c.Request.Context(), identity(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

func (h *Handler) CreateJob(c *gin.Context) {
	var req models.CreateListingParams
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	job, err := h.svc.Listings.Create(c.Request.Context(), identity(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.svc.Listings.Get(c.Request.Context(), c.Param("id"), identity(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) UpdateJob(c *gin.Context) {
	var req models.UpdateListingParams
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.ID = c.Param("id")
	job, err := h.svc.Listings.Update(c.Request.Context(), identity(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handler) DeleteJob(c *gin.Context) {
	if err := h.svc.Listings.Delete(c.Request.Context(), c.Param("id"), identity(c).ID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ─────────────────────────────────────────────────────────────────────────────
// Applications
// ─────────────────────────────────────────────────────────────────────────────

// applicationView adds can_review so clients stop offering review controls
// once an application is terminal.
type applicationView struct {
	*models.Application
	CanReview bool `json:"can_review"`
}

func viewApplication(a *models.Application) applicationView {
	return applicationView{Application: a, CanReview: a.CanReview()}
}

func viewApplications(apps []*models.Application) []applicationView {
	out := make([]applicationView, len(apps))
	for i, a := range apps {
		out[i] = viewApplication(a)
	}
	return out
}

func (h *Handler) SubmitApplication(c *gin.Context) {
	var req models.SubmitApplicationParams
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	app, err := h.svc.Applications.Submit(c.Request.Context(), identity(c).ID, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewApplication(app))
}

func (h *Handler) ListApplications(c *gin.Context) {
	apps, err := h.svc.Applications.ListForJob(c.Request.Context(), c.Param("id"), identity(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewApplications(apps))
}

func (h *Handler) MyApplications(c *gin.Context) {
	apps, err := h.svc.Applications.ListMine(c.Request.Context(), identity(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewApplications(apps))
}

func (h *Handler) UpdateApplicationStatus(c *gin.Context) {
	var req models.UpdateStatusParams
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.ID = c.Param("id")
	req.ReviewerID = identity(c).ID
	app, err := h.svc.Applications.UpdateStatus(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewApplication(app))
}

// ─────────────────────────────────────────────────────────────────────────────
// Messages
// ─────────────────────────────────────────────────────────────────────────────

func (h *Handler) Inbox(c *gin.Context) {
	inbox, err := h.svc.Messages.Inbox(c.Request.Context(), identity(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inbox)
}

func (h *Handler) Conversation(c *gin.Context) {
	msgs, err := h.svc.Messages.Conversation(c.Request.Context(), identity(c).ID, c.Param("counterpart"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req models.SendMessageParams
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	msg, err := h.svc.Messages.Send(c.Request.Context(), identity(c).ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ─────────────────────────────────────────────────────────────────────────────
// Admin
// ─────────────────────────────────────────────────────────────────────────────

func (h *Handler) AdminStats(c *gin.Context) {
	st, err := h.svc.Admin.Stats(c.Request.Context(), identity(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) AdminUsers(c *gin.Context) {
	users, err := h.svc.Admin.Users(c.Request.Context(), identity(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) AdminJobs(c *gin.Context) {
	jobs, err := h.svc.Admin.Jobs(c.Request.Context(), identity(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}
