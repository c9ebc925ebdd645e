package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"inbox-scout-go/internal/fetcher"
	"inbox-scout-go/internal/model"
	"inbox-scout-go/internal/scheduler"
	"inbox-scout-go/internal/store"
)

// Syncer runs one mailbox sync on behalf of a caller.
type Syncer interface {
	SyncAccount(ctx context.Context, userID, accountID string, params fetcher.ConnectionParams) ([]model.EmailRecord, error)
}

// EmailQuerier serves the read-only search and feed queries.
type EmailQuerier interface {
	Search(ctx context.Context, userID, query string) ([]model.EmailRecord, error)
	Feed(ctx context.Context, userID string) ([]model.EmailRecord, error)
}

// InboxChatter answers free-form questions over the caller's indexed
// emails.
type InboxChatter interface {
	Chat(ctx context.Context, userID, query string) (string, error)
}

// Handler contains all HTTP handlers
type Handler struct {
	db        *gorm.DB
	accounts  *store.AccountStore
	syncer    Syncer
	querier   EmailQuerier
	chatter   InboxChatter
	scheduler *scheduler.Scheduler
}

// New creates new HTTP handlers
func New(db *gorm.DB, accounts *store.AccountStore, syncer Syncer, querier EmailQuerier, chatter InboxChatter, sched *scheduler.Scheduler) *Handler {
	return &Handler{
		db:        db,
		accounts:  accounts,
		syncer:    syncer,
		querier:   querier,
		chatter:   chatter,
		scheduler: sched,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(RequireUser())
	{
		api.POST("/accounts", h.ConnectAccount)
		api.GET("/accounts", h.GetAccounts)
		api.DELETE("/accounts/:id", h.DeleteAccount)
		api.GET("/accounts/:id/emails", h.SyncEmails)

		api.GET("/emails/search", h.SearchEmails)
		api.GET("/emails/feed", h.GetFeed)
		api.POST("/emails/chat", h.ChatEmails)
	}

	admin := router.Group("/api/v1/scheduler")
	{
		admin.POST("/start", h.StartScheduler)
		admin.POST("/stop", h.StopScheduler)
		admin.POST("/run-once", h.RunOnce)
		admin.GET("/status", h.GetSchedulerStatus)
	}
}

// RequireUser resolves the caller identity. Authentication itself lives
// upstream; this service only consumes the identity it is handed.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
				Error:   "unauthorized",
				Message: "Missing X-User-ID header",
				Code:    http.StatusUnauthorized,
			})
			return
		}
		c.Set("userID", userID)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString("userID")
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	response := model.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "ok",
		Index:     "ok",
		Metrics:   make(map[string]string),
	}

	if err := h.db.Raw("SELECT 1").Error; err != nil {
		response.Status = "error"
		response.Database = "error"
		logrus.Errorf("Database health check failed: %v", err)
	}

	if h.scheduler.IsRunning() {
		response.Metrics["scheduler"] = "running"
		response.Metrics["next_run"] = h.scheduler.GetNextRun().Format(time.RFC3339)
		response.Metrics["last_run"] = h.scheduler.GetLastRun().Format(time.RFC3339)
	} else {
		response.Metrics["scheduler"] = "stopped"
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
