// Package api is the JSON route surface: thin gin handlers over the
// analytics core. Every aggregation route runs under the session's
// hierarchy assertion; the handlers hold no analytic logic of their own.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/auth"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/calendar"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/chart"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/config"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/store"
)

// Handler carries the shared collaborators for every route.
type Handler struct {
	cfg       *config.AppConfig
	store     *store.Store
	users     *auth.Store
	cal       *calendar.Calendar
	renderer  chart.Renderer
	sessions  *sessionStore
	downloads *downloadStore
}

// NewHandler wires the route surface.
func NewHandler(cfg *config.AppConfig, st *store.Store, users *auth.Store, cal *calendar.Calendar, renderer chart.Renderer) *Handler {
	return &Handler{
		cfg:       cfg,
		store:     st,
		users:     users,
		cal:       cal,
		renderer:  renderer,
		sessions:  newSessionStore(),
		downloads: newDownloadStore(),
	}
}

// RegisterRoutes mounts every route on the group.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/status", h.GetStatus)
	router.POST("/login", h.Login)

	authed := router.Group("", h.requireSession)
	{
		authed.POST("/logout", h.Logout)

		// ingestion
		authed.POST("/preview", h.Preview)
		authed.POST("/upload", h.Upload)

		// global filter
		authed.GET("/filter", h.GetFilter)
		authed.PUT("/filter", h.SetFilter)
		authed.DELETE("/filter", h.ClearFilter)

		// aggregations
		authed.GET("/sum-by", h.SumBy)
		authed.GET("/top-n", h.TopN)
		authed.GET("/compare", h.Compare)
		authed.GET("/return-rate", h.ReturnRate)
		authed.GET("/trend", h.Trend)

		// report decks
		authed.POST("/report", h.GenerateReport)
		authed.GET("/report/download/:token", h.DownloadReport)

		// admin
		authed.POST("/admin/reset-password", h.ResetAdminPassword)
	}
}
