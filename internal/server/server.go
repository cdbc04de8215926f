package server

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/api"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/auth"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/calendar"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/chart"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/config"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/store"
)

// Server is the HTTP front of the analytics core.
type Server struct {
	router *gin.Engine
	store  *store.Store
}

// NewServer wires the store, user store, calendar and routes.
func NewServer(cfg *config.AppConfig) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	cal, err := calendar.New(cfg.Calendar.CutDay)
	if err != nil {
		return nil, err
	}

	users, err := auth.Load(cfg.Auth.UsersPath)
	if err != nil {
		return nil, fmt.Errorf("load user store: %w", err)
	}

	if _, err := config.EnsureDataDir(cfg); err != nil {
		log.Printf("data dir unavailable: %v", err)
	}

	st := store.New()
	renderer := &chart.ExecRenderer{Command: cfg.Deck.RenderCommand}
	handler := api.NewHandler(cfg, st, users, cal, renderer)

	s := &Server{
		router: gin.Default(),
		store:  st,
	}
	s.setupRoutes(handler)

	return s, nil
}

func (s *Server) setupRoutes(handler *api.Handler) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	group := s.router.Group("/api")
	{
		handler.RegisterRoutes(group)
	}
}

// Run starts the server.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// GetStore exposes the canonical store (used by tests).
func (s *Server) GetStore() *store.Store {
	return s.store
}
