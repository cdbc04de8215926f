package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/auth"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/deck"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/report"
)

const (
	downloadTTL     = 10 * time.Minute
	pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// GenerateReport builds a bundle on the snapshot captured at request
// start, renders the deck and parks it behind a download token.
// POST /api/report
func (h *Handler) GenerateReport(c *gin.Context) {
	var req report.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eng, ok := h.sessionEngine(c)
	if !ok {
		return
	}

	bundle, err := report.NewBuilder(eng).Build(req)
	if errors.Is(err, model.ErrUnavailable) {
		respondUnavailable(c)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := os.ReadFile(h.cfg.Deck.TemplatePath)
	if err != nil {
		te := &model.TemplateError{Path: h.cfg.Deck.TemplatePath, Err: err}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": te.Error(), "kind": "template"})
		return
	}

	templater := &deck.Templater{
		Renderer:      h.renderer,
		FigureTimeout: time.Duration(h.cfg.Deck.RenderTimeoutSecs) * time.Second,
	}
	result, err := templater.Render(c.Request.Context(), template, bundle)
	if err != nil {
		var te *model.TemplateError
		if errors.As(err, &te) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": te.Error(), "kind": "template"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("report_%s.pptx", time.Now().Format("20060102_150405"))
	token := h.downloads.put(result.Deck, filename, downloadTTL)

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"filename": filename,
		"warnings": result.Warnings,
	})
}

// DownloadReport streams a finished deck once.
// GET /api/report/download/:token
func (h *Handler) DownloadReport(c *gin.Context) {
	token := c.Param("token")
	dl, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "download expired or unknown"})
		return
	}
	h.downloads.delete(token)

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, dl.filename))
	c.Data(http.StatusOK, pptxContentType, dl.deck)
}

// ResetAdminPassword rewrites the admin password hash in the user store.
// Admin sessions only.
// POST /api/admin/reset-password
func (h *Handler) ResetAdminPassword(c *gin.Context) {
	sess := currentSession(c)
	if sess.user.Type != auth.TypeAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return
	}

	var req struct {
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := auth.ResetAdminPassword(h.cfg.Auth.UsersPath, req.NewPassword); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
