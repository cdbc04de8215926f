package api

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/calendar"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/ingest"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/store"
)

// GetStatus reports whether data has been ingested.
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	snap, ok := h.store.Snapshot()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"ingested": false, "cut_day": h.cal.CutDay()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ingested":    true,
		"snapshot_id": snap.ID,
		"created_at":  snap.CreatedAt,
		"sales_rows":  len(snap.Sales.Rows),
		"return_rows": len(snap.Returns.Rows),
		"cut_day":     h.cal.CutDay(),
	})
}

// Preview lists sheet names, columns and a handful of rows so the caller
// can assemble a binding.
// POST /api/preview (multipart: file)
func (h *Handler) Preview(c *gin.Context) {
	wb, err := openUpload(c, "file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer wb.Close()

	sheet, err := wb.FirstSheet()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s := c.PostForm("sheet"); s != "" {
		sheet = s
	}

	columns, err := wb.Columns(sheet)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rows, err := wb.Preview(sheet, 10)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sheets":  wb.Sheets(),
		"sheet":   sheet,
		"columns": columns,
		"rows":    rows,
	})
}

// uploadRequest is the non-file portion of an upload.
type uploadRequest struct {
	Binding  map[model.Role]string `json:"binding"`
	DateHint string                `json:"date_hint"`
	From     string                `json:"from"` // commercial-month labels
	To       string                `json:"to"`
}

// Upload ingests the sales table (required) and returns table (optional)
// and swaps the canonical snapshot atomically. In-flight reports keep the
// snapshot they started with.
// POST /api/upload (multipart: sales, returns?, request)
func (h *Handler) Upload(c *gin.Context) {
	var req uploadRequest
	if err := json.Unmarshal([]byte(c.PostForm("request")), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request payload: " + err.Error()})
		return
	}

	opts := ingest.Options{DateHint: req.DateHint}
	if req.From != "" {
		k, err := calendar.ParseLabel(req.From)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.From = &k
	}
	if req.To != "" {
		k, err := calendar.ParseLabel(req.To)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.To = &k
	}

	sales, salesSummary, err := h.ingestUpload(c, "sales", model.KindSales, req.Binding, opts)
	if err != nil {
		respondIngestError(c, err)
		return
	}

	summaries := []*ingest.Summary{salesSummary}
	var returns *model.Table
	if _, err := c.FormFile("returns"); err == nil {
		var returnsSummary *ingest.Summary
		returns, returnsSummary, err = h.ingestUpload(c, "returns", model.KindReturns, req.Binding, opts)
		if err != nil {
			respondIngestError(c, err)
			return
		}
		summaries = append(summaries, returnsSummary)
	}

	snap := store.NewSnapshot(sales, returns, h.cal)
	h.store.Swap(snap)

	c.JSON(http.StatusOK, gin.H{
		"snapshot_id": snap.ID,
		"summaries":   summaries,
	})
}

func (h *Handler) ingestUpload(c *gin.Context, field string, kind model.Kind, binding map[model.Role]string, opts ingest.Options) (*model.Table, *ingest.Summary, error) {
	wb, err := openUpload(c, field)
	if err != nil {
		return nil, nil, err
	}
	defer wb.Close()

	sheet, err := wb.FirstSheet()
	if err != nil {
		return nil, nil, err
	}
	return ingest.Ingest(wb, sheet, kind, binding, h.cal, opts)
}

func openUpload(c *gin.Context, field string) (*ingest.Workbook, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func(f multipart.File) { _ = f.Close() }(f)
	return ingest.LoadWorkbook(f)
}

func respondIngestError(c *gin.Context, err error) {
	var be *model.BindingError
	if errors.As(err, &be) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": be.Error(), "kind": "binding"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// GetFilter returns the global filter clauses.
// GET /api/filter
func (h *Handler) GetFilter(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"clauses": h.store.Filter()})
}

// SetFilter replaces the global filter.
// PUT /api/filter
func (h *Handler) SetFilter(c *gin.Context) {
	var req struct {
		Clauses []store.Clause `json:"clauses"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.store.SetFilter(req.Clauses)
	c.JSON(http.StatusOK, gin.H{"clauses": h.store.Filter()})
}

// ClearFilter removes every clause.
// DELETE /api/filter
func (h *Handler) ClearFilter(c *gin.Context) {
	h.store.ClearFilter()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
