package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/calendar"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/engine"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
)

// sessionEngine builds an engine over the current snapshot narrowed to
// the caller's assertion. Writes the HTTP error itself on failure.
func (h *Handler) sessionEngine(c *gin.Context) (*engine.Engine, bool) {
	sess := currentSession(c)
	eng, err := engine.ForSession(h.store, sess.assertion)
	if err != nil {
		var hbe *model.HierarchyBindingError
		if errors.As(err, &hbe) {
			c.JSON(http.StatusForbidden, gin.H{"error": hbe.Error(), "kind": "hierarchy"})
			return nil, false
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return nil, false
	}
	return eng, true
}

// respondUnavailable marks a metric that cannot be computed. Callers
// branch on "available", never on a zero value.
func respondUnavailable(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"available": false})
}

func queryKind(c *gin.Context) (model.Kind, error) {
	switch c.DefaultQuery("kind", string(model.KindSales)) {
	case string(model.KindSales):
		return model.KindSales, nil
	case string(model.KindReturns):
		return model.KindReturns, nil
	}
	return "", errors.New("kind must be sales or returns")
}

// queryPeriod parses a comma-separated list of commercial-month labels.
func queryPeriod(c *gin.Context, name string) ([]calendar.Key, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	var keys []calendar.Key
	for _, label := range strings.Split(raw, ",") {
		k, err := calendar.ParseLabel(strings.TrimSpace(label))
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// SumBy answers grouped sums.
// GET /api/sum-by?dim=&metric=&kind=
func (h *Handler) SumBy(c *gin.Context) {
	dim, err := engine.ParseDim(c.Query("dim"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	metric, err := engine.ParseMetric(c.DefaultQuery("metric", "value"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := queryKind(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eng, ok := h.sessionEngine(c)
	if !ok {
		return
	}
	entries, err := eng.SumBy(dim, metric, kind)
	if errors.Is(err, model.ErrUnavailable) {
		respondUnavailable(c)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "entries": entries})
}

// TopN answers rankings.
// GET /api/top-n?dim=&metric=&kind=&n=&alternance=&period=&prior=
func (h *Handler) TopN(c *gin.Context) {
	dim, err := engine.ParseDim(c.Query("dim"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	metric, err := engine.ParseMetric(c.DefaultQuery("metric", "value"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := queryKind(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	alt, err := engine.ParseAlternance(c.DefaultQuery("alternance", "absolute"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := strconv.Atoi(c.DefaultQuery("n", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "n must be an integer"})
		return
	}
	period, err := queryPeriod(c, "period")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prior, err := queryPeriod(c, "prior")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eng, ok := h.sessionEngine(c)
	if !ok {
		return
	}
	ranked, err := eng.TopN(dim, metric, kind, n, alt, engine.TopNOptions{Period: period, Prior: prior})
	if errors.Is(err, model.ErrUnavailable) {
		respondUnavailable(c)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "entries": ranked})
}

// Compare answers period-over-period deltas.
// GET /api/compare?a=&b=&metric=&kind=&dim=
func (h *Handler) Compare(c *gin.Context) {
	periodA, err := queryPeriod(c, "a")
	if err != nil || len(periodA) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a must list commercial-month labels"})
		return
	}
	periodB, err := queryPeriod(c, "b")
	if err != nil || len(periodB) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "b must list commercial-month labels"})
		return
	}
	metric, err := engine.ParseMetric(c.DefaultQuery("metric", "value"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := queryKind(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var dim *model.Role
	if raw := c.Query("dim"); raw != "" {
		d, err := engine.ParseDim(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		dim = &d
	}

	eng, ok := h.sessionEngine(c)
	if !ok {
		return
	}
	cmp, err := eng.Compare(periodA, periodB, dim, metric, kind)
	if errors.Is(err, model.ErrUnavailable) {
		respondUnavailable(c)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "comparison": cmp})
}

// ReturnRate answers return-rate attribution.
// GET /api/return-rate?window=&dim=
func (h *Handler) ReturnRate(c *gin.Context) {
	window, err := queryPeriod(c, "window")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var dim *model.Role
	if raw := c.Query("dim"); raw != "" {
		d, err := engine.ParseDim(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		dim = &d
	}

	eng, ok := h.sessionEngine(c)
	if !ok {
		return
	}
	rr, err := eng.ReturnRate(window, dim)
	if errors.Is(err, model.ErrUnavailable) {
		respondUnavailable(c)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "result": rr})
}

// Trend answers line-chart series.
// GET /api/trend?metric=&kind=&resolution=
func (h *Handler) Trend(c *gin.Context) {
	metric, err := engine.ParseMetric(c.DefaultQuery("metric", "value"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := queryKind(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := engine.ParseResolution(c.DefaultQuery("resolution", "commercial_month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eng, ok := h.sessionEngine(c)
	if !ok {
		return
	}
	points, err := eng.Trend(metric, kind, res)
	if errors.Is(err, model.ErrUnavailable) {
		respondUnavailable(c)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "points": points})
}
