package handler

import (
	"net/http"
	"time"
)

func (h *Handler) salesOverview(w http.ResponseWriter, r *http.Request) {
	o, err := h.analytics.Overview(r.Context(), time.Now())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	trend := make([]map[string]any, len(o.Trend))
	for i, p := range o.Trend {
		trend[i] = map[string]any{
			"day":     p.Day.Format("2006-01-02"),
			"orders":  p.Orders,
			"revenue": p.Revenue.InexactFloat64(),
		}
	}
	respond(w, http.StatusOK, map[string]any{
		"revenue":       o.Revenue.InexactFloat64(),
		"orderCount":    o.OrderCount,
		"avgOrderValue": o.AvgOrderValue.InexactFloat64(),
		"trend":         trend,
	})
}
