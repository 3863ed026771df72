package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/evidenca/internal/ledger"
	"github.com/erazemk/evidenca/internal/model"
)

// AnalyticsHandler handles the read-only analytics and audit endpoints.
type AnalyticsHandler struct {
	Ledger *ledger.Service
}

// defaultTopN bounds the issuance-frequency list.
const defaultTopN = 10

// Get handles GET /api/analytics. The optional window_days parameter limits
// the discrepancy counts to a trailing window.
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	topN := defaultTopN
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid top")
			return
		}
		topN = n
	}

	var window time.Duration
	if v := r.URL.Query().Get("window_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid window_days")
			return
		}
		window = time.Duration(days) * 24 * time.Hour
	}

	jsonResponse(w, http.StatusOK, h.Ledger.Analytics(time.Now(), topN, window))
}

// Overdue handles GET /api/analytics/overdue, the query the external
// reminder scheduler polls.
func (h *AnalyticsHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	overdue := h.Ledger.Overdue(time.Now())
	if overdue == nil {
		overdue = []model.OverdueIssuance{}
	}
	jsonResponse(w, http.StatusOK, overdue)
}

// Audits handles GET /api/audits.
func (h *AnalyticsHandler) Audits(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Ledger.Audits(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}
