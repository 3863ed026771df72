package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/evidenca/internal/ledger"
	"github.com/erazemk/evidenca/internal/model"
)

// IssuancesHandler handles issuance endpoints.
type IssuancesHandler struct {
	Ledger *ledger.Service
}

type returnRequest struct {
	ReturnedDate *time.Time `json:"returned_date,omitempty"`
}

// Create handles POST /api/issuances.
func (h *IssuancesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledger.IssueRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.Ledger.Issue(r.Context(), actorID(r.Context()), req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, rec)
}

// List handles GET /api/issuances with optional filters.
func (h *IssuancesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter ledger.IssuanceFilter
	var err error

	for _, f := range []struct {
		param string
		dst   *int64
	}{
		{"item_id", &filter.ItemID},
		{"issuer_id", &filter.IssuerID},
		{"authorized_by_id", &filter.AuthorizedByID},
	} {
		if v := q.Get(f.param); v != "" {
			*f.dst, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				jsonError(w, http.StatusBadRequest, "invalid "+f.param)
				return
			}
		}
	}
	filter.Department = q.Get("department")
	filter.Status = q.Get("status")

	for _, f := range []struct {
		param string
		dst   *time.Time
	}{
		{"from", &filter.From},
		{"to", &filter.To},
	} {
		if v := q.Get(f.param); v != "" {
			*f.dst, err = time.Parse(time.RFC3339, v)
			if err != nil {
				jsonError(w, http.StatusBadRequest, "invalid "+f.param+" (want RFC 3339)")
				return
			}
		}
	}

	issuances := h.Ledger.ListIssuances(filter)
	if issuances == nil {
		issuances = []model.Issuance{}
	}
	jsonResponse(w, http.StatusOK, issuances)
}

// Return handles POST /api/issuances/{id}/return.
func (h *IssuancesHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid issuance id")
		return
	}

	// The body is optional; an empty one means "returned now".
	var req returnRequest
	if err := decodeJSON(r, &req); err != nil && err != io.EOF {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var returnedDate time.Time
	if req.ReturnedDate != nil {
		returnedDate = *req.ReturnedDate
	}

	rec, err := h.Ledger.Return(r.Context(), actorID(r.Context()), id, returnedDate)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, rec)
}
