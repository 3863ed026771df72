package api

import (
	"bytes"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/evidenca/internal/imaging"
	"github.com/erazemk/evidenca/internal/ledger"
	"github.com/erazemk/evidenca/internal/model"
	"github.com/erazemk/evidenca/internal/store"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Ledger *ledger.Service
	DB     *sql.DB
}

type reconcileRequest struct {
	ObservedCount int    `json:"observed_count"`
	Reason        string `json:"reason"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.Ledger.ListItems()
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var fields ledger.ItemFields
	if err := decodeJSON(r, &fields); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Ledger.CreateItem(r.Context(), actorID(r.Context()), fields)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.Ledger.GetItem(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	open := h.Ledger.ListIssuances(ledger.IssuanceFilter{ItemID: id})
	if open == nil {
		open = []model.Issuance{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"item":      item,
		"issuances": open,
	})
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var fields ledger.ItemFields
	if err := decodeJSON(r, &fields); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Ledger.EditItem(r.Context(), actorID(r.Context()), id, fields)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.Ledger.DeleteItem(r.Context(), actorID(r.Context()), id); err != nil {
		writeLedgerError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item removed"})
}

// Reconcile handles POST /api/items/{id}/reconcile. A mismatched count
// without a reason answers 409 with the expected and observed values; the
// caller resubmits with a corrected count or a reason.
func (h *ItemsHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req reconcileRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Ledger.Reconcile(r.Context(), actorID(r.Context()), id, req.ObservedCount, req.Reason)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	status := http.StatusOK
	if result.Outcome == ledger.ReconcileDiscrepancy {
		status = http.StatusConflict
	}
	jsonResponse(w, status, result)
}

// Activity handles GET /api/items/{id}/activity.
func (h *ItemsHandler) Activity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	if _, err := h.Ledger.GetItem(id); err != nil {
		writeLedgerError(w, err)
		return
	}

	activity := h.Ledger.RecentActivity(id, limit)
	if activity == nil {
		activity = []ledger.Activity{}
	}
	jsonResponse(w, http.StatusOK, activity)
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if _, err := h.Ledger.GetItem(id); err != nil {
		writeLedgerError(w, err)
		return
	}

	result, err := imaging.Process(http.MaxBytesReader(w, r.Body, 10<<20))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, id, result.Data, result.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image updated"})
}

// GetImage handles GET /api/items/{id}/image. With ?thumb=1 the stored photo
// is downscaled to thumbnail size for list views.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	image, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if image == nil {
		jsonError(w, http.StatusNotFound, "no image for item")
		return
	}

	if r.URL.Query().Get("thumb") == "1" {
		thumb, err := imaging.Thumbnail(bytes.NewReader(image))
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to generate thumbnail")
			return
		}
		image, mime = thumb.Data, thumb.MIME
	}

	w.Header().Set("Content-Type", mime)
	w.Write(image)
}
