package api

import (
	"errors"
	"net/http"

	"github.com/erazemk/evidenca/internal/ledger"
)

// writeLedgerError maps the core's error taxonomy to HTTP responses with
// enough structured detail to render a precise message.
func writeLedgerError(w http.ResponseWriter, err error) {
	var validation *ledger.ValidationError
	var stock *ledger.InsufficientStockError

	switch {
	case errors.Is(err, ledger.ErrItemNotFound),
		errors.Is(err, ledger.ErrIssuanceNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrDuplicateItem),
		errors.Is(err, ledger.ErrAlreadyReturned):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.As(err, &validation):
		jsonError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &stock):
		jsonResponse(w, http.StatusConflict, map[string]any{
			"error":     stock.Error(),
			"available": stock.Available,
			"requested": stock.Requested,
		})
	default:
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
