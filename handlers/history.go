package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"easydevis/services"
)

// HandleHistoryList lists saved quotes, most recent first, with totals.
// Route: GET /api/history
func HandleHistoryList(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, b.History())
	}
}

// HandleHistoryOpen makes a saved quote the working quote.
// Route: POST /api/history/{id}/open
func HandleHistoryOpen(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q, calc, err := b.OpenFromHistory(e.Request.PathValue("id"))
		if err != nil {
			return respondFailure(e, "history_open", err)
		}
		return respondQuote(e, http.StatusOK, q, calc)
	}
}

// HandleHistoryDuplicate saves a copy of a quote under a new number.
// Route: POST /api/history/{id}/duplicate
func HandleHistoryDuplicate(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		dup, err := b.DuplicateFromHistory(e.Request.PathValue("id"))
		if err != nil {
			return respondFailure(e, "history_duplicate", err)
		}
		return e.JSON(http.StatusCreated, services.HistoryEntry{Quote: dup, TotalTTC: services.CalcQuote(dup).TotalTTC})
	}
}

// HandleHistoryDelete removes a saved quote.
// Route: DELETE /api/history/{id}
func HandleHistoryDelete(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		b.DeleteFromHistory(e.Request.PathValue("id"))
		return e.NoContent(http.StatusNoContent)
	}
}
