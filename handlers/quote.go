package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"easydevis/models"
	"easydevis/services"
)

// HandleQuoteGet returns the working quote and its calculations.
// Route: GET /api/quote
func HandleQuoteGet(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q, calc := b.Current()
		return respondQuote(e, http.StatusOK, q, calc)
	}
}

// HandleQuoteStart archives the working quote and starts a new one.
// Route: POST /api/quote  {"trade": "carpenter"}
func HandleQuoteStart(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			Trade string `json:"trade"`
		}
		if err := decodeJSON(e, &body); err != nil {
			return respondError(e, http.StatusBadRequest, err.Error())
		}
		trade, ok := parseTrade(body.Trade)
		if !ok {
			return respondError(e, http.StatusBadRequest, "trade must be electrician or carpenter")
		}

		q, calc, err := b.NewQuote(trade)
		if err != nil {
			return respondFailure(e, "quote_start", err)
		}
		return respondQuote(e, http.StatusCreated, q, calc)
	}
}

// HandleQuoteUpdate merges scalar fields into the working quote. Out of
// range percentages are clamped, not rejected.
// Route: PATCH /api/quote
func HandleQuoteUpdate(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var u models.QuoteUpdate
		if err := decodeJSON(e, &u); err != nil {
			return respondError(e, http.StatusBadRequest, err.Error())
		}
		q, calc, err := b.UpdateQuote(u)
		if err != nil {
			return respondFailure(e, "quote_update", err)
		}
		return respondQuote(e, http.StatusOK, q, calc)
	}
}
