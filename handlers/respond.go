// Package handlers exposes the quote builder over HTTP. Every endpoint speaks
// JSON except the preview (HTML) and the downloads.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog/log"

	"easydevis/models"
	"easydevis/services"
)

// maxUploadBytes bounds product sheet uploads.
const maxUploadBytes = 10 << 20

// quoteResponse is the body of every endpoint that returns the working quote.
type quoteResponse struct {
	Quote        models.Quote                `json:"quote"`
	Calculations services.QuoteCalculations `json:"calculations"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields validation.Errors `json:"fields,omitempty"`
}

func respondQuote(e *core.RequestEvent, status int, q models.Quote, calc services.QuoteCalculations) error {
	return e.JSON(status, quoteResponse{Quote: q, Calculations: calc})
}

// respondError writes {"error": message}. Validation failures also carry the
// per-field messages.
func respondError(e *core.RequestEvent, status int, message string) error {
	return e.JSON(status, errorResponse{Error: message})
}

// respondFailure maps a builder error onto a status code.
func respondFailure(e *core.RequestEvent, op string, err error) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return e.JSON(http.StatusBadRequest, errorResponse{Error: "invalid input", Fields: verrs})
	case errors.Is(err, models.ErrUnknownSection),
		errors.Is(err, models.ErrUnknownItem),
		errors.Is(err, services.ErrUnknownProduct),
		errors.Is(err, services.ErrNotInHistory):
		return respondError(e, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrLastSection):
		return respondError(e, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrEmptyName):
		return respondError(e, http.StatusBadRequest, err.Error())
	}
	log.Error().Str("component", "http").Str("op", op).Err(err).Msg("request failed")
	return respondError(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// decodeJSON reads the request body into dst.
func decodeJSON(e *core.RequestEvent, dst any) error {
	if e.Request.Body == nil {
		return errors.New("empty body")
	}
	if err := json.NewDecoder(e.Request.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// sanitizeFilename removes characters that are unsafe in a
// Content-Disposition header.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, "\"", "")
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	return s
}

// sendFile writes data as a download.
func sendFile(e *core.RequestEvent, contentType, filename string, data []byte) error {
	e.Response.Header().Set("Content-Type", contentType)
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sanitizeFilename(filename)))
	e.Response.WriteHeader(http.StatusOK)
	_, err := e.Response.Write(data)
	return err
}

// parseTrade reads a trade from a path or query value.
func parseTrade(raw string) (models.Trade, bool) {
	t := models.Trade(strings.ToLower(strings.TrimSpace(raw)))
	return t, t.Valid()
}
