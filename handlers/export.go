package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog/log"

	"easydevis/services"
)

// HandlePreview renders the working quote as an HTML fragment. A preview
// overtaken by a newer one answers 409 so the client keeps the newer result.
// Route: GET /api/quote/preview
func HandlePreview(b *services.Builder, x *services.Exporter) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q, calc := b.Current()
		component, err := x.Preview(e.Request.Context(), q, calc)
		if errors.Is(err, services.ErrSuperseded) {
			return respondError(e, http.StatusConflict, err.Error())
		}
		if err != nil {
			log.Warn().Str("component", "http").Err(err).Msg("preview aborted")
			return respondError(e, http.StatusServiceUnavailable, "Preview unavailable")
		}
		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		return component.Render(e.Request.Context(), e.Response)
	}
}

// HandleExport downloads the working quote as PDF or XLSX. A failed export
// leaves the quote untouched and answers 500.
// Route: GET /api/quote/export/{format}
func HandleExport(b *services.Builder, x *services.Exporter) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		format, err := services.ParseFormat(e.Request.PathValue("format"))
		if err != nil {
			return respondError(e, http.StatusNotFound, err.Error())
		}

		q, calc := b.Current()
		doc, err := x.Export(e.Request.Context(), q, calc, format)
		switch {
		case errors.Is(err, services.ErrSuperseded):
			return respondError(e, http.StatusConflict, err.Error())
		case err != nil:
			return respondError(e, http.StatusInternalServerError, "Failed to generate the document")
		}
		return sendFile(e, doc.ContentType, doc.Filename, doc.Data)
	}
}
