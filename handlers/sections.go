package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"easydevis/services"
)

type sectionBody struct {
	Name string `json:"name"`
}

// HandleSectionAdd appends a section to the working quote.
// Route: POST /api/quote/sections
func HandleSectionAdd(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body sectionBody
		if err := decodeJSON(e, &body); err != nil {
			return respondError(e, http.StatusBadRequest, err.Error())
		}
		q, _, err := b.AddSection(body.Name)
		if err != nil {
			return respondFailure(e, "section_add", err)
		}
		return respondQuote(e, http.StatusCreated, q, services.CalcQuote(q))
	}
}

// HandleSectionRename renames a section.
// Route: PATCH /api/quote/sections/{sectionId}
func HandleSectionRename(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sectionID := e.Request.PathValue("sectionId")
		var body sectionBody
		if err := decodeJSON(e, &body); err != nil {
			return respondError(e, http.StatusBadRequest, err.Error())
		}
		q, calc, err := b.RenameSection(sectionID, body.Name)
		if err != nil {
			return respondFailure(e, "section_rename", err)
		}
		return respondQuote(e, http.StatusOK, q, calc)
	}
}

// HandleSectionDelete removes a section with its items. The last section is
// refused with 409.
// Route: DELETE /api/quote/sections/{sectionId}
func HandleSectionDelete(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q, calc, err := b.DeleteSection(e.Request.PathValue("sectionId"))
		if err != nil {
			return respondFailure(e, "section_delete", err)
		}
		return respondQuote(e, http.StatusOK, q, calc)
	}
}
