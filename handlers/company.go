package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"easydevis/models"
	"easydevis/services"
)

// HandleCompanyGet returns the saved company profile, empty when none.
// Route: GET /api/company
func HandleCompanyGet(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		info, _ := b.CompanyProfile()
		return e.JSON(http.StatusOK, info)
	}
}

// HandleCompanySave stores the profile and applies it to the working quote.
// Route: PUT /api/company
func HandleCompanySave(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var info models.CompanyInfo
		if err := decodeJSON(e, &info); err != nil {
			return respondError(e, http.StatusBadRequest, err.Error())
		}
		q, calc, err := b.SaveCompanyProfile(info)
		if err != nil {
			return respondFailure(e, "company_save", err)
		}
		return respondQuote(e, http.StatusOK, q, calc)
	}
}
