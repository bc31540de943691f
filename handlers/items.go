package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"easydevis/models"
	"easydevis/services"
)

// HandleItemAdd adds a catalog product to a section. Adding a product that
// is already in the section raises its quantity.
// Route: POST /api/quote/items  {"productId", "quantity", "sectionId"}
func HandleItemAdd(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			ProductID string           `json:"productId"`
			Quantity  *decimal.Decimal `json:"quantity"`
			SectionID string           `json:"sectionId"`
		}
		if err := decodeJSON(e, &body); err != nil {
			return respondError(e, http.StatusBadRequest, err.Error())
		}
		if body.ProductID == "" || body.SectionID == "" {
			return respondError(e, http.StatusBadRequest, "productId and sectionId are required")
		}
		qty := decimal.NewFromInt(1)
		if body.Quantity != nil {
			qty = *body.Quantity
		}

		q, calc, err := b.AddProduct(body.ProductID, qty, body.SectionID)
		if err != nil {
			return respondFailure(e, "item_add", err)
		}
		return respondQuote(e, http.StatusCreated, q, calc)
	}
}

// HandleFreeItemAdd adds an ad hoc line.
// Route: POST /api/quote/items/free
func HandleFreeItemAdd(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		in := services.FreeItemInput{Quantity: decimal.NewFromInt(1), Unit: models.UnitPiece}
		if err := decodeJSON(e, &in); err != nil {
			return respondError(e, http.StatusBadRequest, err.Error())
		}
		q, calc, err := b.AddFreeItem(in)
		if err != nil {
			return respondFailure(e, "free_item_add", err)
		}
		return respondQuote(e, http.StatusCreated, q, calc)
	}
}

// HandleItemUpdate patches a line item.
// Route: PATCH /api/quote/items/{itemId}
func HandleItemUpdate(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var u models.ItemUpdate
		if err := decodeJSON(e, &u); err != nil {
			return respondError(e, http.StatusBadRequest, err.Error())
		}
		q, calc, err := b.UpdateItem(e.Request.PathValue("itemId"), u)
		if err != nil {
			return respondFailure(e, "item_update", err)
		}
		return respondQuote(e, http.StatusOK, q, calc)
	}
}

// HandleItemDelete removes a line item.
// Route: DELETE /api/quote/items/{itemId}
func HandleItemDelete(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q, calc, err := b.RemoveItem(e.Request.PathValue("itemId"))
		if err != nil {
			return respondFailure(e, "item_delete", err)
		}
		return respondQuote(e, http.StatusOK, q, calc)
	}
}
