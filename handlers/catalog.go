package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog/log"

	"easydevis/models"
	"easydevis/services"
)

type tradeOption struct {
	Value models.Trade `json:"value"`
	Label string       `json:"label"`
}

// HandleOptions returns the vocabularies used by the editors.
// Route: GET /api/options
func HandleOptions() func(*core.RequestEvent) error {
	trades := make([]tradeOption, 0, len(models.Trades))
	for _, t := range models.Trades {
		trades = append(trades, tradeOption{Value: t, Label: t.Label()})
	}
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, map[string]any{
			"trades": trades,
			"units":  services.UnitOptions,
			"tva":    services.TVAOptions,
		})
	}
}

// HandleCatalog lists the products of a trade, custom ones last.
// Route: GET /api/catalog/{trade}
func HandleCatalog(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		trade, ok := parseTrade(e.Request.PathValue("trade"))
		if !ok {
			return respondError(e, http.StatusNotFound, "unknown trade")
		}
		return e.JSON(http.StatusOK, b.Catalog().ProductsForTrade(trade))
	}
}

// HandleCategories lists the categories of a trade in catalog order.
// Route: GET /api/catalog/{trade}/categories
func HandleCategories(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		trade, ok := parseTrade(e.Request.PathValue("trade"))
		if !ok {
			return respondError(e, http.StatusNotFound, "unknown trade")
		}
		categories := b.Catalog().CategoriesForTrade(trade)
		if categories == nil {
			categories = []string{}
		}
		return e.JSON(http.StatusOK, categories)
	}
}

// HandleCustomProductList returns the custom products of every trade.
// Route: GET /api/products/custom
func HandleCustomProductList(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return e.JSON(http.StatusOK, b.CustomProducts())
	}
}

// HandleCustomProductSave creates or replaces a custom product.
// Route: POST /api/products/custom
func HandleCustomProductSave(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var p models.Product
		if err := decodeJSON(e, &p); err != nil {
			return respondError(e, http.StatusBadRequest, err.Error())
		}
		saved, err := b.SaveCustomProduct(p)
		if err != nil {
			return respondFailure(e, "custom_product_save", err)
		}
		return e.JSON(http.StatusOK, saved)
	}
}

// HandleCustomProductDelete removes a custom product. Quotes keep their copy.
// Route: DELETE /api/products/custom/{id}
func HandleCustomProductDelete(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		b.DeleteCustomProduct(e.Request.PathValue("id"))
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleProductImport stores the valid rows of an uploaded product sheet and
// reports the rejected ones.
// Route: POST /api/products/import?trade=carpenter  (multipart, field "file")
func HandleProductImport(b *services.Builder) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		trade, ok := parseTrade(e.Request.URL.Query().Get("trade"))
		if !ok {
			current, _ := b.Current()
			trade = current.Trade
		}

		if err := e.Request.ParseMultipartForm(maxUploadBytes); err != nil {
			return respondError(e, http.StatusBadRequest, "File too large or invalid form data")
		}
		file, _, err := e.Request.FormFile("file")
		if err != nil {
			return respondError(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		result, err := b.ImportProducts(file, trade)
		if err != nil {
			log.Warn().Str("component", "http").Err(err).Msg("product import rejected")
			return respondError(e, http.StatusBadRequest, err.Error())
		}
		return e.JSON(http.StatusOK, result)
	}
}

// HandleProductTemplate downloads an empty product sheet.
// Route: GET /api/products/template
func HandleProductTemplate() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := services.GenerateProductTemplate()
		if err != nil {
			return respondFailure(e, "product_template", err)
		}
		return sendFile(e, services.FormatXLSX.ContentType(), "Produits_modele.xlsx", data)
	}
}

// HandleProductErrorReport turns the errors of an import into a workbook.
// Route: POST /api/products/import/errors
func HandleProductErrorReport() func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var errs []services.ValidationError
		if err := decodeJSON(e, &errs); err != nil {
			return respondError(e, http.StatusBadRequest, "Invalid error data")
		}
		data, err := services.GenerateErrorReport(errs)
		if err != nil {
			return respondFailure(e, "product_error_report", err)
		}
		return sendFile(e, services.FormatXLSX.ContentType(), "Produits_erreurs.xlsx", data)
	}
}
