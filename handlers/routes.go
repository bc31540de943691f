package handlers

import (
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"

	"easydevis/services"
)

// Register mounts the API under /api.
func Register(r *router.Router[*core.RequestEvent], b *services.Builder, x *services.Exporter) {
	api := r.Group("/api")

	// ── Working quote ───────────────────────────────────────
	api.GET("/quote", HandleQuoteGet(b))
	api.POST("/quote", HandleQuoteStart(b))
	api.PATCH("/quote", HandleQuoteUpdate(b))

	api.POST("/quote/sections", HandleSectionAdd(b))
	api.PATCH("/quote/sections/{sectionId}", HandleSectionRename(b))
	api.DELETE("/quote/sections/{sectionId}", HandleSectionDelete(b))

	// free must be registered before {itemId}
	api.POST("/quote/items/free", HandleFreeItemAdd(b))
	api.POST("/quote/items", HandleItemAdd(b))
	api.PATCH("/quote/items/{itemId}", HandleItemUpdate(b))
	api.DELETE("/quote/items/{itemId}", HandleItemDelete(b))

	// ── Documents ───────────────────────────────────────────
	api.GET("/quote/preview", HandlePreview(b, x))
	api.GET("/quote/export/{format}", HandleExport(b, x))

	// ── Catalog ─────────────────────────────────────────────
	api.GET("/options", HandleOptions())
	api.GET("/catalog/{trade}", HandleCatalog(b))
	api.GET("/catalog/{trade}/categories", HandleCategories(b))

	api.GET("/products/custom", HandleCustomProductList(b))
	api.POST("/products/custom", HandleCustomProductSave(b))
	api.DELETE("/products/custom/{id}", HandleCustomProductDelete(b))
	api.GET("/products/template", HandleProductTemplate())
	api.POST("/products/import", HandleProductImport(b))
	api.POST("/products/import/errors", HandleProductErrorReport())

	// ── Company & history ───────────────────────────────────
	api.GET("/company", HandleCompanyGet(b))
	api.PUT("/company", HandleCompanySave(b))

	api.GET("/history", HandleHistoryList(b))
	api.POST("/history/{id}/open", HandleHistoryOpen(b))
	api.POST("/history/{id}/duplicate", HandleHistoryDuplicate(b))
	api.DELETE("/history/{id}", HandleHistoryDelete(b))
}
