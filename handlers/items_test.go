package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleItemAdd(t *testing.T) {
	b, _ := newTestBuilder(t)
	q, _ := b.Current()
	section := q.Sections[0].ID

	rec := call(t, HandleItemAdd(b), http.MethodPost, "/api/quote/items",
		map[string]any{"productId": "e11", "quantity": "25", "sectionId": section})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeQuote(t, rec)
	require.Len(t, resp.Quote.Items, 1)
	assert.Equal(t, "62.5", resp.Quote.Items[0].Total.String())
	assert.Equal(t, "62.5", resp.Calculations.SubtotalProducts.String())

	// same product again merges; quantity defaults to 1
	rec = call(t, HandleItemAdd(b), http.MethodPost, "/api/quote/items",
		map[string]any{"productId": "e11", "sectionId": section})
	resp = decodeQuote(t, rec)
	require.Len(t, resp.Quote.Items, 1)
	assert.Equal(t, "26", resp.Quote.Items[0].Quantity.String())
}

func TestHandleItemAdd_Errors(t *testing.T) {
	b, _ := newTestBuilder(t)
	q, _ := b.Current()
	section := q.Sections[0].ID

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing product", map[string]any{"sectionId": section}, http.StatusBadRequest},
		{"unknown product", map[string]any{"productId": "zz", "sectionId": section}, http.StatusNotFound},
		{"other trade product", map[string]any{"productId": "c1", "sectionId": section}, http.StatusNotFound},
		{"unknown section", map[string]any{"productId": "e1", "sectionId": "nope"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, HandleItemAdd(b), http.MethodPost, "/api/quote/items", tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}

	after, _ := b.Current()
	assert.Empty(t, after.Items)
}

func TestHandleFreeItemAdd(t *testing.T) {
	b, _ := newTestBuilder(t)
	q, _ := b.Current()
	section := q.Sections[0].ID

	rec := call(t, HandleFreeItemAdd(b), http.MethodPost, "/api/quote/items/free",
		map[string]any{"sectionId": section, "name": "Déplacement", "unitPrice": "30"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decodeQuote(t, rec).Quote.Items[0]
	assert.Equal(t, "Déplacement", item.Product.Name)
	assert.Equal(t, "1", item.Quantity.String())
	assert.Equal(t, "unité", item.Unit)

	rec = call(t, HandleFreeItemAdd(b), http.MethodPost, "/api/quote/items/free",
		map[string]any{"sectionId": section, "name": "", "unitPrice": "-3"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeError(t, rec).Fields
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "unitPrice")
}

func TestHandleItemUpdateAndDelete(t *testing.T) {
	b, _ := newTestBuilder(t)
	q, _ := b.Current()
	q, _, err := b.AddProduct("e7", dec("2"), q.Sections[0].ID)
	require.NoError(t, err)
	itemID := q.Items[0].ID

	rec := call(t, HandleItemUpdate(b), http.MethodPatch, "/api/quote/items/"+itemID,
		map[string]any{"quantity": "5", "description": "Cuisine"}, "itemId", itemID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	item := decodeQuote(t, rec).Quote.Items[0]
	assert.Equal(t, "40", item.Total.String())
	assert.Equal(t, "Cuisine", item.Description)

	rec = call(t, HandleItemUpdate(b), http.MethodPatch, "/api/quote/items/"+itemID,
		map[string]any{"unitPrice": "-1"}, "itemId", itemID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, HandleItemUpdate(b), http.MethodPatch, "/api/quote/items/nope",
		map[string]any{"quantity": "1"}, "itemId", "nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, HandleItemDelete(b), http.MethodDelete, "/api/quote/items/"+itemID, nil, "itemId", itemID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeQuote(t, rec).Quote.Items)

	rec = call(t, HandleItemDelete(b), http.MethodDelete, "/api/quote/items/"+itemID, nil, "itemId", itemID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSections(t *testing.T) {
	b, _ := newTestBuilder(t)
	q, _ := b.Current()
	general := q.Sections[0].ID

	rec := call(t, HandleSectionAdd(b), http.MethodPost, "/api/quote/sections", map[string]string{"name": "Câblage"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sections := decodeQuote(t, rec).Quote.Sections
	require.Len(t, sections, 2)
	added := sections[1]
	assert.Equal(t, "Câblage", added.Name)
	assert.Equal(t, 1, added.Order)

	rec = call(t, HandleSectionAdd(b), http.MethodPost, "/api/quote/sections", map[string]string{"name": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, HandleSectionRename(b), http.MethodPatch, "/api/quote/sections/"+added.ID,
		map[string]string{"name": "Cuisine"}, "sectionId", added.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cuisine", decodeQuote(t, rec).Quote.Sections[1].Name)

	rec = call(t, HandleSectionDelete(b), http.MethodDelete, "/api/quote/sections/"+general, nil, "sectionId", general)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, HandleSectionDelete(b), http.MethodDelete, "/api/quote/sections/"+added.ID, nil, "sectionId", added.ID)
	assert.Equal(t, http.StatusConflict, rec.Code, "the last section stays")

	rec = call(t, HandleSectionDelete(b), http.MethodDelete, "/api/quote/sections/nope", nil, "sectionId", "nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
