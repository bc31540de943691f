package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownSection = errors.New("section not found")
	ErrUnknownItem    = errors.New("item not found")
	ErrLastSection    = errors.New("a quote keeps at least one section")
	ErrEmptyName      = errors.New("name is required")
)

// MinQuantity is the floor applied to quantities at edit time.
var MinQuantity = decimal.New(1, -2)

var hundred = decimal.NewFromInt(100)

// Every mutator returns a new Quote and never modifies its argument. When the
// operation is rejected the returned quote is an unchanged copy and the error
// says why; callers may ignore the error.

// AddProduct puts quantity of product into sectionID. An item of the same
// product already in that section is merged by adding to its quantity.
func AddProduct(q Quote, product Product, quantity decimal.Decimal, sectionID string) (Quote, error) {
	out := q.Clone()
	if !out.HasSection(sectionID) {
		return out, ErrUnknownSection
	}
	for i := range out.Items {
		it := &out.Items[i]
		if it.SectionID == sectionID && it.Product.ID == product.ID {
			it.Quantity = floorQuantity(it.Quantity.Add(quantity))
			it.recompute()
			return out, nil
		}
	}
	item := QuoteItem{
		ID:        uuid.NewString(),
		SectionID: sectionID,
		Product:   product,
		Quantity:  floorQuantity(quantity),
		UnitPrice: product.UnitPrice,
		Unit:      product.Unit,
		Included:  true,
	}
	item.recompute()
	out.Items = append(out.Items, item)
	return out, nil
}

// AddFreeItem adds an ad hoc line that does not come from the catalog. The
// name is not checked here; callers gate empty names.
func AddFreeItem(q Quote, sectionID, name string, unitPrice decimal.Decimal, unit string, quantity decimal.Decimal) (Quote, error) {
	product := Product{
		ID:        FreePrefix + uuid.NewString(),
		Name:      name,
		Category:  FreeLineCategory,
		UnitPrice: unitPrice,
		Unit:      unit,
		Trade:     q.Trade,
	}
	return AddProduct(q, product, quantity, sectionID)
}

// ItemUpdate lists the independently settable fields of a line item. Nil
// fields are left alone. Total is deliberately absent.
type ItemUpdate struct {
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
	Unit        *string          `json:"unit,omitempty"`
	Description *string          `json:"description,omitempty"`
	Included    *bool            `json:"included,omitempty"`
	SectionID   *string          `json:"sectionId,omitempty"`
}

// UpdateItem merges u into the item with itemID and recomputes its total.
func UpdateItem(q Quote, itemID string, u ItemUpdate) (Quote, error) {
	out := q.Clone()
	idx := -1
	for i := range out.Items {
		if out.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return out, ErrUnknownItem
	}
	if u.SectionID != nil && !out.HasSection(*u.SectionID) {
		return q.Clone(), ErrUnknownSection
	}

	it := &out.Items[idx]
	if u.Quantity != nil {
		it.Quantity = floorQuantity(*u.Quantity)
	}
	if u.UnitPrice != nil {
		it.UnitPrice = *u.UnitPrice
	}
	if u.Unit != nil {
		it.Unit = *u.Unit
	}
	if u.Description != nil {
		it.Description = strings.TrimSpace(*u.Description)
	}
	if u.Included != nil {
		it.Included = *u.Included
	}
	if u.SectionID != nil {
		it.SectionID = *u.SectionID
	}
	it.recompute()
	return out, nil
}

// RemoveItem deletes the item with itemID.
func RemoveItem(q Quote, itemID string) (Quote, error) {
	out := q.Clone()
	items := out.Items[:0]
	found := false
	for _, it := range out.Items {
		if it.ID == itemID {
			found = true
			continue
		}
		items = append(items, it)
	}
	out.Items = items
	if !found {
		return out, ErrUnknownItem
	}
	return out, nil
}

// AddSection appends a section and returns it alongside the new quote.
func AddSection(q Quote, name string, order int) (Quote, QuoteSection, error) {
	out := q.Clone()
	name = strings.TrimSpace(name)
	if name == "" {
		return out, QuoteSection{}, ErrEmptyName
	}
	s := QuoteSection{ID: uuid.NewString(), Name: name, Order: order}
	out.Sections = append(out.Sections, s)
	return out, s, nil
}

// RenameSection changes the display name of a section.
func RenameSection(q Quote, sectionID, newName string) (Quote, error) {
	out := q.Clone()
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return out, ErrEmptyName
	}
	for i := range out.Sections {
		if out.Sections[i].ID == sectionID {
			out.Sections[i].Name = newName
			return out, nil
		}
	}
	return out, ErrUnknownSection
}

// DeleteSection removes a section and every item that references it. The
// last remaining section cannot be deleted.
func DeleteSection(q Quote, sectionID string) (Quote, error) {
	out := q.Clone()
	if !out.HasSection(sectionID) {
		return out, ErrUnknownSection
	}
	if len(out.Sections) <= 1 {
		return out, ErrLastSection
	}

	sections := out.Sections[:0]
	for _, s := range out.Sections {
		if s.ID != sectionID {
			sections = append(sections, s)
		}
	}
	out.Sections = sections

	items := out.Items[:0]
	for _, it := range out.Items {
		if it.SectionID != sectionID {
			items = append(items, it)
		}
	}
	out.Items = items
	return out, nil
}

// QuoteUpdate lists the scalar fields of a quote that may be edited directly.
type QuoteUpdate struct {
	Title           *string          `json:"title,omitempty"`
	Number          *string          `json:"number,omitempty"`
	Client          *Client          `json:"client,omitempty"`
	CompanyInfo     *CompanyInfo     `json:"companyInfo,omitempty"`
	LaborHours      *decimal.Decimal `json:"laborHours,omitempty"`
	LaborRate       *decimal.Decimal `json:"laborRate,omitempty"`
	LaborVisible    *bool            `json:"laborVisible,omitempty"`
	MarginPercent   *decimal.Decimal `json:"marginPercent,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discountPercent,omitempty"`
	TVARate         *decimal.Decimal `json:"tvaRate,omitempty"`
	Notes           *string          `json:"notes,omitempty"`
}

// UpdateQuote merges u into q. Percentages are clamped to [0, 100] and labor
// figures to >= 0.
func UpdateQuote(q Quote, u QuoteUpdate) Quote {
	out := q.Clone()
	if u.Title != nil {
		out.Title = *u.Title
	}
	if u.Number != nil {
		out.Number = *u.Number
	}
	if u.Client != nil {
		out.Client = *u.Client
	}
	if u.CompanyInfo != nil {
		out.CompanyInfo = *u.CompanyInfo
	}
	if u.LaborHours != nil {
		out.LaborHours = nonNegative(*u.LaborHours)
	}
	if u.LaborRate != nil {
		out.LaborRate = nonNegative(*u.LaborRate)
	}
	if u.LaborVisible != nil {
		out.LaborVisible = *u.LaborVisible
	}
	if u.MarginPercent != nil {
		out.MarginPercent = ClampPercent(*u.MarginPercent)
	}
	if u.DiscountPercent != nil {
		out.DiscountPercent = ClampPercent(*u.DiscountPercent)
	}
	if u.TVARate != nil {
		out.TVARate = ClampPercent(*u.TVARate)
	}
	if u.Notes != nil {
		out.Notes = *u.Notes
	}
	return out
}

// ClampPercent bounds p to [0, 100].
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func floorQuantity(qty decimal.Decimal) decimal.Decimal {
	if qty.LessThan(MinQuantity) {
		return MinQuantity
	}
	return qty
}
