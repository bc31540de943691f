package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the storage format of Quote.Date and Quote.ValidUntil.
const DateLayout = "2006-01-02"

// Client is the recipient of a quote. Empty fields are omitted when rendered.
type Client struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

// CompanyInfo identifies the tradesperson issuing the quote.
type CompanyInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Siret      string `json:"siret,omitempty"`
	// Logo is a data URL, an http(s) URL or a file name in the logo directory.
	Logo string `json:"logo,omitempty"`
}

// QuoteSection groups line items. Order is the authoritative sort key.
type QuoteSection struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// QuoteItem is a line of the quote. Total is always UnitPrice × Quantity;
// it is recomputed by every mutator and never set on its own.
type QuoteItem struct {
	ID          string          `json:"id"`
	SectionID   string          `json:"sectionId"`
	Product     Product         `json:"product"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Unit        string          `json:"unit"`
	Total       decimal.Decimal `json:"total"`
	Description string          `json:"description,omitempty"`
	Included    bool            `json:"included"`
}

func (it *QuoteItem) recompute() {
	it.Total = it.UnitPrice.Mul(it.Quantity)
}

// Quote is the aggregate root edited by the builder session.
type Quote struct {
	ID              string          `json:"id"`
	Number          string          `json:"number"`
	Title           string          `json:"title,omitempty"`
	Date            string          `json:"date"`
	ValidUntil      string          `json:"validUntil"`
	Trade           Trade           `json:"trade"`
	Client          Client          `json:"client"`
	CompanyInfo     CompanyInfo     `json:"companyInfo"`
	Sections        []QuoteSection  `json:"sections"`
	Items           []QuoteItem     `json:"items"`
	LaborHours      decimal.Decimal `json:"laborHours"`
	LaborRate       decimal.Decimal `json:"laborRate"`
	LaborVisible    bool            `json:"laborVisible"`
	MarginPercent   decimal.Decimal `json:"marginPercent"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	TVARate         decimal.Decimal `json:"tvaRate"`
	Notes           string          `json:"notes"`
}

// QuoteDefaults seeds a new quote.
type QuoteDefaults struct {
	ValidityDays   int
	LaborRate      decimal.Decimal
	TVARate        decimal.Decimal
	MarginPercent  decimal.Decimal
	SectionName    string
	LaborVisible   bool
	DefaultCompany CompanyInfo
}

// DefaultQuoteDefaults mirrors the configuration defaults.
func DefaultQuoteDefaults() QuoteDefaults {
	return QuoteDefaults{
		ValidityDays:  30,
		LaborRate:     decimal.NewFromInt(45),
		TVARate:       decimal.NewFromInt(20),
		MarginPercent: decimal.Zero,
		SectionName:   "Général",
		LaborVisible:  true,
	}
}

// NewQuote creates an empty quote for trade with a single default section.
func NewQuote(trade Trade, number string, now time.Time, d QuoteDefaults) Quote {
	sectionName := d.SectionName
	if sectionName == "" {
		sectionName = "Général"
	}
	return Quote{
		ID:              uuid.NewString(),
		Number:          number,
		Date:            now.Format(DateLayout),
		ValidUntil:      ValidUntil(now, d.ValidityDays),
		Trade:           trade,
		CompanyInfo:     d.DefaultCompany,
		Sections:        []QuoteSection{{ID: uuid.NewString(), Name: sectionName, Order: 0}},
		Items:           []QuoteItem{},
		LaborHours:      decimal.Zero,
		LaborRate:       d.LaborRate,
		LaborVisible:    d.LaborVisible,
		MarginPercent:   d.MarginPercent,
		DiscountPercent: decimal.Zero,
		TVARate:         d.TVARate,
	}
}

// ValidUntil returns the storage date validityDays after now.
func ValidUntil(now time.Time, validityDays int) string {
	return now.AddDate(0, 0, validityDays).Format(DateLayout)
}

// Clone returns a copy of q that shares no slices with it.
func (q Quote) Clone() Quote {
	out := q
	out.Sections = append([]QuoteSection(nil), q.Sections...)
	out.Items = append([]QuoteItem(nil), q.Items...)
	if out.Items == nil {
		out.Items = []QuoteItem{}
	}
	return out
}

// Section returns the section with id, if any.
func (q Quote) Section(id string) (QuoteSection, bool) {
	for _, s := range q.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return QuoteSection{}, false
}

// HasSection reports whether a section with id exists.
func (q Quote) HasSection(id string) bool {
	_, ok := q.Section(id)
	return ok
}

// Item returns the line item with id, if any.
func (q Quote) Item(id string) (QuoteItem, bool) {
	for _, it := range q.Items {
		if it.ID == id {
			return it, true
		}
	}
	return QuoteItem{}, false
}

// SortedSections returns the sections ordered by Order, ties kept stable.
func (q Quote) SortedSections() []QuoteSection {
	out := append([]QuoteSection(nil), q.Sections...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// IncludedItems returns the included items of a section in insertion order.
func (q Quote) IncludedItems(sectionID string) []QuoteItem {
	var out []QuoteItem
	for _, it := range q.Items {
		if it.SectionID == sectionID && it.Included {
			out = append(out, it)
		}
	}
	return out
}

// NextSectionOrder returns an order value placing a new section last.
func (q Quote) NextSectionOrder() int {
	next := 0
	for _, s := range q.Sections {
		if s.Order >= next {
			next = s.Order + 1
		}
	}
	return next
}

// Normalize repairs a quote read from storage: totals are recomputed,
// orphaned items dropped and an empty section list gets a default section.
func Normalize(q Quote, defaultSection string) Quote {
	out, _ := Repair(q, defaultSection)
	return out
}

// Repair is Normalize that also reports whether anything was changed.
func Repair(q Quote, defaultSection string) (Quote, bool) {
	out := q.Clone()
	changed := false
	if len(out.Sections) == 0 {
		if defaultSection == "" {
			defaultSection = "Général"
		}
		out.Sections = []QuoteSection{{ID: uuid.NewString(), Name: defaultSection}}
		changed = true
	}
	items := out.Items[:0]
	for _, it := range out.Items {
		if !out.HasSection(it.SectionID) {
			changed = true
			continue
		}
		stored := it.Total
		it.recompute()
		if !it.Total.Equal(stored) {
			changed = true
		}
		items = append(items, it)
	}
	out.Items = items
	return out, changed
}

// Duplicate copies q under a fresh identity: new quote, section and item ids,
// the given number, today's date and a recomputed validity date.
func Duplicate(q Quote, number string, now time.Time, validityDays int) Quote {
	out := q.Clone()
	out.ID = uuid.NewString()
	out.Number = number
	out.Date = now.Format(DateLayout)
	out.ValidUntil = ValidUntil(now, validityDays)

	remap := make(map[string]string, len(out.Sections))
	for i := range out.Sections {
		newID := uuid.NewString()
		remap[out.Sections[i].ID] = newID
		out.Sections[i].ID = newID
	}
	for i := range out.Items {
		out.Items[i].ID = uuid.NewString()
		out.Items[i].SectionID = remap[out.Items[i].SectionID]
	}
	return out
}
