package services

import (
	"strings"

	"github.com/rs/zerolog/log"

	"easydevis/models"
)

// Default labels printed when the quote leaves them empty.
const (
	DefaultDocumentTitle = "DEVIS"
	defaultCompanyName   = "Mon Entreprise"
	defaultClientName    = "Non renseigné"
)

// BlockKind identifies a block of the content plan.
type BlockKind int

const (
	BlockHeader BlockKind = iota
	BlockClient
	BlockSection
	BlockLabor
	BlockTotals
	BlockNotes
	BlockFooter
)

func (k BlockKind) String() string {
	switch k {
	case BlockHeader:
		return "header"
	case BlockClient:
		return "client"
	case BlockSection:
		return "section"
	case BlockLabor:
		return "labor"
	case BlockTotals:
		return "totals"
	case BlockNotes:
		return "notes"
	case BlockFooter:
		return "footer"
	}
	return "unknown"
}

// Block is one entry of the content plan. Every render target walks the
// same plan, so preview and export print the same strings in the same order.
type Block interface {
	Kind() BlockKind
	// RowHeights lists the heights in millimetres of the rows the PDF writer
	// lays for the block, in order.
	RowHeights() []float64
	// Height is the sum of RowHeights.
	Height() float64
	// MinHeight is the space that must remain on a page for the block to
	// start there.
	MinHeight() float64
}

// HeaderBlock carries the company identity and the document identity.
type HeaderBlock struct {
	CompanyName  string
	CompanyLines []string
	// Logo is nil when the company has none or it failed to load.
	Logo           *Logo
	Title          string
	Number         string
	DateText       string
	ValidUntilText string
}

// ClientBlock lists the non-empty client fields, one per line.
type ClientBlock struct {
	Name  string
	Lines []string
}

// ItemRow is one printed line item.
type ItemRow struct {
	Designation string
	Description string
	Quantity    string
	Unit        string
	UnitPrice   string
	Total       string
}

// SectionBlock is a section with at least one included item.
type SectionBlock struct {
	Name     string
	Rows     []ItemRow
	Subtotal string
}

// LaborBlock shows hours × rate and the resulting cost.
type LaborBlock struct {
	Detail string
	Cost   string
}

// TotalLine is a label/amount pair of the totals block.
type TotalLine struct {
	Label     string
	Amount    string
	Emphasize bool
}

// TotalsBlock lists Total HT, the optional discount, VAT and Total TTC.
type TotalsBlock struct {
	Lines []TotalLine
}

// NotesBlock keeps the notes split on their line breaks.
type NotesBlock struct {
	Lines []string
}

// FooterBlock is the validity line closing the document.
type FooterBlock struct {
	Text string
}

func (*HeaderBlock) Kind() BlockKind  { return BlockHeader }
func (*ClientBlock) Kind() BlockKind  { return BlockClient }
func (*SectionBlock) Kind() BlockKind { return BlockSection }
func (*LaborBlock) Kind() BlockKind   { return BlockLabor }
func (*TotalsBlock) Kind() BlockKind  { return BlockTotals }
func (*NotesBlock) Kind() BlockKind   { return BlockNotes }
func (*FooterBlock) Kind() BlockKind  { return BlockFooter }

// BuildPlan turns a quote and its calculations into the ordered content plan:
// header, client, one block per section with included items, labor when
// shown and priced, totals, notes when present, footer.
func BuildPlan(q models.Quote, calc QuoteCalculations, logo *Logo) []Block {
	blocks := []Block{
		buildHeader(q, logo),
		buildClient(q.Client),
	}

	for _, s := range q.SortedSections() {
		if b := buildSection(q, s); b != nil {
			blocks = append(blocks, b)
		}
	}

	if q.LaborVisible && calc.LaborCost.IsPositive() {
		blocks = append(blocks, &LaborBlock{
			Detail: formatQty(q.LaborHours) + nbsp + "h × " + FormatEUR(q.LaborRate),
			Cost:   FormatEUR(calc.LaborCost),
		})
	}

	blocks = append(blocks, buildTotals(q, calc))

	if strings.TrimSpace(q.Notes) != "" {
		notes := strings.ReplaceAll(q.Notes, "\r\n", "\n")
		blocks = append(blocks, &NotesBlock{Lines: strings.Split(strings.TrimRight(notes, "\n"), "\n")})
	}

	blocks = append(blocks, &FooterBlock{
		Text: "Devis valable jusqu'au " + displayDate(q.ValidUntil, "validUntil"),
	})
	return blocks
}

func buildHeader(q models.Quote, logo *Logo) *HeaderBlock {
	c := q.CompanyInfo
	h := &HeaderBlock{
		CompanyName:    orDefault(c.Name, defaultCompanyName),
		Logo:           logo,
		Title:          orDefault(q.Title, DefaultDocumentTitle),
		Number:         "N° " + q.Number,
		DateText:       "Date : " + displayDate(q.Date, "date"),
		ValidUntilText: "Valide jusqu'au : " + displayDate(q.ValidUntil, "validUntil"),
	}
	h.CompanyLines = appendNonEmpty(nil,
		c.Address,
		cityLine(c.PostalCode, c.City),
		prefixed("Tél : ", c.Phone),
		c.Email,
		prefixed("SIRET : ", c.Siret),
	)
	return h
}

func buildClient(c models.Client) *ClientBlock {
	return &ClientBlock{
		Name: orDefault(c.Name, defaultClientName),
		Lines: appendNonEmpty(nil,
			c.Address,
			cityLine(c.PostalCode, c.City),
			prefixed("Tél : ", c.Phone),
			c.Email,
		),
	}
}

// buildSection returns nil when the section has no included item.
func buildSection(q models.Quote, s models.QuoteSection) *SectionBlock {
	items := q.IncludedItems(s.ID)
	if len(items) == 0 {
		return nil
	}
	b := &SectionBlock{Name: s.Name, Rows: make([]ItemRow, 0, len(items))}
	for _, it := range items {
		b.Rows = append(b.Rows, ItemRow{
			Designation: it.Product.Name,
			Description: strings.TrimSpace(it.Description),
			Quantity:    formatQty(it.Quantity),
			Unit:        formatUnit(it.Unit),
			UnitPrice:   FormatEUR(it.UnitPrice),
			Total:       FormatEUR(it.Total),
		})
	}
	b.Subtotal = FormatEUR(CalcItemsSubtotal(items))
	return b
}

func buildTotals(q models.Quote, calc QuoteCalculations) *TotalsBlock {
	lines := []TotalLine{{Label: "Total HT", Amount: FormatEUR(calc.TotalHT)}}
	if calc.Discount.IsPositive() {
		lines = append(lines, TotalLine{
			Label:  "Remise (" + formatPercent(q.DiscountPercent) + nbsp + "%)",
			Amount: FormatEUR(calc.Discount.Neg()),
		})
	}
	lines = append(lines,
		TotalLine{Label: "TVA (" + formatPercent(q.TVARate) + nbsp + "%)", Amount: FormatEUR(calc.TVA)},
		TotalLine{Label: "Total TTC", Amount: FormatEUR(calc.TotalTTC), Emphasize: true},
	)
	return &TotalsBlock{Lines: lines}
}

// displayDate formats a stored date, falling back to the raw value.
func displayDate(stored, field string) string {
	s, ok := FormatLongDate(stored)
	if !ok && stored != "" {
		log.Debug().Str("component", "render").Str("field", field).Str("value", stored).Msg("unparsable date printed as is")
	}
	return s
}

func cityLine(postalCode, city string) string {
	return strings.TrimSpace(strings.TrimSpace(postalCode) + " " + strings.TrimSpace(city))
}

func prefixed(prefix, v string) string {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return prefix + strings.TrimSpace(v)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func appendNonEmpty(dst []string, values ...string) []string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}
