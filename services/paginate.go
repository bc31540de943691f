package services

import "math"

// Row heights in millimetres. The PDF writer uses the same values, so the
// estimates below match what ends up on paper.
const (
	blockGapMM        = 5.0
	titleRowMM        = 9.0
	infoRowMM         = 5.0
	companyNameRowMM  = 8.0
	clientHeadingMM   = 6.0
	clientNameRowMM   = 7.0
	sectionHeadingMM  = 8.0
	tableHeaderRowMM  = 7.0
	itemRowMM         = 7.0
	descriptionRowMM  = 5.0
	subtotalRowMM     = 7.0
	laborRowMM        = 8.0
	totalsRowMM       = 7.0
	totalsTTCRowMM    = 10.0
	notesHeadingMM    = 7.0
	notesLineMM       = 5.0
	footerRowMM       = 6.0
	identityBlockRows = 4
)

// PageSpec describes the printable area of an exported page.
type PageSpec struct {
	HeightMM       float64
	TopMarginMM    float64
	BottomMarginMM float64
}

// A4Portrait matches the PDF writer configuration; the bottom margin leaves
// room for the page numbers.
var A4Portrait = PageSpec{HeightMM: 297, TopMarginMM: 10, BottomMarginMM: 20}

// Usable returns the vertical space available for content.
func (s PageSpec) Usable() float64 {
	return s.HeightMM - s.TopMarginMM - s.BottomMarginMM
}

// SheetRange is the span of physical sheets a block prints on, 1-based.
type SheetRange struct {
	First, Last int
}

// Split reports whether the block continues onto a following sheet.
func (r SheetRange) Split() bool { return r.Last > r.First }

// Page is a run of blocks that starts at the top of a fresh sheet. Sheets
// holds the sheet range of each block; Spans counts the physical sheets the
// run takes.
type Page struct {
	Blocks []Block
	Sheets []SheetRange
	Spans  int
}

// Paginate places blocks on pages with a running vertical cursor. Before a
// block is placed, the space left on the current sheet is compared with the
// block's minimum height; when it is smaller a new page is started. A block
// never forces a break at the very top of a sheet, so oversized blocks
// overflow instead of looping.
//
// Rows are then laid one by one the way the PDF writer does it: a row that
// does not fit in what is left of the sheet moves whole to the next one, and
// the gap it leaves behind stays blank.
func Paginate(blocks []Block, spec PageSpec) []Page {
	usable := spec.Usable()
	if usable <= 0 {
		ranges := make([]SheetRange, len(blocks))
		for i := range ranges {
			ranges[i] = SheetRange{First: 1, Last: 1}
		}
		return []Page{{Blocks: blocks, Sheets: ranges, Spans: 1}}
	}

	var pages []Page
	sheet := 1
	current := Page{Spans: 1}
	cursor := 0.0

	for _, b := range blocks {
		if cursor > 0 && usable-cursor < b.MinHeight() {
			pages = append(pages, current)
			sheet++
			current = Page{Spans: 1}
			cursor = 0
		}

		placed := SheetRange{First: sheet, Last: sheet}
		for i, h := range b.RowHeights() {
			if cursor+h > usable && cursor > 0 {
				sheet++
				current.Spans++
				cursor = 0
			}
			if i == 0 {
				placed.First = sheet
			}
			cursor += h
		}
		placed.Last = sheet

		current.Blocks = append(current.Blocks, b)
		current.Sheets = append(current.Sheets, placed)
	}
	if len(current.Blocks) > 0 {
		pages = append(pages, current)
	}
	return pages
}

// PageCount is the expected number of physical pages.
func PageCount(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += p.Spans
	}
	return n
}

func totalHeight(heights []float64) float64 {
	total := 0.0
	for _, h := range heights {
		total += h
	}
	return total
}

// contentHeight is the height of the header's single content row.
func (b *HeaderBlock) contentHeight() float64 {
	company := companyNameRowMM + float64(len(b.CompanyLines))*infoRowMM
	identity := titleRowMM + float64(identityBlockRows-1)*infoRowMM
	h := math.Max(company, identity)
	if b.Logo != nil {
		h = math.Max(h, b.Logo.HeightMM)
	}
	return h
}

func (b *HeaderBlock) RowHeights() []float64 {
	return []float64{b.contentHeight(), 2 * blockGapMM}
}

func (b *HeaderBlock) Height() float64 { return totalHeight(b.RowHeights()) }

// The header always opens the first page.
func (b *HeaderBlock) MinHeight() float64 { return b.Height() }

func (b *ClientBlock) RowHeights() []float64 {
	rows := []float64{clientHeadingMM, clientNameRowMM}
	for range b.Lines {
		rows = append(rows, infoRowMM)
	}
	return append(rows, blockGapMM)
}

func (b *ClientBlock) Height() float64    { return totalHeight(b.RowHeights()) }
func (b *ClientBlock) MinHeight() float64 { return b.Height() }

func (b *SectionBlock) RowHeights() []float64 {
	rows := []float64{sectionHeadingMM, tableHeaderRowMM}
	for _, r := range b.Rows {
		rows = append(rows, itemRowMM)
		if r.Description != "" {
			rows = append(rows, descriptionRowMM)
		}
	}
	return append(rows, subtotalRowMM, blockGapMM)
}

func (b *SectionBlock) Height() float64 { return totalHeight(b.RowHeights()) }

// MinHeight keeps the heading with the table header and the first row.
func (b *SectionBlock) MinHeight() float64 {
	h := sectionHeadingMM + tableHeaderRowMM
	if len(b.Rows) > 0 {
		h += rowHeight(b.Rows[0])
	}
	if len(b.Rows) == 1 {
		h += subtotalRowMM
	}
	return h
}

func rowHeight(r ItemRow) float64 {
	if r.Description != "" {
		return itemRowMM + descriptionRowMM
	}
	return itemRowMM
}

func (b *LaborBlock) RowHeights() []float64 { return []float64{laborRowMM, blockGapMM} }
func (b *LaborBlock) Height() float64       { return totalHeight(b.RowHeights()) }
func (b *LaborBlock) MinHeight() float64    { return laborRowMM }

func (b *TotalsBlock) RowHeights() []float64 {
	rows := []float64{blockGapMM}
	for _, l := range b.Lines {
		if l.Emphasize {
			rows = append(rows, totalsTTCRowMM)
		} else {
			rows = append(rows, totalsRowMM)
		}
	}
	return rows
}

func (b *TotalsBlock) Height() float64 { return totalHeight(b.RowHeights()) }

// The totals are never split. The leading gap counts, since it is laid
// before the lines.
func (b *TotalsBlock) MinHeight() float64 { return b.Height() }

func (b *NotesBlock) RowHeights() []float64 {
	rows := []float64{notesHeadingMM}
	for range b.Lines {
		rows = append(rows, notesLineMM)
	}
	return append(rows, blockGapMM)
}

func (b *NotesBlock) Height() float64 { return totalHeight(b.RowHeights()) }

func (b *NotesBlock) MinHeight() float64 {
	return notesHeadingMM + float64(min(len(b.Lines), 2))*notesLineMM
}

func (b *FooterBlock) RowHeights() []float64 { return []float64{blockGapMM, footerRowMM} }
func (b *FooterBlock) Height() float64       { return totalHeight(b.RowHeights()) }
func (b *FooterBlock) MinHeight() float64    { return b.Height() }
