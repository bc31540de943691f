package services

import (
	"fmt"
	"math"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

const (
	pdfSideMarginMM = 14.0
	pdfContentMM    = 210 - 2*pdfSideMarginMM
	gridColumns     = 12
)

var (
	accentColor  = &props.Color{Red: 59, Green: 130, Blue: 246}
	mutedColor   = &props.Color{Red: 107, Green: 114, Blue: 128}
	panelColor   = &props.Color{Red: 249, Green: 250, Blue: 251}
	subtleColor  = &props.Color{Red: 140, Green: 140, Blue: 140}
	panelCell    = &props.Cell{BackgroundColor: panelColor}
	tableHeadBg  = &props.Cell{BackgroundColor: &props.Color{Red: 243, Green: 244, Blue: 246}}
	subtotalCell = &props.Cell{BackgroundColor: panelColor}
)

// GeneratePDF renders paginated content into an A4 PDF using maroto/v2.
// Every Page starts on a fresh sheet; maroto moves a row that does not fit
// onto the following sheet, as Paginate expects.
func GeneratePDF(pages []Page, spec PageSpec) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(pdfSideMarginMM).
		WithTopMargin(spec.TopMarginMM).
		WithRightMargin(pdfSideMarginMM).
		WithBottomMargin(spec.BottomMarginMM).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   subtleColor,
		}).
		Build()

	m := maroto.New(cfg)

	for _, p := range pages {
		var rows []core.Row
		for _, b := range p.Blocks {
			rows = append(rows, pdfRows(b)...)
		}
		m.AddPages(page.New().Add(rows...))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

func pdfRows(b Block) []core.Row {
	switch b := b.(type) {
	case *HeaderBlock:
		return headerRows(b)
	case *ClientBlock:
		return clientRows(b)
	case *SectionBlock:
		return sectionRows(b)
	case *LaborBlock:
		return laborRows(b)
	case *TotalsBlock:
		return totalsRows(b)
	case *NotesBlock:
		return notesRows(b)
	case *FooterBlock:
		return footerRows(b)
	}
	return nil
}

// headerRows lays the logo left of the company text when there is one; the
// document identity is right aligned either way.
func headerRows(b *HeaderBlock) []core.Row {
	height := b.contentHeight()

	pad := 0.0
	if b.Logo != nil {
		pad = 3
	}
	company := []core.Component{
		text.New(b.CompanyName, props.Text{Left: pad, Size: 14, Style: fontstyle.Bold}),
	}
	for i, line := range b.CompanyLines {
		company = append(company, text.New(line, props.Text{
			Top:  companyNameRowMM + float64(i)*infoRowMM,
			Left: pad,
			Size: 9,
		}))
	}

	right := props.Text{Size: 9, Align: align.Right}
	identity := col.New(4).Add(
		text.New(b.Title, props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Right, Color: accentColor}),
		text.New(b.Number, withTop(right, titleRowMM)),
		text.New(b.DateText, withTop(right, titleRowMM+infoRowMM)),
		text.New(b.ValidUntilText, withTop(right, titleRowMM+2*infoRowMM)),
	)

	var cols []core.Col
	if b.Logo != nil {
		logoCols := 3
		cols = append(cols,
			col.New(logoCols).Add(image.NewFromBytes(b.Logo.PNG, extension.Png, props.Rect{
				Percent: logoPercent(b.Logo, logoCols),
			})),
			col.New(gridColumns-logoCols-4).Add(company...),
		)
	} else {
		cols = append(cols, col.New(gridColumns-4).Add(company...))
	}
	cols = append(cols, identity)

	return []core.Row{
		row.New(height).Add(cols...),
		row.New(2 * blockGapMM),
	}
}

// logoPercent sizes the image inside its cell so it prints at Logo.WidthMM.
func logoPercent(l *Logo, cols int) float64 {
	cellMM := pdfContentMM * float64(cols) / gridColumns
	if cellMM <= 0 || l.WidthMM <= 0 {
		return 100
	}
	return math.Min(100, l.WidthMM/cellMM*100)
}

func withTop(p props.Text, top float64) props.Text {
	p.Top = top
	return p
}

func clientRows(b *ClientBlock) []core.Row {
	rows := []core.Row{
		row.New(clientHeadingMM).Add(
			col.New(12).Add(text.New("CLIENT", props.Text{
				Top: 1.5, Left: 3, Size: 8, Style: fontstyle.Bold, Color: mutedColor,
			})).WithStyle(panelCell),
		),
		row.New(clientNameRowMM).Add(
			col.New(12).Add(text.New(b.Name, props.Text{Top: 1, Left: 3, Size: 11, Style: fontstyle.Bold})).WithStyle(panelCell),
		),
	}
	for _, line := range b.Lines {
		rows = append(rows, row.New(infoRowMM).Add(
			col.New(12).Add(text.New(line, props.Text{Left: 3, Size: 9})).WithStyle(panelCell),
		))
	}
	return append(rows, row.New(blockGapMM))
}

func sectionRows(b *SectionBlock) []core.Row {
	head := props.Text{Top: 1.5, Size: 8, Style: fontstyle.Bold, Color: mutedColor, Align: align.Right}
	headLeft := head
	headLeft.Align = align.Left
	headLeft.Left = 2
	headCenter := head
	headCenter.Align = align.Center

	rows := []core.Row{
		row.New(sectionHeadingMM).Add(
			col.New(12).Add(text.New(b.Name, props.Text{Top: 2, Size: 11, Style: fontstyle.Bold})),
		),
		row.New(tableHeaderRowMM).Add(
			col.New(6).Add(text.New("Désignation", headLeft)).WithStyle(tableHeadBg),
			col.New(1).Add(text.New("Qté", headCenter)).WithStyle(tableHeadBg),
			col.New(1).Add(text.New("Unité", headCenter)).WithStyle(tableHeadBg),
			col.New(2).Add(text.New("P.U. HT", head)).WithStyle(tableHeadBg),
			col.New(2).Add(text.New("Total HT", withRight(head, 2))).WithStyle(tableHeadBg),
		),
	}

	cell := props.Text{Top: 1.5, Size: 9}
	left := cell
	left.Left = 2
	center := cell
	center.Align = align.Center
	right := cell
	right.Align = align.Right

	for _, r := range b.Rows {
		rows = append(rows, row.New(itemRowMM).Add(
			col.New(6).Add(text.New(r.Designation, left)),
			col.New(1).Add(text.New(r.Quantity, center)),
			col.New(1).Add(text.New(r.Unit, center)),
			col.New(2).Add(text.New(r.UnitPrice, right)),
			col.New(2).Add(text.New(r.Total, withRight(right, 2))),
		))
		if r.Description != "" {
			rows = append(rows, row.New(descriptionRowMM).Add(
				col.New(6).Add(text.New(r.Description, props.Text{
					Left: 4, Size: 8, Style: fontstyle.Italic, Color: mutedColor,
				})),
				col.New(6),
			))
		}
	}

	rows = append(rows,
		row.New(subtotalRowMM).Add(
			col.New(8).Add(text.New("Sous-total "+b.Name, props.Text{
				Top: 1.5, Size: 9, Style: fontstyle.Bold, Align: align.Right,
			})).WithStyle(subtotalCell),
			col.New(4).Add(text.New(b.Subtotal, props.Text{
				Top: 1.5, Right: 2, Size: 9, Style: fontstyle.Bold, Align: align.Right,
			})).WithStyle(subtotalCell),
		),
		row.New(blockGapMM),
	)
	return rows
}

func withRight(p props.Text, right float64) props.Text {
	p.Right = right
	return p
}

func laborRows(b *LaborBlock) []core.Row {
	return []core.Row{
		row.New(laborRowMM).Add(
			col.New(6).Add(text.New("Main d'œuvre", props.Text{Top: 2, Left: 2, Size: 10, Style: fontstyle.Bold})),
			col.New(3).Add(text.New(b.Detail, props.Text{Top: 2, Size: 9, Align: align.Right, Color: mutedColor})),
			col.New(3).Add(text.New(b.Cost, props.Text{Top: 2, Right: 2, Size: 10, Style: fontstyle.Bold, Align: align.Right})),
		),
		row.New(blockGapMM),
	}
}

func totalsRows(b *TotalsBlock) []core.Row {
	rows := []core.Row{row.New(blockGapMM)}
	for _, l := range b.Lines {
		height := totalsRowMM
		style := props.Text{Top: 1.5, Size: 10, Align: align.Right}
		if l.Emphasize {
			height = totalsTTCRowMM
			style = props.Text{Top: 2, Size: 13, Style: fontstyle.Bold, Align: align.Right, Color: accentColor}
		}
		rows = append(rows, row.New(height).Add(
			col.New(6),
			col.New(3).Add(text.New(l.Label+" :", style)),
			col.New(3).Add(text.New(l.Amount, withRight(style, 2))),
		))
	}
	return rows
}

func notesRows(b *NotesBlock) []core.Row {
	rows := []core.Row{
		row.New(notesHeadingMM).Add(
			col.New(12).Add(text.New("Notes", props.Text{Top: 2, Size: 10, Style: fontstyle.Bold})),
		),
	}
	for _, line := range b.Lines {
		if line == "" {
			rows = append(rows, row.New(notesLineMM))
			continue
		}
		rows = append(rows, row.New(notesLineMM).Add(
			col.New(12).Add(text.New(line, props.Text{Size: 9})),
		))
	}
	return append(rows, row.New(blockGapMM))
}

func footerRows(b *FooterBlock) []core.Row {
	return []core.Row{
		row.New(blockGapMM),
		row.New(footerRowMM).Add(
			col.New(12).Add(text.New(b.Text, props.Text{Size: 8, Align: align.Center, Color: subtleColor})),
		),
	}
}
