package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const quoteSheet = "Devis"

var sheetColumns = []string{"A", "B", "C", "D", "E"}

type sheetStyles struct {
	title, subtitle, heading, header, item, note, subtotal, label, value, emphasis int
}

// GenerateExcel writes the content plan to a single-sheet XLSX workbook. The
// cells carry the same formatted strings as the PDF.
func GenerateExcel(blocks []Block) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), quoteSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	widths := []float64{48, 10, 12, 16, 18}
	for i, c := range sheetColumns {
		if err := f.SetColWidth(quoteSheet, c, c, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", c, err)
		}
	}

	st, err := newSheetStyles(f)
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f, st: st, row: 1}
	for _, b := range blocks {
		if err := w.block(b); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var st sheetStyles
	defs := []struct {
		dst   *int
		name  string
		style *excelize.Style
	}{
		{&st.title, "title", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16, Color: "#3B82F6"}}},
		{&st.subtitle, "subtitle", &excelize.Style{Font: &excelize.Font{Size: 10}}},
		{&st.heading, "heading", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}}},
		{&st.header, "header", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 10, Color: "#FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorders(),
		}},
		{&st.item, "item", &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}},
		{&st.note, "note", &excelize.Style{Font: &excelize.Font{Size: 9, Italic: true, Color: "#6B7280"}}},
		{&st.subtotal, "subtotal", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 10},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#F9FAFB"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&st.label, "summary label", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&st.value, "summary value", &excelize.Style{
			Font:      &excelize.Font{Size: 11},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&st.emphasis, "total", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 13, Color: "#3B82F6"},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return st, fmt.Errorf("create %s style: %w", d.name, err)
		}
		*d.dst = id
	}
	return st, nil
}

type sheetWriter struct {
	f   *excelize.File
	st  sheetStyles
	row int
}

func (w *sheetWriter) cell(col string) string {
	return fmt.Sprintf("%s%d", col, w.row)
}

func (w *sheetWriter) set(col, value string, style int) error {
	ref := w.cell(col)
	if err := w.f.SetCellValue(quoteSheet, ref, sanitizeExcelCell(value)); err != nil {
		return fmt.Errorf("set %s: %w", ref, err)
	}
	return w.f.SetCellStyle(quoteSheet, ref, ref, style)
}

// line writes value across the full width of the sheet and advances.
func (w *sheetWriter) line(value string, style int) error {
	first, last := w.cell("A"), w.cell(sheetColumns[len(sheetColumns)-1])
	if err := w.f.MergeCell(quoteSheet, first, last); err != nil {
		return fmt.Errorf("merge %s: %w", first, err)
	}
	if err := w.set("A", value, style); err != nil {
		return err
	}
	w.row++
	return nil
}

func (w *sheetWriter) block(b Block) error {
	var err error
	switch b := b.(type) {
	case *HeaderBlock:
		err = w.header(b)
	case *ClientBlock:
		err = w.client(b)
	case *SectionBlock:
		err = w.section(b)
	case *LaborBlock:
		err = w.labor(b)
	case *TotalsBlock:
		err = w.totals(b)
	case *NotesBlock:
		err = w.notes(b)
	case *FooterBlock:
		err = w.line(b.Text, w.st.note)
	}
	if err != nil {
		return fmt.Errorf("%s block: %w", b.Kind(), err)
	}
	w.row++
	return nil
}

func (w *sheetWriter) header(b *HeaderBlock) error {
	for _, l := range []struct {
		v     string
		style int
	}{
		{b.Title, w.st.title},
		{b.Number, w.st.subtitle},
		{b.DateText, w.st.subtitle},
		{b.ValidUntilText, w.st.subtitle},
	} {
		if err := w.line(l.v, l.style); err != nil {
			return err
		}
	}
	w.row++
	if err := w.line(b.CompanyName, w.st.heading); err != nil {
		return err
	}
	for _, l := range b.CompanyLines {
		if err := w.line(l, w.st.subtitle); err != nil {
			return err
		}
	}
	return nil
}

func (w *sheetWriter) client(b *ClientBlock) error {
	if err := w.line("CLIENT", w.st.note); err != nil {
		return err
	}
	if err := w.line(b.Name, w.st.heading); err != nil {
		return err
	}
	for _, l := range b.Lines {
		if err := w.line(l, w.st.subtitle); err != nil {
			return err
		}
	}
	return nil
}

func (w *sheetWriter) section(b *SectionBlock) error {
	if err := w.line(b.Name, w.st.heading); err != nil {
		return err
	}
	for i, h := range []string{"Désignation", "Qté", "Unité", "P.U. HT", "Total HT"} {
		if err := w.set(sheetColumns[i], h, w.st.header); err != nil {
			return err
		}
	}
	w.row++

	for _, r := range b.Rows {
		for i, v := range []string{r.Designation, r.Quantity, r.Unit, r.UnitPrice, r.Total} {
			if err := w.set(sheetColumns[i], v, w.st.item); err != nil {
				return err
			}
		}
		w.row++
		if r.Description != "" {
			if err := w.set("A", r.Description, w.st.note); err != nil {
				return err
			}
			w.row++
		}
	}

	if err := w.set("D", "Sous-total", w.st.subtotal); err != nil {
		return err
	}
	if err := w.set("E", b.Subtotal, w.st.subtotal); err != nil {
		return err
	}
	w.row++
	return nil
}

func (w *sheetWriter) labor(b *LaborBlock) error {
	if err := w.set("A", "Main d'œuvre", w.st.heading); err != nil {
		return err
	}
	if err := w.set("D", b.Detail, w.st.value); err != nil {
		return err
	}
	if err := w.set("E", b.Cost, w.st.label); err != nil {
		return err
	}
	w.row++
	return nil
}

func (w *sheetWriter) totals(b *TotalsBlock) error {
	for _, l := range b.Lines {
		label, value := w.st.label, w.st.value
		if l.Emphasize {
			label, value = w.st.emphasis, w.st.emphasis
		}
		if err := w.set("D", l.Label, label); err != nil {
			return err
		}
		if err := w.set("E", l.Amount, value); err != nil {
			return err
		}
		w.row++
	}
	return nil
}

func (w *sheetWriter) notes(b *NotesBlock) error {
	if err := w.line("Notes", w.st.heading); err != nil {
		return err
	}
	for _, l := range b.Lines {
		if err := w.line(l, w.st.subtitle); err != nil {
			return err
		}
	}
	return nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas. A negative amount such as the discount line is left
// alone.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '@', '\t', '\r', '|':
		return "'" + s
	case '-':
		if len(s) > 1 && s[1] >= '0' && s[1] <= '9' {
			return s
		}
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#D1D5DB",
			Style: 1,
		}
	}
	return borders
}
