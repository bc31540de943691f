package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"easydevis/models"
)

// DefaultCustomCategory is used when a custom product has no category.
const DefaultCustomCategory = "Personnalisé"

// ValidationError represents a single field-level error on one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ProductImportResult is returned after parsing an uploaded product sheet.
// Products holds the valid rows only, without ids.
type ProductImportResult struct {
	TotalRows int               `json:"total_rows"`
	ValidRows int               `json:"valid_rows"`
	ErrorRows int               `json:"error_rows"`
	Errors    []ValidationError `json:"errors"`
	Products  []models.Product  `json:"products"`
}

type importColumn struct {
	key     string
	label   string
	aliases []string
}

var productColumns = []importColumn{
	{key: "name", label: "Nom", aliases: []string{"nom", "name", "désignation", "designation", "produit"}},
	{key: "category", label: "Catégorie", aliases: []string{"catégorie", "categorie", "category"}},
	{key: "unit_price", label: "Prix unitaire HT", aliases: []string{"prix unitaire ht", "prix unitaire", "prix", "unit price", "price"}},
	{key: "unit", label: "Unité", aliases: []string{"unité", "unite", "unit"}},
}

// ParseProductSheet reads custom products for trade from the first sheet of
// an XLSX workbook. The first row holds the headers; columns are matched by
// name, case-insensitively, in any order. Rows failing validation are
// reported and skipped.
func ParseProductSheet(r io.Reader, trade models.Trade) (*ProductImportResult, error) {
	if !trade.Valid() {
		return nil, fmt.Errorf("unknown trade %q", trade)
	}
	headers, dataRows, err := parseExcel(r)
	if err != nil {
		return nil, err
	}

	columnKeys, _ := mapHeadersToColumns(headers)
	if !containsKey(columnKeys, "name") || !containsKey(columnKeys, "unit_price") {
		return nil, errors.New("the sheet needs at least the columns Nom and Prix unitaire HT")
	}

	result := &ProductImportResult{TotalRows: len(dataRows)}
	for rowIdx, row := range dataRows {
		rowNum := rowIdx + 2 // 1-indexed, +1 for header row
		data := make(map[string]string, len(columnKeys))
		for colIdx, key := range columnKeys {
			if key != "" && colIdx < len(row) {
				data[key] = strings.TrimSpace(row[colIdx])
			}
		}
		if isBlankRow(data) {
			result.TotalRows--
			continue
		}

		p, rowErrors := productFromRow(rowNum, data, trade)
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorRows++
			continue
		}
		result.Products = append(result.Products, p)
	}
	result.ValidRows = len(result.Products)
	return result, nil
}

func productFromRow(rowNum int, data map[string]string, trade models.Trade) (models.Product, []ValidationError) {
	var errs []ValidationError

	price, err := parseDecimalInput(data["unit_price"])
	if err != nil {
		errs = append(errs, ValidationError{Row: rowNum, Field: "Prix unitaire HT", Message: "not a number"})
	}

	p := models.Product{
		Name:      data["name"],
		Category:  data["category"],
		UnitPrice: price,
		Unit:      data["unit"],
		Trade:     trade,
	}
	if p.Category == "" {
		p.Category = DefaultCustomCategory
	}
	if p.Unit == "" {
		p.Unit = models.UnitPiece
	}

	var verrs validation.Errors
	if err := ValidateProduct(p); errors.As(err, &verrs) {
		for _, c := range productColumns {
			if ferr, ok := verrs[jsonField(c.key)]; ok {
				errs = append(errs, ValidationError{Row: rowNum, Field: c.label, Message: ferr.Error()})
			}
		}
	}
	return p, errs
}

// jsonField maps an import column key to the product's JSON field name, which
// is what ozzo reports errors under.
func jsonField(key string) string {
	if key == "unit_price" {
		return "unitPrice"
	}
	return key
}

// parseDecimalInput accepts "1 234,50", "1.234,50", "1234.50" and "12 €".
// When both separators appear the last one is the decimal mark.
func parseDecimalInput(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer(" ", "", nbsp, "", "\u202f", "", "€", "").Replace(s)
	if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
		s = strings.NewReplacer(".", "", ",", ".").Replace(s)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	if s == "" {
		return decimal.Zero, errors.New("empty")
	}
	return decimal.NewFromString(s)
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows[0], rows[1:], nil
}

// mapHeadersToColumns maps uploaded column headers to import keys.
// Returns ordered list of keys (one per column) and any unrecognized columns.
func mapHeadersToColumns(headers []string) ([]string, []string) {
	aliasToKey := make(map[string]string)
	for _, c := range productColumns {
		for _, a := range c.aliases {
			aliasToKey[a] = c.key
		}
	}

	mapped := make([]string, len(headers))
	var unrecognized []string
	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		// Strip trailing " *" that the template adds for required fields
		norm = strings.TrimSpace(strings.TrimSuffix(norm, " *"))
		if key, ok := aliasToKey[norm]; ok {
			mapped[i] = key
		} else {
			unrecognized = append(unrecognized, h)
		}
	}
	return mapped, unrecognized
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func isBlankRow(data map[string]string) bool {
	for _, v := range data {
		if v != "" {
			return false
		}
	}
	return true
}

// GenerateProductTemplate returns an empty import workbook with the expected
// headers and one example row.
func GenerateProductTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Produits"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1D4ED8"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	example := []string{"Prise double", "Appareillage", "18,50", models.UnitPiece}
	widths := []float64{40, 22, 18, 14}
	for i, c := range productColumns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		label := c.label
		if c.key == "name" || c.key == "unit_price" {
			label += " *"
		}
		f.SetCellValue(sheet, colName+"1", label)
		f.SetCellValue(sheet, colName+"2", example[i])
		f.SetColWidth(sheet, colName, colName, widths[i])
	}
	f.SetCellStyle(sheet, "A1", "D1", headerStyle)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateErrorReport creates a downloadable .xlsx file from validation errors.
func GenerateErrorReport(errs []ValidationError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Erreurs"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	f.SetCellValue(sheet, "A1", "Ligne")
	f.SetCellValue(sheet, "B1", "Colonne")
	f.SetCellValue(sheet, "C1", "Erreur")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 55)

	for i, e := range errs {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, sanitizeExcelCell(e.Field))
		f.SetCellValue(sheet, "C"+row, sanitizeExcelCell(e.Message))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}
