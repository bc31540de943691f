// Package services provides pricing, numbering, catalog and document
// rendering for quotes.
package services

import (
	"github.com/shopspring/decimal"

	"easydevis/models"
)

var hundred = decimal.NewFromInt(100)

// QuoteCalculations is the priced breakdown of a quote. It is derived on
// demand and never stored on its own.
type QuoteCalculations struct {
	SubtotalProducts   decimal.Decimal `json:"subtotalProducts"`
	LaborCost          decimal.Decimal `json:"laborCost"`
	SubtotalHT         decimal.Decimal `json:"subtotalHT"`
	Margin             decimal.Decimal `json:"margin"`
	SubtotalWithMargin decimal.Decimal `json:"subtotalWithMargin"`
	Discount           decimal.Decimal `json:"discount"`
	TotalHT            decimal.Decimal `json:"totalHT"`
	TVA                decimal.Decimal `json:"tva"`
	TotalTTC           decimal.Decimal `json:"totalTTC"`
}

// CalcQuote prices a quote. Each step only depends on the previous ones:
//
//	products → labor → subtotal HT → margin → discount → total HT → TVA → TTC
//
// Excluded items count for zero. Labor is always priced, whether or not it
// is shown on the document. Inputs are not clamped here.
func CalcQuote(q models.Quote) QuoteCalculations {
	var c QuoteCalculations
	c.SubtotalProducts = CalcItemsSubtotal(q.Items)
	c.LaborCost = q.LaborHours.Mul(q.LaborRate)
	c.SubtotalHT = c.SubtotalProducts.Add(c.LaborCost)
	c.Margin = percentOf(c.SubtotalHT, q.MarginPercent)
	c.SubtotalWithMargin = c.SubtotalHT.Add(c.Margin)
	c.Discount = percentOf(c.SubtotalWithMargin, q.DiscountPercent)
	c.TotalHT = c.SubtotalWithMargin.Sub(c.Discount)
	c.TVA = percentOf(c.TotalHT, q.TVARate)
	c.TotalTTC = c.TotalHT.Add(c.TVA)
	return c
}

// CalcItemsSubtotal sums the totals of the included items.
func CalcItemsSubtotal(items []models.QuoteItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		if it.Included {
			sum = sum.Add(it.Total)
		}
	}
	return sum
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred)
}
