// Package models defines the quote aggregate and the mutators that keep it consistent.
package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Trade is the craft a quote is written for.
type Trade string

const (
	TradeElectrician Trade = "electrician"
	TradeCarpenter   Trade = "carpenter"
)

// Trades lists every supported trade in display order.
var Trades = []Trade{TradeElectrician, TradeCarpenter}

// Valid reports whether t is a known trade.
func (t Trade) Valid() bool {
	for _, known := range Trades {
		if t == known {
			return true
		}
	}
	return false
}

// Label returns the French display name of the trade.
func (t Trade) Label() string {
	switch t {
	case TradeElectrician:
		return "Électricien"
	case TradeCarpenter:
		return "Menuisier"
	}
	return string(t)
}

// Unit vocabulary offered by the catalog editor. Units stay free text on
// products and line items; these are only the suggested values.
const (
	UnitPiece        = "unité"
	UnitSquareMeter  = "m²"
	UnitMeter        = "mètre"
	UnitLinearMeter  = "mètre linéaire"
	UnitFlatRate     = "forfait"
	UnitHour         = "heure"
	UnitDay          = "jour"
	UnitLot          = "lot"
	UnitNone         = ""
	CustomPrefix     = "custom-"
	FreePrefix       = "free-"
	FreeLineCategory = "Ligne libre"
)

// UnitOptions is the fixed unit vocabulary, UnitNone last.
var UnitOptions = []string{
	UnitPiece,
	UnitSquareMeter,
	UnitMeter,
	UnitLinearMeter,
	UnitFlatRate,
	UnitHour,
	UnitDay,
	UnitLot,
	UnitNone,
}

// Product is a catalog entry. Line items snapshot the price and unit at the
// time the product is added, so later catalog edits never reach a quote.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Unit      string          `json:"unit"`
	Trade     Trade           `json:"trade"`
}

// IsCustom reports whether the product was defined by the user.
func (p Product) IsCustom() bool { return strings.HasPrefix(p.ID, CustomPrefix) }

// IsFree reports whether the product was synthesized for an ad hoc line.
func (p Product) IsFree() bool { return strings.HasPrefix(p.ID, FreePrefix) }
