package services

import (
	"github.com/shopspring/decimal"

	"easydevis/models"
)

// CustomProductSource supplies the user-defined products of every trade.
type CustomProductSource interface {
	CustomProducts() []models.Product
}

// Catalog merges the built-in products with the user's custom ones.
type Catalog struct {
	custom CustomProductSource
}

// NewCatalog returns a catalog backed by custom. A nil source yields the
// built-in products only.
func NewCatalog(custom CustomProductSource) *Catalog {
	return &Catalog{custom: custom}
}

// ProductsForTrade returns the built-in products of trade followed by the
// custom products tagged with it.
func (c *Catalog) ProductsForTrade(trade models.Trade) []models.Product {
	out := BuiltinProducts(trade)
	if c == nil || c.custom == nil {
		return out
	}
	for _, p := range c.custom.CustomProducts() {
		if p.Trade == trade {
			out = append(out, p)
		}
	}
	return out
}

// CategoriesForTrade returns the distinct categories of ProductsForTrade in
// order of first appearance.
func (c *Catalog) CategoriesForTrade(trade models.Trade) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.ProductsForTrade(trade) {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}

// Find looks a product up by id within trade.
func (c *Catalog) Find(trade models.Trade, id string) (models.Product, bool) {
	for _, p := range c.ProductsForTrade(trade) {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// BuiltinProducts returns a fresh copy of the built-in products of trade.
func BuiltinProducts(trade models.Trade) []models.Product {
	var src []models.Product
	switch trade {
	case models.TradeElectrician:
		src = electricianProducts
	case models.TradeCarpenter:
		src = carpenterProducts
	}
	return append([]models.Product(nil), src...)
}

func builtin(trade models.Trade, id, name, category, price, unit string) models.Product {
	return models.Product{
		ID:        id,
		Name:      name,
		Category:  category,
		UnitPrice: decimal.RequireFromString(price),
		Unit:      unit,
		Trade:     trade,
	}
}

var electricianProducts = func() []models.Product {
	e := func(id, name, category, price, unit string) models.Product {
		return builtin(models.TradeElectrician, id, name, category, price, unit)
	}
	return []models.Product{
		e("e1", "Tableau électrique 13 modules", "Tableaux", "245", models.UnitPiece),
		e("e2", "Tableau électrique 26 modules", "Tableaux", "385", models.UnitPiece),
		e("e3", "Interrupteur différentiel 40A 30mA", "Protection", "89", models.UnitPiece),
		e("e4", "Disjoncteur 16A", "Protection", "12", models.UnitPiece),
		e("e5", "Disjoncteur 20A", "Protection", "14", models.UnitPiece),
		e("e6", "Disjoncteur 32A", "Protection", "18", models.UnitPiece),
		e("e7", "Prise électrique 16A", "Appareillage", "8", models.UnitPiece),
		e("e8", "Interrupteur simple", "Appareillage", "6", models.UnitPiece),
		e("e9", "Interrupteur va-et-vient", "Appareillage", "9", models.UnitPiece),
		e("e10", "Spot LED encastrable", "Éclairage", "25", models.UnitPiece),
		e("e11", "Câble R2V 3G2.5", "Câbles", "2.5", models.UnitMeter),
		e("e12", "Câble R2V 3G6", "Câbles", "4.5", models.UnitMeter),
		e("e13", "Gaine ICTA 20mm", "Câbles", "0.8", models.UnitMeter),
		e("e14", "Boîte de dérivation", "Accessoires", "3", models.UnitPiece),
		e("e15", "Prise RJ45 Cat6", "Appareillage", "18", models.UnitPiece),
	}
}()

var carpenterProducts = func() []models.Product {
	c := func(id, name, category, price, unit string) models.Product {
		return builtin(models.TradeCarpenter, id, name, category, price, unit)
	}
	return []models.Product{
		c("c1", "Porte intérieure standard", "Portes", "180", models.UnitPiece),
		c("c2", "Porte intérieure vitrée", "Portes", "280", models.UnitPiece),
		c("c3", "Bloc porte pré-peint", "Portes", "220", models.UnitPiece),
		c("c4", "Fenêtre PVC 1 vantail", "Fenêtres", "320", models.UnitPiece),
		c("c5", "Fenêtre PVC 2 vantaux", "Fenêtres", "480", models.UnitPiece),
		c("c6", "Porte-fenêtre PVC", "Fenêtres", "650", models.UnitPiece),
		c("c7", "Volet roulant manuel", "Volets", "280", models.UnitPiece),
		c("c8", "Volet roulant électrique", "Volets", "420", models.UnitPiece),
		c("c9", "Parquet stratifié", "Sols", "25", models.UnitSquareMeter),
		c("c10", "Parquet contrecollé chêne", "Sols", "55", models.UnitSquareMeter),
		c("c11", "Plinthe bois", "Finitions", "8", models.UnitMeter),
		c("c12", "Étagère sur mesure", "Rangement", "120", models.UnitMeter),
		c("c13", "Placard coulissant 2 portes", "Rangement", "850", models.UnitPiece),
		c("c14", "Escalier bois standard", "Escaliers", "2500", models.UnitPiece),
		c("c15", "Garde-corps bois", "Escaliers", "180", models.UnitMeter),
	}
}()
