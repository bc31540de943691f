// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/shopspring/decimal"

	"easydevis/collections"
	"easydevis/models"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// SampleQuote returns an electrician quote with two sections: a panel and an
// RCD in "Tableau", an excluded cable run in "Câblage", 4 h of labor at
// 45 €/h and 20 % VAT. Included totals: products 334, HT 514, TTC 616.80.
func SampleQuote(t *testing.T) models.Quote {
	t.Helper()

	d := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	item := func(id, sectionID, productID, name, unit, qty, price string, included bool) models.QuoteItem {
		it := models.QuoteItem{
			ID:        id,
			SectionID: sectionID,
			Product: models.Product{
				ID: productID, Name: name, UnitPrice: d(price), Unit: unit, Trade: models.TradeElectrician,
			},
			Quantity:  d(qty),
			UnitPrice: d(price),
			Unit:      unit,
			Included:  included,
		}
		it.Total = it.UnitPrice.Mul(it.Quantity)
		return it
	}

	return models.Quote{
		ID:         "quote-sample",
		Number:     "DEV-202503-001",
		Date:       "2025-03-10",
		ValidUntil: "2025-04-09",
		Trade:      models.TradeElectrician,
		Client: models.Client{
			Name:       "Mme Lefèvre",
			Email:      "lefevre@example.fr",
			Address:    "12 rue des Lilas",
			City:       "Lyon",
			PostalCode: "69003",
		},
		CompanyInfo: models.CompanyInfo{
			Name:       "Martin Électricité",
			Phone:      "04 72 00 00 00",
			Email:      "contact@martin-elec.fr",
			Address:    "3 avenue Jean Jaurès",
			City:       "Villeurbanne",
			PostalCode: "69100",
			Siret:      "123 456 789 00012",
		},
		Sections: []models.QuoteSection{
			{ID: "sec-tableau", Name: "Tableau", Order: 0},
			{ID: "sec-cablage", Name: "Câblage", Order: 1},
		},
		Items: []models.QuoteItem{
			item("it-1", "sec-tableau", "e1", "Tableau électrique 13 modules", models.UnitPiece, "1", "245", true),
			item("it-2", "sec-tableau", "e3", "Interrupteur différentiel 40A 30mA", models.UnitPiece, "1", "89", true),
			item("it-3", "sec-cablage", "e11", "Câble R2V 3G2.5", models.UnitMeter, "25", "2.5", false),
		},
		LaborHours:      d("4"),
		LaborRate:       d("45"),
		LaborVisible:    true,
		MarginPercent:   decimal.Zero,
		DiscountPercent: decimal.Zero,
		TVARate:         d("20"),
		Notes:           "Paiement à 30 jours.\nAcompte de 30 % à la commande.",
	}
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

// AssertHTMLNotContains checks that body contains none of the fragments.
func AssertHTMLNotContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if strings.Contains(body, frag) {
			t.Errorf("expected HTML not to contain %q\nbody (first 500 chars): %s", frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
