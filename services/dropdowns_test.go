package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestUnitOptions(t *testing.T) {
	if len(UnitOptions) == 0 {
		t.Fatal("UnitOptions should not be empty")
	}

	expected := map[string]bool{
		"unité": true, "m²": true, "mètre": true, "forfait": true, "heure": true,
	}
	found := make(map[string]bool)
	for _, opt := range UnitOptions {
		found[opt] = true
	}
	for k := range expected {
		if !found[k] {
			t.Errorf("expected unit option %q not found", k)
		}
	}
	if UnitOptions[len(UnitOptions)-1] != "" {
		t.Errorf("the empty unit should come last, got %q", UnitOptions[len(UnitOptions)-1])
	}
}

func TestTVAOptions(t *testing.T) {
	expected := []string{"0", "2.1", "5.5", "10", "20"}
	if len(TVAOptions) != len(expected) {
		t.Fatalf("expected %d TVA options, got %d", len(expected), len(TVAOptions))
	}
	for i, v := range expected {
		if TVAOptions[i] != v {
			t.Errorf("TVAOptions[%d] = %s, want %s", i, TVAOptions[i], v)
		}
		if _, err := decimal.NewFromString(TVAOptions[i]); err != nil {
			t.Errorf("TVAOptions[%d] is not a decimal: %v", i, err)
		}
	}
}
