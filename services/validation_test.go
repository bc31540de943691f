package services

import (
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easydevis/models"
)

func errorFields(t *testing.T, err error) []string {
	t.Helper()
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs), "want validation.Errors, got %T", err)
	var fields []string
	for k := range verrs {
		fields = append(fields, k)
	}
	return fields
}

func TestValidateProduct(t *testing.T) {
	valid := models.Product{Name: "Prise", UnitPrice: dec("12"), Trade: models.TradeElectrician}

	tests := []struct {
		name   string
		mutate func(*models.Product)
		want   []string
	}{
		{"valid", func(*models.Product) {}, nil},
		{"blank name", func(p *models.Product) { p.Name = "" }, []string{"name"}},
		{"negative price", func(p *models.Product) { p.UnitPrice = dec("-1") }, []string{"unitPrice"}},
		{"unknown trade", func(p *models.Product) { p.Trade = "plumber" }, []string{"trade"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.ElementsMatch(t, tt.want, errorFields(t, ValidateProduct(p)))
		})
	}
}

func TestValidateCompany(t *testing.T) {
	assert.NoError(t, ValidateCompany(models.CompanyInfo{}))
	assert.NoError(t, ValidateCompany(models.CompanyInfo{Email: "a@b.fr", Siret: "123 456 789 00012"}))
	assert.ElementsMatch(t, []string{"email", "siret"},
		errorFields(t, ValidateCompany(models.CompanyInfo{Email: "pas-un-email", Siret: "12345"})))
}

func TestValidateCompany_Logo(t *testing.T) {
	tests := []struct {
		logo  string
		valid bool
	}{
		{"", true},
		{"data:image/png;base64,iVBORw0KGgo=", true},
		{"https://example.com/logo.png", true},
		{"logo.png", true},
		{"marques/logo.png", true},
		{"data:text/html,<b>", false},
		{"/etc/passwd", false},
		{"../config/.env", false},
		{`C:\logos\a.png`, false},
		{"file:///etc/passwd", false},
	}
	for _, tt := range tests {
		t.Run(tt.logo, func(t *testing.T) {
			err := ValidateCompany(models.CompanyInfo{Logo: tt.logo})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, []string{"logo"}, errorFields(t, err))
			}
		})
	}
}

func TestFreeItemInput_Validate(t *testing.T) {
	in := FreeItemInput{SectionID: "s1", Name: "Déplacement", UnitPrice: dec("30"), Quantity: dec("1")}
	assert.NoError(t, in.Validate())

	in.Name = ""
	in.UnitPrice = dec("-30")
	assert.ElementsMatch(t, []string{"name", "unitPrice"}, errorFields(t, in.Validate()))
}

func TestValidateQuoteUpdate(t *testing.T) {
	// Out-of-range percentages are clamped by UpdateQuote, not rejected.
	assert.NoError(t, ValidateQuoteUpdate(models.QuoteUpdate{TVARate: ptr(dec("150"))}))

	err := ValidateQuoteUpdate(models.QuoteUpdate{Client: &models.Client{Email: "nope"}})
	assert.ElementsMatch(t, []string{"client"}, errorFields(t, err))
}

func TestValidateItemUpdate(t *testing.T) {
	assert.NoError(t, ValidateItemUpdate(models.ItemUpdate{}))
	assert.NoError(t, ValidateItemUpdate(models.ItemUpdate{UnitPrice: ptr(dec("0"))}))
	assert.Error(t, ValidateItemUpdate(models.ItemUpdate{UnitPrice: ptr(dec("-0.01"))}))
}

func ptr[T any](v T) *T { return &v }
