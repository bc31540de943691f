package services

import (
	"errors"
	"io/fs"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"

	"easydevis/models"
)

var siretPattern = regexp.MustCompile(`^[0-9]{14}$`)

// nonNegative rejects decimals below zero.
var nonNegative = validation.By(func(v any) error {
	d, ok := v.(decimal.Decimal)
	if !ok {
		return errors.New("must be a number")
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
})

var knownTrade = validation.By(func(v any) error {
	if t, ok := v.(models.Trade); !ok || !t.Valid() {
		return errors.New("must be electrician or carpenter")
	}
	return nil
})

// siret accepts 14 digits, spaces ignored.
var siret = validation.By(func(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if !siretPattern.MatchString(strings.ReplaceAll(s, " ", "")) {
		return errors.New("must be 14 digits")
	}
	return nil
})

// logoRef accepts an inline image, an http(s) URL or a bare file name from
// the logo directory.
var logoRef = validation.By(func(v any) error {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil
	case strings.HasPrefix(s, "data:"):
		if !strings.HasPrefix(s, "data:image/") {
			return errors.New("must be an image data URL")
		}
		return nil
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return is.URL.Validate(s)
	case !fs.ValidPath(s), strings.ContainsAny(s, `\:`):
		return errors.New("must be a data URL, an http(s) URL or a file name in the logo directory")
	}
	return nil
})

// ValidateProduct checks a custom product before it is stored.
func ValidateProduct(p models.Product) error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Category, validation.Length(0, 100)),
		validation.Field(&p.UnitPrice, nonNegative),
		validation.Field(&p.Unit, validation.Length(0, 50)),
		validation.Field(&p.Trade, knownTrade),
	)
}

// ValidateCompany checks the company profile. Every field is optional; the
// ones that are set must be well formed.
func ValidateCompany(c models.CompanyInfo) error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Length(0, 200)),
		validation.Field(&c.Email, is.EmailFormat),
		validation.Field(&c.PostalCode, validation.Length(0, 10)),
		validation.Field(&c.Siret, siret),
		validation.Field(&c.Logo, logoRef),
	)
}

// ValidateClient checks the client record.
func ValidateClient(c models.Client) error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Length(0, 200)),
		validation.Field(&c.Email, is.EmailFormat),
		validation.Field(&c.PostalCode, validation.Length(0, 10)),
	)
}

// FreeItemInput is an ad hoc line typed by the user.
type FreeItemInput struct {
	SectionID string          `json:"sectionId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Unit      string          `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func (in FreeItemInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.SectionID, validation.Required),
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.UnitPrice, nonNegative),
	)
}

// ValidateQuoteUpdate checks the contact records of an update. Percentages
// and labor figures are not rejected here: UpdateQuote clamps them.
func ValidateQuoteUpdate(u models.QuoteUpdate) error {
	errs := validation.Errors{}
	if u.Client != nil {
		errs["client"] = ValidateClient(*u.Client)
	}
	if u.CompanyInfo != nil {
		errs["companyInfo"] = ValidateCompany(*u.CompanyInfo)
	}
	return errs.Filter()
}

// ValidateItemUpdate rejects a negative unit price.
func ValidateItemUpdate(u models.ItemUpdate) error {
	if u.UnitPrice == nil {
		return nil
	}
	return validation.Errors{"unitPrice": validation.Validate(*u.UnitPrice, nonNegative)}.Filter()
}
