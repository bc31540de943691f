package services

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"easydevis/models"
)

// ErrUnknownProduct is returned when a catalog id does not resolve for the
// quote's trade.
var ErrUnknownProduct = errors.New("product not found")

// ErrNotInHistory is returned for a history id that is not stored.
var ErrNotInHistory = errors.New("quote not found in history")

// QuoteStore is the persisted state the builder reads and writes. Every
// method is best effort.
type QuoteStore interface {
	LoadCurrentQuote() (models.Quote, bool)
	SaveCurrentQuote(q models.Quote)
	AppendOrReplaceInHistory(q models.Quote)
	ListHistory() []models.Quote
	FindInHistory(id string) (models.Quote, bool)
	DeleteFromHistory(id string)
	LoadCompanyProfile() (models.CompanyInfo, bool)
	SaveCompanyProfile(info models.CompanyInfo)
	CustomProducts() []models.Product
	SaveCustomProduct(p models.Product) models.Product
	DeleteCustomProduct(id string)
	NextQuoteNumber() string
}

// WriteScheduler runs writes off the caller's path, latest write per key.
type WriteScheduler interface {
	Schedule(key string, write func())
	Flush()
}

// Write-behind keys. History upserts are keyed per quote so that switching
// quotes never coalesces away the previous quote's last state.
const (
	writeCurrentQuote = "current_quote"
	writeHistoryEntry = "quote_history/"
)

// HistoryEntry is a stored quote with its computed total.
type HistoryEntry struct {
	Quote    models.Quote    `json:"quote"`
	TotalTTC decimal.Decimal `json:"totalTTC"`
}

// Builder is the editing session. It owns the working quote: every change
// goes through a mutator, is priced again and scheduled for persistence.
// Reads return copies.
type Builder struct {
	mu       sync.Mutex
	store    QuoteStore
	writes   WriteScheduler
	catalog  *Catalog
	defaults models.QuoteDefaults
	now      func() time.Time
	log      zerolog.Logger

	quote models.Quote
	calc  QuoteCalculations
}

// BuilderOption customises a Builder.
type BuilderOption func(*Builder)

// WithBuilderClock replaces time.Now for dates of new quotes.
func WithBuilderClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// NewBuilder resumes the saved working quote, or starts an electrician quote
// when there is none.
func NewBuilder(store QuoteStore, writes WriteScheduler, defaults models.QuoteDefaults, opts ...BuilderOption) *Builder {
	b := &Builder{
		store:    store,
		writes:   writes,
		catalog:  NewCatalog(store),
		defaults: defaults,
		now:      time.Now,
		log:      log.With().Str("component", "builder").Logger(),
	}
	for _, opt := range opts {
		opt(b)
	}

	if q, ok := store.LoadCurrentQuote(); ok && q.ID != "" && q.Trade.Valid() {
		repaired, changed := models.Repair(q, defaults.SectionName)
		b.set(repaired)
		b.log.Info().Str("quote", q.Number).Bool("repaired", changed).Msg("working quote restored")
		if changed {
			b.persist()
		}
	} else {
		b.set(b.freshQuote(models.TradeElectrician))
		b.persist()
	}
	return b
}

func (b *Builder) set(q models.Quote) {
	b.quote = q
	b.calc = CalcQuote(q)
}

// persist schedules the working quote and its history entry.
func (b *Builder) persist() {
	q := b.quote.Clone()
	b.writes.Schedule(writeCurrentQuote, func() { b.store.SaveCurrentQuote(q) })
	b.writes.Schedule(writeHistoryEntry+q.ID, func() { b.store.AppendOrReplaceInHistory(q) })
}

func (b *Builder) freshQuote(trade models.Trade) models.Quote {
	d := b.defaults
	if company, ok := b.store.LoadCompanyProfile(); ok {
		d.DefaultCompany = company
	}
	return models.NewQuote(trade, b.store.NextQuoteNumber(), b.now(), d)
}

func (b *Builder) snapshot() (models.Quote, QuoteCalculations) {
	return b.quote.Clone(), b.calc
}

// Current returns a copy of the working quote and its calculations.
func (b *Builder) Current() (models.Quote, QuoteCalculations) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

// Catalog returns the product catalog, custom products included.
func (b *Builder) Catalog() *Catalog { return b.catalog }

// apply runs a mutator on the working quote. A rejected change leaves the
// quote as it was and is not persisted.
func (b *Builder) apply(mutate func(models.Quote) (models.Quote, error)) (models.Quote, QuoteCalculations, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := mutate(b.quote)
	if err != nil {
		q, c := b.snapshot()
		return q, c, err
	}
	b.set(next)
	b.persist()
	q, c := b.snapshot()
	return q, c, nil
}

// NewQuote archives the working quote and starts an empty one for trade.
func (b *Builder) NewQuote(trade models.Trade) (models.Quote, QuoteCalculations, error) {
	if !trade.Valid() {
		return models.Quote{}, QuoteCalculations{}, fmt.Errorf("unknown trade %q", trade)
	}
	return b.apply(func(models.Quote) (models.Quote, error) {
		return b.freshQuote(trade), nil
	})
}

// AddProduct adds quantity of the catalog product productID to sectionID.
func (b *Builder) AddProduct(productID string, quantity decimal.Decimal, sectionID string) (models.Quote, QuoteCalculations, error) {
	return b.apply(func(q models.Quote) (models.Quote, error) {
		p, ok := b.catalog.Find(q.Trade, productID)
		if !ok {
			return q, ErrUnknownProduct
		}
		return models.AddProduct(q, p, quantity, sectionID)
	})
}

// AddFreeItem adds an ad hoc line.
func (b *Builder) AddFreeItem(in FreeItemInput) (models.Quote, QuoteCalculations, error) {
	if err := in.Validate(); err != nil {
		q, c := b.Current()
		return q, c, err
	}
	return b.apply(func(q models.Quote) (models.Quote, error) {
		return models.AddFreeItem(q, in.SectionID, in.Name, in.UnitPrice, in.Unit, in.Quantity)
	})
}

func (b *Builder) UpdateItem(itemID string, u models.ItemUpdate) (models.Quote, QuoteCalculations, error) {
	if err := ValidateItemUpdate(u); err != nil {
		q, c := b.Current()
		return q, c, err
	}
	return b.apply(func(q models.Quote) (models.Quote, error) {
		return models.UpdateItem(q, itemID, u)
	})
}

func (b *Builder) RemoveItem(itemID string) (models.Quote, QuoteCalculations, error) {
	return b.apply(func(q models.Quote) (models.Quote, error) {
		return models.RemoveItem(q, itemID)
	})
}

// AddSection appends a section after the existing ones.
func (b *Builder) AddSection(name string) (models.Quote, models.QuoteSection, error) {
	var section models.QuoteSection
	q, _, err := b.apply(func(q models.Quote) (models.Quote, error) {
		next, s, err := models.AddSection(q, name, q.NextSectionOrder())
		section = s
		return next, err
	})
	return q, section, err
}

func (b *Builder) RenameSection(sectionID, name string) (models.Quote, QuoteCalculations, error) {
	return b.apply(func(q models.Quote) (models.Quote, error) {
		return models.RenameSection(q, sectionID, name)
	})
}

func (b *Builder) DeleteSection(sectionID string) (models.Quote, QuoteCalculations, error) {
	return b.apply(func(q models.Quote) (models.Quote, error) {
		return models.DeleteSection(q, sectionID)
	})
}

// UpdateQuote merges u into the working quote.
func (b *Builder) UpdateQuote(u models.QuoteUpdate) (models.Quote, QuoteCalculations, error) {
	if err := ValidateQuoteUpdate(u); err != nil {
		q, c := b.Current()
		return q, c, err
	}
	return b.apply(func(q models.Quote) (models.Quote, error) {
		return models.UpdateQuote(q, u), nil
	})
}

// History lists stored quotes, most recent first. Pending writes are flushed
// first so the list includes the latest edits.
func (b *Builder) History() []HistoryEntry {
	b.writes.Flush()
	quotes := b.store.ListHistory()
	out := make([]HistoryEntry, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, HistoryEntry{Quote: q, TotalTTC: CalcQuote(q).TotalTTC})
	}
	return out
}

// OpenFromHistory makes the stored quote id the working quote.
func (b *Builder) OpenFromHistory(id string) (models.Quote, QuoteCalculations, error) {
	b.writes.Flush()
	stored, ok := b.store.FindInHistory(id)
	if !ok {
		q, c := b.Current()
		return q, c, ErrNotInHistory
	}
	return b.apply(func(models.Quote) (models.Quote, error) {
		return models.Normalize(stored, b.defaults.SectionName), nil
	})
}

// DuplicateFromHistory stores a copy of quote id under a new number. The
// working quote is left alone.
func (b *Builder) DuplicateFromHistory(id string) (models.Quote, error) {
	b.writes.Flush()
	stored, ok := b.store.FindInHistory(id)
	if !ok {
		return models.Quote{}, ErrNotInHistory
	}
	dup := models.Duplicate(stored, b.store.NextQuoteNumber(), b.now(), b.defaults.ValidityDays)
	b.store.AppendOrReplaceInHistory(dup)
	return dup, nil
}

// DeleteFromHistory removes quote id from the history. The working quote is
// kept even when it is the one deleted; its next change stores it again.
func (b *Builder) DeleteFromHistory(id string) {
	b.writes.Flush()
	b.store.DeleteFromHistory(id)
}

// CompanyProfile returns the saved company profile.
func (b *Builder) CompanyProfile() (models.CompanyInfo, bool) {
	return b.store.LoadCompanyProfile()
}

// SaveCompanyProfile stores info for future quotes and applies it to the
// working quote.
func (b *Builder) SaveCompanyProfile(info models.CompanyInfo) (models.Quote, QuoteCalculations, error) {
	if err := ValidateCompany(info); err != nil {
		q, c := b.Current()
		return q, c, err
	}
	b.store.SaveCompanyProfile(info)
	return b.UpdateQuote(models.QuoteUpdate{CompanyInfo: &info})
}

// CustomProducts returns the custom products of every trade.
func (b *Builder) CustomProducts() []models.Product {
	return b.store.CustomProducts()
}

// SaveCustomProduct validates and stores p. A product without trade gets the
// working quote's trade.
func (b *Builder) SaveCustomProduct(p models.Product) (models.Product, error) {
	if p.Trade == "" {
		q, _ := b.Current()
		p.Trade = q.Trade
	}
	if p.Category == "" {
		p.Category = DefaultCustomCategory
	}
	if err := ValidateProduct(p); err != nil {
		return models.Product{}, err
	}
	return b.store.SaveCustomProduct(p), nil
}

func (b *Builder) DeleteCustomProduct(id string) {
	b.store.DeleteCustomProduct(id)
}

// ImportProducts stores every valid row of an uploaded product sheet as a
// custom product of trade.
func (b *Builder) ImportProducts(r io.Reader, trade models.Trade) (*ProductImportResult, error) {
	result, err := ParseProductSheet(r, trade)
	if err != nil {
		return nil, err
	}
	for i, p := range result.Products {
		result.Products[i] = b.store.SaveCustomProduct(p)
	}
	b.log.Info().Int("imported", result.ValidRows).Int("rejected", result.ErrorRows).Msg("custom products imported")
	return result, nil
}
