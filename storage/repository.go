package storage

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"easydevis/models"
)

// Logical keys of the persisted state.
const (
	KeyCurrentQuote   = "current_quote"
	KeyQuoteHistory   = "quote_history"
	KeyQuoteCounter   = "quote_number_counter"
	KeyCompanyProfile = "company_profile"
	KeyCustomProducts = "custom_products"
)

// Repository maps the builder's persisted state onto a KV. Read failures
// come back as absent values and write failures are logged, so no method
// returns an error.
type Repository struct {
	kv  KV
	now func() time.Time
	log zerolog.Logger

	// mu serializes the read-modify-write cycles on history, counter and
	// custom products.
	mu sync.Mutex
}

func NewRepository(kv KV) *Repository {
	return &Repository{
		kv:  kv,
		now: time.Now,
		log: log.With().Str("component", "storage").Logger(),
	}
}

// WithClock replaces the clock used for quote numbers.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// LoadCurrentQuote returns the working quote, if one was saved and decodes.
func (r *Repository) LoadCurrentQuote() (models.Quote, bool) {
	var q models.Quote
	if !r.read(KeyCurrentQuote, &q) {
		return models.Quote{}, false
	}
	return q, true
}

func (r *Repository) SaveCurrentQuote(q models.Quote) {
	r.write(KeyCurrentQuote, q)
}

func (r *Repository) ClearCurrentQuote() {
	if err := r.kv.Delete(KeyCurrentQuote); err != nil {
		r.log.Warn().Err(err).Str("key", KeyCurrentQuote).Msg("clear failed")
	}
}

// AppendOrReplaceInHistory upserts q by id. A new quote goes to the front.
func (r *Repository) AppendOrReplaceInHistory(q models.Quote) {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := r.history()
	replaced := false
	for i := range history {
		if history[i].ID == q.ID {
			history[i] = q
			replaced = true
			break
		}
	}
	if !replaced {
		history = append([]models.Quote{q}, history...)
	}
	r.write(KeyQuoteHistory, history)
}

// ListHistory returns the saved quotes, most recent first.
func (r *Repository) ListHistory() []models.Quote {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history()
}

// FindInHistory returns the history entry with id.
func (r *Repository) FindInHistory(id string) (models.Quote, bool) {
	for _, q := range r.ListHistory() {
		if q.ID == id {
			return q, true
		}
	}
	return models.Quote{}, false
}

func (r *Repository) DeleteFromHistory(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	history := r.history()
	kept := history[:0]
	for _, q := range history {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	r.write(KeyQuoteHistory, kept)
}

func (r *Repository) history() []models.Quote {
	var history []models.Quote
	if !r.read(KeyQuoteHistory, &history) || history == nil {
		return []models.Quote{}
	}
	return history
}

func (r *Repository) LoadCompanyProfile() (models.CompanyInfo, bool) {
	var info models.CompanyInfo
	if !r.read(KeyCompanyProfile, &info) {
		return models.CompanyInfo{}, false
	}
	return info, true
}

func (r *Repository) SaveCompanyProfile(info models.CompanyInfo) {
	r.write(KeyCompanyProfile, info)
}

// CustomProducts returns every user-defined product, all trades mixed.
func (r *Repository) CustomProducts() []models.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.customProducts()
}

func (r *Repository) customProducts() []models.Product {
	var products []models.Product
	if !r.read(KeyCustomProducts, &products) || products == nil {
		return []models.Product{}
	}
	return products
}

// SaveCustomProduct upserts p by id. A product without the custom prefix
// gets a fresh custom id. The stored product is returned.
func (r *Repository) SaveCustomProduct(p models.Product) models.Product {
	if !strings.HasPrefix(p.ID, models.CustomPrefix) {
		p.ID = models.CustomPrefix + uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	products := r.customProducts()
	replaced := false
	for i := range products {
		if products[i].ID == p.ID {
			products[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		products = append(products, p)
	}
	r.write(KeyCustomProducts, products)
	return p
}

func (r *Repository) DeleteCustomProduct(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	products := r.customProducts()
	kept := products[:0]
	for _, p := range products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	r.write(KeyCustomProducts, kept)
}

// read decodes key into dst and reports whether a usable value was found.
func (r *Repository) read(key string, dst any) bool {
	raw, err := r.kv.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("read failed")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("corrupt value ignored")
		return false
	}
	return true
}

func (r *Repository) write(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("encode failed")
		return
	}
	if err := r.kv.Set(key, raw); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("write failed")
	}
}
