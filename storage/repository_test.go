package storage

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easydevis/models"
	"easydevis/testhelpers"
)

var errUnavailable = errors.New("quota exceeded")

// brokenKV fails every call.
type brokenKV struct{}

func (brokenKV) Get(string) ([]byte, error) { return nil, errUnavailable }
func (brokenKV) Set(string, []byte) error   { return errUnavailable }
func (brokenKV) Delete(string) error        { return errUnavailable }

// readOnlyKV serves reads from a MemoryKV and rejects writes.
type readOnlyKV struct{ *MemoryKV }

func (readOnlyKV) Set(string, []byte) error { return errUnavailable }

func fixedClock() time.Time { return time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC) }

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestRepository_CurrentQuoteRoundTrip(t *testing.T) {
	repo := NewRepository(NewMemoryKV())
	q := testhelpers.SampleQuote(t)

	_, ok := repo.LoadCurrentQuote()
	assert.False(t, ok, "nothing saved yet")

	repo.SaveCurrentQuote(q)
	got, ok := repo.LoadCurrentQuote()
	require.True(t, ok)

	assert.Equal(t, mustJSON(t, q), mustJSON(t, got))
	require.Len(t, got.Items, 3)
	assert.True(t, got.Items[2].Total.Equal(q.Items[2].Total))
	assert.False(t, got.Items[2].Included)
	assert.Equal(t, q.Notes, got.Notes)

	repo.ClearCurrentQuote()
	_, ok = repo.LoadCurrentQuote()
	assert.False(t, ok)
}

func TestRepository_HistoryUpsert(t *testing.T) {
	repo := NewRepository(NewMemoryKV())
	first := testhelpers.SampleQuote(t)
	second := first
	second.ID = "quote-2"
	second.Number = "DEV-202503-002"

	repo.AppendOrReplaceInHistory(first)
	repo.AppendOrReplaceInHistory(second)

	history := repo.ListHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "quote-2", history[0].ID, "most recent first")

	first.Title = "Rénovation cuisine"
	repo.AppendOrReplaceInHistory(first)

	history = repo.ListHistory()
	require.Len(t, history, 2, "upsert must not duplicate")
	assert.Equal(t, "quote-2", history[0].ID, "replacing keeps the position")
	assert.Equal(t, "Rénovation cuisine", history[1].Title)

	found, ok := repo.FindInHistory(first.ID)
	require.True(t, ok)
	assert.Equal(t, "Rénovation cuisine", found.Title)

	repo.DeleteFromHistory("quote-2")
	history = repo.ListHistory()
	require.Len(t, history, 1)
	assert.Equal(t, first.ID, history[0].ID)

	repo.DeleteFromHistory("missing")
	assert.Len(t, repo.ListHistory(), 1)
}

func TestRepository_CompanyProfile(t *testing.T) {
	repo := NewRepository(NewMemoryKV())

	_, ok := repo.LoadCompanyProfile()
	assert.False(t, ok)

	info := testhelpers.SampleQuote(t).CompanyInfo
	repo.SaveCompanyProfile(info)

	got, ok := repo.LoadCompanyProfile()
	require.True(t, ok)
	assert.Equal(t, info, got)
}

func TestRepository_CustomProducts(t *testing.T) {
	repo := NewRepository(NewMemoryKV())

	saved := repo.SaveCustomProduct(models.Product{
		Name: "Borne de recharge", Category: "Mobilité", UnitPrice: dec("950"),
		Unit: models.UnitPiece, Trade: models.TradeElectrician,
	})
	assert.True(t, saved.IsCustom(), "custom prefix assigned, got %q", saved.ID)

	saved.UnitPrice = dec("990")
	repo.SaveCustomProduct(saved)

	products := repo.CustomProducts()
	require.Len(t, products, 1)
	assert.True(t, products[0].UnitPrice.Equal(dec("990")))

	repo.DeleteCustomProduct(saved.ID)
	assert.Empty(t, repo.CustomProducts())
}

func TestRepository_NextQuoteNumber(t *testing.T) {
	kv := NewMemoryKV()
	repo := NewRepository(kv).WithClock(fixedClock)

	assert.Equal(t, "DEV-202503-001", repo.NextQuoteNumber())
	assert.Equal(t, "DEV-202503-002", repo.NextQuoteNumber())

	// persisted across repository instances
	other := NewRepository(kv).WithClock(func() time.Time { return time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC) })
	assert.Equal(t, "DEV-202504-003", other.NextQuoteNumber())
}

func TestRepository_NextQuoteNumber_CorruptCounter(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(KeyQuoteCounter, []byte("not-a-number")))
	repo := NewRepository(kv).WithClock(fixedClock)

	assert.Equal(t, "DEV-202503-001", repo.NextQuoteNumber())
}

func TestRepository_NextQuoteNumber_StorageFailure(t *testing.T) {
	repo := NewRepository(brokenKV{}).WithClock(fixedClock)
	assert.Equal(t, "DEV-1741599000000", repo.NextQuoteNumber())

	ro := NewRepository(readOnlyKV{NewMemoryKV()}).WithClock(fixedClock)
	assert.Equal(t, "DEV-1741599000000", ro.NextQuoteNumber())
}

func TestRepository_BestEffortOnFailure(t *testing.T) {
	repo := NewRepository(brokenKV{})
	q := testhelpers.SampleQuote(t)

	assert.NotPanics(t, func() {
		repo.SaveCurrentQuote(q)
		repo.ClearCurrentQuote()
		repo.AppendOrReplaceInHistory(q)
		repo.DeleteFromHistory(q.ID)
		repo.SaveCompanyProfile(q.CompanyInfo)
		repo.SaveCustomProduct(models.Product{Name: "x"})
		repo.DeleteCustomProduct("custom-x")
	})

	_, ok := repo.LoadCurrentQuote()
	assert.False(t, ok)
	assert.Empty(t, repo.ListHistory())
	assert.Empty(t, repo.CustomProducts())
	_, ok = repo.LoadCompanyProfile()
	assert.False(t, ok)
}

func TestRepository_CorruptValuesReadAsAbsent(t *testing.T) {
	kv := NewMemoryKV()
	for _, key := range []string{KeyCurrentQuote, KeyQuoteHistory, KeyCompanyProfile, KeyCustomProducts} {
		require.NoError(t, kv.Set(key, []byte("{broken")))
	}
	repo := NewRepository(kv)

	_, ok := repo.LoadCurrentQuote()
	assert.False(t, ok)
	assert.Empty(t, repo.ListHistory())
	assert.Empty(t, repo.CustomProducts())
	_, ok = repo.LoadCompanyProfile()
	assert.False(t, ok)

	// a write repairs the key
	repo.AppendOrReplaceInHistory(testhelpers.SampleQuote(t))
	assert.Len(t, repo.ListHistory(), 1)
}

func TestFormatQuoteNumber(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		counter int
		want    string
	}{
		{"first", time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC), 1, "DEV-202501-001"},
		{"padded", time.Date(2025, time.November, 30, 0, 0, 0, 0, time.UTC), 42, "DEV-202511-042"},
		{"wider than padding", time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), 1234, "DEV-202602-1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatQuoteNumber(tt.now, tt.counter); got != tt.want {
				t.Errorf("FormatQuoteNumber() = %q, want %q", got, tt.want)
			}
		})
	}
}
