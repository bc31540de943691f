package storage

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easydevis/testhelpers"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()

	_, err := kv.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	value := []byte(`{"a":1}`)
	require.NoError(t, kv.Set("k", value))
	value[0] = 'X'

	got, err := kv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got), "stored bytes are copied")

	require.NoError(t, kv.Delete("k"))
	require.NoError(t, kv.Delete("k"))
	_, err = kv.Get("k")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRecordKV(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	kv := NewRecordKV(app)

	_, err := kv.Get(KeyCompanyProfile)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, kv.Set(KeyCompanyProfile, []byte(`{"name":"A"}`)))
	require.NoError(t, kv.Set(KeyCompanyProfile, []byte(`{"name":"B"}`)))

	got, err := kv.Get(KeyCompanyProfile)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"B"}`, string(got))

	records, err := app.FindAllRecords("app_state")
	require.NoError(t, err)
	assert.Len(t, records, 1, "overwrite updates the existing record")

	require.NoError(t, kv.Delete(KeyCompanyProfile))
	require.NoError(t, kv.Delete(KeyCompanyProfile), "deleting a missing key is not an error")
	_, err = kv.Get(KeyCompanyProfile)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRepository_OverRecordKV(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	repo := NewRepository(NewRecordKV(app)).WithClock(fixedClock)
	q := testhelpers.SampleQuote(t)

	repo.SaveCurrentQuote(q)
	repo.AppendOrReplaceInHistory(q)

	got, ok := repo.LoadCurrentQuote()
	require.True(t, ok)
	assert.Equal(t, mustJSON(t, q), mustJSON(t, got))
	assert.Len(t, repo.ListHistory(), 1)
	assert.Equal(t, "DEV-202503-001", repo.NextQuoteNumber())
	assert.Equal(t, "DEV-202503-002", repo.NextQuoteNumber())
}
