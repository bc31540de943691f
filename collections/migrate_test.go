package collections_test

import (
	"testing"

	"easydevis/collections"
	"easydevis/testhelpers"

	"github.com/pocketbase/pocketbase/core"
)

func putState(t *testing.T, app core.App, key, value string) {
	t.Helper()
	col, err := app.FindCollectionByNameOrId(collections.AppState)
	if err != nil {
		t.Fatalf("find collection: %v", err)
	}
	rec := core.NewRecord(col)
	rec.Set("key", key)
	rec.Set("value", value)
	if err := app.Save(rec); err != nil {
		t.Fatalf("save %q: %v", key, err)
	}
}

func stateValue(t *testing.T, app core.App, key string) (string, bool) {
	t.Helper()
	rec, err := app.FindFirstRecordByData(collections.AppState, "key", key)
	if err != nil {
		return "", false
	}
	return rec.GetString("value"), true
}

func TestMigrateLegacyKeys_RenamesRecords(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	putState(t, app, "easydevis_counter", "7")
	putState(t, app, "easydevis_quotes", "[]")

	if err := collections.MigrateLegacyKeys(app); err != nil {
		t.Fatalf("MigrateLegacyKeys() error: %v", err)
	}

	if v, ok := stateValue(t, app, "quote_number_counter"); !ok || v != "7" {
		t.Errorf("quote_number_counter = %q, %v; want \"7\", true", v, ok)
	}
	if v, ok := stateValue(t, app, "quote_history"); !ok || v != "[]" {
		t.Errorf("quote_history = %q, %v; want \"[]\", true", v, ok)
	}
	if _, ok := stateValue(t, app, "easydevis_counter"); ok {
		t.Error("legacy counter key should be gone")
	}
}

func TestMigrateLegacyKeys_KeepsNewerValue(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	putState(t, app, "easydevis_counter", "3")
	putState(t, app, "quote_number_counter", "12")

	if err := collections.MigrateLegacyKeys(app); err != nil {
		t.Fatalf("MigrateLegacyKeys() error: %v", err)
	}

	if v, _ := stateValue(t, app, "quote_number_counter"); v != "12" {
		t.Errorf("quote_number_counter = %q, want 12", v)
	}
}

func TestMigrateLegacyKeys_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	putState(t, app, "easydevis_custom_products", "[]")

	for i := 0; i < 2; i++ {
		if err := collections.MigrateLegacyKeys(app); err != nil {
			t.Fatalf("run %d error: %v", i+1, err)
		}
	}

	col, _ := app.FindCollectionByNameOrId(collections.AppState)
	all, err := app.FindAllRecords(col)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 app_state record, got %d", len(all))
	}
}
