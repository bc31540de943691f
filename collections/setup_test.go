package collections_test

import (
	"strings"
	"testing"

	"easydevis/collections"
	"easydevis/testhelpers"

	"github.com/pocketbase/pocketbase/core"
)

func TestSetup_AppStateExists(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, err := app.FindCollectionByNameOrId(collections.AppState)
	if err != nil {
		t.Fatalf("collection %q not found after Setup(): %v", collections.AppState, err)
	}
	if col.Name != collections.AppState {
		t.Errorf("expected collection name %q, got %q", collections.AppState, col.Name)
	}
}

func TestSetup_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t) // Setup() already called once via NewTestApp

	col, _ := app.FindCollectionByNameOrId(collections.AppState)
	firstID := col.Id

	collections.Setup(app)

	again, err := app.FindCollectionByNameOrId(collections.AppState)
	if err != nil {
		t.Fatalf("collection missing after second Setup(): %v", err)
	}
	if again.Id != firstID {
		t.Errorf("collection id changed after second Setup(): %s -> %s", firstID, again.Id)
	}
}

func TestSetup_AppStateFields(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, _ := app.FindCollectionByNameOrId(collections.AppState)

	for _, f := range []string{"key", "value", "created", "updated"} {
		if col.Fields.GetByName(f) == nil {
			t.Errorf("app_state: missing field %q", f)
		}
	}

	keyField, ok := col.Fields.GetByName("key").(*core.TextField)
	if !ok {
		t.Fatal("app_state.key is not a TextField")
	}
	if !keyField.Required {
		t.Error("app_state.key: expected Required=true")
	}

	valueField, ok := col.Fields.GetByName("value").(*core.TextField)
	if !ok {
		t.Fatal("app_state.value is not a TextField")
	}
	if valueField.Max < 1<<20 {
		t.Errorf("app_state.value: Max %d too small for quote history", valueField.Max)
	}

	idx := col.GetIndex("idx_app_state_key")
	if !strings.Contains(strings.ToUpper(idx), "UNIQUE") {
		t.Errorf("expected a unique index on key, got %q", idx)
	}
}

func TestSetup_KeyIsUnique(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	col, _ := app.FindCollectionByNameOrId(collections.AppState)

	first := core.NewRecord(col)
	first.Set("key", "current_quote")
	if err := app.Save(first); err != nil {
		t.Fatalf("save first record: %v", err)
	}

	dup := core.NewRecord(col)
	dup.Set("key", "current_quote")
	if err := app.Save(dup); err == nil {
		t.Error("expected duplicate key to be rejected")
	}
}
