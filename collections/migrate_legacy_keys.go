package collections

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog/log"
)

// legacyKeys maps the key names written by the first browser-only release
// to the logical keys used now.
var legacyKeys = map[string]string{
	"easydevis_quotes":          "quote_history",
	"easydevis_counter":         "quote_number_counter",
	"easydevis_custom_products": "custom_products",
}

// MigrateLegacyKeys renames app_state records still stored under a legacy
// key. A record is left alone when its new key already exists, so the
// migration is safe to run on every startup.
func MigrateLegacyKeys(app *pocketbase.PocketBase) error {
	col, err := app.FindCollectionByNameOrId(AppState)
	if err != nil {
		return fmt.Errorf("migrate_keys: could not find %s collection: %w", AppState, err)
	}

	migrated := 0
	for oldKey, newKey := range legacyKeys {
		legacy, err := app.FindFirstRecordByData(col, "key", oldKey)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("migrate_keys: lookup %q: %w", oldKey, err)
		}

		if _, err := app.FindFirstRecordByData(col, "key", newKey); err == nil {
			log.Warn().Str("legacy", oldKey).Str("key", newKey).Msg("both keys present, keeping the new one")
			continue
		}

		rec := core.NewRecord(col)
		rec.Set("key", newKey)
		rec.Set("value", legacy.GetString("value"))
		if err := app.Save(rec); err != nil {
			return fmt.Errorf("migrate_keys: save %q: %w", newKey, err)
		}
		if err := app.Delete(legacy); err != nil {
			return fmt.Errorf("migrate_keys: delete %q: %w", oldKey, err)
		}
		migrated++
	}

	if migrated > 0 {
		log.Info().Int("count", migrated).Msg("migrated legacy app_state keys")
	}
	return nil
}
