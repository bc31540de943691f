package collections

import (
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog/log"
)

// AppState is the key/value collection holding the builder state.
const AppState = "app_state"

// maxValueLength bounds a stored document (history with logos inlined as
// data URLs can get large).
const maxValueLength = 10 << 20

// Setup programmatically creates/ensures the app_state collection exists.
func Setup(app *pocketbase.PocketBase) {
	ensureCollection(app, AppState, func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "key", Required: true, Max: 200})
		c.Fields.Add(&core.TextField{Name: "value", Max: maxValueLength})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_app_state_key", true, "`key`", "")
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Debug().Str("collection", name).Msg("collection already exists")
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatal().Err(err).Str("collection", name).Msg("failed to create collection")
	}

	log.Info().Str("collection", name).Str("id", collection.Id).Msg("created collection")
	return collection
}
