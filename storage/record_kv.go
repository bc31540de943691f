package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"easydevis/collections"
)

// RecordKV stores each key as one record of the app_state collection.
type RecordKV struct {
	app *pocketbase.PocketBase
}

func NewRecordKV(app *pocketbase.PocketBase) *RecordKV {
	return &RecordKV{app: app}
}

func (s *RecordKV) find(key string) (*core.Record, error) {
	rec, err := s.app.FindFirstRecordByData(collections.AppState, "key", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %q: %w", key, err)
	}
	return rec, nil
}

func (s *RecordKV) Get(key string) ([]byte, error) {
	rec, err := s.find(key)
	if err != nil {
		return nil, err
	}
	return []byte(rec.GetString("value")), nil
}

func (s *RecordKV) Set(key string, value []byte) error {
	rec, err := s.find(key)
	if errors.Is(err, ErrNotFound) {
		col, colErr := s.app.FindCollectionByNameOrId(collections.AppState)
		if colErr != nil {
			return fmt.Errorf("collection %s: %w", collections.AppState, colErr)
		}
		rec = core.NewRecord(col)
		rec.Set("key", key)
	} else if err != nil {
		return err
	}

	rec.Set("value", string(value))
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

func (s *RecordKV) Delete(key string) error {
	rec, err := s.find(key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.app.Delete(rec); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
