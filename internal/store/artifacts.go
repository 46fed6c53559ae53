package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/shoot/pkg/types"
)

func (s *SQLStore) CreateApp(app *types.GeneratedApp) (*types.GeneratedApp, error) {
	if app == nil {
		return nil, errors.New("app is nil")
	}
	if err := s.specExists(app.SpecID); err != nil {
		return nil, err
	}
	out := *app
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	if out.Code == nil {
		out.Code = types.CodeMap{}
	}
	code, err := json.Marshal(out.Code)
	if err != nil {
		return nil, err
	}
	_, err = s.exec(`INSERT INTO apps(id,spec_id,name,description,framework,code,metadata,created_at) VALUES(?,?,?,?,?,?,?,?)`,
		out.ID, out.SpecID, out.Name, out.Description, out.Framework, string(code), string(out.Metadata), out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert app: %w", err)
	}
	return &out, nil
}

func (s *SQLStore) GetApp(id string) (*types.GeneratedApp, error) {
	var app types.GeneratedApp
	var code, metadata string
	err := s.queryRow(`SELECT id,spec_id,name,description,framework,code,metadata,created_at FROM apps WHERE id=?`, id).
		Scan(&app.ID, &app.SpecID, &app.Name, &app.Description, &app.Framework, &code, &metadata, &app.CreatedAt)
	if err != nil {
		return nil, notFound(err, "app", id)
	}
	if err := decodeCode(code, &app.Code); err != nil {
		return nil, fmt.Errorf("decode app %s code: %w", id, err)
	}
	app.Metadata = rawOrNil(metadata)
	return &app, nil
}

// ListApps returns apps newest first; an empty specID lists every app.
func (s *SQLStore) ListApps(specID string) ([]types.GeneratedApp, error) {
	query := `SELECT id,spec_id,name,description,framework,code,metadata,created_at FROM apps`
	var args []any
	if specID != "" {
		query += ` WHERE spec_id=?`
		args = append(args, specID)
	}
	query += ` ORDER BY created_at DESC`
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]types.GeneratedApp, 0)
	for rows.Next() {
		var app types.GeneratedApp
		var code, metadata string
		if err := rows.Scan(&app.ID, &app.SpecID, &app.Name, &app.Description, &app.Framework, &code, &metadata, &app.CreatedAt); err != nil {
			return nil, err
		}
		if err := decodeCode(code, &app.Code); err != nil {
			return nil, fmt.Errorf("decode app %s code: %w", app.ID, err)
		}
		app.Metadata = rawOrNil(metadata)
		out = append(out, app)
	}
	return out, rows.Err()
}

// UpdateAppCode replaces the stored code map. Last write wins.
func (s *SQLStore) UpdateAppCode(id string, code types.CodeMap) error {
	if code == nil {
		code = types.CodeMap{}
	}
	raw, err := json.Marshal(code)
	if err != nil {
		return err
	}
	res, err := s.exec(`UPDATE apps SET code=? WHERE id=?`, string(raw), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("app %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) DeleteApp(id string) error {
	return s.deleteByID("apps", "app", id)
}

func (s *SQLStore) CreateAPIKey(key *types.APIKey) (*types.APIKey, error) {
	if key == nil {
		return nil, errors.New("key is nil")
	}
	if err := s.specExists(key.SpecID); err != nil {
		return nil, err
	}
	out := *key
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	_, err := s.exec(`INSERT INTO api_keys(id,spec_id,key_name,key_value,description,created_at) VALUES(?,?,?,?,?,?)`,
		out.ID, out.SpecID, out.KeyName, out.KeyValue, out.Description, out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert api key: %w", err)
	}
	out.KeyValue = MaskKey(out.KeyValue)
	return &out, nil
}

func (s *SQLStore) ListAPIKeys(specID string) ([]types.APIKey, error) {
	rows, err := s.query(`SELECT id,spec_id,key_name,key_value,description,created_at FROM api_keys WHERE spec_id=? ORDER BY created_at DESC`, specID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]types.APIKey, 0)
	for rows.Next() {
		var k types.APIKey
		if err := rows.Scan(&k.ID, &k.SpecID, &k.KeyName, &k.KeyValue, &k.Description, &k.CreatedAt); err != nil {
			return nil, err
		}
		k.KeyValue = MaskKey(k.KeyValue)
		out = append(out, k)
	}
	return out, rows.Err()
}

// APIKeyValue returns the key with its plaintext value.
func (s *SQLStore) APIKeyValue(id string) (*types.APIKey, error) {
	var k types.APIKey
	err := s.queryRow(`SELECT id,spec_id,key_name,key_value,description,created_at FROM api_keys WHERE id=?`, id).
		Scan(&k.ID, &k.SpecID, &k.KeyName, &k.KeyValue, &k.Description, &k.CreatedAt)
	if err != nil {
		return nil, notFound(err, "api key", id)
	}
	return &k, nil
}

func (s *SQLStore) DeleteAPIKey(id string) error {
	return s.deleteByID("api_keys", "api key", id)
}

func (s *SQLStore) deleteByID(table, what, id string) error {
	res, err := s.exec(`DELETE FROM `+table+` WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

func decodeCode(raw string, dst *types.CodeMap) error {
	m := types.CodeMap{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return err
		}
	}
	*dst = m
	return nil
}
