package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/shoot/pkg/types"
)

// CreateSpec inserts a spec and its endpoints in one transaction and
// returns the stored spec with ids assigned.
func (s *SQLStore) CreateSpec(spec *types.APISpec, endpoints []types.Endpoint) (*types.APISpec, error) {
	if spec == nil {
		return nil, errors.New("spec is nil")
	}
	out := *spec
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	if out.SpecType == "" {
		out.SpecType = types.SpecTypeOther
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(s.q(`INSERT INTO specs(id,name,description,version,spec_type,content,override_base_url,created_at) VALUES(?,?,?,?,?,?,?,?)`),
		out.ID, out.Name, out.Description, out.Version, out.SpecType, string(out.Content), out.OverrideBaseURL, out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert spec: %w", err)
	}
	stmt, err := tx.Prepare(s.q(`INSERT INTO endpoints(id,spec_id,seq,path,method,summary,description,parameters,request_body,responses) VALUES(?,?,?,?,?,?,?,?,?,?)`))
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	for i, ep := range endpoints {
		id := ep.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.Exec(id, out.ID, i, ep.Path, ep.Method, ep.Summary, ep.Description,
			string(ep.Parameters), string(ep.RequestBody), string(ep.Responses)); err != nil {
			return nil, fmt.Errorf("insert endpoint %s %s: %w", ep.Method, ep.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SQLStore) GetSpec(id string) (*types.APISpec, error) {
	var spec types.APISpec
	var content string
	err := s.queryRow(`SELECT id,name,description,version,spec_type,content,override_base_url,created_at FROM specs WHERE id=?`, id).
		Scan(&spec.ID, &spec.Name, &spec.Description, &spec.Version, &spec.SpecType, &content, &spec.OverrideBaseURL, &spec.CreatedAt)
	if err != nil {
		return nil, notFound(err, "spec", id)
	}
	spec.Content = rawOrNil(content)
	return &spec, nil
}

// ListSpecs returns summaries, newest first.
func (s *SQLStore) ListSpecs() ([]types.SpecSummary, error) {
	rows, err := s.query(`SELECT s.id,s.name,s.description,s.version,s.spec_type,s.created_at,COUNT(e.id)
		FROM specs s LEFT JOIN endpoints e ON e.spec_id = s.id
		GROUP BY s.id,s.name,s.description,s.version,s.spec_type,s.created_at
		ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]types.SpecSummary, 0)
	for rows.Next() {
		var sum types.SpecSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Description, &sum.Version, &sum.SpecType, &sum.CreatedAt, &sum.EndpointCount); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// ListEndpoints returns a spec's endpoints in ingestion order.
func (s *SQLStore) ListEndpoints(specID string) ([]types.Endpoint, error) {
	rows, err := s.query(`SELECT id,spec_id,path,method,summary,description,parameters,request_body,responses FROM endpoints WHERE spec_id=? ORDER BY seq ASC`, specID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]types.Endpoint, 0)
	for rows.Next() {
		var ep types.Endpoint
		var params, body, responses string
		if err := rows.Scan(&ep.ID, &ep.SpecID, &ep.Path, &ep.Method, &ep.Summary, &ep.Description, &params, &body, &responses); err != nil {
			return nil, err
		}
		ep.Parameters = rawOrNil(params)
		ep.RequestBody = rawOrNil(body)
		ep.Responses = rawOrNil(responses)
		out = append(out, ep)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateSpecSettings(id, overrideBaseURL string) error {
	res, err := s.exec(`UPDATE specs SET override_base_url=? WHERE id=?`, overrideBaseURL, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("spec %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteSpec removes the spec and everything it owns. The deletes run one
// after another outside a transaction; a failure part way leaves the
// records of the remaining tables in place and is returned as is.
func (s *SQLStore) DeleteSpec(id string) error {
	if err := s.specExists(id); err != nil {
		return err
	}
	for _, table := range []string{"endpoints", "apps", "api_keys", "insights", "workflows", "remixes"} {
		if _, err := s.exec(`DELETE FROM `+table+` WHERE spec_id=?`, id); err != nil {
			return fmt.Errorf("delete %s of spec %s: %w", table, id, err)
		}
	}
	if _, err := s.exec(`DELETE FROM specs WHERE id=?`, id); err != nil {
		return fmt.Errorf("delete spec %s: %w", id, err)
	}
	return nil
}
