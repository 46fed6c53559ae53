package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/shoot/pkg/types"
)

// SaveInsight replaces any earlier insight of the spec.
func (s *SQLStore) SaveInsight(specID string, insights json.RawMessage) (*types.Insight, error) {
	if err := s.specExists(specID); err != nil {
		return nil, err
	}
	if _, err := s.exec(`DELETE FROM insights WHERE spec_id=?`, specID); err != nil {
		return nil, err
	}
	in := &types.Insight{ID: uuid.NewString(), SpecID: specID, Insights: insights, CreatedAt: time.Now().UTC()}
	if _, err := s.exec(`INSERT INTO insights(id,spec_id,insights,created_at) VALUES(?,?,?,?)`,
		in.ID, in.SpecID, string(in.Insights), in.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert insight: %w", err)
	}
	return in, nil
}

func (s *SQLStore) GetInsight(specID string) (*types.Insight, error) {
	var in types.Insight
	var raw string
	err := s.queryRow(`SELECT id,spec_id,insights,created_at FROM insights WHERE spec_id=? ORDER BY created_at DESC LIMIT 1`, specID).
		Scan(&in.ID, &in.SpecID, &raw, &in.CreatedAt)
	if err != nil {
		return nil, notFound(err, "insight for spec", specID)
	}
	in.Insights = rawOrNil(raw)
	return &in, nil
}

func (s *SQLStore) SaveWorkflow(w *types.Workflow) (*types.Workflow, error) {
	if w == nil {
		return nil, errors.New("workflow is nil")
	}
	if err := s.specExists(w.SpecID); err != nil {
		return nil, err
	}
	out := *w
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	steps := string(out.Steps)
	if steps == "" {
		steps = "[]"
	}
	_, err := s.exec(`INSERT INTO workflows(id,spec_id,name,description,steps,complexity,code,created_at) VALUES(?,?,?,?,?,?,?,?)`,
		out.ID, out.SpecID, out.Name, out.Description, steps, out.Complexity, string(out.Code), out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert workflow: %w", err)
	}
	out.Steps = json.RawMessage(steps)
	return &out, nil
}

func (s *SQLStore) GetWorkflow(id string) (*types.Workflow, error) {
	var w types.Workflow
	var steps, code string
	err := s.queryRow(`SELECT id,spec_id,name,description,steps,complexity,code,created_at FROM workflows WHERE id=?`, id).
		Scan(&w.ID, &w.SpecID, &w.Name, &w.Description, &steps, &w.Complexity, &code, &w.CreatedAt)
	if err != nil {
		return nil, notFound(err, "workflow", id)
	}
	w.Steps = rawOrNil(steps)
	w.Code = rawOrNil(code)
	return &w, nil
}

func (s *SQLStore) ListWorkflows(specID string) ([]types.Workflow, error) {
	rows, err := s.query(`SELECT id,spec_id,name,description,steps,complexity,code,created_at FROM workflows WHERE spec_id=? ORDER BY created_at DESC`, specID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]types.Workflow, 0)
	for rows.Next() {
		var w types.Workflow
		var steps, code string
		if err := rows.Scan(&w.ID, &w.SpecID, &w.Name, &w.Description, &steps, &w.Complexity, &code, &w.CreatedAt); err != nil {
			return nil, err
		}
		w.Steps = rawOrNil(steps)
		w.Code = rawOrNil(code)
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveRemix(r *types.Remix) (*types.Remix, error) {
	if r == nil {
		return nil, errors.New("remix is nil")
	}
	if err := s.specExists(r.SpecID); err != nil {
		return nil, err
	}
	out := *r
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	if len(out.EndpointsUsed) == 0 {
		out.EndpointsUsed = json.RawMessage("[]")
	}
	if len(out.Implementation) == 0 {
		out.Implementation = json.RawMessage("{}")
	}
	_, err := s.exec(`INSERT INTO remixes(id,spec_id,name,description,innovation,endpoints_used,implementation,created_at) VALUES(?,?,?,?,?,?,?,?)`,
		out.ID, out.SpecID, out.Name, out.Description, out.Innovation, string(out.EndpointsUsed), string(out.Implementation), out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert remix: %w", err)
	}
	return &out, nil
}

func (s *SQLStore) ListRemixes(specID string) ([]types.Remix, error) {
	rows, err := s.query(`SELECT id,spec_id,name,description,innovation,endpoints_used,implementation,created_at FROM remixes WHERE spec_id=? ORDER BY created_at DESC`, specID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]types.Remix, 0)
	for rows.Next() {
		var r types.Remix
		var used, impl string
		if err := rows.Scan(&r.ID, &r.SpecID, &r.Name, &r.Description, &r.Innovation, &used, &impl, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.EndpointsUsed = rawOrNil(used)
		r.Implementation = rawOrNil(impl)
		out = append(out, r)
	}
	return out, rows.Err()
}
