package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/yourorg/shoot/internal/apispec"
	"github.com/yourorg/shoot/pkg/types"
)

type specDetail struct {
	*types.APISpec
	Endpoints []types.Endpoint `json:"endpoints"`
}

func (s *Server) handleListSpecs(w http.ResponseWriter, r *http.Request) {
	specs, err := s.store.ListSpecs()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, specs)
}

// handleImportSpec answers 422 with the import result when the document
// could not be fetched or parsed.
func (s *Server) handleImportSpec(w http.ResponseWriter, r *http.Request) {
	var in apispec.Input
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.importer.Import(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusCreated
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func (s *Server) handleGetSpec(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	spec, err := s.store.GetSpec(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	eps, err := s.store.ListEndpoints(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, specDetail{APISpec: spec, Endpoints: eps})
}

func (s *Server) handleDeleteSpec(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.DeleteSpec(id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.describer.Forget(id)
	writeJSON(w, http.StatusOK, success())
}

type specSettings struct {
	OverrideBaseURL string `json:"overrideBaseUrl" validate:"omitempty,url"`
}

func (s *Server) handleSpecSettings(w http.ResponseWriter, r *http.Request) {
	var req specSettings
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	id := mux.Vars(r)["id"]
	if err := s.store.UpdateSpecSettings(id, req.OverrideBaseURL); err != nil {
		s.fail(w, r, err)
		return
	}
	s.describer.Forget(id)
	writeJSON(w, http.StatusOK, success())
}

func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.store.GetSpec(id); err != nil {
		s.fail(w, r, err)
		return
	}
	eps, err := s.store.ListEndpoints(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eps)
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.ListAPIKeys(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

type createKeyRequest struct {
	KeyName     string `json:"keyName" validate:"required"`
	KeyValue    string `json:"keyValue" validate:"required"`
	Description string `json:"description"`
}

// handleCreateKey stores a credential. The response carries the masked value.
func (s *Server) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	key, err := s.store.CreateAPIKey(&types.APIKey{
		SpecID:      mux.Vars(r)["id"],
		KeyName:     req.KeyName,
		KeyValue:    req.KeyValue,
		Description: req.Description,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, key)
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAPIKey(mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success())
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	var req types.ProxyRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	resp, err := s.proxy.Do(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
