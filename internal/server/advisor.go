package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) handleAnalyzeCapabilities(w http.ResponseWriter, r *http.Request) {
	res, err := s.advisor.AnalyzeCapabilities(r.Context(), mux.Vars(r)["id"])
	respond(s, w, r, res, err)
}

// handleGetInsights answers null when the spec was never analysed.
func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	insight, err := s.advisor.Insights(mux.Vars(r)["id"])
	respond(s, w, r, insight, err)
}

type goalRequest struct {
	Goal string `json:"goal" validate:"required"`
}

func (s *Server) handleGenerateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.advisor.GenerateWorkflow(r.Context(), mux.Vars(r)["id"], req.Goal)
	respond(s, w, r, res, err)
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	wfs, err := s.advisor.Workflows(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wfs)
}

type focusRequest struct {
	Focus string `json:"focus"`
}

func (s *Server) handleExtensions(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.advisor.SuggestExtensions(r.Context(), mux.Vars(r)["id"], req.Focus)
	respond(s, w, r, res, err)
}

type themeRequest struct {
	Theme string `json:"theme"`
}

func (s *Server) handleGenerateRemix(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.advisor.GenerateRemix(r.Context(), mux.Vars(r)["id"], req.Theme)
	respond(s, w, r, res, err)
}

func (s *Server) handleListRemixes(w http.ResponseWriter, r *http.Request) {
	remixes, err := s.advisor.Remixes(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, remixes)
}
