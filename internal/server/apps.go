package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/yourorg/shoot/pkg/types"
)

func (s *Server) handleListApps(w http.ResponseWriter, r *http.Request) {
	apps, err := s.store.ListApps(r.URL.Query().Get("specId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleGetApp(w http.ResponseWriter, r *http.Request) {
	app, err := s.store.GetApp(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) handleDeleteApp(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteApp(mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success())
}

type updateCodeRequest struct {
	Code types.CodeMap `json:"code" validate:"required"`
}

func (s *Server) handleUpdateCode(w http.ResponseWriter, r *http.Request) {
	var req updateCodeRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.UpdateAppCode(mux.Vars(r)["id"], req.Code); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success())
}

type generateAppRequest struct {
	SpecID    string `json:"specId" validate:"required"`
	Framework string `json:"framework"`
	UseAI     bool   `json:"useAI"`
}

func (s *Server) handleGenerateApp(w http.ResponseWriter, r *http.Request) {
	var req generateAppRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.builder.GenerateApp(r.Context(), req.SpecID, req.Framework, req.UseAI)
	respond(s, w, r, res, err)
}

type customerAppRequest struct {
	SpecID         string `json:"specId" validate:"required"`
	Description    string `json:"description" validate:"required"`
	ConversationID string `json:"conversationId"`
}

func (s *Server) handleCustomerApp(w http.ResponseWriter, r *http.Request) {
	var req customerAppRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.builder.BuildCustomerApp(r.Context(), req.SpecID, req.Description, req.ConversationID)
	respond(s, w, r, res, err)
}

type intentRequest struct {
	SpecID         string `json:"specId" validate:"required"`
	Intent         string `json:"intent" validate:"required"`
	ConversationID string `json:"conversationId"`
}

func (s *Server) handleIntentApp(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.builder.BuildFromIntent(r.Context(), req.SpecID, req.Intent, req.ConversationID)
	respond(s, w, r, res, err)
}

type requestText struct {
	Request string `json:"request" validate:"required"`
}

func (s *Server) handleRefineUI(w http.ResponseWriter, r *http.Request) {
	var req requestText
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.builder.RefineUI(r.Context(), mux.Vars(r)["id"], req.Request)
	respond(s, w, r, res, err)
}

type featureRequest struct {
	Description string `json:"description" validate:"required"`
}

func (s *Server) handleAddFeature(w http.ResponseWriter, r *http.Request) {
	var req featureRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.builder.AddFeature(r.Context(), mux.Vars(r)["id"], req.Description)
	respond(s, w, r, res, err)
}

type refineRequest struct {
	Refinement string `json:"refinement" validate:"required"`
}

func (s *Server) handleRefineApp(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.builder.RefineApp(r.Context(), mux.Vars(r)["id"], req.Refinement)
	respond(s, w, r, res, err)
}

type modifyRequest struct {
	FileName    string `json:"fileName" validate:"required"`
	CurrentCode string `json:"currentCode"`
	Request     string `json:"request" validate:"required"`
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	var req modifyRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.builder.ModifyComponent(r.Context(), mux.Vars(r)["id"], req.FileName, req.CurrentCode, req.Request)
	respond(s, w, r, res, err)
}

func (s *Server) handleAnalyzeApp(w http.ResponseWriter, r *http.Request) {
	res, err := s.builder.AnalyzeApp(r.Context(), mux.Vars(r)["id"])
	respond(s, w, r, res, err)
}

type componentRequest struct {
	Description string `json:"description" validate:"required"`
	Framework   string `json:"framework"`
}

func (s *Server) handleGenerateComponent(w http.ResponseWriter, r *http.Request) {
	var req componentRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Framework == "" {
		req.Framework = "react"
	}
	res, err := s.builder.GenerateComponent(r.Context(), mux.Vars(r)["id"], req.Description, req.Framework)
	respond(s, w, r, res, err)
}

type beautifulRequest struct {
	Description string   `json:"description" validate:"required"`
	Endpoints   []string `json:"endpoints"`
}

func (s *Server) handleBeautifulComponent(w http.ResponseWriter, r *http.Request) {
	var req beautifulRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.builder.CreateBeautifulComponent(r.Context(), mux.Vars(r)["id"], req.Description, req.Endpoints)
	respond(s, w, r, res, err)
}

func (s *Server) handleSuggestFlows(w http.ResponseWriter, r *http.Request) {
	res, err := s.builder.SuggestFlows(r.Context(), mux.Vars(r)["id"])
	respond(s, w, r, res, err)
}

type testWorkflowRequest struct {
	TestData json.RawMessage `json:"testData"`
}

func (s *Server) handleTestWorkflow(w http.ResponseWriter, r *http.Request) {
	var req testWorkflowRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.builder.TestWorkflow(r.Context(), mux.Vars(r)["id"], req.TestData)
	respond(s, w, r, res, err)
}

// respond writes an operation result. Results reporting success:false are
// still 200; only returned errors map to error statuses.
func respond[T any](s *Server, w http.ResponseWriter, r *http.Request, res *T, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
