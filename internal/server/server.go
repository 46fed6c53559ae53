// Package server exposes the HTTP API and the embedded UI page.
package server

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/yourorg/shoot/internal/advisor"
	"github.com/yourorg/shoot/internal/apispec"
	"github.com/yourorg/shoot/internal/builder"
	"github.com/yourorg/shoot/internal/chat"
	"github.com/yourorg/shoot/internal/config"
	"github.com/yourorg/shoot/internal/llm"
	"github.com/yourorg/shoot/internal/metrics"
	"github.com/yourorg/shoot/internal/proxy"
	"github.com/yourorg/shoot/internal/redact"
	"github.com/yourorg/shoot/internal/store"
)

var (
	//go:embed ui.html
	uiHTML string

	uiTemplate = template.Must(template.New("ui").Parse(uiHTML))

	validate = validator.New()

	errBadRequest = errors.New("bad request")
)

const describerCacheSize = 128

// Server wires the chat assistant, builders and proxy to HTTP routes.
type Server struct {
	cfg       *config.Config
	store     store.Store
	llm       llm.Completer
	chat      *chat.Assistant
	builder   *builder.Builder
	advisor   *advisor.Advisor
	importer  *apispec.Importer
	describer *apispec.Describer
	proxy     *proxy.Proxy
	metrics   *metrics.Metrics
	logger    *slog.Logger
	router    *mux.Router
}

// Options carries the collaborators created by the caller.
type Options struct {
	LLM     llm.Completer
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	// HTTPClient is used for spec fetches and proxied calls.
	HTTPClient *http.Client
}

type uiData struct {
	Model      string
	Configured bool
}

// New constructs a Server with routes registered.
func New(cfg *config.Config, st store.Store, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if st == nil {
		return nil, errors.New("store is nil")
	}
	keys, ok := st.(store.KeyVault)
	if !ok {
		return nil, errors.New("store cannot resolve api keys")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	describer, err := apispec.NewDescriber(describerCacheSize)
	if err != nil {
		return nil, err
	}

	importer := &apispec.Importer{
		Store:   st,
		Fetcher: &apispec.Fetcher{HTTPClient: opts.HTTPClient, Timeout: cfg.Fetch.Timeout, Logger: logger},
		Logger:  logger,
	}
	s := &Server{
		cfg:       cfg,
		store:     st,
		llm:       opts.LLM,
		chat:      chat.New(st, importer, opts.LLM, logger),
		builder:   builder.New(st, opts.LLM, describer, logger),
		advisor:   advisor.New(st, opts.LLM, logger),
		importer:  importer,
		describer: describer,
		proxy: &proxy.Proxy{
			Keys:       keys,
			Specs:      st,
			Describer:  describer,
			HTTPClient: opts.HTTPClient,
			Timeout:    cfg.Proxy.Timeout,
			Redactor:   redact.New(cfg.Redact),
			Logger:     logger,
			Metrics:    opts.Metrics,
		},
		metrics: opts.Metrics,
		logger:  logger,
		router:  mux.NewRouter(),
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the http handler.
func (s *Server) Handler() http.Handler {
	return s.cors(s.router)
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(s.logRequests, s.metrics.Middleware(routeTemplate))

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/config/status", s.handleConfigStatus).Methods(http.MethodGet)

	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}", s.handleGetConversation).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}", s.handleUpdateConversation).Methods(http.MethodPatch)
	api.HandleFunc("/conversations/{id}", s.handleClearConversation).Methods(http.MethodDelete)
	api.HandleFunc("/conversations/{id}/messages", s.handleMessages).Methods(http.MethodGet)

	api.HandleFunc("/specs", s.handleListSpecs).Methods(http.MethodGet)
	api.HandleFunc("/specs", s.handleImportSpec).Methods(http.MethodPost)
	api.HandleFunc("/specs/{id}", s.handleGetSpec).Methods(http.MethodGet)
	api.HandleFunc("/specs/{id}", s.handleDeleteSpec).Methods(http.MethodDelete)
	api.HandleFunc("/specs/{id}/settings", s.handleSpecSettings).Methods(http.MethodPatch)
	api.HandleFunc("/specs/{id}/endpoints", s.handleEndpoints).Methods(http.MethodGet)
	api.HandleFunc("/specs/{id}/keys", s.handleListKeys).Methods(http.MethodGet)
	api.HandleFunc("/specs/{id}/keys", s.handleCreateKey).Methods(http.MethodPost)
	api.HandleFunc("/keys/{id}", s.handleDeleteKey).Methods(http.MethodDelete)

	api.HandleFunc("/apps", s.handleListApps).Methods(http.MethodGet)
	api.HandleFunc("/apps/generate", s.handleGenerateApp).Methods(http.MethodPost)
	api.HandleFunc("/apps/customer", s.handleCustomerApp).Methods(http.MethodPost)
	api.HandleFunc("/apps/intent", s.handleIntentApp).Methods(http.MethodPost)
	api.HandleFunc("/apps/{id}", s.handleGetApp).Methods(http.MethodGet)
	api.HandleFunc("/apps/{id}", s.handleDeleteApp).Methods(http.MethodDelete)
	api.HandleFunc("/apps/{id}/code", s.handleUpdateCode).Methods(http.MethodPut)
	api.HandleFunc("/apps/{id}/refine-ui", s.handleRefineUI).Methods(http.MethodPost)
	api.HandleFunc("/apps/{id}/features", s.handleAddFeature).Methods(http.MethodPost)
	api.HandleFunc("/apps/{id}/refine", s.handleRefineApp).Methods(http.MethodPost)
	api.HandleFunc("/apps/{id}/modify", s.handleModify).Methods(http.MethodPost)
	api.HandleFunc("/apps/{id}/analyze", s.handleAnalyzeApp).Methods(http.MethodPost)

	api.HandleFunc("/specs/{id}/components", s.handleGenerateComponent).Methods(http.MethodPost)
	api.HandleFunc("/specs/{id}/components/beautiful", s.handleBeautifulComponent).Methods(http.MethodPost)
	api.HandleFunc("/specs/{id}/suggestions", s.handleSuggestFlows).Methods(http.MethodPost)
	api.HandleFunc("/specs/{id}/insights", s.handleGetInsights).Methods(http.MethodGet)
	api.HandleFunc("/specs/{id}/insights", s.handleAnalyzeCapabilities).Methods(http.MethodPost)
	api.HandleFunc("/specs/{id}/workflows", s.handleListWorkflows).Methods(http.MethodGet)
	api.HandleFunc("/specs/{id}/workflows", s.handleGenerateWorkflow).Methods(http.MethodPost)
	api.HandleFunc("/workflows/{id}/test", s.handleTestWorkflow).Methods(http.MethodPost)
	api.HandleFunc("/specs/{id}/extensions", s.handleExtensions).Methods(http.MethodPost)
	api.HandleFunc("/specs/{id}/remixes", s.handleListRemixes).Methods(http.MethodGet)
	api.HandleFunc("/specs/{id}/remixes", s.handleGenerateRemix).Methods(http.MethodPost)

	api.HandleFunc("/proxy", s.handleProxy).Methods(http.MethodPost)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = uiTemplate.Execute(w, uiData{Model: s.cfg.LLM.Model, Configured: s.configured()})
}

func (s *Server) handleConfigStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"openaiConfigured": s.configured(),
		"model":            s.cfg.LLM.Model,
		"database":         s.cfg.Database.Driver,
	})
}

func (s *Server) configured() bool {
	return s.llm != nil && s.llm.Configured()
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request", "method", r.Method, "route", routeTemplate(r), "status", rec.status, "duration", time.Since(start))
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.Server.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decode reads a JSON body into dst and checks its validate tags. An empty
// body leaves dst at its zero value before validation.
func decode(r *http.Request, dst any) error {
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: invalid json: %v", errBadRequest, err)
		}
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, apispec.ErrNoInput),
		errors.Is(err, proxy.ErrInvalidBody),
		errors.Is(err, proxy.ErrNoBaseURL),
		errors.Is(err, proxy.ErrKeyMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, proxy.ErrUpstream):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func success() map[string]bool {
	return map[string]bool{"success": true}
}
