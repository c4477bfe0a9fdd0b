// Package server exposes the command processor, templates, glossary,
// learning loop and saved projects over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/klytics/sheetkit/cmd/version"
	"github.com/klytics/sheetkit/internal/assistant"
	"github.com/klytics/sheetkit/internal/glossary"
	"github.com/klytics/sheetkit/internal/learning"
	"github.com/klytics/sheetkit/internal/store"
	"github.com/klytics/sheetkit/internal/table"
)

// Processor runs natural-language commands; *assistant.Processor
// satisfies it.
type Processor interface {
	Process(ctx context.Context, command string, t *table.Table) (*assistant.Response, error)
}

// Config holds the server's collaborators. Store, Learning and Memory may
// be nil, in which case their routes answer 503. Memory should be the
// context the Processor records into.
type Config struct {
	Addr      string
	Processor Processor
	Glossary  *glossary.Glossary
	Store     *store.Store
	Learning  learning.Store
	Memory    *learning.Context
	Logger    *zap.Logger
}

// Server is the HTTP API server.
type Server struct {
	addr      string
	proc      Processor
	glossary  *glossary.Glossary
	store     *store.Store
	learning  learning.Store
	memory    *learning.Context
	responder *learning.Responder
	log       *zap.Logger
	now       func() time.Time
}

// New creates a server from cfg.
func New(cfg Config) *Server {
	s := &Server{
		addr:     cfg.Addr,
		proc:     cfg.Processor,
		glossary: cfg.Glossary,
		store:    cfg.Store,
		learning: cfg.Learning,
		memory:   cfg.Memory,
		log:      cfg.Logger,
		now:      time.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.glossary == nil {
		s.glossary = glossary.Default()
	}
	if s.proc == nil {
		s.proc = assistant.New(assistant.WithGlossary(s.glossary))
	}
	if s.learning != nil {
		s.responder = learning.NewResponder(s.learning)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		s.logRequests,
		middleware.Recoverer,
		cors,
	)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/ai-command", s.handleCommand)
		r.Post("/upload", s.handleUpload)
		r.Get("/templates", s.handleTemplates)
		r.Post("/template", s.handleTemplate)
		r.Post("/suggestions", s.handleSuggestions)

		r.Route("/glossary", func(r chi.Router) {
			r.Get("/", s.handleGlossarySearch)
			r.Get("/explain", s.handleGlossaryExplain)
			r.Get("/tips", s.handleGlossaryTips)
			r.Post("/formula", s.handleGlossaryFormula)
		})

		r.Route("/learning", func(r chi.Router) {
			r.Use(s.requireLearning)
			r.Post("/learn", s.handleLearn)
			r.Post("/feedback", s.handleFeedback)
			r.Get("/statistics", s.handleLearningStats)
			r.Get("/context", s.handleLearningContext)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Use(s.requireStore)
			r.Post("/", s.handleCreateProject)
			r.Get("/", s.handleListProjects)
			r.Get("/{id}", s.handleGetProject)
			r.Delete("/{id}", s.handleDeleteProject)
			r.Get("/{id}/history", s.handleProjectHistory)
		})

		r.Route("/conversations", func(r chi.Router) {
			r.Use(s.requireStore)
			r.Post("/", s.handleCreateConversation)
			r.Get("/", s.handleListConversations)
			r.Get("/search/{query}", s.handleSearchConversations)
			r.Get("/{id}", s.handleGetConversation)
			r.Put("/{id}", s.handleUpdateConversation)
			r.Delete("/{id}", s.handleDeleteConversation)
			r.Post("/{id}/messages", s.handleAddMessage)
			r.Get("/{id}/messages", s.handleMessages)
			r.Get("/{id}/context", s.handleContext)
		})
	})
	return r
}

// Serve listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.log.Info("starting API server", zap.String("addr", s.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.log.Info("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", s.now().Sub(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// cors allows any origin, matching a browser front end served elsewhere.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil {
			writeError(w, http.StatusServiceUnavailable, "persistência desativada (store.enabled=false)")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireLearning(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.learning == nil {
			writeError(w, http.StatusServiceUnavailable, "aprendizado desativado")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "sheetkit API",
		"version": version.Version,
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// maxBody bounds request bodies, uploads included.
const maxBody = 32 << 20

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeStoreError maps store.ErrNotFound to 404 and everything else to 500.
func (s *Server) writeStoreError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	s.log.Error("store failure", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}
