package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/klytics/sheetkit/internal/learning"
	"github.com/klytics/sheetkit/internal/store"
)

func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// Projects

type projectRequest struct {
	tableRequest
	Name     string `json:"name"`
	FileName string `json:"file_name"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "o nome do projeto é obrigatório")
		return
	}
	t, err := req.table()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.store.CreateProject(r.Context(), req.Name, req.FileName, t)
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.Projects(r.Context(), queryInt(r, "skip", 0), queryInt(r, "limit", 100))
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	if projects == nil {
		projects = []store.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Project(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err, "Projeto não encontrado")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeStoreError(w, err, "Projeto não encontrado")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Projeto deletado"})
}

func (s *Server) handleProjectHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Project(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "Projeto não encontrado")
		return
	}
	history, err := s.store.History(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	if history == nil {
		history = []store.Transformation{}
	}
	writeJSON(w, http.StatusOK, history)
}

// Conversations

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var c store.Conversation
	if !decode(w, r, &c) {
		return
	}
	if strings.TrimSpace(c.Name) == "" {
		writeError(w, http.StatusBadRequest, "o nome da conversa é obrigatório")
		return
	}
	c, err := s.store.CreateConversation(r.Context(), c)
	if err != nil {
		s.writeStoreError(w, err, "Projeto não encontrado")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	cs, err := s.store.Conversations(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeConversations(w, cs)
}

func (s *Server) handleSearchConversations(w http.ResponseWriter, r *http.Request) {
	cs, err := s.store.SearchConversations(r.Context(), chi.URLParam(r, "query"), queryInt(r, "limit", 20))
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeConversations(w, cs)
}

func writeConversations(w http.ResponseWriter, cs []store.Conversation) {
	if cs == nil {
		cs = []store.Conversation{}
	}
	writeJSON(w, http.StatusOK, cs)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Conversation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err, "Conversa não encontrada")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type conversationUpdate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleUpdateConversation(w http.ResponseWriter, r *http.Request) {
	var req conversationUpdate
	if !decode(w, r, &req) {
		return
	}
	c, err := s.store.UpdateConversation(r.Context(), chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		s.writeStoreError(w, err, "Conversa não encontrada")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteConversation(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeStoreError(w, err, "Conversa não encontrada")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversa deletada"})
}

func (s *Server) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	var m store.Message
	if !decode(w, r, &m) {
		return
	}
	if m.Role != store.RoleUser && m.Role != store.RoleAssistant {
		writeError(w, http.StatusBadRequest, "role deve ser 'user' ou 'assistant'")
		return
	}
	m.ConversationID = chi.URLParam(r, "id")
	m, err := s.store.AddMessage(r.Context(), m)
	if err != nil {
		s.writeStoreError(w, err, "Conversa não encontrada")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	ms, err := s.store.Messages(r.Context(), chi.URLParam(r, "id"), queryInt(r, "limit", 100))
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeMessages(w, ms)
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	ms, err := s.store.RecentMessages(r.Context(), chi.URLParam(r, "id"), queryInt(r, "limit", 10))
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeMessages(w, ms)
}

func writeMessages(w http.ResponseWriter, ms []store.Message) {
	if ms == nil {
		ms = []store.Message{}
	}
	writeJSON(w, http.StatusOK, ms)
}

// Learning

type learnRequest struct {
	Input string `json:"input_text"`
	User  string `json:"user_name"`
}

func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, "input_text é obrigatório")
		return
	}
	reply, err := s.responder.Respond(r.Context(), req.Input, req.User)
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var f learning.Feedback
	if !decode(w, r, &f) {
		return
	}
	if !f.Rating.Valid() {
		writeError(w, http.StatusBadRequest, "feedback deve ser 'positive', 'negative' ou 'neutral'")
		return
	}
	f.At = s.now()
	if err := s.learning.AddFeedback(r.Context(), f); err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Feedback registrado com sucesso"})
}

func (s *Server) handleLearningStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.learning.Stats(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// memorySnapshot is the process's recent commands and what worked.
type memorySnapshot struct {
	Last     *learning.Interaction  `json:"last,omitempty"`
	History  []learning.Interaction `json:"history"`
	Patterns map[string][]string    `json:"successful_patterns"`
}

func (s *Server) handleLearningContext(w http.ResponseWriter, _ *http.Request) {
	if s.memory == nil {
		writeError(w, http.StatusServiceUnavailable, "memória de contexto desativada")
		return
	}
	snap := memorySnapshot{History: s.memory.History(), Patterns: s.memory.Patterns()}
	if last, ok := s.memory.Last(); ok {
		snap.Last = &last
	}
	if snap.History == nil {
		snap.History = []learning.Interaction{}
	}
	writeJSON(w, http.StatusOK, snap)
}
