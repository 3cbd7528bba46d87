// Package server exposes the dialogue engine over HTTP. Each chat
// session owns a conversation State; messages within a session are
// serialized so turns cannot interleave.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"pizzatalk/internal/common/logger"
	"pizzatalk/internal/dialogue"
)

// defaultUserID backs sessions that do not name a user.
const defaultUserID = 1

type session struct {
	mu    sync.Mutex
	state *dialogue.State
}

// Server routes chat requests to the dialogue manager.
type Server struct {
	manager  *dialogue.Manager
	logger   logger.Logger
	mu       sync.RWMutex
	sessions map[string]*session
}

func New(manager *dialogue.Manager, log logger.Logger) *Server {
	return &Server{
		manager:  manager,
		logger:   log,
		sessions: make(map[string]*session),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/chat", s.handleChat)
	return r
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	UserID    int    `json:"user_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	sess, sessionID := s.getOrCreateSession(req.SessionID, req.UserID)

	sess.mu.Lock()
	reply := s.manager.HandleMessage(r.Context(), sess.state, req.Message)
	sess.mu.Unlock()

	s.logger.Debug("handled chat turn", map[string]interface{}{
		"session_id": sessionID,
		"user_id":    sess.state.UserID,
	})

	writeJSON(w, http.StatusOK, chatResponse{SessionID: sessionID, Reply: reply})
}

func (s *Server) getOrCreateSession(id string, userID int) (*session, string) {
	if id != "" {
		s.mu.RLock()
		sess, ok := s.sessions[id]
		s.mu.RUnlock()
		if ok {
			return sess, id
		}
	}

	if userID == 0 {
		userID = defaultUserID
	}
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, id
	}
	sess := &session{state: dialogue.NewState(userID)}
	s.sessions[id] = sess
	return sess, id
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
