package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sandevgo/memobot/internal/service/orchestrator"
	"github.com/sandevgo/memobot/pkg/log"
)

const replyInternalError = "抱歉，我这边出了点问题，请稍后再试。"

// Dispatcher routes one utterance to a reply and remembers the last
// exchange, which feedback entries default to.
type Dispatcher interface {
	Dispatch(ctx context.Context, text string) (string, error)
	LastInteraction() (query, reply string)
}

// FeedbackRecorder persists one user judgment.
type FeedbackRecorder interface {
	Record(entry orchestrator.FeedbackEntry) error
}

// Server exposes the dispatcher over HTTP for local frontends.
type Server struct {
	srv      *http.Server
	orch     Dispatcher
	feedback FeedbackRecorder
	baseCtx  context.Context
}

func NewServer(ctx context.Context, addr string, orch Dispatcher, feedback FeedbackRecorder) *Server {
	s := &Server{
		orch:     orch,
		feedback: feedback,
		baseCtx:  ctx,
	}

	r := mux.NewRouter()
	r.Use(corsMiddleware)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/dispatch", s.handleDispatch).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/feedback", s.handleFeedback).Methods(http.MethodPost, http.MethodOptions)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.srv.Addr).Msg("starting http api")
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type dispatchRequest struct {
	ProcessText string `json:"ProcessText"`
}

type dispatchResponse struct {
	Text string `json:"Text"`
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Conversation state is process-wide, so the dispatch runs on the
	// server's base context rather than the request's.
	reply, err := s.orch.Dispatch(s.baseCtx, req.ProcessText)
	if err != nil {
		// The failure detail never reaches the client, only the log.
		writeJSON(w, http.StatusInternalServerError, dispatchResponse{Text: replyInternalError})
		return
	}
	writeJSON(w, http.StatusOK, dispatchResponse{Text: reply})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var entry orchestrator.FeedbackEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// A bare rating refers to the last exchange.
	if entry.Query == "" || entry.Reply == "" {
		query, reply := s.orch.LastInteraction()
		if entry.Query == "" {
			entry.Query = query
		}
		if entry.Reply == "" {
			entry.Reply = reply
		}
	}

	if err := s.feedback.Record(entry); err != nil {
		log.FromCtx(s.baseCtx).Error().Err(err).Msg("failed to record feedback")
		http.Error(w, "failed to record feedback", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
