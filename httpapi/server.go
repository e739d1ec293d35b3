package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	chatx "github.com/tanpawarit/Chative-Retail-Assistant/chat"
	"github.com/tanpawarit/Chative-Retail-Assistant/conversation"
	obsx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/observability"
)

const maxBodyBytes = 64 << 10

// ChatService is the part of chat.Service the HTTP layer needs.
type ChatService interface {
	Handle(ctx context.Context, req chatx.Request) (chatx.Reply, error)
	History(ctx context.Context, conversationID string) ([]conversation.Message, error)
}

type Server struct {
	chat ChatService
	mux  *http.ServeMux
}

func New(chat ChatService) (*Server, error) {
	if chat == nil {
		return nil, errors.New("chat service is required")
	}
	s := &Server{chat: chat, mux: http.NewServeMux()}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.handle("POST /api/chat", "chat", s.handleChat)
	s.handle("GET /api/chat/history/{conversation_id}", "chat_history", s.handleHistory)
	s.handle("POST /api/voice/turn", "voice_turn", s.handleVoiceTurn)
	s.handle("GET /healthz", "healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		log.Info().Msg("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

/* ---------------------------------- handlers --------------------------------- */

type chatRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Channel   string `json:"channel,omitempty"`
}

type voiceReply struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	SessionID      string `json:"session_id"`
	Hangup         bool   `json:"hangup"`
}

type historyReply struct {
	ConversationID string                 `json:"conversation_id"`
	Messages       []conversation.Message `json:"messages"`
}

type errorReply struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := s.chat.Handle(r.Context(), chatx.Request(req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleVoiceTurn(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decode(w, r, &req) {
		return
	}
	req.Channel = "voice"
	out, err := s.chat.Handle(r.Context(), chatx.Request(req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, voiceReply{
		Response:       out.Response,
		ConversationID: out.ConversationID,
		SessionID:      out.SessionID,
		Hangup:         out.Hangup,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("conversation_id")
	msgs, err := s.chat.History(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", id).Msg("history endpoint error")
		writeJSON(w, http.StatusInternalServerError, errorReply{Error: chatx.MessageInternal})
		return
	}
	if msgs == nil {
		msgs = []conversation.Message{}
	}
	writeJSON(w, http.StatusOK, historyReply{ConversationID: id, Messages: msgs})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

/* ---------------------------------- helpers ---------------------------------- */

func (s *Server) handle(pattern string, route string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		obsx.RecordHTTPRequest(route, strconv.Itoa(rec.status), int(time.Since(started).Milliseconds()))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorReply{Error: "Invalid request", Message: err.Error()})
		return false
	}
	return true
}

// writeError sends only the friendly text. Server-side failures carry graph
// internals and are logged instead.
func writeError(w http.ResponseWriter, err error) {
	fe := chatx.Friendly(err)
	if fe.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", fe.Status).Msg("request failed")
	}
	writeJSON(w, fe.Status, errorReply{Error: fe.Message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response failed")
	}
}
