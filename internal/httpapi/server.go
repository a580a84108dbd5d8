// Package httpapi exposes the board engine to UI collaborators over
// HTTP: board reads and writes, undo/redo, revision listing, and a
// websocket stream of document replacements.
package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/openboard/boardsync/internal/board"
)

type ServerConfig struct {
	// Token enables static bearer-token auth on /v1 routes when set.
	Token        string
	MaxBodyBytes int64
}

type Server struct {
	engine  *board.Engine
	archive board.RevisionArchive
	cfg     ServerConfig
}

func NewServer(engine *board.Engine, archive board.RevisionArchive, cfg ServerConfig) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &Server{engine: engine, archive: archive, cfg: cfg}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
		return
	}

	switch {
	case r.URL.Path == "/v1/board" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, s.engine.Board())
	case r.URL.Path == "/v1/board" && r.Method == http.MethodPut:
		s.handlePutBoard(w, r)
	case r.URL.Path == "/v1/board/undo" && r.Method == http.MethodPost:
		s.handleStep(w, s.engine.Undo)
	case r.URL.Path == "/v1/board/redo" && r.Method == http.MethodPost:
		s.handleStep(w, s.engine.Redo)
	case r.URL.Path == "/v1/board/save" && r.Method == http.MethodPost:
		s.handleForceSave(w)
	case r.URL.Path == "/v1/board/history" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]bool{
			"canUndo": s.engine.CanUndo(),
			"canRedo": s.engine.CanRedo(),
		})
	case r.URL.Path == "/v1/revisions" && r.Method == http.MethodGet:
		s.handleRevisions(w, r)
	case r.URL.Path == "/v1/events" && r.Method == http.MethodGet:
		s.handleEvents(w, r)
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	}
}

func (s *Server) handlePutBoard(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "failed to read request body")
		return
	}
	if int64(len(data)) > s.cfg.MaxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
		return
	}
	if err := board.ValidateDocument(data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_board", err.Error())
		return
	}
	next, err := board.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_board", err.Error())
		return
	}
	if err := s.engine.Apply(next); err != nil {
		// The edit is applied in memory even when the save failed; report
		// the degraded persistence without discarding it.
		writeJSON(w, http.StatusAccepted, map[string]any{
			"board":     s.engine.Board(),
			"saveError": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"board": s.engine.Board()})
}

func (s *Server) handleStep(w http.ResponseWriter, step func() (bool, error)) {
	applied, err := step()
	payload := map[string]any{
		"applied": applied,
		"board":   s.engine.Board(),
	}
	if err != nil {
		payload["saveError"] = err.Error()
		writeJSON(w, http.StatusAccepted, payload)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleForceSave(w http.ResponseWriter) {
	if err := s.engine.ForceSave(); err != nil {
		writeError(w, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleRevisions(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "not_found", "revision archive is not configured")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_input", "limit must be a positive integer")
			return
		}
		limit = value
	}
	revisions, err := s.archive.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "archive_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": revisions})
}

type boardEvent struct {
	Type  string      `json:"type"`
	Board board.Board `json:"board"`
}

// handleEvents streams one JSON message per wholesale document
// replacement (external reload or undo/redo) until the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ctx := r.Context()
	events := make(chan board.Board, 8)
	cancel := s.engine.Subscribe(func(b board.Board) {
		select {
		case events <- b:
		default:
			// A slow client drops intermediate states; it always
			// receives the latest replacement that follows.
		}
	})
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case b := <-events:
			if err := wsjson.Write(ctx, conn, boardEvent{Type: "board.replaced", Board: b}); err != nil {
				return
			}
		}
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.Token == "" {
		return true
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if supplied == "" {
		// Browser websocket clients cannot set headers.
		supplied = r.URL.Query().Get("access_token")
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.cfg.Token)) == 1
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}
