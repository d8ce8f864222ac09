// Package server exposes expression evaluation over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/zephyrtronium/calc"
	"github.com/zephyrtronium/calc/internal/history"
)

// Recorder stores evaluations. *history.Store implements it.
type Recorder interface {
	Add(ctx context.Context, r history.Record) (int64, error)
	Recent(ctx context.Context, n int) ([]history.Record, error)
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 1000
	// maxBodyBytes bounds request bodies and WebSocket messages.
	maxBodyBytes = 64 << 10
)

// Server provides the HTTP interface for evaluation.
type Server struct {
	router *httprouter.Router
	rec    Recorder
	log    *slog.Logger
	server *http.Server
}

// New creates a server. rec may be nil to disable history.
func New(rec Recorder, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		router: httprouter.New(),
		rec:    rec,
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/eval", s.handleEvalQuery)
	s.router.POST("/eval", s.handleEvalBody)
	s.router.GET("/history", s.handleHistory)
	s.router.GET("/ws", s.handleWebSocket)
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errc <- s.server.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// EvalRequest is the body of POST /eval.
type EvalRequest struct {
	Expr string `json:"expr"`
}

// EvalResponse is the result of one evaluation. Exactly one of Value and
// Error is set.
type EvalResponse struct {
	Expr  string  `json:"expr"`
	Value *Number `json:"value,omitempty"`
	RPN   *string `json:"rpn,omitempty"`
	Error string  `json:"error,omitempty"`
	Kind  string  `json:"kind,omitempty"`
	Pos   int     `json:"pos,omitempty"`
}

// Number is a float64 whose JSON form is a string for NaN and infinities.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte(strconv.Quote(strconv.FormatFloat(f, 'g', -1, 64))), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	s := string(b)
	if u, err := strconv.Unquote(s); err == nil {
		s = u
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// evaluate evaluates an expression, records it, and builds the response.
func (s *Server) evaluate(ctx context.Context, expr string) EvalResponse {
	r, err := calc.Evaluate(expr, calc.Logger(s.log))
	if s.rec != nil {
		if _, rerr := s.rec.Add(ctx, history.FromResult(expr, r, err)); rerr != nil {
			s.log.Error("recording evaluation", "err", rerr)
		}
	}
	resp := EvalResponse{Expr: expr}
	if err != nil {
		resp.Error = err.Error()
		resp.Kind = calc.KindOf(err).String()
		var ie calc.InputError
		if errors.As(err, &ie) {
			resp.Pos = ie.Pos()
		}
		return resp
	}
	v := Number(r.Value)
	rpn := r.Trace.String()
	resp.Value = &v
	resp.RPN = &rpn
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvalQuery(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	if !q.Has("expr") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing expr parameter"})
		return
	}
	s.respondEval(w, r, q.Get("expr"))
}

func (s *Server) handleEvalBody(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req EvalRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request: " + err.Error()})
		return
	}
	s.respondEval(w, r, req.Expr)
}

func (s *Server) respondEval(w http.ResponseWriter, r *http.Request, expr string) {
	resp := s.evaluate(r.Context(), expr)
	status := http.StatusOK
	if resp.Error != "" {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

// HistoryEntry is one record in the GET /history response.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	Expr      string    `json:"expr"`
	Value     *Number   `json:"value,omitempty"`
	RPN       string    `json:"rpn,omitempty"`
	Error     string    `json:"error,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history is disabled"})
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit " + strconv.Quote(v)})
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	recs, err := s.rec.Recent(r.Context(), limit)
	if err != nil {
		s.log.Error("reading history", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read history"})
		return
	}
	entries := make([]HistoryEntry, 0, len(recs))
	for _, rec := range recs {
		e := HistoryEntry{
			ID:        rec.ID,
			Expr:      rec.Expr,
			RPN:       rec.RPN,
			Error:     rec.Error,
			CreatedAt: rec.CreatedAt,
		}
		if rec.OK() {
			v := Number(rec.Value)
			e.Value = &v
		} else {
			e.Kind = rec.Kind.String()
		}
		entries = append(entries, e)
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleWebSocket evaluates each text message as an expression and replies
// with its EvalResponse.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodyBytes)
	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("websocket read failed", "err", err)
			}
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		if err := conn.WriteJSON(s.evaluate(r.Context(), string(msg))); err != nil {
			s.log.Warn("websocket write failed", "err", err)
			return
		}
	}
}
