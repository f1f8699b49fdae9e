package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	ripple "github.com/Tap30/ripple-ui-go"
)

const (
	maxBodyBytes       = 1 << 20
	defaultRecentLimit = 50
	triggerErrorKey    = "trigger_error"
)

// Options configures a Server.
type Options struct {
	Listen          string
	Subject         string
	AllowOrigin     string
	RecentLimit     int
	ShutdownTimeout time.Duration
}

// Server is the HTTP side of the bridge.
type Server struct {
	opts      Options
	publisher Publisher
	store     Store
	hub       *Hub
	logger    *zap.Logger
	now       func() time.Time
	draining  atomic.Bool
}

// NewServer creates a Server. The caller owns publisher and store and
// closes them after Run returns.
func NewServer(opts Options, publisher Publisher, store Store, logger *zap.Logger) *Server {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 200
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.AllowOrigin == "" {
		opts.AllowOrigin = "*"
	}
	return &Server{
		opts:      opts,
		publisher: publisher,
		store:     store,
		hub:       NewHub(opts.AllowOrigin, logger),
		logger:    logger,
		now:       time.Now,
	}
}

// Handler returns the bridge's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /events", s.handleEvents)
	mux.HandleFunc("GET /events/recent", s.handleRecent)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /stream", s.hub)
	return s.withCORS(mux)
}

// Run listens on opts.Listen and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Bridge listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("subject", s.opts.Subject))
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.draining.Store(true)
		s.logger.Info("Bridge shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		s.hub.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.opts.AllowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type acceptedResponse struct {
	Accepted int      `json:"accepted"`
	IDs      []string `json:"ids"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	events, err := decodeEvents(body)
	if err != nil {
		s.logger.Debug("Rejected payload", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	for _, event := range events {
		if trigger, ok := event.Metadata[triggerErrorKey].(bool); ok && trigger {
			s.logger.Info("Simulated failure requested, client should retry",
				zap.String("eventType", event.EventType))
			writeError(w, http.StatusInternalServerError, "Simulated server error")
			return
		}
	}

	resp := acceptedResponse{IDs: make([]string, 0, len(events))}
	for _, event := range events {
		record := NewRecord(event, s.now())
		data, err := json.Marshal(record)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Event cannot be encoded")
			return
		}

		if err := s.publisher.Publish(r.Context(), s.opts.Subject, data); err != nil {
			s.logger.Warn("Publish failed", zap.String("id", record.ID), zap.Error(err))
			writeError(w, http.StatusBadGateway, "Broker unavailable")
			return
		}
		if err := s.store.Append(r.Context(), record); err != nil {
			s.logger.Warn("Store append failed", zap.String("id", record.ID), zap.Error(err))
		}
		s.hub.Broadcast(data)

		s.logger.Debug("Relayed event",
			zap.String("id", record.ID),
			zap.String("componentType", event.ComponentType),
			zap.String("eventType", event.EventType))
		resp.IDs = append(resp.IDs, record.ID)
		resp.Accepted++
	}

	writeJSON(w, http.StatusAccepted, resp)
}

// decodeEvents accepts a single event object or {"events": [...]}.
func decodeEvents(body []byte) ([]ripple.Event, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, errors.New("Invalid JSON")
	}

	var events []ripple.Event
	if raw, ok := probe["events"]; ok {
		if err := json.Unmarshal(raw, &events); err != nil {
			return nil, errors.New("Invalid JSON")
		}
		if len(events) == 0 {
			return nil, errors.New("No events in batch")
		}
	} else {
		var event ripple.Event
		if err := json.Unmarshal(body, &event); err != nil {
			return nil, errors.New("Invalid JSON")
		}
		events = []ripple.Event{event}
	}

	for i, event := range events {
		if err := event.Validate(); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return events, nil
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > s.opts.RecentLimit {
		limit = s.opts.RecentLimit
	}

	records, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("Store query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Store unavailable")
		return
	}
	if records == nil {
		records = []Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": records})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.draining.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "draining"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"broker":  s.publisher.Status(),
		"viewers": s.hub.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
