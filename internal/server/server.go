// Package server is the HTTP surface of the gateway: the panel-facing JSON
// API, the audio proxy read path, and local static storage delivery.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/asiaspanel/voicegate/internal/assets"
	"github.com/asiaspanel/voicegate/internal/clone"
	"github.com/asiaspanel/voicegate/internal/delivery"
	"github.com/asiaspanel/voicegate/internal/orchestrator"
	"github.com/asiaspanel/voicegate/internal/provider"
	"github.com/asiaspanel/voicegate/internal/registry"
	"github.com/asiaspanel/voicegate/internal/session"
)

type Config struct {
	Addr           string
	StaticDir      string
	AllowedOrigins []string
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8002"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	return c
}

type Server struct {
	cfg    Config
	server *http.Server

	orch       *orchestrator.Orchestrator
	translator provider.Translator
	resolver   *delivery.Resolver
	reg        *registry.Registry
	clones     *clone.Service
	sessions   *session.Store
	store      *assets.Store

	log *slog.Logger
}

func New(cfg Config, orch *orchestrator.Orchestrator, translator provider.Translator,
	resolver *delivery.Resolver, reg *registry.Registry, clones *clone.Service,
	sessions *session.Store, store *assets.Store, log *slog.Logger) *Server {
	cfg = cfg.withDefaults()
	s := &Server{
		cfg:        cfg,
		orch:       orch,
		translator: translator,
		resolver:   resolver,
		reg:        reg,
		clones:     clones,
		sessions:   sessions,
		store:      store,
		log:        log,
	}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.cors(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/translate", s.handleTranslate)
	mux.HandleFunc("POST /api/tts", s.handleTTS)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSaveConfig)
	mux.HandleFunc("POST /api/voices/upload", s.handleUploadSample)
	mux.HandleFunc("POST /api/voices/clone", s.handleClone)
	mux.HandleFunc("GET /api/voices", s.handleListVoices)
	mux.HandleFunc("DELETE /api/voices/{id}", s.handleDeleteVoice)
	mux.HandleFunc("GET /api/audio/{name}", s.handleAudio)
	mux.HandleFunc("GET /storage/{name}", s.handleStorage)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	// The static panel is mounted last so it never shadows the API.
	if s.cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
	return mux
}

// Start runs the listener until the context is cancelled, then drains.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed := s.allowOrigin(origin); allowed != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) string {
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if allowed == origin {
			return origin
		}
	}
	return ""
}
