package bot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	bot    *Bot
	router *chi.Mux
	server *http.Server
	now    func() time.Time
}

func NewServer(bot *Bot) *Server {
	s := &Server{bot: bot, router: chi.NewRouter(), now: time.Now}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Post("/", s.handleWebhook)
	s.router.Post("/webhook", s.handleWebhook)
	s.router.Get("/health", s.handleHealth)
	return s
}

func (s *Server) Router() *chi.Mux { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.bot.log.Info().Str("addr", addr).Str("bot", s.bot.Name()).Msg("bot server listening")
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight commands.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	done := make(chan struct{})
	go func() {
		s.bot.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var raw rawEvent
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "invalid json"})
		return
	}
	ev := raw.event()
	if ev.Type == "" && ev.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "empty event"})
		return
	}

	s.bot.Dispatch(context.WithoutCancel(r.Context()), ev)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"bot_name":  s.bot.Name(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
