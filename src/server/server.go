package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	logger "github.com/sirupsen/logrus"

	"traderelay/src/executors"
	"traderelay/src/handler"
	"traderelay/src/model"
	"traderelay/src/notify"
	"traderelay/src/repository"
)

type journalSearcher interface {
	Search(ctx context.Context, options repository.TradeJournalSearchOptions) ([]model.TradeJournal, error)
}

// NewRouter builds the relay routes. journal may be nil when the database is
// disabled.
func NewRouter(config *Config, dispatcher *executors.Dispatcher, journal journalSearcher) chi.Router {
	r := chi.NewRouter()
	// === Global Middleware ===
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/health error")
		}
	})

	// Signal routes. The whitelist checks the peer address, so it must run
	// before RealIP trusts forwarding headers.
	r.Group(func(r chi.Router) {
		r.Use(ipWhitelist(config.Whitelist))
		r.Use(middleware.RealIP)
		r.Post("/order", handler.OrderHandler(dispatcher, config.PasswordHash))
		r.Post("/position-mode", handler.PositionModeHandler(dispatcher, config.PasswordHash))
		r.Post("/positions", handler.PositionsHandler(dispatcher, config.PasswordHash))
		r.Post("/journal", handler.JournalHandler(journal, config.PasswordHash))
	})

	return r
}

// ipWhitelist rejects requests whose source address is not listed. An empty
// list lets everything through.
func ipWhitelist(allowed []string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, ip := range allowed {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(set) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			host := r.RemoteAddr
			if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				host = h
			}
			if _, ok := set[host]; !ok {
				logger.WithField("remote", host).Warn("signal from address outside whitelist")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// StartServer serves the relay until SIGINT or SIGTERM, then drains pending
// notifications.
func StartServer(config *Config, dispatcher *executors.Dispatcher, notifier *notify.Notifier, journal journalSearcher) {
	if config.PasswordHash == "" {
		logger.Warn("RELAY_PASSWORD_HASH is empty, every signal will be rejected")
	}

	r := NewRouter(config, dispatcher, journal)

	// Graceful server
	addr := ":" + config.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
	if err := notifier.Wait(); err != nil {
		logger.WithError(err).Warn("Some notifications were not delivered")
	}
}
