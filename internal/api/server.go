// Package api поднимает служебный HTTP-сервер рядом с ботом:
// /healthz для проверки живости (пингует БД) и /metrics для Prometheus.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Server — служебный HTTP-сервер.
type Server struct {
	pool *pgxpool.Pool
	srv  *http.Server
}

// NewServer создаёт сервер и регистрирует маршруты.
func NewServer(addr string, pool *pgxpool.Pool) *Server {
	s := &Server{pool: pool}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start запускает сервер и останавливает его при отмене контекста.
func (s *Server) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Ошибка остановки HTTP-сервера")
		}
	}()

	log.WithField("addr", s.srv.Addr).Info("HTTP-сервер запущен (/healthz, /metrics)")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Error("HTTP-сервер упал")
	}
}

// handleHealthz проверяет доступность базы.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		log.WithError(err).Warn("healthz: база недоступна")
		http.Error(w, "db unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
