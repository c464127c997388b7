package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/voxbridge/lt-engine/internal/config"
	"github.com/voxbridge/lt-engine/internal/database"
	"github.com/voxbridge/lt-engine/internal/metrics"
	"github.com/voxbridge/lt-engine/internal/mqttclient"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, db *database.DB, mqtt *mqttclient.Client, live LiveDataSource, version string, startTime time.Time, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(CORS)
	r.Use(Logger(log))
	r.Use(metrics.InstrumentHandler)

	// Unauthenticated probes
	var healthMQTT HealthMQTT
	if mqtt != nil {
		healthMQTT = mqtt
	}
	health := NewHealthHandler(db, healthMQTT, cfg.VoiceToVoiceEnabled(), version, startTime)
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(cfg.AuthToken))
		NewTranslationsHandler(db).Routes(r)
		NewInjectionsHandler(db).Routes(r)
		NewStatsHandler(live).Routes(r)
		NewEventsHandler(live).Routes(r)
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
