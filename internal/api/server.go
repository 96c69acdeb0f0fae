// Package api is the HTTP boundary of the forecast core. Both endpoints
// are stateless and idempotent; validation failures become 400s with a
// human-readable detail, core errors map deterministically to 500s that
// never leak provider error text.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rainzhq/rainz/internal/store"
	"github.com/rainzhq/rainz/internal/weather"
)

// EnsembleFetcher supplies raw per-member hourly data for a location.
type EnsembleFetcher interface {
	FetchRawHourly(ctx context.Context, lat, lon float64) ([]byte, []string, error)
}

type Server struct {
	weather  *weather.Service
	ensemble EnsembleFetcher
	store    *store.Store
	port     string
	validate *validator.Validate
}

func NewServer(ws *weather.Service, ensemble EnsembleFetcher, st *store.Store, port string) *Server {
	return &Server{
		weather:  ws,
		ensemble: ensemble,
		store:    st,
		port:     port,
		validate: validator.New(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/aggregate-weather", s.handleAggregateWeather)
	mux.HandleFunc("/fetch-ensemble-forecast", s.handleEnsembleForecast)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
