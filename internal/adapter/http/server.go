package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lariofin/omi-valuation/internal/adapter/geocode"
	"github.com/lariofin/omi-valuation/internal/estimate"
	"github.com/lariofin/omi-valuation/internal/omi"
	"github.com/lariofin/omi-valuation/internal/valuation"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Estimator is the query surface the server exposes over JSON.
type Estimator interface {
	ReadinessChecker
	OfficialValuation(lat, lon float64) *omi.Valuation
	Estimate(req valuation.Request) valuation.Result
}

// Server exposes health, readiness, metrics and valuation query endpoints.
type Server struct {
	httpServer *http.Server
	estimator  Estimator
	geocoder   geocode.Geocoder // nil when geocoding is disabled
	logger     *slog.Logger
}

// NewServer creates the HTTP server. A nil geocoder disables address-based
// queries; coordinate-based queries always work.
func NewServer(addr string, estimator Estimator, geocoder geocode.Geocoder, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		estimator: estimator,
		geocoder:  geocoder,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(estimator))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/valuation", s.handleValuation)
	mux.HandleFunc("POST /v1/estimate", s.handleEstimate)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleValuation resolves ?lat=&lon= to the official OMI valuation.
// A coordinate outside every zone is a valid outcome reported as 404.
func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lat and lon query parameters are required"})
		return
	}

	v := s.estimator.OfficialValuation(lat, lon)
	if v == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no OMI zone matches the given coordinate"})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// estimateRequest is the POST /v1/estimate body. Either a coordinate or an
// address (resolved through the geocoding collaborator) must be supplied;
// market statistics are optional.
type estimateRequest struct {
	Lat            float64         `json:"lat"`
	Lon            float64         `json:"lon"`
	Address        string          `json:"address,omitempty"`
	Municipality   string          `json:"municipality,omitempty"`
	MarketNew      *estimate.Stats `json:"market_new,omitempty"`
	MarketExisting *estimate.Stats `json:"market_existing,omitempty"`
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	hasCoords := req.Lat != 0 || req.Lon != 0
	if !hasCoords {
		if req.Address == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "either lat/lon or address is required"})
			return
		}
		if s.geocoder == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "address queries require the geocoder, which is disabled"})
			return
		}
		result, err := s.geocoder.Geocode(r.Context(), req.Address, req.Municipality)
		if err != nil {
			s.logger.Warn("geocoding failed", "address", req.Address, "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "geocoding failed"})
			return
		}
		if !result.Found() {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "address could not be geocoded"})
			return
		}
		req.Lat, req.Lon = result.Lat, result.Lon
	}

	res := s.estimator.Estimate(valuation.Request{
		Lat:            req.Lat,
		Lon:            req.Lon,
		MarketNew:      req.MarketNew,
		MarketExisting: req.MarketExisting,
	})
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
