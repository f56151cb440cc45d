package valuation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lariofin/omi-valuation/internal/estimate"
	"github.com/lariofin/omi-valuation/internal/observability"
	"github.com/lariofin/omi-valuation/internal/omi"
)

// ZoneStore is the subset of the OMI store the estimator needs.
type ZoneStore interface {
	Ready() bool
	ResolveZone(lat, lon float64) *omi.ZonePolygon
	Valuation(zone, municipality, province string) *omi.Valuation
}

// Request is one estimation query: a coordinate plus the market statistics
// supplied by the listings collaborator. Either statistics block may be nil.
type Request struct {
	Lat            float64         `json:"lat"`
	Lon            float64         `json:"lon"`
	MarketNew      *estimate.Stats `json:"market_new,omitempty"`
	MarketExisting *estimate.Stats `json:"market_existing,omitempty"`
}

// Result pairs the resolved official valuation (nil when the coordinate falls
// outside every loaded zone) with the blended estimate.
type Result struct {
	Official *omi.Valuation    `json:"official_valuation"`
	Estimate estimate.Estimate `json:"estimate"`
}

// Estimator orchestrates zone resolution, value lookup and blending over an
// immutable, pre-loaded store.
type Estimator struct {
	store   ZoneStore
	params  estimate.Params
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Estimator with the given store, blending parameters and
// observability.
func New(store ZoneStore, params estimate.Params, logger *slog.Logger, metrics *observability.Metrics) *Estimator {
	return &Estimator{
		store:   store,
		params:  params,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once the dataset is loaded, or an error
// describing why the service is not yet ready.
func (e *Estimator) CheckReadiness(_ context.Context) error {
	if !e.store.Ready() {
		return errors.New("omi dataset has not finished loading")
	}
	return nil
}

// OfficialValuation resolves a coordinate to its zone and the zone to its
// official value triple. Returns nil when no zone contains the coordinate or
// no reference row matches; both are expected outcomes, not errors.
func (e *Estimator) OfficialValuation(lat, lon float64) *omi.Valuation {
	start := time.Now()
	defer func() {
		e.metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	}()

	zone := e.store.ResolveZone(lat, lon)
	if zone == nil {
		e.metrics.ZoneResolutions.WithLabelValues("miss").Inc()
		e.logger.Debug("no omi zone contains coordinate", "lat", lat, "lon", lon)
		return nil
	}
	e.metrics.ZoneResolutions.WithLabelValues("hit").Inc()

	v := e.store.Valuation(zone.Zone, zone.Municipality, zone.Province)
	if v == nil {
		e.logger.Warn("zone resolved but no reference row matched",
			"zone", zone.Zone, "municipality", zone.Municipality, "province", zone.Province)
		return nil
	}
	e.metrics.ValuationLookups.WithLabelValues(string(v.Tier)).Inc()

	e.logger.Debug("official valuation resolved",
		"zone", v.Zone, "municipality", v.Municipality, "tier", v.Tier)
	return v
}

// Estimate runs the full flow: official valuation plus market blend.
func (e *Estimator) Estimate(req Request) Result {
	official := e.OfficialValuation(req.Lat, req.Lon)
	est := estimate.Blend(official, req.MarketNew, req.MarketExisting, e.params)
	e.metrics.EstimatesTotal.WithLabelValues(est.Source).Inc()

	e.logger.Info("estimate produced",
		"lat", req.Lat,
		"lon", req.Lon,
		"source", est.Source,
		"official_found", official != nil,
	)
	return Result{Official: official, Estimate: est}
}
