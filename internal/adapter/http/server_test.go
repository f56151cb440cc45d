package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lariofin/omi-valuation/internal/adapter/geocode"
	"github.com/lariofin/omi-valuation/internal/estimate"
	"github.com/lariofin/omi-valuation/internal/omi"
	"github.com/lariofin/omi-valuation/internal/valuation"
)

func fptr(v float64) *float64 { return &v }

type stubEstimator struct {
	readyErr  error
	valuation *omi.Valuation
	result    valuation.Result
	lastReq   valuation.Request
}

func (s *stubEstimator) CheckReadiness(_ context.Context) error { return s.readyErr }

func (s *stubEstimator) OfficialValuation(lat, lon float64) *omi.Valuation { return s.valuation }

func (s *stubEstimator) Estimate(req valuation.Request) valuation.Result {
	s.lastReq = req
	return s.result
}

type geocoderFunc func(ctx context.Context, address, municipality string) (geocode.Result, error)

func (f geocoderFunc) Geocode(ctx context.Context, address, municipality string) (geocode.Result, error) {
	return f(ctx, address, municipality)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(est Estimator, g geocode.Geocoder) *Server {
	return NewServer(":0", est, g, testLogger())
}

func comoValuation() *omi.Valuation {
	return &omi.Valuation{
		Municipality:    "Como",
		Province:        "CO",
		Zone:            "B1",
		ZoneDescription: "Centrale – Centro Storico",
		Min:             fptr(1900),
		Med:             fptr(2500),
		Max:             fptr(3100),
		Tier:            omi.MatchFull,
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&stubEstimator{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		srv := newTestServer(&stubEstimator{}, nil)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready while loading", func(t *testing.T) {
		srv := newTestServer(&stubEstimator{readyErr: errors.New("omi dataset has not finished loading")}, nil)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "not finished loading")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&stubEstimator{}, nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValuationEndpoint(t *testing.T) {
	t.Run("missing parameters", func(t *testing.T) {
		srv := newTestServer(&stubEstimator{}, nil)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/valuation?lat=45.8", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unparsable parameters", func(t *testing.T) {
		srv := newTestServer(&stubEstimator{}, nil)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/valuation?lat=north&lon=east", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("coordinate outside every zone", func(t *testing.T) {
		srv := newTestServer(&stubEstimator{}, nil)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/valuation?lat=40.0&lon=12.0", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "no OMI zone")
	})

	t.Run("found", func(t *testing.T) {
		srv := newTestServer(&stubEstimator{valuation: comoValuation()}, nil)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/valuation?lat=45.81&lon=9.08", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var v omi.Valuation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
		assert.Equal(t, "Como", v.Municipality)
		assert.Equal(t, "B1", v.Zone)
		assert.Equal(t, omi.MatchFull, v.Tier)
		require.NotNil(t, v.Med)
		assert.InDelta(t, 2500, *v.Med, 1e-9)
	})
}

func TestEstimateEndpoint(t *testing.T) {
	resultWith := func(source string) valuation.Result {
		return valuation.Result{
			Official: comoValuation(),
			Estimate: estimate.Estimate{
				Prudent:    fptr(2840),
				Central:    fptr(3400),
				Aggressive: fptr(3940),
				Source:     source,
			},
		}
	}

	t.Run("invalid body", func(t *testing.T) {
		srv := newTestServer(&stubEstimator{}, nil)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/estimate", strings.NewReader("{not json")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("neither coordinate nor address", func(t *testing.T) {
		srv := newTestServer(&stubEstimator{}, nil)

		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/estimate", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "lat/lon or address")
	})

	t.Run("coordinate query", func(t *testing.T) {
		est := &stubEstimator{result: resultWith("combined")}
		srv := newTestServer(est, nil)

		body := `{"lat":45.81,"lon":9.08,"market_new":{"n":10,"median":4000,"p25":3500,"p75":4600}}`
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/estimate", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.InDelta(t, 45.81, est.lastReq.Lat, 1e-9)
		require.NotNil(t, est.lastReq.MarketNew)
		assert.Equal(t, 10, est.lastReq.MarketNew.N)

		var res valuation.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "combined", res.Estimate.Source)
		require.NotNil(t, res.Estimate.Central)
		assert.InDelta(t, 3400, *res.Estimate.Central, 1e-9)
	})

	t.Run("address query without geocoder", func(t *testing.T) {
		srv := newTestServer(&stubEstimator{}, nil)

		body := `{"address":"Piazza Duomo 1","municipality":"Como"}`
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/estimate", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "disabled")
	})

	t.Run("address query resolves through the geocoder", func(t *testing.T) {
		est := &stubEstimator{result: resultWith("official")}
		g := geocoderFunc(func(_ context.Context, address, municipality string) (geocode.Result, error) {
			assert.Equal(t, "Piazza Duomo 1", address)
			assert.Equal(t, "Como", municipality)
			return geocode.Result{Lat: 45.8113, Lon: 9.0832}, nil
		})
		srv := newTestServer(est, g)

		body := `{"address":"Piazza Duomo 1","municipality":"Como"}`
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/estimate", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.InDelta(t, 45.8113, est.lastReq.Lat, 1e-9)
		assert.InDelta(t, 9.0832, est.lastReq.Lon, 1e-9)
	})

	t.Run("geocoder failure", func(t *testing.T) {
		g := geocoderFunc(func(context.Context, string, string) (geocode.Result, error) {
			return geocode.Result{}, errors.New("upstream timeout")
		})
		srv := newTestServer(&stubEstimator{}, g)

		body := `{"address":"Piazza Duomo 1"}`
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/estimate", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("address not found", func(t *testing.T) {
		g := geocoderFunc(func(context.Context, string, string) (geocode.Result, error) {
			return geocode.Result{}, nil
		})
		srv := newTestServer(&stubEstimator{}, g)

		body := `{"address":"Nowhere 99"}`
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/estimate", strings.NewReader(body)))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
