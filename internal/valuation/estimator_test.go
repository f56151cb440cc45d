package valuation

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lariofin/omi-valuation/internal/estimate"
	"github.com/lariofin/omi-valuation/internal/observability"
	"github.com/lariofin/omi-valuation/internal/omi"
)

func fptr(v float64) *float64 { return &v }

type fakeStore struct {
	ready     bool
	zone      *omi.ZonePolygon
	valuation *omi.Valuation
}

func (f *fakeStore) Ready() bool { return f.ready }

func (f *fakeStore) ResolveZone(lat, lon float64) *omi.ZonePolygon { return f.zone }

func (f *fakeStore) Valuation(zone, municipality, province string) *omi.Valuation {
	return f.valuation
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func comoStore() *fakeStore {
	return &fakeStore{
		ready: true,
		zone:  &omi.ZonePolygon{Zone: "B1", Municipality: "COMO", Province: "CO"},
		valuation: &omi.Valuation{
			Municipality: "Como",
			Province:     "CO",
			Zone:         "B1",
			Min:          fptr(1900),
			Med:          fptr(2500),
			Max:          fptr(3100),
			Tier:         omi.MatchFull,
		},
	}
}

func TestCheckReadiness(t *testing.T) {
	m := observability.NewMetricsForTesting()

	t.Run("loaded", func(t *testing.T) {
		e := New(&fakeStore{ready: true}, estimate.DefaultParams(), testLogger(), m)
		assert.NoError(t, e.CheckReadiness(context.Background()))
	})

	t.Run("still loading", func(t *testing.T) {
		e := New(&fakeStore{}, estimate.DefaultParams(), testLogger(), m)
		err := e.CheckReadiness(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not finished loading")
	})
}

func TestOfficialValuation(t *testing.T) {
	t.Run("resolved", func(t *testing.T) {
		m := observability.NewMetricsForTesting()
		e := New(comoStore(), estimate.DefaultParams(), testLogger(), m)

		v := e.OfficialValuation(45.81, 9.08)
		require.NotNil(t, v)
		assert.Equal(t, "B1", v.Zone)

		assert.Equal(t, float64(1), testutil.ToFloat64(m.ZoneResolutions.WithLabelValues("hit")))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.ValuationLookups.WithLabelValues(string(omi.MatchFull))))
	})

	t.Run("no zone contains the coordinate", func(t *testing.T) {
		m := observability.NewMetricsForTesting()
		e := New(&fakeStore{ready: true}, estimate.DefaultParams(), testLogger(), m)

		assert.Nil(t, e.OfficialValuation(40.0, 12.0))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.ZoneResolutions.WithLabelValues("miss")))
	})

	t.Run("zone without reference row", func(t *testing.T) {
		m := observability.NewMetricsForTesting()
		store := comoStore()
		store.valuation = nil
		e := New(store, estimate.DefaultParams(), testLogger(), m)

		assert.Nil(t, e.OfficialValuation(45.81, 9.08))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.ZoneResolutions.WithLabelValues("hit")))
	})
}

func TestEstimate(t *testing.T) {
	t.Run("official and market combined", func(t *testing.T) {
		m := observability.NewMetricsForTesting()
		e := New(comoStore(), estimate.DefaultParams(), testLogger(), m)

		res := e.Estimate(Request{
			Lat:       45.81,
			Lon:       9.08,
			MarketNew: &estimate.Stats{N: 10, Median: 4000, P25: 3500, P75: 4600},
		})

		require.NotNil(t, res.Official)
		assert.Equal(t, estimate.SourceCombined, res.Estimate.Source)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.EstimatesTotal.WithLabelValues(estimate.SourceCombined)))
	})

	t.Run("degrades to fallback outside coverage", func(t *testing.T) {
		m := observability.NewMetricsForTesting()
		e := New(&fakeStore{ready: true}, estimate.DefaultParams(), testLogger(), m)

		res := e.Estimate(Request{Lat: 40.0, Lon: 12.0})

		assert.Nil(t, res.Official)
		assert.Equal(t, estimate.SourceFallback, res.Estimate.Source)
		require.NotNil(t, res.Estimate.Central)
		assert.InDelta(t, 3000, *res.Estimate.Central, 1e-9)
	})
}
