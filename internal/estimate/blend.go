package estimate

import (
	"fmt"
	"time"

	"github.com/lariofin/omi-valuation/internal/omi"
)

// Params holds the tunable blending constants.
type Params struct {
	// MinComparables is the minimum number of new-construction samples for a
	// full-confidence market leg; below it the estimate still uses the
	// samples but carries a reduced-confidence note.
	MinComparables int

	// SpreadMin and SpreadMax bound the new-over-existing uplift applied
	// when only existing-stock statistics are available.
	SpreadMin float64
	SpreadMax float64

	// OfficialFactor multiplies the official median for the central figure:
	// new construction trades above recorded-transaction values.
	OfficialFactor float64
}

// DefaultParams returns the tuned production constants.
func DefaultParams() Params {
	return Params{
		MinComparables: 5,
		SpreadMin:      0.15,
		SpreadMax:      0.35,
		OfficialFactor: 1.25,
	}
}

// Estimate source labels.
const (
	SourceCombined = "combined"
	SourceOfficial = "official"
	SourceMarket   = "market"
	SourceFallback = "fallback"
)

// Blend weights when both the official and the market leg are available.
const (
	officialWeight = 0.60
	marketWeight   = 0.40
)

// Fixed uplifts on the official min/max for the prudent/aggressive tiers.
// Asymmetric on purpose: the premium over recorded values widens upward.
const (
	prudentUplift    = 1.20
	aggressiveUplift = 1.40
)

// Last-resort placeholder when neither source is available. Not derived from
// data; always flagged in the notes.
var fallbackTriple = [3]float64{2500, 3000, 3500}

// Estimate is the blended prudent/central/aggressive €/m² triple for new
// construction, with notes stating which sources actually contributed.
type Estimate struct {
	Prudent     *float64  `json:"prudent"`
	Central     *float64  `json:"central"`
	Aggressive  *float64  `json:"aggressive"`
	Source      string    `json:"source"`
	Spread      *float64  `json:"spread_new_vs_existing,omitempty"`
	Notes       []string  `json:"notes"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Blend combines an official valuation with market statistics for
// new-construction and existing-stock listings. Any input may be nil; the
// result degrades through official-only, market-only and finally a generic
// fallback triple.
func Blend(official *omi.Valuation, marketNew, marketExisting *Stats, p Params) Estimate {
	var notes []string

	marketLeg, spread, marketNotes := marketEstimate(marketNew, marketExisting, p)
	officialLeg := officialEstimate(official, p)

	est := Estimate{Spread: spread, GeneratedAt: clock.Now()}

	switch {
	case officialLeg != nil && marketLeg != nil:
		est.Source = SourceCombined
		est.Prudent = ptr(officialLeg[0]*officialWeight + marketLeg[0]*marketWeight)
		est.Central = ptr(officialLeg[1]*officialWeight + marketLeg[1]*marketWeight)
		est.Aggressive = ptr(officialLeg[2]*officialWeight + marketLeg[2]*marketWeight)
		notes = append(notes, "Blended estimate: 60% official OMI values + 40% market listings.")

	case officialLeg != nil:
		est.Source = SourceOfficial
		est.Prudent, est.Central, est.Aggressive = ptr(officialLeg[0]), ptr(officialLeg[1]), ptr(officialLeg[2])
		notes = append(notes, "Estimate based on official OMI values only (no usable market data).")

	case marketLeg != nil:
		est.Source = SourceMarket
		est.Prudent, est.Central, est.Aggressive = ptr(marketLeg[0]), ptr(marketLeg[1]), ptr(marketLeg[2])
		notes = append(notes, "Estimate based on market listings only (official OMI data unavailable).")

	default:
		est.Source = SourceFallback
		est.Prudent, est.Central, est.Aggressive = ptr(fallbackTriple[0]), ptr(fallbackTriple[1]), ptr(fallbackTriple[2])
		notes = append(notes, "No official or market data available: generic fallback estimate, not derived from data.")
	}

	notes = append(notes, marketNotes...)
	notes = append(notes, officialNotes(official)...)
	est.Notes = notes
	return est
}

// marketEstimate derives the {prudent, central, aggressive} market leg.
// New-construction statistics are used directly when present; otherwise
// existing-stock statistics are uplifted by the configured spread band.
func marketEstimate(marketNew, marketExisting *Stats, p Params) (leg *[3]float64, spread *float64, notes []string) {
	switch {
	case marketNew != nil && marketNew.N > 0:
		leg = &[3]float64{marketNew.P25, marketNew.Median, marketNew.P75}
		if marketExisting != nil && marketExisting.Median != 0 {
			spread = ptr(marketNew.Median/marketExisting.Median - 1)
		}
		notes = append(notes, fmt.Sprintf("New-construction comparables used: n=%d.", marketNew.N))
		if marketNew.N < p.MinComparables {
			notes = append(notes, fmt.Sprintf("Only %d new-construction comparables (threshold %d): reduced confidence.", marketNew.N, p.MinComparables))
		}

	case marketExisting != nil && marketExisting.N > 0:
		up := (p.SpreadMin + p.SpreadMax) / 2
		spread = ptr(up)
		leg = &[3]float64{
			marketExisting.P25 * (1 + p.SpreadMin),
			marketExisting.Median * (1 + up),
			marketExisting.P75 * (1 + p.SpreadMax),
		}
		notes = append(notes, "No usable new-construction comparables.")

	default:
		notes = append(notes, "No usable new-construction comparables.")
	}

	if marketExisting != nil && marketExisting.N > 0 {
		notes = append(notes, fmt.Sprintf("Existing-stock comparables used: n=%d.", marketExisting.N))
	} else {
		notes = append(notes, "No usable existing-stock comparables.")
	}
	return leg, spread, notes
}

// officialEstimate derives the official leg from the OMI triple.
func officialEstimate(official *omi.Valuation, p Params) *[3]float64 {
	if official == nil || official.Med == nil {
		return nil
	}
	return &[3]float64{
		orElse(official.Min, *official.Med) * prudentUplift,
		*official.Med * p.OfficialFactor,
		orElse(official.Max, *official.Med) * aggressiveUplift,
	}
}

func officialNotes(official *omi.Valuation) []string {
	if official == nil {
		return []string{"Official OMI zone could not be determined (check KML/CSV coverage)."}
	}
	var notes []string
	if official.Med == nil {
		notes = append(notes, fmt.Sprintf("OMI zone %s matched but carries no parsable value range.", official.Zone))
	}
	if official.Tier == omi.MatchZoneOnly {
		notes = append(notes, fmt.Sprintf("Official values for zone %s matched by zone code alone (municipality unverified): reduced confidence.", official.Zone))
	}
	return notes
}

func orElse(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}

func ptr(v float64) *float64 { return &v }
