package omi

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Italian)

// Residential property-type categories admitted into valuations. The raw
// table also carries shops, offices, garages and industrial rows.
var residentialCategories = map[string]bool{
	"ABITAZIONI CIVILI":    true,
	"ABITAZIONI SIGNORILI": true,
}

// ResolveZone returns the first loaded polygon containing the coordinate, in
// load order, or nil when no zone contains it. Zones are non-overlapping in
// practice, so no further tie-break is defined.
func (s *Store) ResolveZone(lat, lon float64) *ZonePolygon {
	for i := range s.polygons {
		zp := &s.polygons[i]
		if !zp.inBBox(lat, lon) {
			continue
		}
		if zp.contains(lat, lon) {
			return zp
		}
	}
	return nil
}

// Valuation resolves the official €/m² figures for a zone code, using the
// municipality and province hints when given. Matching is hierarchical,
// most-specific first; an empty result at every tier returns nil, never an
// error. The tier that produced the match is recorded on the result.
func (s *Store) Valuation(zone, municipality, province string) *Valuation {
	if len(s.values) == 0 {
		return nil
	}

	zone = strings.ToUpper(strings.TrimSpace(zone))
	mun := strings.ToUpper(strings.TrimSpace(municipality))
	prov := strings.ToUpper(strings.TrimSpace(province))

	rows, tier := s.matchValues(zone, mun, prov)
	if len(rows) == 0 {
		return nil
	}

	v := &Valuation{
		Municipality:    titleCaser.String(strings.ToLower(rows[0].Municipality)),
		Province:        strings.ToUpper(rows[0].Province),
		Zone:            zone,
		ZoneDescription: s.describeZone(zone, mun, prov),
		Tier:            tier,
	}

	var mins, maxs []float64
	for _, r := range rows {
		if f := ParseDecimal(r.ComprMin); f != nil {
			mins = append(mins, *f)
		}
		if f := ParseDecimal(r.ComprMax); f != nil {
			maxs = append(maxs, *f)
		}
	}
	if len(mins) > 0 && len(maxs) > 0 {
		lo := minOf(mins)
		hi := maxOf(maxs)
		// Midpoint of the extremes, not a statistical median: downstream
		// blending constants are tuned against this definition.
		mid := (lo + hi) / 2
		v.Min, v.Med, v.Max = &lo, &mid, &hi
	}

	return v
}

// ValuationAt resolves the zone containing the coordinate and returns its
// official valuation, or nil when no zone contains the point.
func (s *Store) ValuationAt(lat, lon float64) *Valuation {
	zp := s.ResolveZone(lat, lon)
	if zp == nil {
		return nil
	}
	return s.Valuation(zp.Zone, zp.Municipality, zp.Province)
}

// matchValues runs the tiered lookup over residential rows:
//
//	1. zone + municipality + province (hints applied when present)
//	2. zone + province
//	3. zone + municipality
//	4. zone alone
func (s *Store) matchValues(zone, mun, prov string) ([]referenceRecord, MatchTier) {
	rows := s.filterValues(zone, mun, prov)
	if len(rows) > 0 {
		return rows, tierFor(mun != "", prov != "")
	}
	if prov != "" {
		if rows = s.filterValues(zone, "", prov); len(rows) > 0 {
			return rows, MatchZoneProvince
		}
	}
	if mun != "" {
		if rows = s.filterValues(zone, mun, ""); len(rows) > 0 {
			return rows, MatchZoneMunicipality
		}
	}
	return s.filterValues(zone, "", ""), MatchZoneOnly
}

// filterValues selects residential rows matching the zone and any non-empty
// hints, all case-insensitively.
func (s *Store) filterValues(zone, mun, prov string) []referenceRecord {
	var out []referenceRecord
	for _, r := range s.values {
		if s.hasPropertyType && !residentialCategories[strings.ToUpper(r.PropertyType)] {
			continue
		}
		if !strings.EqualFold(r.Zone, zone) {
			continue
		}
		if mun != "" && !strings.EqualFold(r.Municipality, mun) {
			continue
		}
		if prov != "" && !strings.EqualFold(r.Province, prov) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func tierFor(hasMun, hasProv bool) MatchTier {
	switch {
	case hasMun && hasProv:
		return MatchFull
	case hasProv:
		return MatchZoneProvince
	case hasMun:
		return MatchZoneMunicipality
	default:
		return MatchZoneOnly
	}
}

// describeZone runs an independent hinted match against the description
// table, falling back to a zone-only match and then to a synthesized label.
func (s *Store) describeZone(zone, mun, prov string) string {
	rows := s.filterDescriptions(zone, mun, prov)
	if len(rows) == 0 {
		rows = s.filterDescriptions(zone, "", "")
	}
	if len(rows) == 0 {
		return fmt.Sprintf("Zona OMI %s", zone)
	}
	return cleanDescription(rows[0].Description)
}

func (s *Store) filterDescriptions(zone, mun, prov string) []zoneDescription {
	var out []zoneDescription
	for _, d := range s.descriptions {
		if !strings.EqualFold(d.Zone, zone) {
			continue
		}
		if mun != "" && !strings.EqualFold(d.Municipality, mun) {
			continue
		}
		if prov != "" && !strings.EqualFold(d.Province, prov) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// cleanDescription normalizes a raw OMI zone label: strips the quote
// characters the source wraps values in, title-cases the shouting uppercase,
// and replaces the awkward colon separators with an en-dash.
func cleanDescription(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "'")
	clean = strings.TrimSpace(clean)
	clean = titleCaser.String(strings.ToLower(clean))
	clean = strings.ReplaceAll(clean, " : ", " – ")
	clean = strings.ReplaceAll(clean, ": ", " – ")
	return clean
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
