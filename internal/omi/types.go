package omi

// Point is a WGS-84 coordinate. KML serializes longitude first; the struct
// keeps the two axes named to avoid order mistakes.
type Point struct {
	Lat float64
	Lon float64
}

// ZonePolygon is one boundary ring of an OMI zone, tagged with the zone code
// and the municipality/province the source KML file belongs to. A zone may
// contribute several polygons (MultiGeometry members each become one).
type ZonePolygon struct {
	Zone         string
	Municipality string
	Province     string
	Ring         []Point

	// bbox is minLon, minLat, maxLon, maxLat; used as a cheap containment
	// prefilter before the exact ray-casting test.
	bbox [4]float64
}

// MatchTier identifies which fallback tier of the hierarchical lookup
// produced a valuation. Tiers are ordered most-specific first.
type MatchTier string

const (
	MatchFull             MatchTier = "zone+municipality+province"
	MatchZoneProvince     MatchTier = "zone+province"
	MatchZoneMunicipality MatchTier = "zone+municipality"
	// MatchZoneOnly means the zone code matched with no geographic hint
	// confirmed. Zone codes recur nationally, so this tier may return an
	// unrelated municipality's values; consumers should treat it as reduced
	// confidence.
	MatchZoneOnly MatchTier = "zone"
)

// Valuation is the official €/m² triple resolved for a zone. The numeric
// fields are nil when the matched rows carry no parsable range.
type Valuation struct {
	Municipality    string    `json:"municipality"`
	Province        string    `json:"province"`
	Zone            string    `json:"zone"`
	ZoneDescription string    `json:"zone_description"`
	Min             *float64  `json:"val_min_mq"`
	Med             *float64  `json:"val_med_mq"`
	Max             *float64  `json:"val_max_mq"`
	Tier            MatchTier `json:"match_tier"`
}

// referenceRecord is one text-typed row of the values table. Numeric parsing
// is deferred to query time so malformed cells degrade to nil per row instead
// of failing the load.
type referenceRecord struct {
	Zone         string
	Municipality string
	Province     string
	PropertyType string
	ComprMin     string
	ComprMax     string
}

// zoneDescription is one row of the optional zone-description table.
type zoneDescription struct {
	Zone         string
	Municipality string
	Province     string
	Description  string
}
