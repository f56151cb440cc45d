// Package omi resolves geographic coordinates to official Italian OMI
// valuation zones and their published €/m² value ranges.
//
// # Data Source
//
// OMI (Osservatorio del Mercato Immobiliare) data is published twice a year by
// the Agenzia delle Entrate. A dataset release consists of one KML file per
// municipality with the zone boundary polygons, plus two semicolon-delimited
// CSV tables: the value ranges (QI_<semester>_VALORI.csv) and the zone
// descriptions (QI_<semester>_ZONE.csv). For distribution the whole directory
// is commonly split into size-capped Omi_*.zip archives; the store extracts
// them on first load when the expected files are absent.
//
// # KML Conventions
//
// Document title:
//
//	"COMO (CO) Anno/Semestre 2025/1 generato il ..."
//	The leading "<NAME> (<XX>)" pair yields the municipality and the
//	two-letter province code shared by every placemark in the file.
//
// Zone code per placemark:
//
//	Preferred: the ExtendedData field named "CODZONA".
//	Fallback:  the pattern "ZONA OMI <CODE>" inside the placemark name.
//	Placemarks carrying neither are skipped.
//
// Coordinates:
//
//	Whitespace-separated "lon,lat[,alt]" tokens, longitude first. Malformed
//	tokens are dropped; a ring is kept only with at least three valid
//	vertices. Rings close implicitly from the last vertex back to the first.
//
// # CSV Conventions
//
// Both tables open with a human-readable banner line; the real column header
// is the second line. All values are text. Numbers use the Italian
// conventions handled by [ParseDecimal]: comma decimal separator ("45,8") and
// optional thousands dots ("1.234,56"). "NA" and empty cells mean absent.
//
// Zone codes such as "B1" are unique only within a municipality+province
// pair, never nationally. Value lookups therefore match hierarchically:
// zone+municipality+province, then zone+province, then zone+municipality,
// then zone alone. The final tier can pick an unrelated municipality's
// same-coded zone; results record the tier used so consumers can warn about
// the weakest match instead of silently trusting it.
//
// # Value Semantics
//
// The published range per zone and property type is (Compr_min, Compr_max).
// Across the matched rows the resolver takes the overall minimum and maximum
// and reports their midpoint as the "median". This mean-of-extremes figure is
// not a statistical median; downstream blending constants were tuned against
// this exact definition, so it is preserved as-is.
//
// Only ordinary residential rows ("ABITAZIONI CIVILI", "ABITAZIONI
// SIGNORILI") participate in valuations; shops, offices and industrial
// categories present in the raw table are excluded.
package omi
