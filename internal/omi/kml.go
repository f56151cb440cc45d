package omi

import (
	"encoding/xml"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	// documentTitleRe extracts "<NAME> (<XX>)" from a KML document title,
	// e.g. "COMO (CO) Anno/Semestre 2025/1 generato il ..." → COMO, CO.
	documentTitleRe = regexp.MustCompile(`^(.*?)\s+\((..)\)`)

	// zoneNameRe is the fallback zone-code source when the CODZONA field is
	// missing: "... Zona OMI B1" → B1. Applied to the uppercased name.
	zoneNameRe = regexp.MustCompile(`ZONA\s+OMI\s+([A-Z0-9]+)`)
)

// KML document structure, reduced to the elements the loader reads.
// Placemarks may sit directly under Document or inside nested Folders.

type kmlRoot struct {
	Document kmlContainer `xml:"Document"`
}

type kmlContainer struct {
	Name       string         `xml:"name"`
	Folders    []kmlContainer `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name     string       `xml:"name"`
	Data     []kmlData    `xml:"ExtendedData>Data"`
	Polygons []kmlPolygon `xml:"Polygon"`
	Multi    []kmlPolygon `xml:"MultiGeometry>Polygon"`
}

type kmlData struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type kmlPolygon struct {
	Coordinates string `xml:"outerBoundaryIs>LinearRing>coordinates"`
}

// parseKMLFile parses one municipality boundary file into zone polygons.
// Placemarks without a recoverable zone code and rings with fewer than three
// valid vertices are dropped silently; only a structurally unparsable file is
// an error.
func parseKMLFile(path string) ([]ZonePolygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kml: %w", err)
	}

	var root kmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse kml: %w", err)
	}

	municipality, province := parseDocumentTitle(root.Document.Name)

	var out []ZonePolygon
	for _, pm := range collectPlacemarks(root.Document) {
		zone := placemarkZone(pm)
		if zone == "" {
			continue
		}

		for _, poly := range append(pm.Polygons, pm.Multi...) {
			ring := parseRing(poly.Coordinates)
			if len(ring) < 3 {
				continue
			}
			zp := ZonePolygon{
				Zone:         zone,
				Municipality: municipality,
				Province:     province,
				Ring:         ring,
			}
			zp.computeBBox()
			out = append(out, zp)
		}
	}
	return out, nil
}

func parseDocumentTitle(title string) (municipality, province string) {
	m := documentTitleRe.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return "", ""
	}
	return strings.ToUpper(strings.TrimSpace(m[1])), strings.ToUpper(strings.TrimSpace(m[2]))
}

func collectPlacemarks(c kmlContainer) []kmlPlacemark {
	out := c.Placemarks
	for _, f := range c.Folders {
		out = append(out, collectPlacemarks(f)...)
	}
	return out
}

// placemarkZone resolves the zone code: the CODZONA extended-data field wins,
// then the "ZONA OMI <CODE>" pattern in the placemark name.
func placemarkZone(pm kmlPlacemark) string {
	for _, d := range pm.Data {
		if d.Name == "CODZONA" && strings.TrimSpace(d.Value) != "" {
			return strings.ToUpper(strings.TrimSpace(d.Value))
		}
	}
	if m := zoneNameRe.FindStringSubmatch(strings.ToUpper(pm.Name)); m != nil {
		return m[1]
	}
	return ""
}

// parseRing reads whitespace-separated "lon,lat[,alt]" tokens, dropping
// malformed ones.
func parseRing(coords string) []Point {
	var ring []Point
	for _, tok := range strings.Fields(coords) {
		bits := strings.Split(tok, ",")
		if len(bits) < 2 {
			continue
		}
		lon, errLon := strconv.ParseFloat(bits[0], 64)
		lat, errLat := strconv.ParseFloat(bits[1], 64)
		if errLon != nil || errLat != nil {
			continue
		}
		ring = append(ring, Point{Lat: lat, Lon: lon})
	}
	return ring
}
