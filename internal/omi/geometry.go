package omi

// horizontalEdgeEpsilon keeps the crossing test finite when an edge is
// exactly horizontal (zero latitude span in the denominator).
const horizontalEdgeEpsilon = 1e-12

// contains reports whether the coordinate lies inside the ring using the
// even-odd ray-casting rule with x=longitude, y=latitude. The ring closes
// implicitly from its last vertex back to the first.
func (zp *ZonePolygon) contains(lat, lon float64) bool {
	n := len(zp.Ring)
	if n < 3 {
		return false
	}

	x, y := lon, lat
	inside := false
	for i := 0; i < n; i++ {
		a := zp.Ring[i]
		b := zp.Ring[(i+1)%n]

		crosses := (a.Lat > y) != (b.Lat > y) &&
			x < (b.Lon-a.Lon)*(y-a.Lat)/(b.Lat-a.Lat+horizontalEdgeEpsilon)+a.Lon
		if crosses {
			inside = !inside
		}
	}
	return inside
}

// inBBox is the cheap prefilter run before the exact test.
func (zp *ZonePolygon) inBBox(lat, lon float64) bool {
	return lon >= zp.bbox[0] && lon <= zp.bbox[2] && lat >= zp.bbox[1] && lat <= zp.bbox[3]
}

func (zp *ZonePolygon) computeBBox() {
	b := [4]float64{180, 90, -180, -90}
	for _, pt := range zp.Ring {
		if pt.Lon < b[0] {
			b[0] = pt.Lon
		}
		if pt.Lat < b[1] {
			b[1] = pt.Lat
		}
		if pt.Lon > b[2] {
			b[2] = pt.Lon
		}
		if pt.Lat > b[3] {
			b[3] = pt.Lat
		}
	}
	zp.bbox = b
}
