package boundary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrNoCountryMatch is returned when no polygon's id matches the requested
// country code. This is fatal: a coordinate cannot be placed in a country the
// layer does not cover.
var ErrNoCountryMatch = errors.New("boundary: no polygons match country")

// Locate returns the id of the administrative unit enclosing the coordinate.
//
// The layer is first narrowed to records whose id contains the country code
// as a substring; an empty selection is an error. Within the selection, the
// first polygon containing the point wins. When no polygon contains the point
// exactly (offshore points near simplified coastlines), the nearest polygon
// by planar distance is used unconditionally.
func (l *Layer) Locate(lon, lat float64, countryCode string) (string, error) {
	point := orb.Point{lon, lat}

	var selection []Record
	for _, rec := range l.Records {
		if strings.Contains(rec.ID, countryCode) {
			selection = append(selection, rec)
		}
	}
	if len(selection) == 0 {
		return "", fmt.Errorf("%w: %q", ErrNoCountryMatch, countryCode)
	}

	for _, rec := range selection {
		if geometryContains(rec.Geometry, point) {
			return rec.ID, nil
		}
	}

	// Containment miss: snap to the nearest polygon.
	nearest := selection[0]
	best := planar.DistanceFrom(nearest.Geometry, point)
	for _, rec := range selection[1:] {
		if d := planar.DistanceFrom(rec.Geometry, point); d < best {
			best = d
			nearest = rec
		}
	}
	return nearest.ID, nil
}

func geometryContains(g orb.Geometry, point orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, point)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, point)
	default:
		return false
	}
}
