package types

import (
	"fmt"
	"strconv"
	"strings"
)

// GeoPoint is a WGS84 latitude/longitude pair attached to a catalog item.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String renders the point in "lat,lng" form, the format used by form fields
// and query parameters.
func (g GeoPoint) String() string {
	return fmt.Sprintf("%g,%g", g.Lat, g.Lng)
}

// ParseGeoPoint accepts a "lat,lng" pair.
func ParseGeoPoint(raw string) (*GeoPoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("geo: expected \"lat,lng\", got %q", raw)
	}

	lat, err := parseCoordinate(parts[0])
	if err != nil {
		return nil, err
	}
	lng, err := parseCoordinate(parts[1])
	if err != nil {
		return nil, err
	}

	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("geo: latitude %g out of range", lat)
	}
	if lng < -180 || lng > 180 {
		return nil, fmt.Errorf("geo: longitude %g out of range", lng)
	}

	return &GeoPoint{Lat: lat, Lng: lng}, nil
}

func parseCoordinate(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("geo: empty coordinate")
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("geo: parse coordinate %w", err)
	}
	return f, nil
}
