package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Coord decodes latitude/longitude values that the backend serves either as
// JSON numbers or as numeric strings.
type Coord float64

func (c *Coord) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("backend: missing coordinate")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("backend: coordinate %q: %w", s, err)
		}
		*c = Coord(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*c = Coord(f)
	return nil
}

func (c Coord) valid() bool {
	f := float64(c)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// BoundsPayload is the viewport section present in every marker request.
type BoundsPayload struct {
	SWLat float64 `json:"swLat"`
	SWLng float64 `json:"swLng"`
	NELat float64 `json:"neLat"`
	NELng float64 `json:"neLng"`
}

// ComplexMarker is one property record from the complex endpoint.
type ComplexMarker struct {
	ID          int64   `json:"id"`
	ComplexName string  `json:"complexName,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	PriceEok    float64 `json:"priceEok,omitempty"`
	Pyeong      float64 `json:"pyeong,omitempty"`
	UnitCount   int64   `json:"unitCount,omitempty"`
}

// RegionMarker is one administrative aggregate from the region endpoint.
type RegionMarker struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	UnitCountSum int64   `json:"unitCountSum,omitempty"`
}

// RegionNode is one node of the 3-level administrative tree. Children are
// fetched lazily; an absent or malformed children field decodes to an empty
// slice so consumers never special-case it.
type RegionNode struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Latitude  *float64     `json:"latitude"`
	Longitude *float64     `json:"longitude"`
	Children  []RegionNode `json:"children"`
}

// HasCoordinates reports whether the node can be recentered on.
func (n RegionNode) HasCoordinates() bool {
	return n.Latitude != nil && n.Longitude != nil
}

// SearchResult is one hit from the complex-name search endpoint.
type SearchResult struct {
	ComplexID   int64   `json:"complexId"`
	ParcelID    int64   `json:"parcelId"`
	ComplexName string  `json:"complexName"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// PropertyDetail is the detail-endpoint payload. The engine passes it
// through to the presentation layer untouched, so unknown fields survive.
type PropertyDetail map[string]any

// Trade is one historical transaction of a property.
type Trade struct {
	DealDate string  `json:"dealDate"`
	PriceEok float64 `json:"priceEok,omitempty"`
	Floor    int     `json:"floor,omitempty"`
	Pyeong   float64 `json:"pyeong,omitempty"`
}

// Favorite is one row of the user's watchlist. ID is the server-assigned
// subscription identity; ParcelID is the property identity user actions
// are keyed by.
type Favorite struct {
	ID           int64   `json:"id"`
	ParcelID     int64   `json:"parcelId"`
	ComplexName  string  `json:"complexName"`
	Address      string  `json:"address,omitempty"`
	Lat          float64 `json:"lat,omitempty"`
	Lng          float64 `json:"lng,omitempty"`
	AlarmEnabled bool    `json:"alarmEnabled"`
}

// RankingEntry is one row of a 30-day top chart.
type RankingEntry struct {
	Rank        int     `json:"rank"`
	ParcelID    int64   `json:"parcelId,omitempty"`
	ComplexName string  `json:"complexName"`
	Value       float64 `json:"value,omitempty"`
}
