package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"homeatlas/core-go/internal/filter"
	"homeatlas/core-go/internal/viewport"
)

type complexRequest struct {
	BoundsPayload
	filter.Payload
}

type regionRequest struct {
	BoundsPayload
	Region viewport.Granularity `json:"region"`
}

// MapComplexes fetches individual property markers inside the bounds with
// the sparse filter payload applied.
func (c *Client) MapComplexes(ctx context.Context, b BoundsPayload, f filter.Payload) ([]ComplexMarker, error) {
	var raw json.RawMessage
	req := complexRequest{BoundsPayload: b, Payload: f}
	if err := c.do(ctx, http.MethodPost, string(viewport.EndpointComplexes), nil, req, &raw); err != nil {
		return nil, err
	}
	return decodeMarkers(raw, func(lat, lng float64, el json.RawMessage) (ComplexMarker, bool) {
		var m ComplexMarker
		if err := json.Unmarshal(el, &struct {
			*ComplexMarker
			Lat json.RawMessage `json:"lat"`
			Lng json.RawMessage `json:"lng"`
		}{ComplexMarker: &m}); err != nil {
			return ComplexMarker{}, false
		}
		m.Lat, m.Lng = lat, lng
		return m, true
	}), nil
}

// MapRegions fetches administrative aggregates at the given granularity.
func (c *Client) MapRegions(ctx context.Context, b BoundsPayload, g viewport.Granularity) ([]RegionMarker, error) {
	var raw json.RawMessage
	req := regionRequest{BoundsPayload: b, Region: g}
	if err := c.do(ctx, http.MethodPost, string(viewport.EndpointRegions), nil, req, &raw); err != nil {
		return nil, err
	}
	return decodeMarkers(raw, func(lat, lng float64, el json.RawMessage) (RegionMarker, bool) {
		var m RegionMarker
		if err := json.Unmarshal(el, &struct {
			*RegionMarker
			Lat json.RawMessage `json:"lat"`
			Lng json.RawMessage `json:"lng"`
		}{RegionMarker: &m}); err != nil {
			return RegionMarker{}, false
		}
		m.Lat, m.Lng = lat, lng
		return m, true
	}), nil
}

// RegionRoot fetches the province list at the top of the drill tree.
func (c *Client) RegionRoot(ctx context.Context) ([]RegionNode, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/region", nil, nil, &raw); err != nil {
		return nil, err
	}
	var nodes []RegionNode
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return []RegionNode{}, nil
	}
	for i := range nodes {
		if nodes[i].Children == nil {
			nodes[i].Children = []RegionNode{}
		}
	}
	return nodes, nil
}

// Region fetches a single node with its children. A missing or malformed
// children field normalizes to an empty slice.
func (c *Client) Region(ctx context.Context, id int64) (RegionNode, error) {
	var node RegionNode
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/region/%d", id), nil, nil, &node); err != nil {
		return RegionNode{}, err
	}
	if node.Children == nil {
		node.Children = []RegionNode{}
	}
	return node, nil
}

// SearchComplexes runs a complex-name search. Non-array responses
// normalize to an empty result list.
func (c *Client) SearchComplexes(ctx context.Context, q string) ([]SearchResult, error) {
	query := url.Values{}
	query.Set("q", q)
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/search/complexes", query, nil, &raw); err != nil {
		return nil, err
	}
	var results []SearchResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return []SearchResult{}, nil
	}
	return results, nil
}

// Detail fetches the property detail object for a parcel.
func (c *Client) Detail(ctx context.Context, parcelID int64) (PropertyDetail, error) {
	var d PropertyDetail
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/detail/%d", parcelID), nil, nil, &d); err != nil {
		return nil, err
	}
	return d, nil
}

// Trades fetches a parcel's transaction history. A missing trades field
// normalizes to an empty slice.
func (c *Client) Trades(ctx context.Context, parcelID int64) ([]Trade, error) {
	var resp struct {
		Trades []Trade `json:"trades"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/trade/%d", parcelID), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Trades == nil {
		resp.Trades = []Trade{}
	}
	return resp.Trades, nil
}

// Favorites lists the user's watchlist.
func (c *Client) Favorites(ctx context.Context) ([]Favorite, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/favorites", nil, nil, &raw); err != nil {
		return nil, err
	}
	var favorites []Favorite
	if err := json.Unmarshal(raw, &favorites); err != nil {
		return []Favorite{}, nil
	}
	return favorites, nil
}

// CreateFavorite subscribes the user to a parcel.
func (c *Client) CreateFavorite(ctx context.Context, parcelID int64, complexName string) (Favorite, error) {
	req := map[string]any{"parcelId": parcelID, "complexName": complexName}
	var fav Favorite
	if err := c.do(ctx, http.MethodPost, "/api/v1/favorites", nil, req, &fav); err != nil {
		return Favorite{}, err
	}
	return fav, nil
}

// DeleteFavorite removes a subscription by its server identity.
func (c *Client) DeleteFavorite(ctx context.Context, favoriteID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/favorites/%d", favoriteID), nil, nil, nil)
}

// UpdateFavoriteAlarm toggles price alarms on a subscription.
func (c *Client) UpdateFavoriteAlarm(ctx context.Context, favoriteID int64, enabled bool) (Favorite, error) {
	req := map[string]any{"enabled": enabled}
	var fav Favorite
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/favorites/%d/alarm", favoriteID), nil, req, &fav); err != nil {
		return Favorite{}, err
	}
	return fav, nil
}

// FavoriteExists probes whether the parcel is on the user's watchlist.
func (c *Client) FavoriteExists(ctx context.Context, parcelID int64) (bool, error) {
	query := url.Values{}
	query.Set("parcelId", strconv.FormatInt(parcelID, 10))
	var exists bool
	if err := c.do(ctx, http.MethodGet, "/api/v1/favorites/exists", query, nil, &exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (c *Client) rankings(ctx context.Context, path string) ([]RankingEntry, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, err
	}
	var entries []RankingEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []RankingEntry{}, nil
	}
	return entries, nil
}

// TopPrice30d lists the highest trade prices of the last 30 days.
func (c *Client) TopPrice30d(ctx context.Context) ([]RankingEntry, error) {
	return c.rankings(ctx, "/api/v1/rankings/top-price-30d")
}

// TopVolume30d lists the most-traded complexes of the last 30 days.
func (c *Client) TopVolume30d(ctx context.Context) ([]RankingEntry, error) {
	return c.rankings(ctx, "/api/v1/rankings/top-volume-30d")
}

// Ping probes backend reachability for the readiness endpoint. Any HTTP
// response counts as reachable; only transport failures are errors.
func (c *Client) Ping(ctx context.Context) error {
	err := c.doOnce(ctx, http.MethodGet, "/healthz", nil, nil, nil)
	var he *httpError
	if err == nil || errors.As(err, &he) {
		return nil
	}
	return err
}
