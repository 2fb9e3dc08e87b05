package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"homeatlas/core-go/internal/filter"
	"homeatlas/core-go/internal/metrics"
	"homeatlas/core-go/internal/session"
	"homeatlas/core-go/internal/viewport"
)

func newTestClient(t *testing.T, srv *httptest.Server, sess *session.Store) *Client {
	t.Helper()
	c, err := NewClient(zerolog.New(io.Discard), sess, metrics.New(), Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestDo_attachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	sess := session.NewStore()
	sess.Set("tok-abc")
	c := newTestClient(t, srv, sess)

	if _, err := c.Favorites(context.Background()); err != nil {
		t.Fatalf("Favorites: %v", err)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestDo_anonymousSendsNoAuthorizationHeader(t *testing.T) {
	var sawAuth atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			sawAuth.Store(true)
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, session.NewStore())
	if _, err := c.SearchComplexes(context.Background(), "반포"); err != nil {
		t.Fatalf("SearchComplexes: %v", err)
	}
	if sawAuth.Load() {
		t.Fatal("anonymous request must not carry an Authorization header")
	}
}

func TestDo_refreshRetryOnce(t *testing.T) {
	var apiCalls, refreshCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/access" {
			atomic.AddInt32(&refreshCalls, 1)
			json.NewEncoder(w).Encode(map[string]string{"accessToken": "fresh-token"})
			return
		}
		n := atomic.AddInt32(&apiCalls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer fresh-token" {
			t.Errorf("retry must carry refreshed token, got %q", got)
		}
		w.Write([]byte(`[{"id": 1, "parcelId": 42, "complexName": "래미안"}]`))
	}))
	defer srv.Close()

	sess := session.NewStore()
	sess.Set("stale-token")
	c := newTestClient(t, srv, sess)

	favs, err := c.Favorites(context.Background())
	if err != nil {
		t.Fatalf("Favorites after refresh: %v", err)
	}
	if len(favs) != 1 || favs[0].ParcelID != 42 {
		t.Fatalf("unexpected favorites: %+v", favs)
	}
	if refreshCalls != 1 || apiCalls != 2 {
		t.Fatalf("expected 1 refresh and 2 api calls, got %d/%d", refreshCalls, apiCalls)
	}
	if sess.Token() != "fresh-token" {
		t.Fatalf("session must hold the refreshed token, got %q", sess.Token())
	}
}

func TestDo_failedRefreshClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sess := session.NewStore()
	sess.Set("expired")
	c := newTestClient(t, srv, sess)

	_, err := c.Favorites(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if sess.Authenticated() {
		t.Fatal("session must be cleared after a failed refresh")
	}
}

func TestDo_secondUnauthorizedClearsSession(t *testing.T) {
	var apiCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/access" {
			json.NewEncoder(w).Encode(map[string]string{"accessToken": "fresh-token"})
			return
		}
		atomic.AddInt32(&apiCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sess := session.NewStore()
	sess.Set("rejected")
	c := newTestClient(t, srv, sess)

	_, err := c.Favorites(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized after retry, got %v", err)
	}
	if apiCalls != 2 {
		t.Fatalf("expected exactly one retry, got %d api calls", apiCalls)
	}
	if sess.Authenticated() {
		t.Fatal("session must be cleared when the retry is rejected too")
	}
}

func TestDo_emptyRefreshTokenIsAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/access" {
			w.Write([]byte(`{"accessToken": ""}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sess := session.NewStore()
	sess.Set("expired")
	c := newTestClient(t, srv, sess)

	if _, err := c.Favorites(context.Background()); !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestMapComplexes_coercesStringCoordinatesAndDropsBadRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "complexName": "good-number", "lat": 37.5, "lng": 127.0},
			{"id": 2, "complexName": "good-string", "lat": "37.6", "lng": "127.1"},
			{"id": 3, "complexName": "missing-lng", "lat": 37.7},
			{"id": 4, "complexName": "null-lat", "lat": null, "lng": 127.2},
			{"id": 5, "complexName": "garbage-lat", "lat": "not-a-number", "lng": 127.3}
		]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, session.NewStore())
	markers, err := c.MapComplexes(context.Background(), BoundsPayload{}, filter.Payload{})
	if err != nil {
		t.Fatalf("MapComplexes: %v", err)
	}

	if len(markers) != 2 {
		t.Fatalf("expected the 2 well-formed markers, got %d: %+v", len(markers), markers)
	}
	if markers[0].Lat != 37.5 || markers[1].Lat != 37.6 {
		t.Fatalf("coordinate coercion mismatch: %+v", markers)
	}
	if markers[1].ComplexName != "good-string" {
		t.Fatalf("expected string-coordinate record kept, got %+v", markers[1])
	}
}

func TestMapRegions_sendsGranularityAndBounds(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/map/regions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`[{"id": 9, "name": "경기도", "lat": 37.4, "lng": 127.5, "unitCountSum": 120}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, session.NewStore())
	b := BoundsPayload{SWLat: 36.0, SWLng: 126.0, NELat: 38.0, NELng: 128.0}
	markers, err := c.MapRegions(context.Background(), b, viewport.GranularitySiDo)
	if err != nil {
		t.Fatalf("MapRegions: %v", err)
	}

	if got["region"] != string(viewport.GranularitySiDo) {
		t.Fatalf("expected granularity key on the wire, got %v", got["region"])
	}
	if got["swLat"] != 36.0 || got["neLng"] != 128.0 {
		t.Fatalf("bounds not on the wire: %v", got)
	}
	if len(markers) != 1 || markers[0].Name != "경기도" {
		t.Fatalf("unexpected markers: %+v", markers)
	}
}

func TestMapComplexes_nonArrayResponseNormalizesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "unexpected shape"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, session.NewStore())
	markers, err := c.MapComplexes(context.Background(), BoundsPayload{}, filter.Payload{})
	if err != nil {
		t.Fatalf("MapComplexes: %v", err)
	}
	if markers == nil || len(markers) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", markers)
	}
}

func TestTrades_missingFieldNormalizesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, session.NewStore())
	trades, err := c.Trades(context.Background(), 7)
	if err != nil {
		t.Fatalf("Trades: %v", err)
	}
	if trades == nil || len(trades) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", trades)
	}
}

func TestPing_anyHTTPResponseIsReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	c := newTestClient(t, srv, session.NewStore())
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("500 still proves reachability: %v", err)
	}

	srv.Close()
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected transport error once the server is down")
	}
}

func TestFavoriteExists_queryCarriesParcelID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("parcelId"); got != "42" {
			t.Errorf("expected parcelId=42, got %q", got)
		}
		w.Write([]byte(`true`))
	}))
	defer srv.Close()

	sess := session.NewStore()
	sess.Set("tok")
	c := newTestClient(t, srv, sess)

	exists, err := c.FavoriteExists(context.Background(), 42)
	if err != nil {
		t.Fatalf("FavoriteExists: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
}
