// Package favorites reconciles the user's watchlist against the backend.
// Mutations are ack-gated: local state flips only after the server
// confirms. Anonymous attempts and 401 responses surface ErrLoginRequired
// so the UI can raise the login prompt instead of failing silently; the
// anonymous "not favorited" state stays a distinct, non-error outcome.
package favorites

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"homeatlas/core-go/internal/backend"
	"homeatlas/core-go/internal/metrics"
	"homeatlas/core-go/internal/session"
)

// ErrLoginRequired signals that the action needs an authenticated session.
var ErrLoginRequired = errors.New("favorites: login required")

// Client is the slice of the backend client the sync needs.
type Client interface {
	Favorites(ctx context.Context) ([]backend.Favorite, error)
	CreateFavorite(ctx context.Context, parcelID int64, complexName string) (backend.Favorite, error)
	DeleteFavorite(ctx context.Context, favoriteID int64) error
	UpdateFavoriteAlarm(ctx context.Context, favoriteID int64, enabled bool) (backend.Favorite, error)
	FavoriteExists(ctx context.Context, parcelID int64) (bool, error)
}

type Sync struct {
	log     zerolog.Logger
	client  Client
	session *session.Store
	metrics *metrics.Metrics
	timeout time.Duration

	mu   sync.Mutex
	list []backend.Favorite
}

type Options struct {
	// FetchTimeout bounds one favorites call. Defaults to 5s.
	FetchTimeout time.Duration
}

func New(log zerolog.Logger, client Client, sess *session.Store, m *metrics.Metrics, opts Options) *Sync {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Sync{
		log:     log,
		client:  client,
		session: sess,
		metrics: m,
		timeout: timeout,
		list:    []backend.Favorite{},
	}
}

func (s *Sync) mapErr(err error) error {
	if err == nil {
		return nil
	}
	if backend.IsUnauthorized(err) {
		return ErrLoginRequired
	}
	return err
}

// List re-reads the watchlist from the server and returns it. The fresh
// list replaces local state wholesale; the server copy is authoritative.
func (s *Sync) List(ctx context.Context) ([]backend.Favorite, error) {
	if !s.session.Authenticated() {
		return nil, ErrLoginRequired
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.client.Favorites(fetchCtx)
	if err != nil {
		return nil, s.mapErr(err)
	}
	if list == nil {
		list = []backend.Favorite{}
	}
	s.mu.Lock()
	s.list = list
	s.mu.Unlock()
	return list, nil
}

// Add subscribes the user to a parcel, appending the server's record to
// local state once acknowledged.
func (s *Sync) Add(ctx context.Context, parcelID int64, complexName string) (backend.Favorite, error) {
	if !s.session.Authenticated() {
		return backend.Favorite{}, ErrLoginRequired
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fav, err := s.client.CreateFavorite(fetchCtx, parcelID, complexName)
	s.metrics.IncFavoriteMutation("create", err)
	if err != nil {
		return backend.Favorite{}, s.mapErr(err)
	}

	s.mu.Lock()
	s.list = append(s.list, fav)
	s.mu.Unlock()
	s.log.Info().Int64("parcel_id", parcelID).Int64("favorite_id", fav.ID).Msg("favorite created")
	return fav, nil
}

// Remove unsubscribes by property identity. The parcel is resolved to its
// subscription id against a fresh server listing; a parcel with no matching
// row is treated as already removed and succeeds without a delete call.
func (s *Sync) Remove(ctx context.Context, parcelID int64) error {
	if !s.session.Authenticated() {
		return ErrLoginRequired
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	list, err := s.client.Favorites(fetchCtx)
	if err != nil {
		return s.mapErr(err)
	}

	var found *backend.Favorite
	for i := range list {
		if list[i].ParcelID == parcelID {
			found = &list[i]
			break
		}
	}
	if found == nil {
		s.drop(parcelID)
		s.log.Debug().Int64("parcel_id", parcelID).Msg("favorite already removed")
		return nil
	}

	err = s.client.DeleteFavorite(fetchCtx, found.ID)
	s.metrics.IncFavoriteMutation("delete", err)
	if err != nil {
		return s.mapErr(err)
	}

	s.drop(parcelID)
	s.log.Info().Int64("parcel_id", parcelID).Int64("favorite_id", found.ID).Msg("favorite removed")
	return nil
}

func (s *Sync) drop(parcelID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.list[:0]
	for _, f := range s.list {
		if f.ParcelID != parcelID {
			kept = append(kept, f)
		}
	}
	s.list = kept
}

// ToggleAlarm flips price alarms on a subscription, splicing the returned
// record into local state by identity and leaving the others untouched.
func (s *Sync) ToggleAlarm(ctx context.Context, favoriteID int64, enabled bool) (backend.Favorite, error) {
	if !s.session.Authenticated() {
		return backend.Favorite{}, ErrLoginRequired
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fav, err := s.client.UpdateFavoriteAlarm(fetchCtx, favoriteID, enabled)
	s.metrics.IncFavoriteMutation("alarm", err)
	if err != nil {
		return backend.Favorite{}, s.mapErr(err)
	}

	s.mu.Lock()
	for i := range s.list {
		if s.list[i].ID == fav.ID {
			s.list[i] = fav
			break
		}
	}
	s.mu.Unlock()
	return fav, nil
}

// Exists probes whether the parcel is favorited. Anonymous sessions report
// not-favorited without a network call; a 401 from the server surfaces the
// login prompt instead.
func (s *Sync) Exists(ctx context.Context, parcelID int64) (bool, error) {
	if !s.session.Authenticated() {
		return false, nil
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.client.FavoriteExists(fetchCtx, parcelID)
	if err != nil {
		return false, s.mapErr(err)
	}
	return exists, nil
}

// Cached returns the last reconciled list without a network call.
func (s *Sync) Cached() []backend.Favorite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]backend.Favorite, len(s.list))
	copy(out, s.list)
	return out
}
