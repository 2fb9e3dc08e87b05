package favorites

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"homeatlas/core-go/internal/backend"
	"homeatlas/core-go/internal/metrics"
	"homeatlas/core-go/internal/session"
)

type fakeFavClient struct {
	mu          sync.Mutex
	server      []backend.Favorite
	nextID      int64
	listErr     error
	createErr   error
	deleteErr   error
	alarmErr    error
	existsErr   error
	deleteCalls int
}

func (f *fakeFavClient) Favorites(context.Context) ([]backend.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]backend.Favorite, len(f.server))
	copy(out, f.server)
	return out, nil
}

func (f *fakeFavClient) CreateFavorite(_ context.Context, parcelID int64, complexName string) (backend.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return backend.Favorite{}, f.createErr
	}
	f.nextID++
	fav := backend.Favorite{ID: f.nextID, ParcelID: parcelID, ComplexName: complexName}
	f.server = append(f.server, fav)
	return fav, nil
}

func (f *fakeFavClient) DeleteFavorite(_ context.Context, favoriteID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.server[:0]
	for _, fav := range f.server {
		if fav.ID != favoriteID {
			kept = append(kept, fav)
		}
	}
	f.server = kept
	return nil
}

func (f *fakeFavClient) UpdateFavoriteAlarm(_ context.Context, favoriteID int64, enabled bool) (backend.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.alarmErr != nil {
		return backend.Favorite{}, f.alarmErr
	}
	for i := range f.server {
		if f.server[i].ID == favoriteID {
			f.server[i].AlarmEnabled = enabled
			return f.server[i], nil
		}
	}
	return backend.Favorite{}, errors.New("not found")
}

func (f *fakeFavClient) FavoriteExists(_ context.Context, parcelID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	for _, fav := range f.server {
		if fav.ParcelID == parcelID {
			return true, nil
		}
	}
	return false, nil
}

func newTestSync(f Client, authed bool) *Sync {
	sess := session.NewStore()
	if authed {
		sess.Set("tok")
	}
	return New(zerolog.New(io.Discard), f, sess, metrics.New(), Options{})
}

func TestList_anonymousIsLoginRequired(t *testing.T) {
	s := newTestSync(&fakeFavClient{}, false)
	if _, err := s.List(context.Background()); !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("expected ErrLoginRequired, got %v", err)
	}
}

func TestList_serverCopyReplacesLocalState(t *testing.T) {
	f := &fakeFavClient{server: []backend.Favorite{
		{ID: 1, ParcelID: 10, ComplexName: "래미안"},
		{ID: 2, ParcelID: 20, ComplexName: "자이"},
	}}
	s := newTestSync(f, true)

	list, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 favorites, got %+v", list)
	}

	f.mu.Lock()
	f.server = f.server[:1]
	f.mu.Unlock()

	if _, err := s.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := s.Cached(); len(got) != 1 {
		t.Fatalf("fresh server list must replace local state, got %+v", got)
	}
}

func TestAdd_ackGated(t *testing.T) {
	f := &fakeFavClient{createErr: errors.New("backend down")}
	s := newTestSync(f, true)

	if _, err := s.Add(context.Background(), 10, "래미안"); err == nil {
		t.Fatal("expected create failure to propagate")
	}
	if got := s.Cached(); len(got) != 0 {
		t.Fatalf("local state must not change without a server ack, got %+v", got)
	}

	f.mu.Lock()
	f.createErr = nil
	f.mu.Unlock()

	fav, err := s.Add(context.Background(), 10, "래미안")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if fav.ID == 0 {
		t.Fatal("expected server-assigned identity")
	}
	if got := s.Cached(); len(got) != 1 || got[0].ParcelID != 10 {
		t.Fatalf("acked favorite must join local state, got %+v", got)
	}
}

func TestRemove_resolvesParcelToSubscriptionID(t *testing.T) {
	f := &fakeFavClient{server: []backend.Favorite{
		{ID: 7, ParcelID: 10, ComplexName: "래미안"},
		{ID: 8, ParcelID: 20, ComplexName: "자이"},
	}}
	s := newTestSync(f, true)
	if _, err := s.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}

	if err := s.Remove(context.Background(), 10); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if f.deleteCalls != 1 {
		t.Fatalf("expected one delete call, got %d", f.deleteCalls)
	}
	got := s.Cached()
	if len(got) != 1 || got[0].ParcelID != 20 {
		t.Fatalf("expected the other favorite to survive, got %+v", got)
	}
}

func TestRemove_missingParcelIsAlreadyRemoved(t *testing.T) {
	f := &fakeFavClient{}
	s := newTestSync(f, true)

	if err := s.Remove(context.Background(), 99); err != nil {
		t.Fatalf("removing an absent parcel must succeed: %v", err)
	}
	if f.deleteCalls != 0 {
		t.Fatalf("no delete call expected for an absent parcel, got %d", f.deleteCalls)
	}
}

func TestToggleAlarm_splicesByIdentity(t *testing.T) {
	f := &fakeFavClient{server: []backend.Favorite{
		{ID: 1, ParcelID: 10, ComplexName: "래미안"},
		{ID: 2, ParcelID: 20, ComplexName: "자이"},
	}}
	s := newTestSync(f, true)
	if _, err := s.List(context.Background()); err != nil {
		t.Fatalf("List: %v", err)
	}

	fav, err := s.ToggleAlarm(context.Background(), 2, true)
	if err != nil {
		t.Fatalf("ToggleAlarm: %v", err)
	}
	if !fav.AlarmEnabled {
		t.Fatal("expected alarm enabled on the returned record")
	}

	got := s.Cached()
	if len(got) != 2 {
		t.Fatalf("splice must not change list length, got %+v", got)
	}
	if got[0].AlarmEnabled || !got[1].AlarmEnabled {
		t.Fatalf("only the toggled record may change, got %+v", got)
	}
}

func TestExists_anonymousIsNotFavoritedWithoutNetwork(t *testing.T) {
	f := &fakeFavClient{existsErr: errors.New("must not be called")}
	s := newTestSync(f, false)

	exists, err := s.Exists(context.Background(), 10)
	if err != nil {
		t.Fatalf("anonymous probe must not error: %v", err)
	}
	if exists {
		t.Fatal("anonymous probe must report not favorited")
	}
}

func TestUnauthorized_mapsToLoginRequired(t *testing.T) {
	f := &fakeFavClient{
		listErr:   backend.ErrUnauthorized,
		createErr: backend.ErrUnauthorized,
		existsErr: backend.ErrUnauthorized,
	}
	s := newTestSync(f, true)
	ctx := context.Background()

	if _, err := s.List(ctx); !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("List: expected ErrLoginRequired, got %v", err)
	}
	if _, err := s.Add(ctx, 10, "래미안"); !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("Add: expected ErrLoginRequired, got %v", err)
	}
	if _, err := s.Exists(ctx, 10); !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("Exists: expected ErrLoginRequired, got %v", err)
	}
}
