// Package rankings serves the 30-day top-chart boards for the rankings
// sidebar panel.
package rankings

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"homeatlas/core-go/internal/backend"
)

// ErrUnknownBoard is returned for a board name outside the known set.
var ErrUnknownBoard = errors.New("rankings: unknown board")

const (
	BoardTopPrice  = "top-price-30d"
	BoardTopVolume = "top-volume-30d"
)

// Client is the slice of the backend client the service needs.
type Client interface {
	TopPrice30d(ctx context.Context) ([]backend.RankingEntry, error)
	TopVolume30d(ctx context.Context) ([]backend.RankingEntry, error)
}

type Service struct {
	log     zerolog.Logger
	client  Client
	timeout time.Duration
}

type Options struct {
	// FetchTimeout bounds one board fetch. Defaults to 5s.
	FetchTimeout time.Duration
}

func New(log zerolog.Logger, client Client, opts Options) *Service {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{log: log, client: client, timeout: timeout}
}

// Board fetches one chart by name.
func (s *Service) Board(ctx context.Context, board string) ([]backend.RankingEntry, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		entries []backend.RankingEntry
		err     error
	)
	switch board {
	case BoardTopPrice:
		entries, err = s.client.TopPrice30d(fetchCtx)
	case BoardTopVolume:
		entries, err = s.client.TopVolume30d(fetchCtx)
	default:
		return nil, ErrUnknownBoard
	}
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []backend.RankingEntry{}
	}
	return entries, nil
}
