// Package detail loads a property's detail object together with its trade
// history for the detail panel.
package detail

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"homeatlas/core-go/internal/backend"
)

// Client is the slice of the backend client the loader needs.
type Client interface {
	Detail(ctx context.Context, parcelID int64) (backend.PropertyDetail, error)
	Trades(ctx context.Context, parcelID int64) ([]backend.Trade, error)
}

type Loader struct {
	log     zerolog.Logger
	client  Client
	timeout time.Duration
}

type Options struct {
	// FetchTimeout bounds each of the two backend calls. Defaults to 5s.
	FetchTimeout time.Duration
}

func New(log zerolog.Logger, client Client, opts Options) *Loader {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Loader{log: log, client: client, timeout: timeout}
}

// View is the detail panel payload: the detail object passed through
// untouched plus the trade history, newest deal first.
type View struct {
	Detail backend.PropertyDetail `json:"detail"`
	Trades []backend.Trade        `json:"trades"`
}

// Load fetches detail and trades for a parcel. A failed trade fetch
// degrades to an empty history; a failed detail fetch is the caller's
// error to surface in the panel.
func (l *Loader) Load(ctx context.Context, parcelID int64) (View, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	d, err := l.client.Detail(fetchCtx, parcelID)
	if err != nil {
		return View{}, err
	}

	trades, err := l.client.Trades(fetchCtx, parcelID)
	if err != nil {
		l.log.Error().Err(err).Int64("parcel_id", parcelID).Msg("trade history load failed")
		trades = []backend.Trade{}
	}
	sortTrades(trades)

	return View{Detail: d, Trades: trades}, nil
}

// sortTrades orders by deal date descending. Dates arrive as ISO strings;
// unparseable dates fall back to reverse lexicographic order, which agrees
// with chronological order for the ISO format.
func sortTrades(trades []backend.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		ti, errI := time.Parse("2006-01-02", trades[i].DealDate)
		tj, errJ := time.Parse("2006-01-02", trades[j].DealDate)
		if errI != nil || errJ != nil {
			return trades[i].DealDate > trades[j].DealDate
		}
		return ti.After(tj)
	})
}
