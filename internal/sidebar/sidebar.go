// Package sidebar is the navigation state machine for the left panel: one
// mode at a time plus a single-slot "return to" memory for the detail view.
//
// The memory is deliberately not a history stack: entering favorites or
// rankings directly never touches the slot, and detail-opened-from-detail
// is unsupported. Do not grow it into a stack without flagging the
// behavior change.
package sidebar

import "sync"

type Mode string

const (
	ModeRegionNav  Mode = "region-nav"
	ModeSearchList Mode = "search-list"
	ModeDetail     Mode = "detail"
	ModeFavorites  Mode = "favorites"
	ModeRankings   Mode = "rankings"
)

// Valid reports whether m is one of the closed mode set.
func (m Mode) Valid() bool {
	switch m {
	case ModeRegionNav, ModeSearchList, ModeDetail, ModeFavorites, ModeRankings:
		return true
	}
	return false
}

type Machine struct {
	mu             sync.Mutex
	mode           Mode
	previous       Mode // empty when the slot is unset
	selectedParcel int64
}

func New() *Machine {
	return &Machine{mode: ModeRegionNav}
}

func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// OpenDetail records the current mode in the return slot and switches to
// detail, remembering the selected parcel. Calling it while already in
// detail only swaps the parcel; the slot keeps the mode detail was first
// opened from, so it can never hold detail itself.
func (m *Machine) OpenDetail(parcelID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != ModeDetail {
		m.previous = m.mode
		m.mode = ModeDetail
	}
	m.selectedParcel = parcelID
}

// GoBack leaves detail for the remembered mode, falling back to region-nav
// when the slot is empty. A no-op outside detail.
func (m *Machine) GoBack() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != ModeDetail {
		return m.mode
	}
	if m.previous != "" {
		m.mode = m.previous
		m.previous = ""
	} else {
		m.mode = ModeRegionNav
	}
	return m.mode
}

// SetMode switches directly without touching the return slot. Used for
// favorites/rankings entry and for the search-driven region-nav and
// search-list transitions.
func (m *Machine) SetMode(mode Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
}

// Reset forces the machine back to region-nav and clears the slot. Runs as
// a side effect of a full filter reset.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = ModeRegionNav
	m.previous = ""
}

// State is the snapshot the presentation layer reads.
type State struct {
	Mode             Mode  `json:"mode"`
	PreviousMode     Mode  `json:"previousMode,omitempty"`
	SelectedParcelID int64 `json:"selectedParcelId,omitempty"`
}

func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{Mode: m.mode, PreviousMode: m.previous, SelectedParcelID: m.selectedParcel}
}
