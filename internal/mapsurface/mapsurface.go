// Package mapsurface models the map collaborator: the engine reads the
// viewport the surface reports after each settle and issues recenter and
// re-zoom commands back to it.
package mapsurface

import "sync"

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Bounds struct {
	SW LatLng `json:"sw"`
	NE LatLng `json:"ne"`
}

// Viewport is the state the surface reports on every settle event. It is
// ephemeral: each settle replaces the previous value wholesale.
type Viewport struct {
	Center LatLng `json:"center"`
	Level  int    `json:"level"`
	Bounds Bounds `json:"bounds"`
}

// Surface accepts positioning commands. The rendering side is out of scope;
// implementations only need to apply (or record) the commanded position.
type Surface interface {
	SetCenter(LatLng)
	SetLevel(level int)
}

// Initial position: Seoul city hall at the city/county aggregation level.
var DefaultCenter = LatLng{Lat: 37.5662952, Lng: 126.9779451}

const DefaultLevel = 7

// Recorder is a Surface that remembers the last commanded position so the
// presentational layer can poll it and tests can assert on issued commands.
type Recorder struct {
	mu     sync.Mutex
	center LatLng
	level  int
}

func NewRecorder(center LatLng, level int) *Recorder {
	return &Recorder{center: center, level: level}
}

func (r *Recorder) SetCenter(c LatLng) {
	r.mu.Lock()
	r.center = c
	r.mu.Unlock()
}

func (r *Recorder) SetLevel(level int) {
	r.mu.Lock()
	r.level = level
	r.mu.Unlock()
}

// State returns the last commanded center and zoom level.
func (r *Recorder) State() (LatLng, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.center, r.level
}
