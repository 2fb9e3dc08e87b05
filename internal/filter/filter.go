// Package filter models the four numeric range filters applied to
// property-level marker requests: sale price (in eok), floor area (in
// pyeong), building age (years) and unit count.
//
// A dimension whose range equals its default is treated as unset and is
// encoded as null on the wire so the backend can tell "no constraint" from
// "constraint that happens to span the full range". A user who deliberately
// sets a range equal to the default is therefore indistinguishable from one
// who never touched it; that ambiguity is part of the wire contract.
package filter

import (
	"fmt"
	"sync"
)

type Dimension string

const (
	PriceEok Dimension = "priceEok"
	Pyeong   Dimension = "pyeong"
	Age      Dimension = "age"
	Unit     Dimension = "unit"
)

type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

var defaults = map[Dimension]Range{
	PriceEok: {Min: 0, Max: 50},
	Pyeong:   {Min: 0, Max: 100},
	Age:      {Min: 0, Max: 30},
	Unit:     {Min: 0, Max: 5000},
}

// Dimensions returns the filterable dimensions in display order.
func Dimensions() []Dimension {
	return []Dimension{PriceEok, Pyeong, Age, Unit}
}

// DefaultRange returns the full (unset) range for a dimension.
func DefaultRange(d Dimension) (Range, bool) {
	r, ok := defaults[d]
	return r, ok
}

// Set is the committed filter state. It persists until explicitly reset.
type Set struct {
	mu     sync.Mutex
	ranges map[Dimension]Range
}

func NewSet() *Set {
	s := &Set{ranges: make(map[Dimension]Range, len(defaults))}
	for d, r := range defaults {
		s.ranges[d] = r
	}
	return s
}

// SetRange clamps the candidate range so min <= max and commits it. When a
// handle is dragged past its opposite, the opposite handle is pulled along
// rather than the edit being rejected. It returns the committed range and
// the encoded payload for the whole set so callers can hand the pending
// value straight to the refetch path.
func (s *Set) SetRange(d Dimension, r Range) (Range, Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.ranges[d]
	if !ok {
		return Range{}, Payload{}, fmt.Errorf("filter: unknown dimension %q", d)
	}
	committed := clamp(cur, r)
	s.ranges[d] = committed
	return committed, s.encodeLocked(), nil
}

func clamp(cur, next Range) Range {
	if next.Min <= next.Max {
		return next
	}
	minMoved := next.Min != cur.Min
	maxMoved := next.Max != cur.Max
	switch {
	case minMoved && !maxMoved:
		next.Max = next.Min
	case maxMoved && !minMoved:
		next.Min = next.Max
	default:
		next.Min, next.Max = next.Max, next.Min
	}
	return next
}

// Range returns the current range for a dimension, falling back to the
// default for an unknown name.
func (s *Set) Range(d Dimension) Range {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.ranges[d]; ok {
		return r
	}
	return defaults[d]
}

// ResetAll restores every dimension to its default range and returns the
// encoded (all-null) payload for the follow-up refetch.
func (s *Set) ResetAll() Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	for d, r := range defaults {
		s.ranges[d] = r
	}
	return s.encodeLocked()
}

// IsApplied reports whether the dimension differs from its default. Display
// only; request encoding applies the null-if-default rule independently.
func (s *Set) IsApplied(d Dimension) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.ranges[d]
	return ok && r != defaults[d]
}

// Encode returns the sparse wire encoding of the current set.
func (s *Set) Encode() Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encodeLocked()
}

// Payload is the filter section of a complex-markers request. Pointer
// fields marshal as null when the dimension is unset.
type Payload struct {
	PriceEokMin *float64 `json:"priceEokMin"`
	PriceEokMax *float64 `json:"priceEokMax"`
	PyeongMin   *float64 `json:"pyeongMin"`
	PyeongMax   *float64 `json:"pyeongMax"`
	AgeMin      *float64 `json:"ageMin"`
	AgeMax      *float64 `json:"ageMax"`
	UnitMin     *float64 `json:"unitMin"`
	UnitMax     *float64 `json:"unitMax"`
}

func (s *Set) encodeLocked() Payload {
	var p Payload
	if min, max, ok := s.boundsLocked(PriceEok); ok {
		p.PriceEokMin, p.PriceEokMax = min, max
	}
	if min, max, ok := s.boundsLocked(Pyeong); ok {
		p.PyeongMin, p.PyeongMax = min, max
	}
	if min, max, ok := s.boundsLocked(Age); ok {
		p.AgeMin, p.AgeMax = min, max
	}
	if min, max, ok := s.boundsLocked(Unit); ok {
		p.UnitMin, p.UnitMax = min, max
	}
	return p
}

func (s *Set) boundsLocked(d Dimension) (*float64, *float64, bool) {
	r := s.ranges[d]
	if r == defaults[d] {
		return nil, nil, false
	}
	min, max := r.Min, r.Max
	return &min, &max, true
}
