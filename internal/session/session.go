// Package session holds the bearer credential for the current user session.
//
// The store is process-scoped and injected into the components that need it;
// subscribers are notified on every change so request interceptors and UI
// state can react to login/logout without polling.
package session

import "sync"

type Store struct {
	mu        sync.Mutex
	token     string
	nextID    int
	listeners map[int]func(token string)
}

func NewStore() *Store {
	return &Store{listeners: make(map[int]func(string))}
}

// Token returns the current bearer token, empty when anonymous.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

func (s *Store) Set(token string) {
	s.notify(s.swap(token))
}

// Clear drops the credential, returning the session to anonymous.
func (s *Store) Clear() {
	s.notify(s.swap(""))
}

// Subscribe registers fn to be called with the new token on every change.
// The returned function cancels the subscription.
func (s *Store) Subscribe(fn func(token string)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) swap(token string) []func(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	fns := make([]func(string), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	return fns
}

// notify runs outside the lock so a listener may call back into the store.
func (s *Store) notify(fns []func(string)) {
	token := s.Token()
	for _, fn := range fns {
		fn(token)
	}
}
