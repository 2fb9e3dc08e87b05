package session

import "testing"

func TestStore_tokenLifecycle(t *testing.T) {
	s := NewStore()
	if s.Authenticated() {
		t.Fatal("new store must be anonymous")
	}

	s.Set("tok-1")
	if !s.Authenticated() || s.Token() != "tok-1" {
		t.Fatalf("expected tok-1, got %q", s.Token())
	}

	s.Clear()
	if s.Authenticated() {
		t.Fatal("cleared store must be anonymous")
	}
}

func TestSubscribe_notifiedOnEveryChange(t *testing.T) {
	s := NewStore()
	var seen []string
	cancel := s.Subscribe(func(token string) { seen = append(seen, token) })

	s.Set("a")
	s.Set("b")
	s.Clear()

	want := []string{"a", "b", ""}
	if len(seen) != len(want) {
		t.Fatalf("expected %d notifications, got %v", len(want), seen)
	}
	for i, w := range want {
		if seen[i] != w {
			t.Fatalf("notification %d: want %q, got %q", i, w, seen[i])
		}
	}

	cancel()
	s.Set("c")
	if len(seen) != len(want) {
		t.Fatalf("cancelled subscriber must not be notified, got %v", seen)
	}
}

func TestSubscribe_listenerMayCallBackIntoStore(t *testing.T) {
	s := NewStore()
	var got string
	s.Subscribe(func(string) { got = s.Token() })

	s.Set("tok")
	if got != "tok" {
		t.Fatalf("listener read %q", got)
	}
}
