package hub_test

import (
	"testing"

	"MiniCart/internal/hub"
)

func TestStream_ReplaysLatestOnSubscribe(t *testing.T) {
	s := hub.NewStream(1)
	s.Publish(2)

	var got []int
	sub := s.Subscribe(func(v int) { got = append(got, v) })
	defer sub.Unsubscribe()

	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("replay got %v, want [2]", got)
	}

	s.Publish(3)
	if len(got) != 2 || got[1] != 3 {
		t.Fatalf("after publish got %v, want [2 3]", got)
	}
}

func TestStream_DeliversInSubscriptionOrder(t *testing.T) {
	s := hub.NewStream(0)

	var order []string
	s.Subscribe(func(v int) {
		if v != 0 {
			order = append(order, "first")
		}
	})
	s.Subscribe(func(v int) {
		if v != 0 {
			order = append(order, "second")
		}
	})

	s.Publish(1)

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("delivery order = %v", order)
	}
}

func TestStream_Unsubscribe(t *testing.T) {
	s := hub.NewStream(0)

	var calls int
	sub := s.Subscribe(func(int) { calls++ })
	if calls != 1 {
		t.Fatalf("calls after subscribe = %d", calls)
	}

	sub.Unsubscribe()
	s.Publish(1)

	if calls != 1 {
		t.Fatalf("calls after unsubscribe = %d, want 1", calls)
	}
}

func TestStream_Latest(t *testing.T) {
	s := hub.NewStream([]string{"a"})

	if got := s.Latest(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("initial latest = %v", got)
	}

	s.Publish([]string{"b", "c"})
	if got := s.Latest(); len(got) != 2 || got[1] != "c" {
		t.Fatalf("latest = %v", got)
	}
}
