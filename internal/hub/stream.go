// Package hub is a minimal in-process multicast relay. A Stream keeps
// the single latest published value and pushes every publish to its
// subscribers synchronously, in subscription order. Subscribing
// replays the latest value before anything else is delivered.
package hub

import "sync"

type Stream[T any] struct {
	mu     sync.Mutex
	latest T
	nextID int
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

type Subscription[T any] struct {
	stream *Stream[T]
	id     int
}

func NewStream[T any](initial T) *Stream[T] {
	return &Stream[T]{latest: initial}
}

// Publish stores v as the latest value and delivers it inline to every
// current subscriber. Handlers run on the publishing goroutine and
// must not call back into the publishing store.
func (s *Stream[T]) Publish(v T) {
	s.mu.Lock()
	s.latest = v
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

func (s *Stream[T]) Latest() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Subscribe registers fn and immediately replays the latest value.
func (s *Stream[T]) Subscribe(fn func(T)) *Subscription[T] {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	latest := s.latest
	s.mu.Unlock()

	fn(latest)
	return &Subscription[T]{stream: s, id: id}
}

func (sub *Subscription[T]) Unsubscribe() {
	s := sub.stream
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.subs {
		if s.subs[i].id == sub.id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}
