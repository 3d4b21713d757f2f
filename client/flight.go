package client

import (
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

var ErrInFlight = errors.New("operation already in progress")

// Flight de-duplicates concurrent calls by operation name.
type Flight struct {
	mu      sync.Mutex
	running map[string]bool

	group singleflight.Group
}

func NewFlight() *Flight {
	return &Flight{running: make(map[string]bool)}
}

// Drop runs fn unless a call with the same key is outstanding, in which case it
// returns ErrInFlight without running fn.
func (f *Flight) Drop(key string, fn func() error) error {
	f.mu.Lock()
	if f.running[key] {
		f.mu.Unlock()
		slog.Debug("dropping call, already in flight", "operation", key)
		return ErrInFlight
	}
	f.running[key] = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.running, key)
		f.mu.Unlock()
	}()

	return fn()
}

// Attach joins an outstanding call with the same key and shares its result, or
// runs fn when there is none.
func (f *Flight) Attach(key string, fn func() (interface{}, error)) (interface{}, error) {
	v, err, shared := f.group.Do(key, fn)
	if shared {
		slog.Debug("attached to in flight call", "operation", key)
	}
	return v, err
}
