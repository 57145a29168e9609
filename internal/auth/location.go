package auth

import (
	"sync"

	"github.com/desertthunder/nbx/internal/models"
)

// Navigator is the routing side of the client: where it is and where it goes next.
type Navigator interface {
	Path() string
	Navigate(path string)
	Subscribe(fn func(path string)) (unsubscribe func())
}

var _ Navigator = (*Location)(nil)

// Location is an in-memory [Navigator]. Subscribers run synchronously after each navigation,
// outside the lock, so they may navigate again.
type Location struct {
	mu      sync.Mutex
	path    string
	history []string
	subs    map[int]func(string)
	nextID  int
}

// NewLocation creates a [Location] positioned at path, or the root when path is empty.
func NewLocation(path string) *Location {
	if path == "" {
		path = models.RouteRoot
	}
	return &Location{path: path, subs: map[int]func(string){}}
}

// Path returns the current route.
func (l *Location) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Navigate moves to path and notifies subscribers.
func (l *Location) Navigate(path string) {
	l.mu.Lock()
	l.path = path
	l.history = append(l.history, path)
	subs := make([]func(string), 0, len(l.subs))
	for id := 0; id < l.nextID; id++ {
		if fn, ok := l.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(path)
	}
}

// Subscribe registers fn to run after every navigation.
func (l *Location) Subscribe(fn func(path string)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.subs[id] = fn

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

// History returns every route navigated to, oldest first.
func (l *Location) History() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.history...)
}
