package onboarding

import (
	"context"
	"sync"
	"time"
)

// Navigator moves a client to a route. Replace is called with the watcher's
// lock held and must not call back into the watcher.
type Navigator interface {
	Replace(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Replace(route string) { f(route) }

// Watcher runs the guard for one client session on every route change and
// delivers redirects to its Navigator. A pending delayed redirect is cancelled
// when the route changes again or the watcher is stopped.
type Watcher struct {
	guard  *Guard
	userID string
	nav    Navigator

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// Watch starts a watcher for userID.
func (g *Guard) Watch(userID string, nav Navigator) *Watcher {
	return &Watcher{guard: g, userID: userID, nav: nav}
}

// Navigate reports that the client is now showing route. It cancels any
// pending redirect, checks the new route and, if needed, redirects at once or
// after the guard's debounce.
func (w *Watcher) Navigate(ctx context.Context, route string) Decision {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return Decision{}
	}
	w.cancelLocked()
	gen := w.gen
	w.mu.Unlock()

	d := w.guard.Check(ctx, w.userID, route)
	if !d.Redirect {
		return d
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// a newer Navigate or Stop ran during the check
	if w.stopped || w.gen != gen {
		return d
	}
	if d.Delay <= 0 {
		w.nav.Replace(d.Target)
		return d
	}
	target := d.Target
	w.timer = time.AfterFunc(d.Delay, func() { w.fire(gen, target) })
	return d
}

// Stop cancels any pending redirect. Later calls to Navigate do nothing.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	w.cancelLocked()
}

func (w *Watcher) fire(gen uint64, target string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || w.gen != gen {
		return
	}
	w.timer = nil
	w.nav.Replace(target)
}

func (w *Watcher) cancelLocked() {
	w.gen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
