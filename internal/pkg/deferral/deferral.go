// Package deferral postpones non-critical work until a host is idle, has
// painted, or is showing a particular element.
//
// Hosts advertise their scheduling primitives through Host; any of them may be
// missing, in which case the helpers degrade instead of failing.
package deferral

import (
	"sync"
	"time"
)

const (
	// FallbackDelay is used by WhenIdle when the host has no idle scheduler.
	FallbackDelay = time.Millisecond
	// ViewportMargin grows the viewport so work starts shortly before the
	// target scrolls into view.
	ViewportMargin = "200px"
)

// IdleScheduler runs fn once the host is idle, or after timeout at the latest.
type IdleScheduler interface {
	RequestIdleCallback(fn func(), timeout time.Duration)
}

// FrameScheduler runs fn before the host paints its next frame.
type FrameScheduler interface {
	RequestAnimationFrame(fn func())
}

// IntersectionEntry reports whether an observed target intersects the viewport.
type IntersectionEntry struct {
	Target         any
	IsIntersecting bool
}

// Observer is a live viewport observation.
type Observer interface {
	Disconnect()
}

// Viewport watches targets for viewport intersection.
type Viewport interface {
	Observe(target any, rootMargin string, callback func([]IntersectionEntry)) Observer
}

// Host bundles the scheduling primitives an embedding environment offers.
// A nil field means the primitive is unavailable.
type Host struct {
	Idle     IdleScheduler
	Frames   FrameScheduler
	Viewport Viewport

	// AfterFunc schedules the idle fallback; time.AfterFunc when nil.
	AfterFunc func(d time.Duration, fn func())
}

// WhenIdle runs fn when the host is idle, waiting at most timeout. Hosts
// without an idle scheduler run fn after FallbackDelay instead.
func (h *Host) WhenIdle(fn func(), timeout time.Duration) {
	if fn == nil {
		return
	}
	if h != nil && h.Idle != nil {
		h.Idle.RequestIdleCallback(fn, timeout)
		return
	}
	after := func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	if h != nil && h.AfterFunc != nil {
		after = h.AfterFunc
	}
	after(FallbackDelay, fn)
}

// AfterPaint runs fn two frames from now, which lands after the frame that is
// currently being prepared has been painted. It does nothing on hosts without
// frames.
func (h *Host) AfterPaint(fn func()) {
	if fn == nil || h == nil || h.Frames == nil {
		return
	}
	frames := h.Frames
	frames.RequestAnimationFrame(func() {
		frames.RequestAnimationFrame(fn)
	})
}

// WhenVisible runs fn once, the first time target intersects the viewport
// (grown by ViewportMargin), then stops observing. The returned cleanup stops
// observing early; after it returns fn will not run. Hosts without a viewport
// never run fn.
func (h *Host) WhenVisible(target any, fn func()) (cleanup func()) {
	if fn == nil || h == nil || h.Viewport == nil {
		return func() {}
	}

	var (
		mu       sync.Mutex
		done     bool
		observer Observer
	)
	// finish marks the watch as done and returns the observer to disconnect,
	// if any. Callers must hold mu.
	finish := func() Observer {
		done = true
		o := observer
		observer = nil
		return o
	}

	o := h.Viewport.Observe(target, ViewportMargin, func(entries []IntersectionEntry) {
		mu.Lock()
		if done || !anyIntersecting(entries) {
			mu.Unlock()
			return
		}
		toClose := finish()
		mu.Unlock()

		if toClose != nil {
			toClose.Disconnect()
		}
		fn()
	})

	mu.Lock()
	if done {
		// Fired synchronously during Observe, before the observer was known.
		mu.Unlock()
		if o != nil {
			o.Disconnect()
		}
		return func() {}
	}
	observer = o
	mu.Unlock()

	return func() {
		mu.Lock()
		toClose := finish()
		mu.Unlock()
		if toClose != nil {
			toClose.Disconnect()
		}
	}
}

func anyIntersecting(entries []IntersectionEntry) bool {
	for _, e := range entries {
		if e.IsIntersecting {
			return true
		}
	}
	return false
}
