// Package touchsrc declares the raw multitouch source capability
// (spec.md §1, "raw multitouch source") and the typed message shape
// used to hand contact frames from the reader goroutine to the
// engine's main queue, mirroring the pack's convention of copying
// primitive fields out of an OS-owned struct before crossing a
// goroutine boundary (spec.md §9, "callbacks -> typed messages").
package touchsrc

import (
	"errors"

	"github.com/jason5545/TrackPal/pkg/touch"
)

// ErrSourceUnavailable is returned by Start when no compatible
// multitouch device can be opened (spec.md §7, "no device").
var ErrSourceUnavailable = errors.New("touchsrc: raw multitouch source unavailable")

// Callback is invoked once per frame of raw contacts, on an arbitrary
// worker thread (spec.md §6). The core consumes only single-finger
// frames and a synthetic all-released pseudo-frame when fingerCount
// drops to zero; multi-finger frames update only the finger-count
// arbiter.
type Callback func(frames []touch.Contact, timestamp float64, fingerCount int)

// Source is the raw multitouch source capability. It is owned
// exclusively by the engine: started once on enable, stopped once on
// disable (spec.md §5).
type Source interface {
	// Start begins delivering frames to cb. It returns
	// ErrSourceUnavailable if no compatible device is present.
	Start(cb Callback) error
	Stop() error
}
