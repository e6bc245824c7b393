//go:build linux

package inject

/*
#cgo LDFLAGS: -lX11 -lXtst

#include <stdlib.h>
#include <X11/Xlib.h>
#include <X11/extensions/XTest.h>

static int trackpalEventType(XEvent *ev) {
	return ev->type;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// X11Sink injects synthesized scroll and button events via XTest,
// grounded in pkg/xorg/xorg.go's cgo-wrapped Xlib/XTest calls and its
// package-level mutex/debounce idiom.
type X11Sink struct {
	mu      sync.Mutex
	display *C.Display
	logger  zerolog.Logger

	debounceButton map[Button]time.Time
}

// NewX11Sink opens displayName (empty string uses $DISPLAY) and
// returns a ready Sink, or an error if XTest is unavailable.
func NewX11Sink(displayName string) (*X11Sink, error) {
	var cname *C.char
	if displayName != "" {
		cname = C.CString(displayName)
		defer C.free(unsafe.Pointer(cname))
	}

	dpy := C.XOpenDisplay(cname)
	if dpy == nil {
		return nil, fmt.Errorf("inject: XOpenDisplay failed for %q", displayName)
	}

	var major, minor, event, errorBase C.int
	if C.XTestQueryExtension(dpy, &event, &errorBase, &major, &minor) == 0 {
		C.XCloseDisplay(dpy)
		return nil, fmt.Errorf("inject: XTest extension not available")
	}

	return &X11Sink{
		display:        dpy,
		logger:         log.With().Str("module", "inject").Str("backend", "x11").Logger(),
		debounceButton: make(map[Button]time.Time),
	}, nil
}

// Close releases the display connection.
func (s *X11Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.display == nil {
		return nil
	}
	C.XCloseDisplay(s.display)
	s.display = nil
	return nil
}

// scrollButtonClicksPerLine controls how many XTest wheel-button
// clicks one "line" of fallback scroll delta produces. Real precision
// trackpads on X11 rarely expose a smooth-scroll valuator to XTest, so
// button clicks (button 4/5 vertical, 6/7 horizontal) are the
// universally-supported path; TrackPal converts the pixel-precise
// delta down to this coarser unit rather than dropping precision
// silently.
const scrollButtonClicksPerLine = 1

// Scroll translates ev into XTest wheel-button clicks. Vertical
// scrolling uses buttons 4 (up) and 5 (down); horizontal uses 6 (left)
// and 7 (right), the X11 convention for extended scroll wheels.
func (s *X11Sink) Scroll(ev ScrollEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.display == nil {
		return fmt.Errorf("inject: display closed")
	}

	if ev.LineDeltaY != 0 {
		button := C.uint(5)
		clicks := ev.LineDeltaY
		if clicks < 0 {
			button = 4
			clicks = -clicks
		}
		s.clickLocked(button, clicks)
	}
	if ev.LineDeltaX != 0 {
		button := C.uint(7)
		clicks := ev.LineDeltaX
		if clicks < 0 {
			button = 6
			clicks = -clicks
		}
		s.clickLocked(button, clicks)
	}
	return nil
}

func (s *X11Sink) clickLocked(button C.uint, clicks int) {
	for i := 0; i < clicks*scrollButtonClicksPerLine; i++ {
		C.XTestFakeButtonEvent(s.display, button, C.True, C.CurrentTime)
		C.XTestFakeButtonEvent(s.display, button, C.False, C.CurrentTime)
	}
	C.XFlush(s.display)
}

// ButtonDown presses a synthetic mouse button (middle-click emulation
// or a corner-triggered right-click, spec.md §4.4/§6).
func (s *X11Sink) ButtonDown(b Button) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.display == nil {
		return fmt.Errorf("inject: display closed")
	}
	if _, ok := s.debounceButton[b]; ok {
		return fmt.Errorf("inject: button %v already down", b)
	}
	s.debounceButton[b] = time.Now()

	C.XTestFakeButtonEvent(s.display, C.uint(b), C.True, C.CurrentTime)
	C.XFlush(s.display)
	return nil
}

// ButtonUp releases a synthetic mouse button previously pressed with
// ButtonDown.
func (s *X11Sink) ButtonUp(b Button) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.display == nil {
		return fmt.Errorf("inject: display closed")
	}
	if _, ok := s.debounceButton[b]; !ok {
		return fmt.Errorf("inject: button %v not down", b)
	}
	delete(s.debounceButton, b)

	C.XTestFakeButtonEvent(s.display, C.uint(b), C.False, C.CurrentTime)
	C.XFlush(s.display)
	return nil
}

// Click presses and releases b, used for the discrete corner/middle-
// click actions (spec.md §4.4, §4.2 MiddleClick zone).
func (s *X11Sink) Click(b Button) error {
	if err := s.ButtonDown(b); err != nil {
		return err
	}
	return s.ButtonUp(b)
}

// X11Tap intercepts native scroll wheel clicks and pointer motion by
// grabbing the core pointer with XGrabPointer in synchronous mode.
// Under a synchronous grab the X server freezes further pointer event
// delivery, system-wide, immediately after reporting one to this tap,
// and waits for XAllowEvents before delivering the next. This tap
// calls XAllowEvents with either ReplayPointer (deliver the frozen
// event to whatever window would normally have received it — Pass) or
// AsyncPointer (resume processing without ever delivering it elsewhere
// — Drop). Unlike the RECORD extension, which can only observe events
// the server has already delivered, a synchronous pointer grab can
// actually suppress one (spec.md §4.7, §6).
//
// The grab is necessarily system-wide and blunt: every pointer
// button/motion event on the desktop, not just the trackpad's own,
// passes through this tap while it is held, at the cost of one extra
// round trip through this process before a Pass replays it.
type X11Tap struct {
	display *C.Display
	logger  zerolog.Logger

	stop chan struct{}
	wg   sync.WaitGroup

	onScroll func(button int) Decision
	onMove   func() Decision
}

// x11PollInterval bounds how promptly the poll loop notices a closed
// stop channel; XNextEvent blocks indefinitely on the display's
// socket, so it is only called once XPending confirms an event is
// already queued, keeping Close from hanging.
const x11PollInterval = 2 * time.Millisecond

// NewX11Tap opens a dedicated display connection, grabs the core
// pointer synchronously, and registers callbacks that decide Pass/Drop
// for native scroll wheel clicks and pointer motion.
func NewX11Tap(displayName string, onScroll func(button int) Decision, onMove func() Decision) (*X11Tap, error) {
	var cname *C.char
	if displayName != "" {
		cname = C.CString(displayName)
		defer C.free(unsafe.Pointer(cname))
	}

	dpy := C.XOpenDisplay(cname)
	if dpy == nil {
		return nil, fmt.Errorf("inject: XOpenDisplay failed for %q", displayName)
	}

	if err := grabPointer(dpy); err != nil {
		C.XCloseDisplay(dpy)
		return nil, err
	}

	t := &X11Tap{
		display:  dpy,
		logger:   log.With().Str("module", "inject").Str("backend", "x11").Logger(),
		stop:     make(chan struct{}),
		onScroll: onScroll,
		onMove:   onMove,
	}

	t.wg.Add(1)
	go t.pollLoop()

	return t, nil
}

func grabPointer(dpy *C.Display) error {
	root := C.XDefaultRootWindow(dpy)
	mask := C.uint(C.ButtonPressMask | C.ButtonReleaseMask | C.PointerMotionMask)
	if C.XGrabPointer(dpy, root, C.False, mask, C.GrabModeSync, C.GrabModeAsync, C.None, C.None, C.CurrentTime) != C.GrabSuccess {
		return ErrTapDenied
	}
	return nil
}

func (t *X11Tap) pollLoop() {
	defer t.wg.Done()

	var ev C.XEvent
	for {
		select {
		case <-t.stop:
			return
		default:
		}

		if C.XPending(t.display) == 0 {
			time.Sleep(x11PollInterval)
			continue
		}
		C.XNextEvent(t.display, &ev)
		t.handle(&ev)
	}
}

// handle decides Pass/Drop for one frozen pointer event and unfreezes
// the grab accordingly. The button number lives in XButtonEvent's
// button field; MotionNotify carries none.
func (t *X11Tap) handle(ev *C.XEvent) {
	decision := Pass

	switch C.trackpalEventType(ev) {
	case C.ButtonPress, C.ButtonRelease:
		xbutton := (*C.XButtonEvent)(unsafe.Pointer(ev))
		detail := int(xbutton.button)
		if detail >= 4 && detail <= 7 && t.onScroll != nil {
			decision = t.onScroll(detail)
		}
	case C.MotionNotify:
		if t.onMove != nil {
			decision = t.onMove()
		}
	}

	mode := C.int(C.ReplayPointer)
	if decision == Drop {
		mode = C.AsyncPointer
	}
	C.XAllowEvents(t.display, mode, C.CurrentTime)
}

// Reenable re-grabs the pointer after the OS reports the tap was
// disabled (spec.md §7: "must be unconditionally re-enabled"). A held
// XGrabPointer can be broken by another client's own higher-priority
// grab; re-issuing it here is the X11 analogue of re-enabling a
// disabled event tap.
func (t *X11Tap) Reenable() error {
	if t.display == nil {
		return ErrTapDisabled
	}
	return grabPointer(t.display)
}

// Close releases the pointer grab, stops the poll loop, and closes the
// display connection.
func (t *X11Tap) Close() error {
	if t.display == nil {
		return nil
	}
	close(t.stop)
	t.wg.Wait()

	C.XUngrabPointer(t.display, C.CurrentTime)
	C.XCloseDisplay(t.display)
	t.display = nil
	return nil
}
