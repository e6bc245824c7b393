//go:build linux

package touchsrc

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/jason5545/TrackPal/pkg/touch"
)

// Linux multitouch protocol B event codes (linux/input-event-codes.h).
// Only the axes TrackPal needs are declared; a real device reports
// many more that this reader ignores.
const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	synReport   = 0x00
	btnTouch    = 0x14a
	btnToolFinger = 0x145

	absMTSlot        = 0x2f
	absMTTrackingID  = 0x39
	absMTPositionX   = 0x35
	absMTPositionY   = 0x36
	absMTPressure    = 0x3a
	absMTTouchMajor  = 0x30
	absMTTouchMinor  = 0x31
)

const trackingIDNone = -1

// slot mirrors the kernel's per-slot multitouch state (spec.md §3
// contact fields, before normalization).
type slot struct {
	trackingID int32
	x, y       int32
	pressure   int32
	major      int32
	minor      int32
}

type absRange struct{ min, max int32 }

// EvdevSource reads a Linux multitouch device node directly, parsing
// raw input_event records and tracking ABS_MT_SLOT state the way a
// kernel evdev consumer must (grounded in
// other_examples/Caerii-codrawer-bridge__linux_input.go's ioctl/ABS
// parsing idiom).
//
// This read is deliberately non-exclusive: it does not issue
// EVIOCGRAB. Grabbing the device would stop libinput/the X/Wayland
// input stack from ever seeing the trackpad at all, including the
// ordinary single-finger pointer motion spec.md §4.7 requires be left
// to the OS outside an active scroll zone — EVIOCGRAB is all-or-
// nothing per device, so it cannot selectively suppress only the
// scroll/zone events the way pkg/inject's event tap does. Native
// events therefore keep flowing to the rest of the input stack in
// parallel with whatever this source reports; suppression of the
// conflicting ones is handled downstream by the intercept package, not
// here.
type EvdevSource struct {
	path string

	mu      sync.Mutex
	fd      int
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	xRange, yRange, pressureRange, majorRange, minorRange absRange
}

// NewEvdevSource returns a Source reading the given device node
// (e.g. "/dev/input/event7").
func NewEvdevSource(path string) *EvdevSource {
	return &EvdevSource{path: path, fd: -1}
}

// DiscoverTrackpad scans /dev/input for the first device exposing
// ABS_MT_POSITION_X, a reasonable heuristic for "the precision
// trackpad" absent a udev property lookup.
func DiscoverTrackpad() (string, error) {
	entries, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return "", err
	}
	sort.Strings(entries)
	for _, path := range entries {
		fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
		if err != nil {
			continue
		}
		_, err = getAbsInfo(fd, absMTPositionX)
		unix.Close(fd)
		if err == nil {
			return path, nil
		}
	}
	return "", ErrSourceUnavailable
}

// Start opens the device and begins delivering frames to cb from a
// dedicated reader goroutine (Producer A, spec.md §5). Each SYN_REPORT
// flushes the current slot table into one cb invocation.
func (s *EvdevSource) Start(cb Callback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	fd, err := unix.Open(s.path, unix.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	s.xRange = mustRange(fd, absMTPositionX)
	s.yRange = mustRange(fd, absMTPositionY)
	s.pressureRange = mustRange(fd, absMTPressure)
	s.majorRange = mustRange(fd, absMTTouchMajor)
	s.minorRange = mustRange(fd, absMTTouchMinor)

	s.fd = fd
	s.stop = make(chan struct{})
	s.running = true

	s.wg.Add(1)
	go s.readLoop(fd, s.stop, cb)
	return nil
}

// Stop closes the device and waits for the reader goroutine to exit.
// Idempotent.
func (s *EvdevSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stop)
	fd := s.fd
	s.fd = -1
	s.mu.Unlock()

	s.wg.Wait()
	return unix.Close(fd)
}

func (s *EvdevSource) readLoop(fd int, stop chan struct{}, cb Callback) {
	defer s.wg.Done()

	slots := make(map[int32]*slot)
	var curSlot int32
	epoch := time.Now()

	buf := make([]byte, inputEventSize*32)
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}

		for off := 0; off+inputEventSize <= n; off += inputEventSize {
			etype, code, value := decodeInputEvent(buf[off : off+inputEventSize])
			switch etype {
			case evAbs:
				switch code {
				case absMTSlot:
					curSlot = value
				case absMTTrackingID:
					sl := slots[curSlot]
					if sl == nil {
						sl = &slot{}
						slots[curSlot] = sl
					}
					sl.trackingID = value
					if value == trackingIDNone {
						delete(slots, curSlot)
					}
				case absMTPositionX:
					s.slotFor(slots, curSlot).x = value
				case absMTPositionY:
					s.slotFor(slots, curSlot).y = value
				case absMTPressure:
					s.slotFor(slots, curSlot).pressure = value
				case absMTTouchMajor:
					s.slotFor(slots, curSlot).major = value
				case absMTTouchMinor:
					s.slotFor(slots, curSlot).minor = value
				}
			case evKey:
				// btnTouch/btnToolFinger toggle liftoff; the slot
				// table (tracking IDs) is the source of truth for
				// finger count, so these are ignored. Frames are
				// flushed only on SYN_REPORT.
				_ = code
			case evSyn:
				if code == synReport {
					ts := time.Since(epoch).Seconds()
					contacts := s.snapshot(slots, ts)
					cb(contacts, ts, len(slots))
				}
			}
		}
	}
}

func (s *EvdevSource) slotFor(slots map[int32]*slot, id int32) *slot {
	sl := slots[id]
	if sl == nil {
		sl = &slot{trackingID: id}
		slots[id] = sl
	}
	return sl
}

// snapshot converts the current kernel slot table into normalized
// Contact frames (spec.md §3: x, y in [0,1]).
func (s *EvdevSource) snapshot(slots map[int32]*slot, ts float64) []touch.Contact {
	contacts := make([]touch.Contact, 0, len(slots))
	for _, sl := range slots {
		contacts = append(contacts, touch.Contact{
			X:           normalize(sl.x, s.xRange),
			Y:           normalize(sl.y, s.yRange),
			State:       touch.StateContact,
			Density:     normalize(sl.pressure, s.pressureRange),
			MajorAxis:   float64(sl.major),
			MinorAxis:   float64(sl.minor),
			Timestamp:   ts,
			FingerCount: len(slots),
		})
	}
	return contacts
}

func normalize(v int32, r absRange) float64 {
	if r.max <= r.min {
		return 0
	}
	f := float64(v-r.min) / float64(r.max-r.min)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func mustRange(fd int, code int) absRange {
	r, err := getAbsInfo(fd, code)
	if err != nil {
		return absRange{min: 0, max: 1}
	}
	return r
}

// input_event on a 64-bit kernel is 24 bytes (two 8-byte timeval
// fields plus type/code/value); see linux_input.go's dual-size
// handling. TrackPal targets 64-bit hosts only, so a single fixed
// size is used rather than sniffing it at runtime.
const inputEventSize = 24

func decodeInputEvent(ev []byte) (etype, code uint16, value int32) {
	etype = binary.LittleEndian.Uint16(ev[16:18])
	code = binary.LittleEndian.Uint16(ev[18:20])
	value = int32(binary.LittleEndian.Uint32(ev[20:24]))
	return
}

// absInfo mirrors struct input_absinfo (linux/input.h).
type absInfo struct {
	Value      int32
	Min        int32
	Max        int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocRead = 2
)

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr((dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift))
}

func evioCGAbs(absCode int) uintptr {
	// EVIOCGABS(abs) = _IOR('E', 0x40 + abs, struct input_absinfo)
	return ioc(iocRead, uint32('E'), uint32(0x40+absCode), uint32(unsafe.Sizeof(absInfo{})))
}

func getAbsInfo(fd int, code int) (absRange, error) {
	var info absInfo
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), evioCGAbs(code), uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return absRange{}, errno
	}
	return absRange{min: info.Min, max: info.Max}, nil
}
