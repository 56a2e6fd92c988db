// Package scrollback keeps a bounded rolling log view per roster device.
package scrollback

import (
	"strings"
	"sync"

	"github.com/hejijunhao/edgepair/internal/model"
)

// DefaultCapacity is the number of events retained per device.
const DefaultCapacity = 100

// Devices is the roster size.
const Devices = 2

const timeLayout = "15:04:05.000"

// Scrollback holds one bounded, oldest-evicted event history per device.
type Scrollback struct {
	mu       sync.Mutex
	capacity int
	views    [Devices]ring
}

// New creates a Scrollback retaining capacity events per device.
// A non-positive capacity selects DefaultCapacity.
func New(capacity int) *Scrollback {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Scrollback{capacity: capacity}
	for i := range s.views {
		s.views[i] = newRing(capacity)
	}
	return s
}

// Append adds an event to the device at idx, evicting the oldest entry when full.
// Out-of-range indices are ignored.
func (s *Scrollback) Append(idx int, ev model.ClassifiedEvent) {
	if idx < 0 || idx >= Devices {
		return
	}
	s.mu.Lock()
	s.views[idx].push(ev)
	s.mu.Unlock()
}

// Render returns the device's events oldest first, one
// "[HH:MM:SS.mmm] <message>" line each. It does not modify the scrollback.
func (s *Scrollback) Render(idx int) string {
	if idx < 0 || idx >= Devices {
		return ""
	}
	s.mu.Lock()
	events := s.views[idx].items()
	s.mu.Unlock()

	var b strings.Builder
	for i, ev := range events {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteByte('[')
		b.WriteString(ev.Time.Format(timeLayout))
		b.WriteString("] ")
		b.WriteString(ev.Record.Message)
	}
	return b.String()
}

// Events returns a copy of the device's events, oldest first.
func (s *Scrollback) Events(idx int) []model.ClassifiedEvent {
	if idx < 0 || idx >= Devices {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views[idx].items()
}

// Len returns the number of events held for the device.
func (s *Scrollback) Len(idx int) int {
	if idx < 0 || idx >= Devices {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views[idx].n
}

// Reset clears both devices.
func (s *Scrollback) Reset() {
	s.mu.Lock()
	for i := range s.views {
		s.views[i] = newRing(s.capacity)
	}
	s.mu.Unlock()
}

// ring is a fixed-size circular buffer. Not safe for concurrent use.
type ring struct {
	buf  []model.ClassifiedEvent
	head int // index of the oldest element
	n    int
}

func newRing(capacity int) ring {
	return ring{buf: make([]model.ClassifiedEvent, capacity)}
}

func (r *ring) push(ev model.ClassifiedEvent) {
	if r.n < len(r.buf) {
		r.buf[(r.head+r.n)%len(r.buf)] = ev
		r.n++
		return
	}
	r.buf[r.head] = ev
	r.head = (r.head + 1) % len(r.buf)
}

func (r *ring) items() []model.ClassifiedEvent {
	out := make([]model.ClassifiedEvent, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}
