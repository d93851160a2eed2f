// Package pauser provides the adaptive waiting strategy used between CAS
// retries in the framing scan-forward loop, the first-header wait, and
// writeEndOfWire (spec §4.2, §5 "Suspension points").
//
// A Pauser is owned by a single Wire instance and is not meant to be
// shared across goroutines; the busy-spin/backoff state it accumulates
// between Reset calls is local to one waiter.
package pauser

import (
	"runtime"
	"time"

	"code.hybscloud.com/docwire/wireerr"
)

// Pauser cooperatively waits between retries of a non-blocking operation.
type Pauser interface {
	// Pause waits once with no timeout budget: it may busy-spin briefly
	// then sleep, but it never returns an error.
	Pause()

	// PauseTimeout waits once, accounting the wait against a cumulative
	// budget that started at the last Reset call (or construction).
	// It returns wireerr.Timeout once that budget is exhausted.
	PauseTimeout(timeout time.Duration) error

	// Reset clears accumulated wait state, starting a fresh budget window
	// and a fresh escalation ladder.
	Reset()
}

// Busy is the default strategy: spin via runtime.Gosched with no sleeping.
// It is appropriate for short, low-contention critical sections such as a
// single CAS retry against an uncontended header slot.
type Busy struct {
	waited time.Time
}

// NewBusy returns a ready-to-use busy-wait Pauser.
func NewBusy() *Busy { return &Busy{} }

func (p *Busy) Pause() { runtime.Gosched() }

func (p *Busy) PauseTimeout(timeout time.Duration) error {
	if p.waited.IsZero() {
		p.waited = time.Now()
	}
	runtime.Gosched()
	if timeout > 0 && time.Since(p.waited) > timeout {
		return wireerr.Timeout
	}
	return nil
}

func (p *Busy) Reset() { p.waited = time.Time{} }

// LongWait escalates through three phases as contention persists: busy-spin
// for SpinFor, then cooperative-yield for YieldFor, then park with a
// doubling back-off capped at ParkCeiling. Defaults mirror the teacher's
// retryDelay/yieldOnce split (internal.go) generalized into an explicit
// escalation ladder, since framing's multi-writer CAS loop (spec §4.1 step
// 3) needs to eventually stop burning a core under sustained contention.
type LongWait struct {
	SpinFor     time.Duration
	YieldFor    time.Duration
	ParkCeiling time.Duration

	start    time.Time
	lastPark time.Duration
}

// NewLongWait returns a LongWait Pauser with defaults tuned for a
// shared-memory header CAS loop: 50µs of spinning, 1ms of yielding, then
// parking with a doubling back-off capped at 10ms.
func NewLongWait() *LongWait {
	return &LongWait{
		SpinFor:     50 * time.Microsecond,
		YieldFor:    time.Millisecond,
		ParkCeiling: 10 * time.Millisecond,
	}
}

func (p *LongWait) elapsed() time.Duration {
	if p.start.IsZero() {
		return 0
	}
	return time.Since(p.start)
}

func (p *LongWait) Pause() {
	if p.start.IsZero() {
		p.start = time.Now()
	}
	switch e := p.elapsed(); {
	case e < p.SpinFor:
		runtime.Gosched()
	case e < p.SpinFor+p.YieldFor:
		runtime.Gosched()
	default:
		if p.lastPark == 0 {
			p.lastPark = time.Microsecond * 100
		} else {
			p.lastPark *= 2
			if p.lastPark > p.ParkCeiling {
				p.lastPark = p.ParkCeiling
			}
		}
		time.Sleep(p.lastPark)
	}
}

func (p *LongWait) PauseTimeout(timeout time.Duration) error {
	if p.start.IsZero() {
		p.start = time.Now()
	}
	if timeout > 0 && p.elapsed() > timeout {
		return wireerr.Timeout
	}
	p.Pause()
	if timeout > 0 && p.elapsed() > timeout {
		return wireerr.Timeout
	}
	return nil
}

func (p *LongWait) Reset() {
	p.start = time.Time{}
	p.lastPark = 0
}
