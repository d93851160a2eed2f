package framing

import (
	"runtime"
	"sync/atomic"

	"code.hybscloud.com/docwire/wireerr"
)

// scope enforces the single-writer-per-Wire invariant (spec §5
// "Scheduling model"): StartUse/EndUse bracket a use, and a second
// concurrent StartUse before the matching EndUse fails with InUseError.
//
// Go does not expose a goroutine-identity API (deliberately — see
// golang.org/issue/X discussions the runtime authors keep closing), so
// this cannot literally "capture the owning thread" the way the original
// design describes. Instead a scope is a CAS-guarded holder token: the
// first StartUse wins the token and records a debug stack via
// runtime.Stack for diagnostics; any other concurrent StartUse attempt
// (from the same or a different goroutine) fails until EndUse releases
// the token. This gives the same safety property — at most one active
// use at a time — without relying on unexported runtime internals.
type scope struct {
	holder atomic.Pointer[scopeToken]
}

type scopeToken struct {
	stack string
}

func captureStack() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

func (s *scope) start() (end func(), err error) {
	tok := &scopeToken{stack: captureStack()}
	if !s.holder.CompareAndSwap(nil, tok) {
		holder := s.holder.Load()
		detail := &wireerr.InUseError{AttemptStack: tok.stack}
		if holder != nil {
			detail.HolderStack = holder.stack
		}
		return nil, detail
	}
	return func() { s.holder.Store(nil) }, nil
}
