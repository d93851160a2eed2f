package pauser_test

import (
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/docwire/pauser"
	"code.hybscloud.com/docwire/wireerr"
)

func TestBusy_PauseTimeout_ExhaustsBudget(t *testing.T) {
	p := pauser.NewBusy()
	var err error
	for i := 0; i < 1_000_000; i++ {
		err = p.PauseTimeout(time.Millisecond)
		if err != nil {
			break
		}
	}
	if !errors.Is(err, wireerr.Timeout) {
		t.Fatalf("want wireerr.Timeout, got %v", err)
	}
}

func TestBusy_Reset_ClearsBudget(t *testing.T) {
	p := pauser.NewBusy()
	_ = p.PauseTimeout(time.Nanosecond)
	time.Sleep(time.Millisecond)
	p.Reset()
	if err := p.PauseTimeout(time.Second); err != nil {
		t.Fatalf("fresh budget should not be exhausted: %v", err)
	}
}

func TestLongWait_EscalatesAndTimesOut(t *testing.T) {
	p := pauser.NewLongWait()
	p.SpinFor = time.Millisecond
	p.YieldFor = time.Millisecond
	p.ParkCeiling = 2 * time.Millisecond

	var err error
	for i := 0; i < 1_000_000; i++ {
		err = p.PauseTimeout(20 * time.Millisecond)
		if err != nil {
			break
		}
	}
	if !errors.Is(err, wireerr.Timeout) {
		t.Fatalf("want wireerr.Timeout, got %v", err)
	}
}

func TestLongWait_ResetStartsFreshLadder(t *testing.T) {
	p := pauser.NewLongWait()
	p.SpinFor = 0
	p.YieldFor = 0
	p.ParkCeiling = time.Millisecond
	p.Pause()
	p.Pause()
	p.Reset()
	if err := p.PauseTimeout(time.Second); err != nil {
		t.Fatalf("fresh budget should not be exhausted: %v", err)
	}
}
