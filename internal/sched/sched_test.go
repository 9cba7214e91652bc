package sched

import (
	"testing"

	"oscore/internal/pcb"
)

func TestTakeNextFallsBackToIdle(t *testing.T) {
	s := New()
	idle := pcb.New(0, 1, 1)
	s.SetIdle(idle)

	if got := s.TakeNext(); got != idle {
		t.Fatalf("expected idle with empty ready queue, got %v", got)
	}

	p := pcb.New(1, 1, 1)
	s.AddReady(p)
	if got := s.TakeNext(); got != p {
		t.Fatalf("expected p ahead of idle, got %v", got)
	}
	if got := s.TakeNext(); got != idle {
		t.Fatalf("expected idle once ready drained, got %v", got)
	}
}

func TestUpdateDelayWakesAtZero(t *testing.T) {
	s := New()
	p := pcb.New(1, 1, 1)
	p.ClockTicksRemaining = 2
	p.WaitingOn = pcb.WaitReason{Tag: pcb.WaitDelay}
	s.AddDelay(p)

	s.UpdateDelay()
	if s.ReadyLen() != 0 {
		t.Fatal("should not be ready after one tick of two")
	}
	s.UpdateDelay()
	if s.ReadyLen() != 1 {
		t.Fatal("expected process to be ready after ticks exhausted")
	}
}

func TestUpdateLockWakesOnlyMatchingID(t *testing.T) {
	s := New()
	p1 := pcb.New(1, 1, 1)
	p1.WaitingOn = pcb.WaitReason{Tag: pcb.WaitLock, ID: 0x20001}
	p2 := pcb.New(2, 1, 1)
	p2.WaitingOn = pcb.WaitReason{Tag: pcb.WaitLock, ID: 0x20002}
	s.AddLockWait(p1)
	s.AddLockWait(p2)

	woken := s.UpdateLock(0x20001)
	if woken != 1 || s.ReadyLen() != 1 {
		t.Fatalf("expected exactly one matching waiter woken, got %d", woken)
	}
}

func TestUpdateSemWakesUpToN(t *testing.T) {
	s := New()
	for i := 1; i <= 3; i++ {
		p := pcb.New(i, 1, 1)
		p.WaitingOn = pcb.WaitReason{Tag: pcb.WaitSem, ID: 0x30001}
		s.AddSemWait(p)
	}
	woken := s.UpdateSem(0x30001, 2)
	if woken != 2 || s.ReadyLen() != 2 {
		t.Fatalf("expected 2 woken, got %d ready=%d", woken, s.ReadyLen())
	}
}

func TestUpdateTTYReadIsPerTerminal(t *testing.T) {
	s := New()
	p0 := pcb.New(1, 1, 1)
	p0.WaitingOn = pcb.WaitReason{Tag: pcb.WaitTTYRead, ID: 0}
	p1 := pcb.New(2, 1, 1)
	p1.WaitingOn = pcb.WaitReason{Tag: pcb.WaitTTYRead, ID: 1}
	s.AddTTYReadWait(0, p0)
	s.AddTTYReadWait(1, p1)

	if woken := s.UpdateTTYRead(0); woken != 1 {
		t.Fatalf("expected 1 woken on terminal 0, got %d", woken)
	}
	if s.ReadyLen() != 1 {
		t.Fatal("terminal 1's waiter must not have been disturbed")
	}
}
