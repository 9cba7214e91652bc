// Package tty implements the per-terminal line buffer (§4.L): a bounded
// byte ring holding what the hardware has received but no process has
// read yet, plus the bookkeeping needed to serialize writers onto one
// terminal at a time. Grounded on the teacher's circbuf/circbuf.go
// (Circbuf_t's head/size ring-buffer arithmetic) and
// original_source/kernel/tty.c for the line-buffering and single-writer
// rules.
package tty

import "oscore/internal/limits"

// Circbuf is a fixed-capacity byte ring buffer.
type Circbuf struct {
	buf  []byte
	head int
	size int
}

// NewCircbuf creates a ring buffer of the given capacity.
func NewCircbuf(capacity int) *Circbuf {
	return &Circbuf{buf: make([]byte, capacity)}
}

// Len reports how many bytes are currently buffered.
func (c *Circbuf) Len() int { return c.size }

// Cap reports the buffer's total capacity.
func (c *Circbuf) Cap() int { return len(c.buf) }

// Free reports how much room remains.
func (c *Circbuf) Free() int { return len(c.buf) - c.size }

// Write appends as much of p as fits, returning the number of bytes
// actually written (the caller decides what to do with any remainder —
// tty input is simply dropped past capacity, matching a real terminal's
// line-discipline overflow behavior).
func (c *Circbuf) Write(p []byte) int {
	n := 0
	for n < len(p) && c.size < len(c.buf) {
		tail := (c.head + c.size) % len(c.buf)
		c.buf[tail] = p[n]
		c.size++
		n++
	}
	return n
}

// Read removes and returns up to max bytes from the front of the buffer.
func (c *Circbuf) Read(max int) []byte {
	if max > c.size {
		max = c.size
	}
	out := make([]byte, max)
	for i := 0; i < max; i++ {
		out[i] = c.buf[(c.head+i)%len(c.buf)]
	}
	c.head = (c.head + max) % len(c.buf)
	c.size -= max
	return out
}

// Terminal is one terminal's kernel-side state: the line buffer of bytes
// received but not yet read, and whether a writer currently owns the
// transmit path (§4.L "only one TtyTransmit in flight per terminal").
type Terminal struct {
	ID       int
	ReadBuf  *Circbuf
	Writing  bool
}

// New creates a terminal with a TERMINAL_MAX_LINE-sized read buffer.
func New(id int) *Terminal {
	return &Terminal{ID: id, ReadBuf: NewCircbuf(limits.TerminalMaxLine)}
}
