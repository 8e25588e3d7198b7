package token

import "sync/atomic"

// Cell holds the current Token. Reads never block; writes replace the whole
// value atomically.
type Cell struct {
	ptr atomic.Pointer[Token]
}

// Load returns the most recently published Token, or the zero Token.
func (c *Cell) Load() Token {
	if p := c.ptr.Load(); p != nil {
		return *p
	}
	return Token{}
}

// Publish stores t unless the current Token was issued after it, so a late
// write can never roll the cell back. It reports whether t was stored.
func (c *Cell) Publish(t Token) bool {
	next := t.clone()
	for {
		prev := c.ptr.Load()
		if prev != nil && prev.IssuedAt.After(next.IssuedAt) {
			return false
		}
		if c.compareAndSwap(prev, &next) {
			return true
		}
	}
}

func (c *Cell) compareAndSwap(old, next *Token) bool {
	return c.ptr.CompareAndSwap(old, next)
}
