// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package clock provides the offset-adjustable chain clock.
package clock

import (
	"sync"
	"time"
)

// Clock yields block timestamps: wall time shifted by an adjustable offset.
// It makes no promise about wall-clock accuracy; time travel is the point.
type Clock struct {
	mu     sync.Mutex
	offset time.Duration
}

// New creates a clock. If start is non-zero, the clock is shifted so that it
// currently reads start (a unix timestamp in seconds).
func New(start uint64) *Clock {
	c := &Clock{}
	if start != 0 {
		c.SetTime(start)
	}
	return c
}

// Now returns the current adjusted unix timestamp in seconds.
func (c *Clock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint64(time.Now().Add(c.offset).Unix())
}

// AdjustTime shifts the clock forward by the given seconds and returns the
// new offset. Negative shifts are allowed.
func (c *Clock) AdjustTime(seconds int64) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += time.Duration(seconds) * time.Second
	return c.offset
}

// SetTime shifts the clock so it currently reads the given unix timestamp,
// returning the new offset.
func (c *Clock) SetTime(timestamp uint64) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = time.Until(time.Unix(int64(timestamp), 0))
	return c.offset
}

// Offset returns the current offset.
func (c *Clock) Offset() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// SetOffset restores a previously captured offset.
func (c *Clock) SetOffset(offset time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = offset
}
