// Copyright (c) 2026 The Ember developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNow(t *testing.T) {
	c := New(0)
	now := uint64(time.Now().Unix())
	got := c.Now()
	assert.InDelta(t, now, got, 1)
	assert.Equal(t, time.Duration(0), c.Offset())
}

func TestAdjustTime(t *testing.T) {
	assert := assert.New(t)
	c := New(0)

	c.AdjustTime(3600)
	assert.Equal(time.Hour, c.Offset())
	assert.InDelta(uint64(time.Now().Unix())+3600, c.Now(), 1)

	// shifts accumulate, negative allowed
	c.AdjustTime(-600)
	assert.Equal(50*time.Minute, c.Offset())
}

func TestSetTime(t *testing.T) {
	assert := assert.New(t)
	c := New(0)

	target := uint64(time.Now().Unix()) + 10000
	c.SetTime(target)
	assert.InDelta(target, c.Now(), 1)
}

func TestStartTime(t *testing.T) {
	start := uint64(time.Now().Unix()) - 500
	c := New(start)
	assert.InDelta(t, start, c.Now(), 1)
}

func TestOffsetRestore(t *testing.T) {
	assert := assert.New(t)
	c := New(0)

	c.AdjustTime(1234)
	captured := c.Offset()

	c.AdjustTime(5000)
	assert.NotEqual(captured, c.Offset())

	c.SetOffset(captured)
	assert.Equal(captured, c.Offset())
}
