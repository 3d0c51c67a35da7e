package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// R3: starting a timer and cancelling it immediately must never invoke the
// callback.
func TestManager_CancelBeforeFire(t *testing.T) {
	m := NewManager()
	var fired int32

	m.Start(1, 20*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	m.Cancel(1)

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, atomic.LoadInt32(&fired))
}

func TestManager_CancelIdempotent(t *testing.T) {
	m := NewManager()
	assert.NotPanics(t, func() { m.Cancel(999) })
	assert.NotPanics(t, func() { m.Cancel(999) })
}

func TestManager_FiresWhenNotCancelled(t *testing.T) {
	m := NewManager()
	done := make(chan struct{})

	m.Start(2, 10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timer never fired")
	}
}

// Starting a new timer for the same key cancels the previous one so only
// the latest callback runs.
func TestManager_StartReplacesPrevious(t *testing.T) {
	m := NewManager()
	var firstFired, secondFired int32

	m.Start(3, 15*time.Millisecond, func() { atomic.AddInt32(&firstFired, 1) })
	m.Start(3, 15*time.Millisecond, func() { atomic.AddInt32(&secondFired, 1) })

	time.Sleep(60 * time.Millisecond)
	assert.EqualValues(t, 0, atomic.LoadInt32(&firstFired))
	assert.EqualValues(t, 1, atomic.LoadInt32(&secondFired))
}

func TestManager_IndependentKeys(t *testing.T) {
	m := NewManager()
	done1 := make(chan struct{})
	done2 := make(chan struct{})

	m.Start(4, 10*time.Millisecond, func() { close(done1) })
	m.Start(5, 10*time.Millisecond, func() { close(done2) })

	for _, ch := range []chan struct{}{done1, done2} {
		select {
		case <-ch:
		case <-time.After(200 * time.Millisecond):
			require.Fail(t, "timer never fired")
		}
	}
}
