package editor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockGrantsInArrivalOrder(t *testing.T) {
	var l Lock
	require.NoError(t, l.Lock(context.Background()))

	const n = 8
	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, l.Lock(context.Background()))
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			l.Unlock()
		}(i)
		// Enqueue strictly one at a time. Waiting counts a caller just
		// before it joins the queue, so give it a moment to get there.
		require.Eventually(t, func() bool { return l.Waiting() == i+1 }, time.Second, time.Millisecond)
		time.Sleep(10 * time.Millisecond)
	}

	l.Unlock()
	wg.Wait()

	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, order)
	assert.Equal(t, 0, l.Waiting())
}

func TestLockContextCancel(t *testing.T) {
	var l Lock
	require.NoError(t, l.Lock(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Lock(ctx) }()

	require.Eventually(t, func() bool { return l.Waiting() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Equal(t, 0, l.Waiting())

	l.Unlock()

	// The abandoned waiter must not have kept the lock.
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	require.NoError(t, l.Lock(ctx2))
	l.Unlock()
}

func TestLockDo(t *testing.T) {
	var l Lock
	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Do(context.Background(), func() error {
				v := counter
				time.Sleep(100 * time.Microsecond)
				counter = v + 1
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestUnlockOfUnlockedLockPanics(t *testing.T) {
	var l Lock
	assert.Panics(t, func() { l.Unlock() })
}

func TestMessagesDropOldest(t *testing.T) {
	m := NewMessages(0)
	for i := 1; i <= 7; i++ {
		m.Report(LevelInfo, string(rune('0'+i)))
	}
	assert.Equal(t, DefaultMaxMessages, m.Len())

	got := m.Drain()
	require.Len(t, got, 5)
	assert.Equal(t, "3", got[0].Text)
	assert.Equal(t, "7", got[4].Text)
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Drain())
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "success", LevelSuccess.String())
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "warning", LevelWarning.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "[error] boom", Message{Level: LevelError, Text: "boom"}.String())
}
