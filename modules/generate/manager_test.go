package generate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRegisterAndGet(t *testing.T) {
	m := NewManager()
	engine, _, _, _, _ := newTestEngine(t, 2, nil)

	m.Register("run-a", engine)
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get("run-a")
	require.True(t, ok)
	assert.Same(t, engine, got)

	_, ok = m.Get("run-b")
	assert.False(t, ok)
}

func TestManagerConcurrentGet(t *testing.T) {
	m := NewManager()
	engine, _, _, _, _ := newTestEngine(t, 2, nil)
	m.Register("run-a", engine)

	// Get refreshes lastSeen, so parallel lookups exercise the write path.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, ok := m.Get("run-a")
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, m.Count())
}

func TestManagerCleanupKeepsRecentlySeen(t *testing.T) {
	m := NewManager()
	engine, _, _, _, _ := newTestEngine(t, 2, nil)
	m.Register("run-a", engine)

	assert.Equal(t, 0, m.CleanupStale(time.Hour))
	assert.Equal(t, 1, m.Count())
}
