package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock_Sequence(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(2), clock.Current())
}

func TestDeterministicClock_ResetRewindsToStart(t *testing.T) {
	clock := NewDeterministicClockAt(10)
	clock.Next()
	clock.Next()

	clock.Reset()
	assert.Equal(t, int64(10), clock.Current())
	assert.Equal(t, int64(11), clock.Next())
}

func TestDeterministicClock_ConcurrentUnique(t *testing.T) {
	clock := NewDeterministicClock()

	const goroutines, calls = 20, 50
	var (
		mu   sync.Mutex
		seen = make(map[int64]bool)
		wg   sync.WaitGroup
	)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < calls; i++ {
				v := clock.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*calls)
	assert.Equal(t, int64(goroutines*calls), clock.Current())
}

func TestFixedIDGenerator(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want []string
	}{
		{"listed ids", []string{"a", "b"}, []string{"a", "b"}},
		{"continues after list", []string{"run-x"}, []string{"run-x", "run-x-2", "run-x-3"}},
		{"no ids", nil, []string{"run-1", "run-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewFixedIDGenerator(tt.ids...)
			var got []string
			for range tt.want {
				got = append(got, g.Generate())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
