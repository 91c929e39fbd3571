package seq

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_TransformsItems(t *testing.T) {
	events := collect(t, Map(Just("a", "b"), strings.ToUpper))

	assert.Equal(t, []string{"A", "B"}, items(events))
	assert.Equal(t, KindComplete, last(t, events).Kind)
}

func TestMap_ForwardsError(t *testing.T) {
	src := Concat(Just(1), Fail[int](errors.New("boom")))
	events := collect(t, Map(src, func(n int) int { return n * 10 }))

	assert.Equal(t, []int{10}, items(events))
	end := last(t, events)
	require.Equal(t, KindError, end.Kind)
	assert.EqualError(t, end.Err, "boom")
}

func TestMap_PanicBecomesError(t *testing.T) {
	events := collect(t, Map(Just(0), func(n int) int { return 1 / n }))

	end := last(t, events)
	require.Equal(t, KindError, end.Kind)
	assert.Contains(t, end.Err.Error(), "panicked")
}
