package verify

import (
	"fmt"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/fluxseq/internal/seq"
)

type stepKind int

const (
	stepNext stepKind = iota + 1
	stepNextCount
	stepError
	stepErrorMessage
	stepComplete
)

// step is one scripted expectation.
type step[T any] struct {
	kind    stepKind
	item    T
	count   int
	message string
}

func (s step[T]) terminal() bool {
	return s.kind == stepError || s.kind == stepErrorMessage || s.kind == stepComplete
}

// describe renders the expectation; remaining applies to stepNextCount.
func (s step[T]) describe(remaining int) string {
	switch s.kind {
	case stepNext:
		return fmt.Sprintf("next(%#v)", s.item)
	case stepNextCount:
		return fmt.Sprintf("next x%d (%d remaining)", s.count, remaining)
	case stepError:
		return "error(any)"
	case stepErrorMessage:
		return fmt.Sprintf("error(%q)", s.message)
	case stepComplete:
		return "complete()"
	default:
		return "unknown"
	}
}

// cursor walks a script. It is used by one verification at a time.
type cursor[T any] struct {
	steps     []step[T]
	index     int
	remaining int
}

func newCursor[T any](steps []step[T]) *cursor[T] {
	c := &cursor[T]{steps: steps}
	c.load()
	return c
}

func (c *cursor[T]) load() {
	if c.index < len(c.steps) && c.steps[c.index].kind == stepNextCount {
		c.remaining = c.steps[c.index].count
	}
}

func (c *cursor[T]) advance() {
	c.index++
	c.load()
}

// done reports whether every expectation was matched.
func (c *cursor[T]) done() bool {
	return c.index >= len(c.steps)
}

// expected describes the current expectation.
func (c *cursor[T]) expected() string {
	if c.done() {
		return "no more events"
	}
	return c.steps[c.index].describe(c.remaining)
}

// match checks e against the current expectation and advances on success.
func (c *cursor[T]) match(e seq.Event[T]) bool {
	if c.done() {
		return false
	}

	s := c.steps[c.index]
	switch s.kind {
	case stepNext:
		if e.Kind != seq.KindNext || !assert.ObjectsAreEqual(s.item, e.Item) {
			return false
		}
	case stepNextCount:
		if e.Kind != seq.KindNext {
			return false
		}
		c.remaining--
		if c.remaining > 0 {
			return true
		}
	case stepError:
		if e.Kind != seq.KindError {
			return false
		}
	case stepErrorMessage:
		if e.Kind != seq.KindError || e.Err == nil || e.Err.Error() != s.message {
			return false
		}
	case stepComplete:
		if e.Kind != seq.KindComplete {
			return false
		}
	default:
		return false
	}

	c.advance()
	return true
}
