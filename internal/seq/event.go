package seq

import "fmt"

// Kind distinguishes the three signals a sequence can deliver.
type Kind int

const (
	// KindNext carries one item.
	KindNext Kind = iota + 1
	// KindError is the terminal error signal.
	KindError
	// KindComplete is the terminal success signal.
	KindComplete
)

// String returns the lowercase signal name used in traces.
func (k Kind) String() string {
	switch k {
	case KindNext:
		return "next"
	case KindError:
		return "error"
	case KindComplete:
		return "complete"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Terminal reports whether k ends a sequence.
func (k Kind) Terminal() bool {
	return k == KindError || k == KindComplete
}

// Event is one signal delivered to a subscriber.
//
// Seq is the arrival stamp assigned when the event was pushed. Stamps are
// strictly increasing across the process and are never zero for a pushed
// event.
type Event[T any] struct {
	Kind Kind
	Item T
	Err  error
	Seq  int64
}

// String renders the event the way verification traces print it.
func (e Event[T]) String() string {
	switch e.Kind {
	case KindNext:
		return fmt.Sprintf("next(%#v)", e.Item)
	case KindError:
		if e.Err == nil {
			return "error()"
		}
		return fmt.Sprintf("error(%q)", e.Err.Error())
	case KindComplete:
		return "complete()"
	default:
		return e.Kind.String()
	}
}
