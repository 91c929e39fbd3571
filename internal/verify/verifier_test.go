package verify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fluxseq/internal/seq"
)

func joined(latest []string) string {
	return strings.Join(latest, "")
}

func sleepy(pause time.Duration, values ...string) seq.Sequence[string] {
	return seq.Create(func(ctx context.Context, e *seq.Emitter[string]) error {
		for _, v := range values {
			e.Next(v)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
		}
		e.Complete()
		return nil
	})
}

func delayedError() seq.Sequence[string] {
	return seq.Create(func(ctx context.Context, e *seq.Emitter[string]) error {
		e.Next("error")
		e.Error(errors.New("Delayed error"))
		return nil
	})
}

func never() seq.Sequence[string] {
	return seq.Create(func(ctx context.Context, e *seq.Emitter[string]) error {
		<-ctx.Done()
		return nil
	})
}

func TestVerify_CombineLatest(t *testing.T) {
	s := seq.CombineLatest(joined,
		seq.FromSlice([]string{"a", "b", "c"}),
		sleepy(20*time.Millisecond, "a", "b", "c"),
	)

	err := For(s).ExpectNext("ca", "cb", "cc").VerifyComplete()
	require.NoError(t, err)
}

func TestVerify_Concat(t *testing.T) {
	s := seq.Concat(seq.Just("a", "b", "c"), seq.Just("A", "B", "C"))

	err := For(s).ExpectNext("a", "b", "c", "A", "B", "C").VerifyComplete()
	require.NoError(t, err)
}

func TestVerify_ConcatStopsAtError(t *testing.T) {
	s := seq.Concat(seq.Just("a", "b", "c"), delayedError(), seq.Just("A", "B", "C"))

	err := For(s).ExpectNext("a", "b", "c", "error").VerifyErrorMessage("Delayed error")
	require.NoError(t, err)
}

func TestVerify_ConcatDelayError(t *testing.T) {
	s := seq.ConcatDelayError(seq.Just("a", "b", "c"), delayedError(), seq.Just("A", "B", "C"))

	err := For(s).
		ExpectNext("a", "b", "c", "error", "A", "B", "C").
		ExpectErrorMessage("Delayed error").
		Verify()
	require.NoError(t, err)
}

func TestVerify_ExtraExpectedItem(t *testing.T) {
	v := For(seq.Just("a", "b", "c"))
	err := v.ExpectNext("a", "b", "c", "d").VerifyComplete()

	var me *MismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 3, me.Position)
	assert.Equal(t, 3, me.Step)
	assert.Equal(t, `next("d")`, me.Expected)
	assert.Equal(t, "complete()", me.Actual)
	assert.Equal(t, []string{`next("a")`, `next("b")`, `next("c")`, "complete()"}, me.Trace)
}

func TestVerify_MissingExpectedItem(t *testing.T) {
	err := For(seq.Just("a", "b", "c")).ExpectNext("a", "b").VerifyComplete()

	var me *MismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 2, me.Position)
	assert.Equal(t, "complete()", me.Expected)
	assert.Equal(t, `next("c")`, me.Actual)
}

func TestVerify_WrongItem(t *testing.T) {
	err := For(seq.Just(1, 2, 3)).ExpectNext(1, 5, 3).VerifyComplete()

	var me *MismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 1, me.Position)
	assert.Equal(t, "next(5)", me.Expected)
	assert.Equal(t, "next(2)", me.Actual)
	assert.Contains(t, err.Error(), "Expected: next(5)")
	assert.Contains(t, err.Error(), "[1] next(2)")
}

func TestVerify_WrongErrorMessage(t *testing.T) {
	err := For(seq.Fail[string](errors.New("boom"))).VerifyErrorMessage("bang")

	var me *MismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 0, me.Position)
	assert.Equal(t, `error("bang")`, me.Expected)
	assert.Equal(t, `error("boom")`, me.Actual)
}

func TestVerify_ErrorWhereCompleteExpected(t *testing.T) {
	err := For(seq.Fail[string](errors.New("boom"))).VerifyComplete()

	assert.True(t, IsMismatch(err))
	assert.False(t, IsTimeout(err))
}

func TestVerify_ExpectErrorMatchesAnyMessage(t *testing.T) {
	err := For(seq.Fail[string](errors.New("whatever"))).ExpectError().Verify()
	require.NoError(t, err)
}

func TestVerify_ExpectNextCount(t *testing.T) {
	s := seq.Just("a", "b", "c", "d")

	require.NoError(t, For(s).ExpectNext("a").ExpectNextCount(3).VerifyComplete())

	err := For(s).ExpectNextCount(5).VerifyComplete()
	var me *MismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 4, me.Position)
	assert.Equal(t, "next x5 (1 remaining)", me.Expected)
}

func TestVerify_ScriptWithoutTerminalAwaitsTerminal(t *testing.T) {
	s := seq.Concat(seq.Just("a"), never())

	err := For(s, WithTimeout(50*time.Millisecond)).ExpectNext("a").Verify()

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 1, te.Position)
	assert.Equal(t, "terminal signal", te.Expected)
}

func TestVerify_ScriptMissingTrailingItem(t *testing.T) {
	err := For(seq.Just("a", "b", "c")).ExpectNext("a", "b").Verify()

	var me *MismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 2, me.Position)
	assert.Equal(t, "no more events", me.Expected)
	assert.Equal(t, `next("c")`, me.Actual)
}

func TestVerify_ScriptWithoutTerminalRejectsCompletion(t *testing.T) {
	err := For(seq.Just("a")).ExpectNext("a").Verify()

	var me *MismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 1, me.Position)
	assert.Equal(t, "no more events", me.Expected)
	assert.Equal(t, "complete()", me.Actual)
}

func TestVerify_Timeout(t *testing.T) {
	s := seq.Concat(seq.Just("a"), never())

	start := time.Now()
	err := For(s, WithTimeout(50*time.Millisecond)).ExpectNext("a").VerifyComplete()
	elapsed := time.Since(start)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 1, te.Position)
	assert.Equal(t, "complete()", te.Expected)
	assert.Equal(t, []string{`next("a")`}, te.Trace)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Contains(t, Summary(err), "timed out after 50ms")
}

func TestVerify_ParentContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := For(never(), WithContext(ctx)).VerifyComplete()
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTimeout(err))
}

func TestVerify_TraceRecorded(t *testing.T) {
	v := For(seq.Just("x", "y"))
	require.NoError(t, v.ExpectNext("x", "y").VerifyComplete())

	trace := v.Trace()
	require.Len(t, trace, 3)
	assert.Equal(t, "x", trace[0].Item)
	assert.Equal(t, seq.KindComplete, trace[2].Kind)
	assert.Less(t, trace[0].Seq, trace[1].Seq)
}

func TestVerify_RepeatableAndCold(t *testing.T) {
	v := For(seq.Just("x")).ExpectNext("x").ExpectComplete()

	require.NoError(t, v.Verify())
	require.NoError(t, v.Verify())
	assert.Len(t, v.Trace(), 2)
}

func TestVerify_EmptyScript(t *testing.T) {
	err := For(never(), WithTimeout(50*time.Millisecond)).Verify()
	assert.True(t, IsTimeout(err))

	err = For(seq.Empty[string]()).Verify()
	var me *MismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 0, me.Position)
	assert.Equal(t, "complete()", me.Actual)
}

func TestSummary(t *testing.T) {
	me := &MismatchError{Position: 2, Expected: "complete()", Actual: `next("c")`}
	assert.Equal(t, `verify: mismatch at position 2: expected complete(), got next("c")`, Summary(me))
	assert.Equal(t, "plain", Summary(errors.New("plain")))
}
