// Package verify checks a sequence against a script of expected signals.
//
// A Verifier subscribes to the sequence, pulls events one at a time and
// compares each against the next scripted expectation:
//
//	err := verify.For(seq).
//		ExpectNext("ca", "cb", "cc").
//		VerifyComplete()
//
// Verification ends at the first mismatch, at the timeout, or when the
// sequence signals its terminal event. The result is nil on success, *MismatchError when an
// observed signal differs from the script (or the sequence ends early), and
// *TimeoutError when the sequence stalls. In every case the subscription is
// cancelled before returning.
//
// A script without a terminal expectation never passes: the terminal
// signal is always awaited and no script entry is left to match it.
package verify
