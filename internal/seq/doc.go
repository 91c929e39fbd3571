// Package seq implements a push-based asynchronous sequence engine.
//
// A Sequence is a lazy description of a stream of items that ends with
// exactly one terminal signal: completion or an error. Nothing is produced
// until Subscribe is called; every subscription replays the sequence from
// the start (cold semantics).
//
// ARCHITECTURE:
//
// Queue per Subscription:
// Every Subscription owns an unbounded FIFO queue guarded by a mutex, with
// a coalescing signal channel for context-aware waiting. Producers (array
// sources, emitter setup routines, operator tasks) push into the queue;
// consumers pull with Next or TryNext. Pushes never block, so a slow
// consumer never stalls an emitter.
//
// Arrival Clock:
// Each pushed event is stamped inside the queue lock with a value from a
// process-wide logical clock. Stamps give a total arrival order across all
// queues, which CombineLatest uses to process inputs deterministically.
//
// Single-Writer Operators:
// CombineLatest runs one actor task that owns the latest-value state. Input
// readiness is relayed to the actor through a wake channel; the actor then
// processes ready input events smallest stamp first, ties broken by the
// lowest input index. Concat and ConcatDelayError run one cursor task that
// subscribes to at most one upstream at a time.
//
// Lifetimes:
// Tasks spawned for a subscription run in its errgroup and observe its
// context. Cancel stops delivery and cancels that context; upstream
// subscriptions are created from it, so cancellation propagates through the
// whole graph. Wait joins the tasks.
//
// CRITICAL PATTERNS:
//
// Exactly one terminal event per subscription, always after every item.
// Pushes after the terminal event are ignored.
package seq
