// Package harness runs declarative sequence scenarios end to end.
//
// A scenario names a set of sources, wires them through one operator and
// scripts the signals the output must produce. The harness builds the
// pipeline with package seq, checks it with package verify and records the
// observed trace for golden comparison, metrics and the run store.
//
// # Scenario Format
//
// Scenarios are YAML (or CUE) files:
//
//	name: combine_latest_array_and_emitter
//	description: "Array source combined with a pausing emitter"
//	sources:
//	  letters:
//	    items: [a, b, c]
//	  ticks:
//	    emit:
//	      - next: a
//	      - delay: 20ms
//	      - next: b
//	      - complete: true
//	pipeline:
//	  operator: combine_latest
//	  inputs: [letters, ticks]
//	expect:
//	  - next: ca
//	  - next: cb
//	  - complete: true
//	assertions:
//	  - type: trace_count
//	    kind: next
//	    count: 2
//
// # Operators
//
//   - source: pass a single input through unchanged
//   - combine_latest: join the latest item of every input with separator
//   - concat: inputs one after another, stop at the first error
//   - concat_delay_error: inputs one after another, report the first error last
//
// An optional transform (upper, lower) maps every output item.
//
// # Assertion Types
//
//   - trace_contains: an item with the given value was observed
//   - trace_order: the given values were observed in this order
//   - trace_count: exactly count signals of kind (and value, if set)
package harness
