// Package canon produces canonical JSON (RFC 8785 subset) for golden traces
// and stored run records.
//
// Canonical output is byte-stable: object keys are sorted by UTF-16 code
// units, strings are NFC normalized, HTML characters are not escaped and the
// output is compact. Floats and null are rejected so that a value always
// has exactly one encoding.
package canon
