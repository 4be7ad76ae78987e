// Package penman reads and writes semantic graphs in parenthesized PENMAN
// notation:
//
//	(w / want-01
//	   :ARG0 (b / boy)
//	   :ARG1 (f / fairness))
//
// A file is first split into blocks (one serialized graph each), then every
// block is decoded independently into a schemas.Graph. Decoding is strict:
// a malformed block yields a *DecodeError and no triples at all. Alignment
// markers (~e.N) are accepted and discarded.
package penman
