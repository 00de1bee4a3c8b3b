// Package dnscache implements the record-set and message caches at the
// heart of a validating recursive resolver: a store for cached RRsets,
// a store for cached reply messages that reference RRsets by identity,
// and the synthesizer and delegation-point builder that turn cached
// state into replies.
//
// The wire-format parser, the DNSSEC validator, and the network I/O
// loop that drives resolution all live outside this package; it only
// ever sees already-resolved data handed to it by a caller.
package dnscache
