// Package delivery fans a composed email out to resolved targets through
// a pluggable transport and reports a per-target outcome for each send.
package delivery
