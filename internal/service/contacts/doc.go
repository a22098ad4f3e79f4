// Package contacts implements the local contact store service: lookup of
// send targets by name fragments and write-back of newly resolved addresses.
//
// Lookup is deliberately loose. Callers type half-remembered names
// ("send hi to Abel"), so after the indexed substring query misses, the
// service falls back to an in-process scan that matches name tokens and
// email local-parts in either direction.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports
// net/http or database/sql directly.
package contacts
