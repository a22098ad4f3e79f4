// Package resolution turns a free-form recipient string into concrete
// email targets. It tries a direct address parse first, then the local
// contacts table, then the external resolver, and enforces the
// confirmation gate before externally-resolved addresses are used.
package resolution
