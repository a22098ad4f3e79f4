// Package resolver turns a person's name into ranked candidate email
// addresses by fanning out to external lookup services.
//
// This is the last resort of recipient resolution: it only runs when the
// local contact store has no match, because every call here is a paid,
// rate-limited network lookup returning uncertain results. Callers are
// expected to gate sends on explicit confirmation before acting on a
// candidate produced by this package.
//
// Sources (web-search grounding, people/email-finder APIs) implement the
// Source interface; the service merges their candidates by address,
// boosts confidence when independent sources agree, and returns the top
// results ordered by descending confidence.
package resolver
