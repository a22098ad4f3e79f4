package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pathlight/mailbroker/internal/domain"
)

// ContactRepo implements contacts.Repository against PostgreSQL.
//
// Owner scoping convention: owner = "" means a global contact. The schema
// stores owner as TEXT NOT NULL DEFAULT ” with a unique index on
// (owner, lower(email)), so the duplicate-key discipline the persister
// relies on also covers global rows.
type ContactRepo struct{ db *sql.DB }

// NewContactRepo creates a Postgres-backed contact repository.
func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

// SearchName finds contacts whose name contains the query, case-insensitive.
// An empty owner searches all rows; a non-empty owner restricts to that
// owner's rows plus global rows.
func (r *ContactRepo) SearchName(ctx context.Context, owner, query string) ([]domain.Contact, error) {
	q := `
		SELECT id, owner, name, email, created_at
		FROM contacts
		WHERE name ILIKE '%' || $1 || '%'`
	args := []interface{}{query}
	if owner != "" {
		q += ` AND (owner = $2 OR owner = '')`
		args = append(args, owner)
	}
	q += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	defer rows.Close()
	return scanContacts(rows)
}

// All returns every contact visible to the owner (all rows when owner is "").
// Used by the broader in-process matching pass.
func (r *ContactRepo) All(ctx context.Context, owner string) ([]domain.Contact, error) {
	q := `SELECT id, owner, name, email, created_at FROM contacts`
	args := []interface{}{}
	if owner != "" {
		q += ` WHERE owner = $1 OR owner = ''`
		args = append(args, owner)
	}
	q += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()
	return scanContacts(rows)
}

// Insert adds a contact unless one with the same (owner, email) already
// exists. Returns true if a row was inserted, false when it was a duplicate.
// Concurrent inserts of the same contact are safe: the unique index absorbs
// the race and both callers see "already exists".
func (r *ContactRepo) Insert(ctx context.Context, c *domain.Contact) (bool, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, owner, name, email, created_at)
		VALUES ($1, $2, $3, lower($4), NOW())
		ON CONFLICT (owner, lower(email)) DO NOTHING
	`, c.ID, c.Owner, c.Name, c.Email)
	if err != nil {
		return false, fmt.Errorf("insert contact: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Upsert adds a contact or, when the (owner, email) pair exists, refreshes
// its display name. Backing store for explicit contact saves.
func (r *ContactRepo) Upsert(ctx context.Context, c *domain.Contact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, owner, name, email, created_at)
		VALUES ($1, $2, $3, lower($4), NOW())
		ON CONFLICT (owner, lower(email)) DO UPDATE SET name = $3
	`, c.ID, c.Owner, c.Name, c.Email)
	if err != nil {
		return fmt.Errorf("upsert contact: %w", err)
	}
	return nil
}

func scanContacts(rows *sql.Rows) ([]domain.Contact, error) {
	var out []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.Owner, &c.Name, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.Email = strings.TrimSpace(c.Email)
		out = append(out, c)
	}
	return out, rows.Err()
}
