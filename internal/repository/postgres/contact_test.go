package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pathlight/mailbroker/internal/domain"
)

func newContactRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "owner", "name", "email", "created_at"})
}

func TestContactRepo_SearchName_Unscoped(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT id, owner, name, email, created_at").
		WithArgs("abel").
		WillReturnRows(newContactRows().
			AddRow("c1", "", "Abel Simbulan", "abel@corp.com", now))

	repo := NewContactRepo(db)
	got, err := repo.SearchName(context.Background(), "", "abel")
	if err != nil {
		t.Fatalf("SearchName: %v", err)
	}
	if len(got) != 1 || got[0].Email != "abel@corp.com" {
		t.Errorf("unexpected result: %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestContactRepo_SearchName_OwnerScoped(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`AND \(owner = \$2 OR owner = ''\)`).
		WithArgs("bob", "user-1").
		WillReturnRows(newContactRows())

	repo := NewContactRepo(db)
	if _, err := repo.SearchName(context.Background(), "user-1", "bob"); err != nil {
		t.Fatalf("SearchName: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestContactRepo_Insert_Inserted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO contacts").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewContactRepo(db)
	c := &domain.Contact{Owner: "", Name: "Alice", Email: "alice@corp.com"}
	inserted, err := repo.Insert(context.Background(), c)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !inserted {
		t.Error("expected inserted=true for new row")
	}
	if c.ID == "" {
		t.Error("expected an ID to be assigned")
	}
}

func TestContactRepo_Insert_DuplicateIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	// ON CONFLICT DO NOTHING reports zero rows affected for a duplicate.
	mock.ExpectExec("INSERT INTO contacts").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewContactRepo(db)
	inserted, err := repo.Insert(context.Background(), &domain.Contact{Name: "Alice", Email: "alice@corp.com"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if inserted {
		t.Error("expected inserted=false for duplicate row")
	}
}

func TestContactRepo_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("ON CONFLICT \\(owner, lower\\(email\\)\\) DO UPDATE SET name").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewContactRepo(db)
	err = repo.Upsert(context.Background(), &domain.Contact{Owner: "u1", Name: "Bob Lee", Email: "bob@x.com"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSettingsRepo_GetSet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO user_settings").
		WithArgs("u1", "sender_email", "me@corp.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT key, value FROM user_settings").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("sender_email", "me@corp.com"))

	repo := NewSettingsRepo(db)
	if err := repo.Set(context.Background(), "u1", "sender_email", "me@corp.com"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := repo.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got["sender_email"] != "me@corp.com" {
		t.Errorf("unexpected settings: %v", got)
	}
}
