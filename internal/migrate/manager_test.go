package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func writeMigration(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestUpAppliesPendingInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	dir := t.TempDir()
	writeMigration(t, dir, "0002_second.up.sql", "create table second(id text);")
	writeMigration(t, dir, "0001_first.up.sql",
		"create table first(id text);\ninsert into first(id) values ('semi;colon');")

	mock.ExpectExec("create table if not exists schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	mock.ExpectBegin()
	mock.ExpectExec("create table first").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("insert into first").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("insert into schema_migrations").
		WithArgs("0001_first.up.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectBegin()
	mock.ExpectExec("create table second").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec("insert into schema_migrations").
		WithArgs("0002_second.up.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewManager(db, dir).Up(context.Background()); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpSkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	dir := t.TempDir()
	writeMigration(t, dir, "0001_first.up.sql", "create table first(id text);")

	mock.ExpectExec("create table if not exists schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_first.up.sql"))

	if err := NewManager(db, dir).Up(context.Background()); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithTableRedirectsBookkeeping(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	dir := t.TempDir()
	writeMigration(t, dir, "0001_first.up.sql", "create table first(id text);")

	mock.ExpectExec("create table if not exists benchbook_history").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from benchbook_history").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec("create table first").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec("insert into benchbook_history").
		WithArgs("0001_first.up.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewManager(db, dir, WithTable("benchbook_history")).Up(context.Background()); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDownRollsBackLast(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	dir := t.TempDir()
	writeMigration(t, dir, "0001_first.up.sql", "create table first(id text);")
	writeMigration(t, dir, "0001_first.down.sql", "drop table first;")

	mock.ExpectExec("create table if not exists schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_migrations order by applied_at").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_first.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec("drop table first").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec("delete from schema_migrations").
		WithArgs("0001_first.up.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewManager(db, dir).Down(context.Background()); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDownWithoutHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_migrations order by applied_at").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	if err := NewManager(db, t.TempDir()).Down(context.Background()); err == nil {
		t.Fatal("Down with no history should fail")
	}
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("select 1; insert into t(v) values ('a;b'); select 2")
	if len(stmts) != 3 {
		t.Fatalf("statement count = %d, want 3 (%q)", len(stmts), stmts)
	}
}
