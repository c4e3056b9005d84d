package configs

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/server/models"
	"github.com/google/go-cmp/cmp"
)

const (
	selectQuery = `(?s)^SELECT\s+user_id,\s*nonce,\s*ciphertext,\s*updated_at\s+FROM\s+user_configs\s+WHERE\s+user_id\s*=\s*\$1\s*$`
	upsertQuery = `(?s)^INSERT\s+INTO\s+user_configs\s*\(user_id,\s*nonce,\s*ciphertext,\s*updated_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*now\(\)\)\s*ON\s+CONFLICT\s*\(user_id\)\s*DO\s+UPDATE.*RETURNING\s+updated_at\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"user_id", "nonce", "ciphertext", "updated_at"}).
		AddRow("u-1", []byte("n"), []byte("ct"), ts)
	mock.ExpectQuery(selectQuery).WithArgs("u-1").WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	want := &models.ConfigBlob{UserID: "u-1", Nonce: []byte("n"), Ciphertext: []byte("ct"), UpdatedAt: ts}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("blob mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQuery).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGet_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectQuery).WithArgs("u-1").WillReturnError(errors.New("db down"))

	_, err := repo.Get(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestPut_Upserts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery(upsertQuery).
		WithArgs("u-1", []byte("n2"), []byte("ct2")).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(ts))

	got, err := repo.Put(context.Background(), &models.ConfigBlob{UserID: "u-1", Nonce: []byte("n2"), Ciphertext: []byte("ct2")})
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if !got.UpdatedAt.Equal(ts) {
		t.Fatalf("updated_at = %v, want %v", got.UpdatedAt, ts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestPut_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(upsertQuery).
		WithArgs("u-1", []byte("n"), []byte("ct")).
		WillReturnError(errors.New("fk violation"))

	_, err := repo.Put(context.Background(), &models.ConfigBlob{UserID: "u-1", Nonce: []byte("n"), Ciphertext: []byte("ct")})
	if err == nil || !regexp.MustCompile(`db error: .*fk violation`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
