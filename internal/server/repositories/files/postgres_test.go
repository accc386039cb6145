package files

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dpetrovs/fileupload/internal/common"
	"github.com/dpetrovs/fileupload/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var fileColumns = []string{
	"id", "name", "extension", "upload_timestamp", "is_complete", "content_id", "directory_id", "name",
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	q := regexp.MustCompile(`INSERT INTO files \(id, name, extension, upload_timestamp, is_complete, content_id, directory_id\)`)

	mock.ExpectExec(q.String()).
		WithArgs("f1", "cat.png", "png", ts, true, "c1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.File{
		ID:              "f1",
		Name:            "cat.png",
		Extension:       "png",
		UploadTimestamp: ts,
		IsComplete:      true,
		ContentID:       "c1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBExecError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO files`).
		WillReturnError(errors.New("db is down"))

	err := repo.Create(context.Background(), &models.File{ID: "f1"})
	if err == nil || !regexp.MustCompile(`db error: .*db is down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCreate_UnexpectedRowsAffected(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO files`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), &models.File{ID: "f1"})
	if err == nil || !regexp.MustCompile(`unexpected rows affected: 0`).MatchString(err.Error()) {
		t.Fatalf("expected unexpected rows affected error, got %v", err)
	}
}

func TestExists_TrueFalse(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`SELECT EXISTS \(SELECT 1 FROM files WHERE id=\$1\)`)

	mock.ExpectQuery(q.String()).WithArgs("f1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(q.String()).WithArgs("f2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	got, err := repo.Exists(context.Background(), "f1")
	if err != nil || !got {
		t.Fatalf("want true, got %v (err %v)", got, err)
	}
	got, err = repo.Exists(context.Background(), "f2")
	if err != nil || got {
		t.Fatalf("want false, got %v (err %v)", got, err)
	}
}

func TestGetByID_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	dirID := int64(3)

	rows := sqlmock.NewRows(fileColumns).
		AddRow("f1", "cat.png", "png", ts, true, "c1", dirID, "Pictures")

	mock.ExpectQuery(`SELECT f\.id, f\.name, f\.extension, .* FROM files f\s+LEFT JOIN directories d ON d\.id = f\.directory_id\s+WHERE f\.id=\$1`).
		WithArgs("f1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "f1" || got.Name != "cat.png" || got.DirectoryName != "Pictures" {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.DirectoryID == nil || *got.DirectoryID != 3 {
		t.Fatalf("unexpected directory id: %v", got.DirectoryID)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT f\.id, .* WHERE f\.id=\$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestList_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(fileColumns).
		AddRow("f2", "b.txt", "txt", ts.Add(time.Hour), true, "c2", nil, "").
		AddRow("f1", "a.txt", "txt", ts, true, "c1", int64(1), "Docs")

	mock.ExpectQuery(`SELECT f\.id, .* ORDER BY f\.upload_timestamp DESC`).
		WillReturnRows(rows)

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if got[0].ID != "f2" || got[0].DirectoryID != nil {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
	if got[1].DirectoryName != "Docs" {
		t.Fatalf("unexpected second row: %+v", got[1])
	}
}

func TestListUnassigned_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(fileColumns).
		AddRow("f1", "a.txt", "txt", ts, true, "c1", nil, "")

	mock.ExpectQuery(`SELECT f\.id, .* WHERE f\.directory_id IS NULL ORDER BY f\.upload_timestamp DESC`).
		WillReturnRows(rows)

	got, err := repo.ListUnassigned(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].DirectoryID != nil {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestListByDirectory_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(fileColumns).
		AddRow("f1", "a.txt", "txt", ts, true, "c1", int64(5), "Inbox")

	mock.ExpectQuery(`SELECT f\.id, .* WHERE f\.directory_id=\$1 ORDER BY f\.upload_timestamp DESC`).
		WithArgs(int64(5)).
		WillReturnRows(rows)

	got, err := repo.ListByDirectory(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].DirectoryName != "Inbox" {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestList_ScanRowError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(fileColumns).
		AddRow("f1", "a.txt", "txt", "not-a-time", true, "c1", nil, "")

	mock.ExpectQuery(`SELECT f\.id, .* ORDER BY f\.upload_timestamp DESC`).
		WillReturnRows(rows)

	_, err := repo.List(context.Background())
	if err == nil {
		t.Fatalf("expected scan error, got nil")
	}
}

func TestAssignDirectory_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	dirID := int64(7)
	mock.ExpectExec(`UPDATE files SET directory_id=\$2 WHERE id=\$1`).
		WithArgs("f1", dirID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.AssignDirectory(context.Background(), "f1", &dirID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAssignDirectory_Clear(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE files SET directory_id=\$2 WHERE id=\$1`).
		WithArgs("f1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.AssignDirectory(context.Background(), "f1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAssignDirectory_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE files SET directory_id=\$2 WHERE id=\$1`).
		WithArgs("missing", nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AssignDirectory(context.Background(), "missing", nil)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM files WHERE id=\$1`).
		WithArgs("f1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "f1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM files WHERE id=\$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
