// Package files stores the descriptive records of finalized uploads.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dpetrovs/fileupload/internal/common"
	"github.com/dpetrovs/fileupload/internal/dbx"
	"github.com/dpetrovs/fileupload/internal/server/models"
)

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a finalized file row. Exactly one row must be affected.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (id, name, extension, upload_timestamp, is_complete, content_id, directory_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	res, err := r.db.ExecContext(ctx, query,
		file.ID, file.Name, file.Extension, file.UploadTimestamp, file.IsComplete, file.ContentID, file.DirectoryID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// Exists reports whether a file row with the given id is already stored.
func (r *PostgresRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM files WHERE id=$1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return exists, nil
}

const selectColumns = `
	SELECT f.id, f.name, f.extension, f.upload_timestamp, f.is_complete, f.content_id,
		f.directory_id, COALESCE(d.name, '')
	FROM files f
	LEFT JOIN directories d ON d.id = f.directory_id
`

// GetByID returns one file row (with the directory name joined in) or
// common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := selectColumns + ` WHERE f.id=$1`

	item := &models.File{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Name, &item.Extension, &item.UploadTimestamp, &item.IsComplete,
		&item.ContentID, &item.DirectoryID, &item.DirectoryName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return item, nil
}

// List returns all file rows ordered by upload time, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.File, error) {
	query := selectColumns + ` ORDER BY f.upload_timestamp DESC`
	return r.selectMany(ctx, query)
}

// ListUnassigned returns file rows without a directory.
func (r *PostgresRepository) ListUnassigned(ctx context.Context) ([]*models.File, error) {
	query := selectColumns + ` WHERE f.directory_id IS NULL ORDER BY f.upload_timestamp DESC`
	return r.selectMany(ctx, query)
}

// ListByDirectory returns file rows assigned to the given directory.
func (r *PostgresRepository) ListByDirectory(ctx context.Context, directoryID int64) ([]*models.File, error) {
	query := selectColumns + ` WHERE f.directory_id=$1 ORDER BY f.upload_timestamp DESC`
	return r.selectMany(ctx, query, directoryID)
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var item models.File
		if err := rows.Scan(&item.ID, &item.Name, &item.Extension, &item.UploadTimestamp,
			&item.IsComplete, &item.ContentID, &item.DirectoryID, &item.DirectoryName); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// AssignDirectory sets (or clears, with nil) the directory reference of a file.
func (r *PostgresRepository) AssignDirectory(ctx context.Context, id string, directoryID *int64) error {
	query := `UPDATE files SET directory_id=$2 WHERE id=$1`
	res, err := r.db.ExecContext(ctx, query, id, directoryID)
	if err != nil {
		return fmt.Errorf("failed to assign directory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes a file row. The owning Content row is deleted by the service
// in the same transaction; the FK direction makes that ordering mandatory.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM files WHERE id=$1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
