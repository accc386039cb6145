// Package directories stores the named groupings files can be assigned to.
package directories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dpetrovs/fileupload/internal/common"
	"github.com/dpetrovs/fileupload/internal/dbx"
	"github.com/dpetrovs/fileupload/internal/server/models"
)

// PostgresRepository implements directory storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a directory and returns it with the assigned id.
func (r *PostgresRepository) Create(ctx context.Context, name string) (*models.Directory, error) {
	query := `INSERT INTO directories (name) VALUES ($1) RETURNING id`
	item := &models.Directory{Name: name}
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&item.ID); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return item, nil
}

// Exists reports whether a directory with the given id is stored.
func (r *PostgresRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM directories WHERE id=$1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check directory existence: %w", err)
	}
	return exists, nil
}

// GetByID returns one directory (with its file count) or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Directory, error) {
	query := `
		SELECT d.id, d.name, COUNT(f.id)
		FROM directories d
		LEFT JOIN files f ON f.directory_id = d.id
		WHERE d.id=$1
		GROUP BY d.id
	`
	item := &models.Directory{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&item.ID, &item.Name, &item.FileCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select directory: %w", err)
	}
	return item, nil
}

// List returns all directories with their file counts.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Directory, error) {
	query := `
		SELECT d.id, d.name, COUNT(f.id)
		FROM directories d
		LEFT JOIN files f ON f.directory_id = d.id
		GROUP BY d.id
		ORDER BY d.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select directories: %w", err)
	}
	defer rows.Close()

	var result []*models.Directory
	for rows.Next() {
		var item models.Directory
		if err := rows.Scan(&item.ID, &item.Name, &item.FileCount); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a directory. Referencing files are unassigned by the
// ON DELETE SET NULL constraint, never deleted.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM directories WHERE id=$1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete directory: %w", err)
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
