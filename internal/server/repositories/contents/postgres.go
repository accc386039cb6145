// Package contents stores the binary records owned by file rows: the payload
// and its optional thumbnail, either inline or as object-storage keys.
package contents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dpetrovs/fileupload/internal/common"
	"github.com/dpetrovs/fileupload/internal/dbx"
	"github.com/dpetrovs/fileupload/internal/server/models"
)

// PostgresRepository implements content storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a content row. Rows are immutable afterwards.
func (r *PostgresRepository) Create(ctx context.Context, content *models.Content) error {
	query := `
		INSERT INTO contents (id, payload, thumbnail, payload_key, thumbnail_key)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''));
	`
	res, err := r.db.ExecContext(ctx, query,
		content.ID, content.Payload, content.Thumbnail, content.PayloadKey, content.ThumbnailKey)
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

// GetByID returns one content row or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Content, error) {
	query := `
		SELECT id, payload, thumbnail, COALESCE(payload_key, ''), COALESCE(thumbnail_key, '')
		FROM contents WHERE id=$1
	`
	item := &models.Content{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Payload, &item.Thumbnail, &item.PayloadKey, &item.ThumbnailKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select content: %w", err)
	}
	return item, nil
}

// Delete removes a content row once its owning file row is gone.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM contents WHERE id=$1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
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
