package repomanager

import (
	"context"
	"database/sql"

	"github.com/dpetrovs/fileupload/internal/dbx"
	"github.com/dpetrovs/fileupload/internal/server/repositories/contents"
	"github.com/dpetrovs/fileupload/internal/server/repositories/directories"
	"github.com/dpetrovs/fileupload/internal/server/repositories/files"
)

// RepositoryManager vends repositories bound to a DBTX, so the same
// repository code runs against a plain connection or inside a transaction.
type RepositoryManager interface {
	Files(db dbx.DBTX) files.Repository
	Contents(db dbx.DBTX) contents.Repository
	Directories(db dbx.DBTX) directories.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
