package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dpetrovs/fileupload/internal/common"
	"github.com/dpetrovs/fileupload/internal/server/models"
	"github.com/dpetrovs/fileupload/internal/server/repositories/repomanager"
)

// DirectoryService manages the named groupings files can be assigned to.
type DirectoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewDirectoryService(db *sql.DB, repomanager repomanager.RepositoryManager) *DirectoryService {
	return &DirectoryService{
		db:          db,
		repomanager: repomanager,
	}
}

// Create adds a directory. The name must be non-blank; it is stored trimmed.
func (s *DirectoryService) Create(ctx context.Context, name string) (*models.Directory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("directory name must not be blank: %w", common.ErrInvalidArgument)
	}
	return s.repomanager.Directories(s.db).Create(ctx, name)
}

// List returns all directories with their file counts.
func (s *DirectoryService) List(ctx context.Context) ([]*models.Directory, error) {
	return s.repomanager.Directories(s.db).List(ctx)
}

// Get returns one directory or common.ErrNotFound.
func (s *DirectoryService) Get(ctx context.Context, id int64) (*models.Directory, error) {
	return s.repomanager.Directories(s.db).GetByID(ctx, id)
}

// ListFiles returns the files assigned to a directory, or common.ErrNotFound
// for an unknown directory.
func (s *DirectoryService) ListFiles(ctx context.Context, id int64) ([]*models.File, error) {
	exists, err := s.repomanager.Directories(s.db).Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("directory %d: %w", id, common.ErrNotFound)
	}
	return s.repomanager.Files(s.db).ListByDirectory(ctx, id)
}

// Delete removes a directory. Files assigned to it become unassigned, never
// deleted; the schema's ON DELETE SET NULL enforces that.
func (s *DirectoryService) Delete(ctx context.Context, id int64) error {
	return s.repomanager.Directories(s.db).Delete(ctx, id)
}
