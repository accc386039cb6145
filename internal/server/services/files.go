package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dpetrovs/fileupload/internal/common"
	"github.com/dpetrovs/fileupload/internal/dbx"
	"github.com/dpetrovs/fileupload/internal/logging"
	"github.com/dpetrovs/fileupload/internal/server/blob"
	"github.com/dpetrovs/fileupload/internal/server/models"
	"github.com/dpetrovs/fileupload/internal/server/repositories/repomanager"
)

// FileService exposes read and management operations over finalized uploads.
// Writes happen elsewhere, at upload completion; here files are listed,
// downloaded, reassigned and deleted.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store // nil means inline payload storage
	log         logging.Logger
}

func NewFileService(db *sql.DB, repomanager repomanager.RepositoryManager, blobs blob.Store, log logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: repomanager,
		blobs:       blobs,
		log:         log.With("module", "files"),
	}
}

// Download is the result of resolving a file's payload. Exactly one of Data
// and RedirectURL is set: inline payloads come back as bytes, externally
// stored ones as a temporary direct-download URL.
type Download struct {
	File        *models.File
	Data        []byte
	RedirectURL string
}

// List returns all finalized files, newest first.
func (s *FileService) List(ctx context.Context) ([]*models.File, error) {
	return s.repomanager.Files(s.db).List(ctx)
}

// ListUnassigned returns files that belong to no directory.
func (s *FileService) ListUnassigned(ctx context.Context) ([]*models.File, error) {
	return s.repomanager.Files(s.db).ListUnassigned(ctx)
}

// Get returns one file record or common.ErrNotFound.
func (s *FileService) Get(ctx context.Context, id string) (*models.File, error) {
	return s.repomanager.Files(s.db).GetByID(ctx, id)
}

// Download resolves a file's payload for serving.
func (s *FileService) Download(ctx context.Context, id string) (*Download, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := s.repomanager.Contents(s.db).GetByID(ctx, file.ContentID)
	if err != nil {
		return nil, fmt.Errorf("content for file %s: %w", id, err)
	}

	if content.PayloadKey != "" {
		url, err := s.blobs.PresignGet(ctx, content.PayloadKey)
		if err != nil {
			return nil, fmt.Errorf("presign payload: %w", err)
		}
		return &Download{File: file, RedirectURL: url}, nil
	}
	return &Download{File: file, Data: content.Payload}, nil
}

// Thumbnail returns a file's thumbnail bytes. A nil slice with a nil error
// means the file has no thumbnail.
func (s *FileService) Thumbnail(ctx context.Context, id string) ([]byte, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	content, err := s.repomanager.Contents(s.db).GetByID(ctx, file.ContentID)
	if err != nil {
		return nil, fmt.Errorf("content for file %s: %w", id, err)
	}

	if content.ThumbnailKey != "" {
		return s.blobs.Get(ctx, content.ThumbnailKey)
	}
	return content.Thumbnail, nil
}

// AssignDirectory moves a file into a directory, or unassigns it with nil.
// The directory must exist; the file keeps its previous assignment otherwise.
func (s *FileService) AssignDirectory(ctx context.Context, id string, directoryID *int64) error {
	if directoryID != nil {
		exists, err := s.repomanager.Directories(s.db).Exists(ctx, *directoryID)
		if err != nil {
			return fmt.Errorf("directory lookup: %w", err)
		}
		if !exists {
			return fmt.Errorf("directory %d: %w", *directoryID, common.ErrNotFound)
		}
	}
	return s.repomanager.Files(s.db).AssignDirectory(ctx, id, directoryID)
}

// Delete removes a file together with its content record, in one
// transaction; the file row goes first because it references the content.
// External blobs are removed afterwards, best effort.
func (s *FileService) Delete(ctx context.Context, id string) error {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, id)
	if err != nil {
		return err
	}
	content, err := s.repomanager.Contents(s.db).GetByID(ctx, file.ContentID)
	if err != nil {
		return fmt.Errorf("content for file %s: %w", id, err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Files(tx).Delete(ctx, id); err != nil {
			return err
		}
		return s.repomanager.Contents(tx).Delete(ctx, file.ContentID)
	})
	if err != nil {
		return fmt.Errorf("delete file %s: %w", id, err)
	}

	if s.blobs != nil {
		for _, key := range []string{content.PayloadKey, content.ThumbnailKey} {
			if key == "" {
				continue
			}
			if err := s.blobs.Delete(ctx, key); err != nil {
				s.log.Warn(ctx, "orphaned blob after delete", "key", key, "error", err.Error())
			}
		}
	}
	return nil
}
