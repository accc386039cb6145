package files

import (
	"context"

	"github.com/dpetrovs/fileupload/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) error
	Exists(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.File, error)
	List(ctx context.Context) ([]*models.File, error)
	ListUnassigned(ctx context.Context) ([]*models.File, error)
	ListByDirectory(ctx context.Context, directoryID int64) ([]*models.File, error)
	AssignDirectory(ctx context.Context, id string, directoryID *int64) error
	Delete(ctx context.Context, id string) error
}
