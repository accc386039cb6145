package directories

import (
	"context"

	"github.com/dpetrovs/fileupload/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, name string) (*models.Directory, error)
	Exists(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.Directory, error)
	List(ctx context.Context) ([]*models.Directory, error)
	Delete(ctx context.Context, id int64) error
}
