package contents

import (
	"context"

	"github.com/dpetrovs/fileupload/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, content *models.Content) error
	GetByID(ctx context.Context, id string) (*models.Content, error)
	Delete(ctx context.Context, id string) error
}
