// Package httpapi exposes the query and management REST surface: listing and
// downloading finalized files, thumbnails, and directory management. Uploads
// themselves arrive through the resumable upload endpoint mounted alongside.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dpetrovs/fileupload/internal/logging"
	"github.com/dpetrovs/fileupload/internal/server/models"
	"github.com/dpetrovs/fileupload/internal/server/services"
)

// FileService is the slice of the file service the handlers need.
type FileService interface {
	List(ctx context.Context) ([]*models.File, error)
	ListUnassigned(ctx context.Context) ([]*models.File, error)
	Get(ctx context.Context, id string) (*models.File, error)
	Download(ctx context.Context, id string) (*services.Download, error)
	Thumbnail(ctx context.Context, id string) ([]byte, error)
	AssignDirectory(ctx context.Context, id string, directoryID *int64) error
	Delete(ctx context.Context, id string) error
}

// DirectoryService is the slice of the directory service the handlers need.
type DirectoryService interface {
	Create(ctx context.Context, name string) (*models.Directory, error)
	List(ctx context.Context) ([]*models.Directory, error)
	Get(ctx context.Context, id int64) (*models.Directory, error)
	ListFiles(ctx context.Context, id int64) ([]*models.File, error)
	Delete(ctx context.Context, id int64) error
}

// Mountable mounts extra routes on the engine, such as the upload endpoint.
type Mountable interface {
	Mount(r *gin.Engine)
}

// tus response headers browsers need access to for resumable uploads to work
// cross-origin.
var tusExposedHeaders = []string{
	"Location", "Upload-Offset", "Upload-Length", "Tus-Resumable", "Tus-Version", "Tus-Extension", "Tus-Max-Size",
}

// NewRouter assembles the gin engine with all routes and middleware.
func NewRouter(files FileService, dirs DirectoryService, uploads Mountable, log logging.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsCfg.AllowHeaders = []string{
		"Origin", "Content-Type", "Upload-Offset", "Upload-Length", "Upload-Metadata", "Tus-Resumable", "X-Requested-With",
	}
	corsCfg.ExposeHeaders = tusExposedHeaders
	r.Use(cors.New(corsCfg))

	h := &handlers{files: files, dirs: dirs, log: log.With("module", "httpapi")}

	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/files", h.listFiles)
	api.GET("/files/unassigned", h.listUnassigned)
	api.GET("/file/:id", h.getFile)
	api.GET("/file/:id/download", h.downloadFile)
	api.GET("/file/:id/thumbnail", h.thumbnail)
	api.PUT("/file/:id/directory", h.assignDirectory)
	api.DELETE("/file/:id", h.deleteFile)

	api.GET("/directories", h.listDirectories)
	api.POST("/directories", h.createDirectory)
	api.GET("/directory/:id", h.getDirectory)
	api.GET("/directory/:id/files", h.listDirectoryFiles)
	api.DELETE("/directory/:id", h.deleteDirectory)

	if uploads != nil {
		uploads.Mount(r)
	}
	return r
}

func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
