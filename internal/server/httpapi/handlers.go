package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/dpetrovs/fileupload/internal/common"
	"github.com/dpetrovs/fileupload/internal/logging"
	"github.com/dpetrovs/fileupload/internal/server/models"
)

type handlers struct {
	files FileService
	dirs  DirectoryService
	log   logging.Logger
}

// FileResponse is the API shape of one file record.
type FileResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Extension       string    `json:"extension"`
	UploadTimestamp time.Time `json:"uploadTimestamp"`
	IsComplete      bool      `json:"isComplete"`
	DirectoryID     *int64    `json:"directoryId"`
	DirectoryName   string    `json:"directoryName,omitempty"`
	ThumbnailURL    string    `json:"thumbnailUrl"`
	DownloadURL     string    `json:"downloadUrl"`
}

// DirectoryResponse is the API shape of one directory.
type DirectoryResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	FileCount int64  `json:"fileCount"`
}

// ErrorResponse carries a machine-readable error code and a human message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func fileResponse(f *models.File) FileResponse {
	return FileResponse{
		ID:              f.ID,
		Name:            f.Name,
		Extension:       f.Extension,
		UploadTimestamp: f.UploadTimestamp,
		IsComplete:      f.IsComplete,
		DirectoryID:     f.DirectoryID,
		DirectoryName:   f.DirectoryName,
		ThumbnailURL:    fmt.Sprintf("/api/file/%s/thumbnail", f.ID),
		DownloadURL:     fmt.Sprintf("/api/file/%s/download", f.ID),
	}
}

func fileResponses(items []*models.File) []FileResponse {
	out := make([]FileResponse, 0, len(items))
	for _, f := range items {
		out = append(out, fileResponse(f))
	}
	return out
}

func directoryResponse(d *models.Directory) DirectoryResponse {
	return DirectoryResponse{ID: d.ID, Name: d.Name, FileCount: d.FileCount}
}

// fail maps service errors onto HTTP statuses.
func (h *handlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: err.Error()})
	case errors.Is(err, common.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_argument", Message: err.Error()})
	default:
		h.log.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err.Error())
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal", Message: "internal error"})
	}
}

func (h *handlers) listFiles(c *gin.Context) {
	items, err := h.files.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fileResponses(items))
}

func (h *handlers) listUnassigned(c *gin.Context) {
	items, err := h.files.ListUnassigned(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fileResponses(items))
}

func (h *handlers) getFile(c *gin.Context) {
	item, err := h.files.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fileResponse(item))
}

func (h *handlers) downloadFile(c *gin.Context) {
	dl, err := h.files.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	if dl.RedirectURL != "" {
		c.Redirect(http.StatusTemporaryRedirect, dl.RedirectURL)
		return
	}

	contentType := mimetype.Detect(dl.Data).String()
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(dl.File.Name)))
	c.Data(http.StatusOK, contentType, dl.Data)
}

func (h *handlers) thumbnail(c *gin.Context) {
	data, err := h.files.Thumbnail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(data) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

// assignDirectoryRequest is the PUT body; a null directoryId unassigns.
type assignDirectoryRequest struct {
	DirectoryID *int64 `json:"directoryId"`
}

func (h *handlers) assignDirectory(c *gin.Context) {
	var req assignDirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "invalid request body"})
		return
	}
	if err := h.files.AssignDirectory(c.Request.Context(), c.Param("id"), req.DirectoryID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) deleteFile(c *gin.Context) {
	if err := h.files.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) listDirectories(c *gin.Context) {
	items, err := h.dirs.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]DirectoryResponse, 0, len(items))
	for _, d := range items {
		out = append(out, directoryResponse(d))
	}
	c.JSON(http.StatusOK, out)
}

type createDirectoryRequest struct {
	Name string `json:"name"`
}

func (h *handlers) createDirectory(c *gin.Context) {
	var req createDirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "invalid request body"})
		return
	}
	item, err := h.dirs.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, directoryResponse(item))
}

func (h *handlers) getDirectory(c *gin.Context) {
	id, ok := h.directoryID(c)
	if !ok {
		return
	}
	item, err := h.dirs.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, directoryResponse(item))
}

func (h *handlers) listDirectoryFiles(c *gin.Context) {
	id, ok := h.directoryID(c)
	if !ok {
		return
	}
	items, err := h.dirs.ListFiles(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fileResponses(items))
}

func (h *handlers) deleteDirectory(c *gin.Context) {
	id, ok := h.directoryID(c)
	if !ok {
		return
	}
	if err := h.dirs.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) directoryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_argument", Message: "directory id must be an integer"})
		return 0, false
	}
	return id, true
}
