package finalize

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/dpetrovs/fileupload/internal/common"
	"github.com/dpetrovs/fileupload/internal/dbx"
	"github.com/dpetrovs/fileupload/internal/logging"
	"github.com/dpetrovs/fileupload/internal/server/blob"
	"github.com/dpetrovs/fileupload/internal/server/models"
	"github.com/dpetrovs/fileupload/internal/server/repositories/repomanager"
)

// DirectoryMetadataKey is the optional upload metadata key carrying a
// directory assignment.
const DirectoryMetadataKey = "directoryid"

// Request is one completion notification from the upload transport.
type Request struct {
	// SessionID is the transport's upload id; it becomes the file id.
	SessionID string
	// AssembledPath locates the fully received bytes in the staging area.
	AssembledPath string
	// InfoPath locates the transport's sidecar state file, removed together
	// with the assembled bytes. May be empty.
	InfoPath string
	// Metadata is the caller-supplied key/value metadata, unvalidated.
	Metadata map[string]string
}

// Finalizer runs the one-time transition from "all bytes received" to
// "durably stored and queryable".
//
// Each session is finalized at most once: concurrent duplicate notifications
// for the same id collapse onto a single run (singleflight), and later
// re-deliveries are absorbed by an existence probe. Distinct sessions
// finalize concurrently with no shared state beyond the database.
//
// The content and file rows are written as one transaction. Staged bytes are
// removed only after that transaction commits (or on rejection); any other
// failure leaves them in place for operator recovery or transport retry.
type Finalizer struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	blobs  blob.Store // nil means inline payload storage
	fs     afero.Fs
	policy *Policy
	thumbs *Thumbnailer
	log    logging.Logger

	group singleflight.Group
	now   func() time.Time
}

// NewFinalizer wires the orchestrator. blobs may be nil, selecting inline
// payload storage.
func NewFinalizer(db *sql.DB, repos repomanager.RepositoryManager, blobs blob.Store,
	fs afero.Fs, policy *Policy, thumbs *Thumbnailer, log logging.Logger) *Finalizer {
	return &Finalizer{
		db:     db,
		repos:  repos,
		blobs:  blobs,
		fs:     fs,
		policy: policy,
		thumbs: thumbs,
		log:    log.With("module", "finalizer"),
		now:    time.Now,
	}
}

// Finalize processes one completion notification. A non-nil return means the
// upload failed from the caller's point of view: common.ErrTypeRejected for
// a policy rejection, anything else for an internal fault worth retrying.
func (f *Finalizer) Finalize(ctx context.Context, req Request) error {
	_, err, _ := f.group.Do(req.SessionID, func() (any, error) {
		return nil, f.run(ctx, req)
	})
	return err
}

func (f *Finalizer) run(ctx context.Context, req Request) error {
	log := f.log.With("session", req.SessionID)

	exists, err := f.repos.Files(f.db).Exists(ctx, req.SessionID)
	if err != nil {
		return fmt.Errorf("existence check: %w", err)
	}
	if exists {
		// Re-delivered notification for a finalized session: the staged
		// bytes were already removed, nothing left to do.
		log.Info(ctx, "duplicate completion ignored")
		return nil
	}

	meta := ExtractMeta(req.Metadata)

	decision := f.policy.Decide(meta.Extension)
	if decision == Reject {
		f.removeStaged(ctx, req, log)
		log.Warn(ctx, "upload rejected by type policy", "name", meta.Name, "extension", meta.Extension)
		return fmt.Errorf("extension %q: %w", meta.Extension, common.ErrTypeRejected)
	}

	var thumbnail []byte
	if decision == AcceptImage {
		thumbnail = f.thumbs.Generate(ctx, req.AssembledPath)
	}

	payload, err := afero.ReadFile(f.fs, req.AssembledPath)
	if err != nil {
		return fmt.Errorf("read assembled bytes: %w", err)
	}

	content := &models.Content{ID: uuid.NewString()}
	if f.blobs != nil {
		if err := f.putBlobs(ctx, content, payload, thumbnail); err != nil {
			return err
		}
	} else {
		content.Payload = payload
		content.Thumbnail = thumbnail
	}

	file := &models.File{
		ID:              req.SessionID,
		Name:            meta.Name,
		Extension:       meta.Extension,
		UploadTimestamp: f.now(),
		IsComplete:      true,
		ContentID:       content.ID,
		DirectoryID:     f.resolveDirectory(ctx, req.Metadata, log),
	}

	// Both records become visible together or not at all: a reader must
	// never observe a file row whose content row is missing.
	err = dbx.WithTx(ctx, f.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := f.repos.Contents(tx).Create(ctx, content); err != nil {
			return err
		}
		return f.repos.Files(tx).Create(ctx, file)
	})
	if err != nil {
		f.deleteBlobs(ctx, content, log)
		return fmt.Errorf("persist records: %w", err)
	}

	// Cleanup strictly after commit: a crash here leaves at most a harmless
	// orphaned staging file.
	f.removeStaged(ctx, req, log)

	log.Info(ctx, "upload finalized",
		"name", meta.Name,
		"extension", meta.Extension,
		"bytes", len(payload),
		"thumbnail", len(thumbnail) > 0)
	return nil
}

// putBlobs writes payload (and thumbnail, when present) to external storage
// before the database transaction runs.
func (f *Finalizer) putBlobs(ctx context.Context, content *models.Content, payload, thumbnail []byte) error {
	content.PayloadKey = blob.RandomKey()
	if err := f.blobs.Put(ctx, content.PayloadKey, payload); err != nil {
		return fmt.Errorf("store payload blob: %w", err)
	}
	if len(thumbnail) > 0 {
		content.ThumbnailKey = blob.RandomKey()
		if err := f.blobs.Put(ctx, content.ThumbnailKey, thumbnail); err != nil {
			if derr := f.blobs.Delete(ctx, content.PayloadKey); derr != nil {
				f.log.Warn(ctx, "orphaned payload blob", "key", content.PayloadKey, "error", derr.Error())
			}
			return fmt.Errorf("store thumbnail blob: %w", err)
		}
	}
	return nil
}

// deleteBlobs removes external blobs after a failed transaction, best effort.
func (f *Finalizer) deleteBlobs(ctx context.Context, content *models.Content, log logging.Logger) {
	if f.blobs == nil {
		return
	}
	for _, key := range []string{content.PayloadKey, content.ThumbnailKey} {
		if key == "" {
			continue
		}
		if err := f.blobs.Delete(ctx, key); err != nil {
			log.Warn(ctx, "orphaned blob after rollback", "key", key, "error", err.Error())
		}
	}
}

// resolveDirectory validates an optional directory assignment carried in the
// upload metadata. A missing or unknown directory yields an unassigned file
// rather than a failed upload.
func (f *Finalizer) resolveDirectory(ctx context.Context, metadata map[string]string, log logging.Logger) *int64 {
	raw, ok := metadata[DirectoryMetadataKey]
	if !ok || raw == "" {
		return nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Warn(ctx, "unparsable directory id in metadata, storing unassigned", "value", raw)
		return nil
	}

	exists, err := f.repos.Directories(f.db).Exists(ctx, id)
	if err != nil {
		log.Warn(ctx, "directory lookup failed, storing unassigned", "directory", id, "error", err.Error())
		return nil
	}
	if !exists {
		log.Warn(ctx, "unknown directory in metadata, storing unassigned", "directory", id)
		return nil
	}

	return &id
}

// removeStaged deletes the assembled bytes and the transport's sidecar file.
// Called only for the Finalized and Rejected outcomes.
func (f *Finalizer) removeStaged(ctx context.Context, req Request, log logging.Logger) {
	for _, p := range []string{req.AssembledPath, req.InfoPath} {
		if p == "" {
			continue
		}
		if err := f.fs.Remove(p); err != nil {
			log.Warn(ctx, "cannot remove staged file", "path", p, "error", err.Error())
		}
	}
}
