// Package upload mounts the resumable upload endpoint. The wire protocol
// (creation, offset probing, PATCH appends, checksums) is handled entirely by
// tusd; this package supplies storage, limits and the completion hook.
package upload

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/exp/slog"

	"github.com/gin-gonic/gin"
	"github.com/tus/tusd/v2/pkg/filestore"
	tusd "github.com/tus/tusd/v2/pkg/handler"

	"github.com/dpetrovs/fileupload/internal/common"
	sc "github.com/dpetrovs/fileupload/internal/server/config"
	"github.com/dpetrovs/fileupload/internal/server/finalize"
)

// BasePath is the route prefix uploads are served under. tusd uses it to
// build Location headers for newly created uploads.
const BasePath = "/upload/"

// CompletionHandler finalizes one fully received upload.
type CompletionHandler interface {
	Finalize(ctx context.Context, req finalize.Request) error
}

// Handler serves the resumable upload protocol over a disk staging area.
type Handler struct {
	tus *tusd.Handler
}

// NewHandler builds the tusd handler over cfg.StagingDir. Completed uploads
// are finalized synchronously inside the final PATCH request, so a rejected
// or failed finalization fails the upload from the client's point of view.
func NewHandler(cfg *sc.Config, fin CompletionHandler, policy *finalize.Policy, slogger *slog.Logger) (*Handler, error) {
	store := filestore.New(cfg.StagingDir)
	composer := tusd.NewStoreComposer()
	store.UseIn(composer)

	h, err := tusd.NewHandler(tusd.Config{
		BasePath:      BasePath,
		StoreComposer: composer,
		MaxSize:       cfg.MaxUploadSize,
		Logger:        slogger,
		PreUploadCreateCallback: func(ev tusd.HookEvent) (tusd.HTTPResponse, tusd.FileInfoChanges, error) {
			return tusd.HTTPResponse{}, tusd.FileInfoChanges{}, checkCreate(ev, policy)
		},
		PreFinishResponseCallback: func(ev tusd.HookEvent) (tusd.HTTPResponse, error) {
			return tusd.HTTPResponse{}, finish(ev, fin)
		},
	})
	if err != nil {
		return nil, err
	}
	return &Handler{tus: h}, nil
}

// Mount registers the upload routes on a gin engine.
func (h *Handler) Mount(r *gin.Engine) {
	create := gin.WrapH(http.StripPrefix("/upload", h.tus))
	perID := gin.WrapH(http.StripPrefix(BasePath, h.tus))
	r.Any("/upload", create)
	r.Any("/upload/*id", perID)
}

// checkCreate rejects uploads whose declared name already fails the type
// policy, before any bytes are transferred. Uploads created without metadata
// pass; the authoritative check runs again at completion.
func checkCreate(ev tusd.HookEvent, policy *finalize.Policy) error {
	if _, ok := ev.Upload.MetaData[finalize.NameMetadataKey]; !ok {
		return nil
	}
	meta := finalize.ExtractMeta(ev.Upload.MetaData)
	if policy.Decide(meta.Extension) == finalize.Reject {
		return tusd.NewError("ERR_TYPE_REJECTED",
			"file type is not permitted: "+meta.Extension, http.StatusUnprocessableEntity)
	}
	return nil
}

func finish(ev tusd.HookEvent, fin CompletionHandler) error {
	err := fin.Finalize(ev.Context, requestFromHook(ev))
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrTypeRejected) {
		return tusd.NewError("ERR_TYPE_REJECTED", err.Error(), http.StatusUnprocessableEntity)
	}
	return err
}

// requestFromHook translates a tusd completion event into a finalization
// request. With the filestore backend the assembled bytes and the .info
// sidecar live next to each other in the staging directory.
func requestFromHook(ev tusd.HookEvent) finalize.Request {
	path := ev.Upload.Storage["Path"]
	info := ev.Upload.Storage["InfoPath"]
	if info == "" && path != "" {
		info = path + ".info"
	}

	meta := make(map[string]string, len(ev.Upload.MetaData))
	for k, v := range ev.Upload.MetaData {
		meta[k] = v
	}

	return finalize.Request{
		SessionID:     ev.Upload.ID,
		AssembledPath: path,
		InfoPath:      info,
		Metadata:      meta,
	}
}
