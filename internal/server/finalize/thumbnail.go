package finalize

import (
	"bytes"
	"context"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"

	"github.com/dpetrovs/fileupload/internal/logging"
)

// Thumbnailer derives a fixed-size square preview from staged image bytes.
// It reads through an injected filesystem so tests run on an in-memory fs.
type Thumbnailer struct {
	fs   afero.Fs
	side int
	log  logging.Logger
}

// NewThumbnailer builds a Thumbnailer producing side×side previews.
func NewThumbnailer(fs afero.Fs, side int, log logging.Logger) *Thumbnailer {
	return &Thumbnailer{fs: fs, side: side, log: log.With("module", "thumbnailer")}
}

// Generate decodes the image at path, crops it to a centered square of the
// configured side and re-encodes it as JPEG. It is total: any open, decode
// or encode failure yields nil, never an error — a corrupt image must not
// block durable storage of the original bytes.
func (t *Thumbnailer) Generate(ctx context.Context, path string) []byte {
	f, err := t.fs.Open(path)
	if err != nil {
		t.log.Warn(ctx, "cannot open staged image", "path", path, "error", err.Error())
		return nil
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		t.log.Debug(ctx, "image decode failed, storing without thumbnail", "path", path, "error", err.Error())
		return nil
	}

	// Center-anchored crop-to-fill, discarding pixels outside the window.
	thumb := imaging.Fill(img, t.side, t.side, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		t.log.Debug(ctx, "thumbnail encode failed, storing without thumbnail", "path", path, "error", err.Error())
		return nil
	}

	return buf.Bytes()
}
