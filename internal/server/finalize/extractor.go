// Package finalize turns a completed upload session into durable storage:
// it validates the caller-supplied metadata, classifies the file type,
// derives a thumbnail for images, and writes the content and file records
// as one atomic unit before releasing the staged bytes.
package finalize

import "strings"

// Defaults applied when the caller-supplied metadata omits a key. The
// metadata channel is caller-controlled and must never be able to abort
// finalization by omission.
const (
	DefaultName         = "untitled"
	DefaultDeclaredType = "application/octet-stream"
	UnknownExtension    = "unknown"
)

// Metadata keys recognized in the caller-supplied session metadata.
const (
	NameMetadataKey = "filename"
	TypeMetadataKey = "filetype"
)

// Meta is the validated shape of an upload's key/value metadata.
type Meta struct {
	Name         string
	DeclaredType string
	Extension    string
}

// ExtractMeta builds a Meta from raw session metadata. It is total: missing
// keys fall back to defaults and no input raises an error.
//
// The extension is the substring after the last dot of the name, lower-cased;
// a name without a dot yields UnknownExtension. A trailing dot yields the
// empty extension, matching how the upstream clients name such files.
func ExtractMeta(metadata map[string]string) Meta {
	m := Meta{
		Name:         DefaultName,
		DeclaredType: DefaultDeclaredType,
	}

	if v, ok := metadata[NameMetadataKey]; ok && v != "" {
		m.Name = v
	}
	if v, ok := metadata[TypeMetadataKey]; ok && v != "" {
		m.DeclaredType = v
	}

	if idx := strings.LastIndex(m.Name, "."); idx >= 0 {
		m.Extension = strings.ToLower(m.Name[idx+1:])
	} else {
		m.Extension = UnknownExtension
	}

	return m
}
