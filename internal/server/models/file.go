package models

import "time"

// File is the descriptive record of a finalized upload. Its ID is the upload
// session id, which stays the stable external identifier for the file.
//
// A File row exists only for completed uploads: rows are created already
// complete, inside the same transaction as their Content row. Partial upload
// state lives in the transport's staging area, never here.
type File struct {
	// ID is the upload session id assigned by the transport.
	ID string
	// Name is the caller-supplied file name (may be "untitled").
	Name string
	// Extension is derived from Name: the substring after the last dot,
	// lower-cased, or "unknown" when Name has no dot.
	Extension string
	// UploadTimestamp is set at finalization time, not at session creation.
	UploadTimestamp time.Time
	// IsComplete is always true for stored rows; kept explicit because the
	// read API exposes it.
	IsComplete bool
	// ContentID references this file's single Content row (1:1, owned: a
	// file delete cascades to its content).
	ContentID string
	// DirectoryID is the optional directory assignment; nil means unassigned.
	DirectoryID *int64
	// DirectoryName is filled on reads that join the directory, "" otherwise.
	DirectoryName string
}
