// Package models defines server-side data models persisted in the database.
package models

// Content is the binary record of a finalized upload: the original payload
// plus an optional derived thumbnail. Rows are immutable once written and are
// deleted only together with their owning File row.
//
// With the inline blob backend, Payload/Thumbnail hold the bytes themselves.
// With the s3 backend, the bytes live in object storage and PayloadKey /
// ThumbnailKey hold the object keys instead.
type Content struct {
	// ID is a fresh identifier minted at finalization.
	ID string
	// Payload is the original assembled bytes (inline backend).
	Payload []byte
	// Thumbnail is the derived preview; empty when no thumbnail exists.
	Thumbnail []byte
	// PayloadKey is the object-storage key of the payload (s3 backend).
	PayloadKey string
	// ThumbnailKey is the object-storage key of the thumbnail (s3 backend);
	// empty when no thumbnail exists.
	ThumbnailKey string
}
