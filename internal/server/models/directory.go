package models

// Directory is a named grouping for files. Deleting a directory unassigns its
// files (directory_id set to NULL); it never deletes them.
type Directory struct {
	ID   int64
	Name string
	// FileCount is filled on list reads, 0 otherwise.
	FileCount int64
}
