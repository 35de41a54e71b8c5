package storage

import "fmt"

// AlreadyExistsError is returned by CreateDatabase/CreateBucket when the
// requested name is already taken.
type AlreadyExistsError struct {
	Type string // "database" or "bucket"
	Name string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Type, e.Name)
}

// InconsistentDataDirectoryError is returned when the on-disk catalog
// (db_info.index / bucket_info.index) names an entry that is missing or
// malformed on disk.
type InconsistentDataDirectoryError struct {
	Path     string
	Required string
	Found    string
}

func (e *InconsistentDataDirectoryError) Error() string {
	return fmt.Sprintf("expected %q to be a %s, but found %s; the data directory is corrupted", e.Path, e.Required, e.Found)
}

// CorruptedBucketError is returned when a fold reads keys.bin and
// values.bin blocks that disagree in length, or a block whose length is
// not a multiple of 4 bytes.
type CorruptedBucketError struct {
	Bucket string
	Reason string
}

func (e *CorruptedBucketError) Error() string {
	return fmt.Sprintf("bucket %q is corrupted: %s", e.Bucket, e.Reason)
}
