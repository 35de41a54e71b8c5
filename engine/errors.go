package engine

import "fmt"

// DatabaseDoesNotExistError is returned when a command references a
// database name that has not been created.
type DatabaseDoesNotExistError struct {
	Name string
}

func (e *DatabaseDoesNotExistError) Error() string {
	return fmt.Sprintf("database %q does not exist", e.Name)
}

// BucketDoesNotExistError is returned when a command references a bucket
// name that has not been created inside its database.
type BucketDoesNotExistError struct {
	Database string
	Bucket   string
}

func (e *BucketDoesNotExistError) Error() string {
	return fmt.Sprintf("bucket %q does not exist inside database %q", e.Bucket, e.Database)
}

// SizeMismatchError is returned when a vector's length disagrees with the
// database's configured qkv_vec_size.
type SizeMismatchError struct {
	Expected int
	Got      int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("expected a vector of length %d, got %d", e.Expected, e.Got)
}

// EntityAlreadyExistsError is returned when CREATE names an entity that
// already exists.
type EntityAlreadyExistsError struct {
	Type string // "database" or "bucket"
	Name string
}

func (e *EntityAlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Type, e.Name)
}

// TypeMismatchError is returned when a WITH-clause property has the wrong
// kind of value.
type TypeMismatchError struct {
	Expected string
	Found    string
	Property string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("property %q: expected %s, found %s", e.Property, e.Expected, e.Found)
}

// UnimplementedError is returned for SCAN targets that are reserved but
// not yet supported.
type UnimplementedError struct {
	Feature string
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("%s is not implemented", e.Feature)
}
