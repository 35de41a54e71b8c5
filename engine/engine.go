// Package engine dispatches parsed commands onto the storage layer and,
// for SCAN, the attention kernel. It is the single place that enforces
// the cross-cutting invariants named in SPEC_FULL.md: vector-width
// checks, WITH-clause property typing, and existence checks.
package engine

import (
	"runtime"

	"github.com/qkvdb/qkvdb/ast"
	"github.com/qkvdb/qkvdb/attention"
	"github.com/qkvdb/qkvdb/storage"
)

const defaultVecSize = 512

// Engine executes parsed commands against a Storage instance.
type Engine struct {
	storage *storage.Storage
}

// New wraps an opened Storage in an Engine.
func New(s *storage.Storage) *Engine {
	return &Engine{storage: s}
}

// Result is the outcome of executing a command. Rows is non-nil only for
// a successful SCAN; every other command returns a nil Rows on success.
type Result struct {
	Rows [][]float32
}

// ScanBatchRows is the fold batch size used for SCAN, per SPEC_FULL.md's
// cpu_count * 1024 sizing.
func ScanBatchRows() int {
	return runtime.NumCPU() * 1024
}

// Execute runs one parsed command and returns its result.
func (e *Engine) Execute(cmd ast.Command) (Result, error) {
	switch c := cmd.(type) {
	case *ast.CreateDatabase:
		return Result{}, e.createDatabase(c)
	case *ast.CreateBucket:
		return Result{}, e.createBucket(c)
	case *ast.Insert:
		return Result{}, e.insert(c)
	case *ast.Scan:
		return e.scan(c)
	case *ast.Dummy:
		return Result{}, nil
	default:
		return Result{}, &UnimplementedError{Feature: "unknown command"}
	}
}

func (e *Engine) createDatabase(c *ast.CreateDatabase) error {
	if e.storage.GetDatabase(c.Name) != nil {
		return &EntityAlreadyExistsError{Type: "database", Name: c.Name}
	}
	vecSize, err := vecSizeProperty(c.Properties)
	if err != nil {
		return err
	}
	_, err = e.storage.CreateDatabase(c.Name, storage.Config{QkvVecSize: vecSize})
	return err
}

func vecSizeProperty(props ast.PropertyList) (uint32, error) {
	prop, ok := props.Find("qkv_vec_size")
	if !ok {
		return defaultVecSize, nil
	}
	switch prop.Value.Kind {
	case ast.PropertyInteger:
		if prop.Value.Int <= 0 {
			return 0, &TypeMismatchError{Expected: "Unsigned integer", Found: "Negative", Property: "qkv_vec_size"}
		}
		return uint32(prop.Value.Int), nil
	case ast.PropertyFloat:
		return 0, &TypeMismatchError{Expected: "Unsigned integer", Found: "Float", Property: "qkv_vec_size"}
	default:
		return 0, &TypeMismatchError{Expected: "Unsigned integer", Found: "String", Property: "qkv_vec_size"}
	}
}

func (e *Engine) createBucket(c *ast.CreateBucket) error {
	db := e.storage.GetDatabase(c.Database)
	if db == nil {
		return &DatabaseDoesNotExistError{Name: c.Database}
	}
	if db.GetBucket(c.Name) != nil {
		return &EntityAlreadyExistsError{Type: "bucket", Name: c.Name}
	}
	_, err := db.CreateBucket(c.Name)
	return err
}

func (e *Engine) insert(c *ast.Insert) error {
	db := e.storage.GetDatabase(c.Database)
	if db == nil {
		return &DatabaseDoesNotExistError{Name: c.Database}
	}
	bucket := db.GetBucket(c.Bucket)
	if bucket == nil {
		return &BucketDoesNotExistError{Database: c.Database, Bucket: c.Bucket}
	}
	d := int(bucket.VecSize())
	rows := make([]storage.Row, len(c.Entries))
	for i, entry := range c.Entries {
		if len(entry.Key) != d {
			return &SizeMismatchError{Expected: d, Got: len(entry.Key)}
		}
		if len(entry.Value) != d {
			return &SizeMismatchError{Expected: d, Got: len(entry.Value)}
		}
		rows[i] = storage.Row{Key: entry.Key, Value: entry.Value}
	}
	return bucket.Insert(rows)
}

func (e *Engine) scan(c *ast.Scan) (Result, error) {
	db := e.storage.GetDatabase(c.Database)
	if db == nil {
		return Result{}, &DatabaseDoesNotExistError{Name: c.Database}
	}

	d := int(db.QkvVecSize())
	for _, q := range c.Queries {
		if len(q) != d {
			return Result{}, &SizeMismatchError{Expected: d, Got: len(q)}
		}
	}
	if len(c.Queries) == 0 {
		return Result{Rows: [][]float32{}}, nil
	}

	switch c.Target.Kind {
	case ast.ScanHot:
		return Result{}, &UnimplementedError{Feature: "SCAN HOT"}
	case ast.ScanAll:
		return e.scanAllBuckets(db, c.Queries, d)
	default:
		bucket := db.GetBucket(c.Target.Name)
		if bucket == nil {
			return Result{}, &BucketDoesNotExistError{Database: c.Database, Bucket: c.Target.Name}
		}
		rows, err := attention.Reduce(c.Queries, bucket.VecSize(), bucket, ScanBatchRows())
		if err != nil {
			return Result{}, err
		}
		return Result{Rows: rows}, nil
	}
}

// scanAllBuckets folds the attention kernel across every bucket of db, in
// ascending name order, accumulating each bucket's contribution in turn.
// This is the "implement it" branch of the Hot/All open question recorded
// in DESIGN.md: All is the union of every bucket rather than an
// Unimplemented error.
func (e *Engine) scanAllBuckets(db *storage.Database, queries [][]float32, d int) (Result, error) {
	nq := len(queries)
	total := make([][]float32, nq)
	for i := range total {
		total[i] = make([]float32, d)
	}

	for _, name := range db.BucketNames() {
		bucket := db.GetBucket(name)
		if bucket == nil {
			continue
		}
		rows, err := attention.Reduce(queries, bucket.VecSize(), bucket, ScanBatchRows())
		if err != nil {
			return Result{}, err
		}
		for i, row := range rows {
			for j, v := range row {
				total[i][j] += v
			}
		}
	}
	return Result{Rows: total}, nil
}
