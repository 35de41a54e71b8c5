package storage

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
)

const (
	keysFileName   = "keys.bin"
	valuesFileName = "values.bin"
	floatSize      = 4
)

// Row is a single (key, value) vector pair to append to a Bucket.
type Row struct {
	Key   []float32
	Value []float32
}

// Bucket is an append-only pair of float-vector files: every row's key
// lives in keys.bin and its value in values.bin, at the same ordinal
// offset. A Bucket owns both open file handles for its lifetime.
type Bucket struct {
	mu         sync.Mutex
	keysFile   *os.File
	valuesFile *os.File
	vecSize    uint32
	dir        string
}

// InitializeBucket creates dir and opens fresh, truncated keys.bin and
// values.bin files inside it.
func InitializeBucket(dir string, vecSize uint32) (*Bucket, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating bucket directory %s: %w", dir, err)
	}
	keysFile, err := os.OpenFile(filepath.Join(dir, keysFileName), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", keysFileName, err)
	}
	valuesFile, err := os.OpenFile(filepath.Join(dir, valuesFileName), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		keysFile.Close()
		return nil, fmt.Errorf("creating %s: %w", valuesFileName, err)
	}
	return &Bucket{keysFile: keysFile, valuesFile: valuesFile, vecSize: vecSize, dir: dir}, nil
}

// OpenBucket opens an existing bucket directory's two files without
// truncating them.
func OpenBucket(dir string, vecSize uint32) (*Bucket, error) {
	keysFile, err := os.OpenFile(filepath.Join(dir, keysFileName), os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", keysFileName, err)
	}
	valuesFile, err := os.OpenFile(filepath.Join(dir, valuesFileName), os.O_RDWR, 0o644)
	if err != nil {
		keysFile.Close()
		return nil, fmt.Errorf("opening %s: %w", valuesFileName, err)
	}
	return &Bucket{keysFile: keysFile, valuesFile: valuesFile, vecSize: vecSize, dir: dir}, nil
}

// VecSize returns D, the configured vector width of this bucket's rows.
func (b *Bucket) VecSize() uint32 { return b.vecSize }

// Insert appends every row's key and value vectors, in order, to
// keys.bin and values.bin respectively, then flushes both files. Rows
// with the wrong width are the caller's responsibility to reject before
// calling Insert (the engine does this; see engine.Execute).
func (b *Bucket) Insert(rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	keyBytes := make([]byte, 0, len(rows)*int(b.vecSize)*floatSize)
	valueBytes := make([]byte, 0, len(rows)*int(b.vecSize)*floatSize)
	for _, r := range rows {
		keyBytes = appendFloats(keyBytes, r.Key)
		valueBytes = appendFloats(valueBytes, r.Value)
	}

	if _, err := b.keysFile.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seeking %s: %w", keysFileName, err)
	}
	if _, err := b.keysFile.Write(keyBytes); err != nil {
		return fmt.Errorf("writing %s: %w", keysFileName, err)
	}
	if _, err := b.valuesFile.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seeking %s: %w", valuesFileName, err)
	}
	if _, err := b.valuesFile.Write(valueBytes); err != nil {
		return fmt.Errorf("writing %s: %w", valuesFileName, err)
	}
	if err := b.keysFile.Sync(); err != nil {
		return fmt.Errorf("flushing %s: %w", keysFileName, err)
	}
	if err := b.valuesFile.Sync(); err != nil {
		return fmt.Errorf("flushing %s: %w", valuesFileName, err)
	}
	return nil
}

// Clear truncates both files to zero length. Rows are never deleted
// individually; this is the only way a bucket's contents shrink.
func (b *Bucket) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.keysFile.Truncate(0); err != nil {
		return fmt.Errorf("truncating %s: %w", keysFileName, err)
	}
	if err := b.valuesFile.Truncate(0); err != nil {
		return fmt.Errorf("truncating %s: %w", valuesFileName, err)
	}
	if _, err := b.keysFile.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := b.valuesFile.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return nil
}

// Close releases the bucket's two file handles.
func (b *Bucket) Close() error {
	keysErr := b.keysFile.Close()
	valuesErr := b.valuesFile.Close()
	if keysErr != nil {
		return keysErr
	}
	return valuesErr
}

// Block is one batch of rows read by a BlockIterator: parallel Keys/Values
// float slices of equal length, in ascending file-offset order.
type Block struct {
	Keys   []float32
	Values []float32
}

// BlockIterator is the pull-iterator form of the streaming fold described
// in spec §4.3/§9: it yields one Block per call to Next, reading at most
// batchRows rows per block, until the files are exhausted. The iterator
// form (rather than handing the kernel a captured closure) is preferred
// for testability, per the design notes.
type BlockIterator struct {
	bucket    *Bucket
	batchRows int
	keysBuf   []byte
	valuesBuf []byte
}

// Blocks seeks both of b's files to the start and returns an iterator
// that reads up to batchRows rows per block. The bucket is locked for the
// iterator's lifetime; call Close when done (Next returning ok=false
// already does this).
func (b *Bucket) Blocks(batchRows int) (*BlockIterator, error) {
	b.mu.Lock()
	if _, err := b.keysFile.Seek(0, io.SeekStart); err != nil {
		b.mu.Unlock()
		return nil, fmt.Errorf("seeking %s: %w", keysFileName, err)
	}
	if _, err := b.valuesFile.Seek(0, io.SeekStart); err != nil {
		b.mu.Unlock()
		return nil, fmt.Errorf("seeking %s: %w", valuesFileName, err)
	}
	blockBytes := int(b.vecSize) * batchRows * floatSize
	return &BlockIterator{
		bucket:    b,
		batchRows: batchRows,
		keysBuf:   make([]byte, blockBytes),
		valuesBuf: make([]byte, blockBytes),
	}, nil
}

// Next reads the next block. ok is false once both files are exhausted,
// at which point the iterator has already released the bucket's lock.
func (it *BlockIterator) Next() (block Block, ok bool, err error) {
	keysN, err := it.bucket.keysFile.Read(it.keysBuf)
	if err != nil && err != io.EOF {
		it.Close()
		return Block{}, false, fmt.Errorf("reading %s: %w", keysFileName, err)
	}
	valuesN, err := it.bucket.valuesFile.Read(it.valuesBuf)
	if err != nil && err != io.EOF {
		it.Close()
		return Block{}, false, fmt.Errorf("reading %s: %w", valuesFileName, err)
	}

	if keysN%floatSize != 0 || valuesN%floatSize != 0 {
		it.Close()
		return Block{}, false, &CorruptedBucketError{Bucket: it.bucket.dir, Reason: "block length is not a multiple of 4 bytes"}
	}

	keys := bytesToFloats(it.keysBuf[:keysN])
	values := bytesToFloats(it.valuesBuf[:valuesN])
	if len(keys) != len(values) {
		it.Close()
		return Block{}, false, &CorruptedBucketError{Bucket: it.bucket.dir, Reason: "keys.bin and values.bin blocks disagree in length"}
	}
	if len(keys) == 0 {
		it.Close()
		return Block{}, false, nil
	}
	return Block{Keys: keys, Values: values}, true, nil
}

// Close releases the bucket lock this iterator was holding. Safe to call
// more than once.
func (it *BlockIterator) Close() {
	if it.bucket == nil {
		return
	}
	it.bucket.mu.Unlock()
	it.bucket = nil
}

// ReduceBatched is the fold form of the streaming primitive: it drives a
// BlockIterator with batch size batchRows and invokes f(acc, keys, values)
// once per block, in ascending file-offset order, letting f mutate acc in
// place.
func (b *Bucket) ReduceBatched(batchRows int, acc any, f func(acc any, keys, values []float32)) error {
	it, err := b.Blocks(batchRows)
	if err != nil {
		return err
	}
	for {
		block, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		f(acc, block.Keys, block.Values)
	}
}

func appendFloats(dst []byte, vec []float32) []byte {
	var tmp [4]byte
	for _, f := range vec {
		binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(f))
		dst = append(dst, tmp[:]...)
	}
	return dst
}

// bytesToFloats copies a byte block into an aligned float32 slice. This
// avoids relying on any platform alignment guarantee for a reinterpreted
// byte buffer.
func bytesToFloats(buf []byte) []float32 {
	n := len(buf) / floatSize
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(buf[i*floatSize : i*floatSize+floatSize])
		out[i] = math.Float32frombits(bits)
	}
	return out
}
