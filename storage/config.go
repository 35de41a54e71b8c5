// Package storage implements the on-disk hierarchy of qkvdb: a Storage
// catalogs Databases, a Database catalogs Buckets, and a Bucket is a pair
// of append-only float-vector files with a streaming block fold over them.
package storage

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Config is a database's fixed configuration: the vector width shared by
// every row of every bucket it owns. It is serialized to conf.bc as a
// stable 4-byte little-endian unsigned integer, mirroring the original
// implementation's bincode-serialized single-field struct.
type Config struct {
	QkvVecSize uint32
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading configuration %s: %w", path, err)
	}
	if len(data) != 4 {
		return Config{}, fmt.Errorf("configuration file %s is corrupted: expected 4 bytes, got %d", path, len(data))
	}
	return Config{QkvVecSize: binary.LittleEndian.Uint32(data)}, nil
}

func writeConfig(path string, c Config) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], c.QkvVecSize)
	if err := os.WriteFile(path, buf[:], 0o644); err != nil {
		return fmt.Errorf("writing configuration %s: %w", path, err)
	}
	return nil
}
