// Package ast defines the abstract syntax tree produced by the qkvdb
// command-language parser: a flat, five-case Command variant plus the
// property lists and vector literals every case carries.
package ast

import "github.com/qkvdb/qkvdb/token"

// Node is the base interface implemented by every AST node.
type Node interface {
	Pos() token.Pos
}

// Command is implemented by the five command cases: CreateDatabase,
// CreateBucket, Insert, Scan, and Dummy.
type Command interface {
	Node
	commandNode()
}

// CreateDatabase is `CREATE DATABASE name [WITH ...]`.
type CreateDatabase struct {
	StartPos   token.Pos
	Name       string
	Properties PropertyList
}

func (*CreateDatabase) commandNode()     {}
func (c *CreateDatabase) Pos() token.Pos { return c.StartPos }

// CreateBucket is `CREATE BUCKET name INSIDE database [WITH ...]`.
type CreateBucket struct {
	StartPos   token.Pos
	Database   string
	Name       string
	Properties PropertyList
}

func (*CreateBucket) commandNode()     {}
func (c *CreateBucket) Pos() token.Pos { return c.StartPos }

// Row is a single (key, value) vector pair as written in an INSERT's
// KEYS/VALUES lists, before they are stitched together pairwise.
type Row struct {
	Key   []float32
	Value []float32
}

// Insert is `INSERT INTO bucket INSIDE database KEYS (...) VALUES (...) [WITH ...]`.
type Insert struct {
	StartPos   token.Pos
	Database   string
	Bucket     string
	Entries    []Row
	Properties PropertyList
}

func (*Insert) commandNode()     {}
func (i *Insert) Pos() token.Pos { return i.StartPos }

// Scan is `SCAN target QUERIES (...) [WITH ...]`.
type Scan struct {
	StartPos   token.Pos
	Database   string
	Target     ScanTarget
	Queries    [][]float32
	Properties PropertyList
}

func (*Scan) commandNode()     {}
func (s *Scan) Pos() token.Pos { return s.StartPos }

// Dummy is a parsed-but-inert command (an empty input, or a trailing
// semicolon with nothing after it). Executing it is a no-op.
type Dummy struct {
	StartPos token.Pos
}

func (*Dummy) commandNode()     {}
func (d *Dummy) Pos() token.Pos { return d.StartPos }
