// Package format renders an ast.Command back into qkvdb command-language
// text, the inverse of the parser. Used by tests as the round-trip half of
// parse(format(parse(x))) == parse(x).
package format

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/qkvdb/qkvdb/ast"
)

// Formatter accumulates formatted command text.
type Formatter struct {
	buf bytes.Buffer
}

// New creates an empty Formatter.
func New() *Formatter { return &Formatter{} }

// String formats a single command and returns it as text, terminated by
// a semicolon.
func String(cmd ast.Command) string {
	f := New()
	f.Format(cmd)
	return f.String()
}

// String returns the text accumulated so far.
func (f *Formatter) String() string { return f.buf.String() }

// Format appends the textual form of cmd to f's buffer.
func (f *Formatter) Format(cmd ast.Command) {
	switch c := cmd.(type) {
	case *ast.CreateDatabase:
		f.buf.WriteString("CREATE DATABASE ")
		f.buf.WriteString(c.Name)
		f.formatWith(c.Properties)
	case *ast.CreateBucket:
		f.buf.WriteString("CREATE BUCKET ")
		f.buf.WriteString(c.Name)
		f.buf.WriteString(" INSIDE ")
		f.buf.WriteString(c.Database)
		f.formatWith(c.Properties)
	case *ast.Insert:
		f.buf.WriteString("INSERT INTO ")
		f.buf.WriteString(c.Bucket)
		f.buf.WriteString(" INSIDE ")
		f.buf.WriteString(c.Database)
		f.buf.WriteString(" KEYS ")
		f.formatVecList(keysOf(c.Entries))
		f.buf.WriteString(" VALUES ")
		f.formatVecList(valuesOf(c.Entries))
		f.formatWith(c.Properties)
	case *ast.Scan:
		f.buf.WriteString("SCAN ")
		f.formatScanTarget(c.Target)
		f.buf.WriteString(" INSIDE ")
		f.buf.WriteString(c.Database)
		f.buf.WriteString(" QUERIES ")
		f.formatVecList(c.Queries)
		f.formatWith(c.Properties)
	case *ast.Dummy:
		// Nothing to render; a Dummy is an empty statement.
	}
	f.buf.WriteString(";")
}

func (f *Formatter) formatScanTarget(t ast.ScanTarget) {
	switch t.Kind {
	case ast.ScanAll:
		f.buf.WriteString("ALL")
	case ast.ScanHot:
		f.buf.WriteString("HOT")
	default:
		f.buf.WriteString(t.Name)
	}
}

func (f *Formatter) formatWith(props ast.PropertyList) {
	if len(props) == 0 {
		return
	}
	f.buf.WriteString(" WITH ")
	for i, p := range props {
		if i > 0 {
			f.buf.WriteString(" AND ")
		}
		f.buf.WriteString(p.Name)
		f.buf.WriteString(" = ")
		switch p.Value.Kind {
		case ast.PropertyFloat:
			f.buf.WriteString(formatFloatAsPropertyLiteral(p.Value.Float))
		default:
			f.buf.WriteString(strconv.FormatInt(int64(p.Value.Int), 10))
		}
	}
}

func (f *Formatter) formatVecList(vecs [][]float32) {
	f.buf.WriteString("(")
	for i, v := range vecs {
		if i > 0 {
			f.buf.WriteString(",")
		}
		f.formatVec(v)
	}
	f.buf.WriteString(")")
}

func (f *Formatter) formatVec(v []float32) {
	f.buf.WriteString("[")
	for i, n := range v {
		if i > 0 {
			f.buf.WriteString(",")
		}
		f.buf.WriteString(formatFloatLiteral(n))
	}
	f.buf.WriteString("]")
}

// formatFloatLiteral renders a vector component so the lexer always
// re-tokenizes it as a single NUMBER (an integral value must still not
// collide with the grammar's number rule, which tolerates any digit run
// with at most one '.').
func formatFloatLiteral(n float32) string {
	return strconv.FormatFloat(float64(n), 'f', -1, 32)
}

// formatFloatAsPropertyLiteral is the same rule but guarantees the output
// always contains a '.' when the value is a PropertyFloat (so re-parsing
// it yields a Float property again, not an Integer one).
func formatFloatAsPropertyLiteral(n float32) string {
	s := strconv.FormatFloat(float64(n), 'f', -1, 32)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return fmt.Sprintf("%s.0", s)
}

func keysOf(rows []ast.Row) [][]float32 {
	out := make([][]float32, len(rows))
	for i, r := range rows {
		out[i] = r.Key
	}
	return out
}

func valuesOf(rows []ast.Row) [][]float32 {
	out := make([][]float32, len(rows))
	for i, r := range rows {
		out[i] = r.Value
	}
	return out
}
