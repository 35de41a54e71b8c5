// Package parser implements a recursive-descent parser for the qkvdb
// command language, turning token text into an ast.Command.
package parser

import (
	"strconv"
	"strings"
	"sync"

	"github.com/qkvdb/qkvdb/ast"
	"github.com/qkvdb/qkvdb/lexer"
	"github.com/qkvdb/qkvdb/token"
)

// Parser is a recursive-descent parser over a single command's tokens.
type Parser struct {
	lexer *lexer.Lexer
	cur   token.Item
}

// New creates a Parser for the given single-command input.
func New(input string) *Parser {
	p := &Parser{lexer: lexer.New(input)}
	return p
}

var parserPool = sync.Pool{
	New: func() any { return &Parser{} },
}

// Get returns a pooled Parser for input. Call Put when done.
func Get(input string) *Parser {
	p := parserPool.Get().(*Parser)
	p.lexer = lexer.Get(input)
	p.cur = token.Item{}
	return p
}

// Put returns p and its lexer to their pools.
func Put(p *Parser) {
	if p.lexer != nil {
		lexer.Put(p.lexer)
		p.lexer = nil
	}
	parserPool.Put(p)
}

// Parse parses a single command terminated by ';' (or EOF).
func (p *Parser) Parse() (ast.Command, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.curIs(token.EOF) || p.curIs(token.SEMICOLON) {
		return &ast.Dummy{StartPos: p.cur.Pos}, nil
	}
	return p.parseCommand()
}

func (p *Parser) advance() error {
	item, err := p.lexer.Next()
	if err != nil {
		return toParseError(err)
	}
	p.cur = item
	return nil
}

func toParseError(err error) error {
	if lexErr, ok := err.(*lexer.Error); ok {
		return &UnexpectedTokenError{Line: lexErr.Pos.Line, Column: lexErr.Pos.Column, Lexeme: lexErr.Token}
	}
	return err
}

func (p *Parser) curIs(t token.Token) bool { return p.cur.Type == t }

func (p *Parser) unexpected() error {
	return &UnexpectedTokenError{Line: p.cur.Pos.Line, Column: p.cur.Pos.Column, Lexeme: p.cur.Value}
}

// expect consumes the current token if it has type t, advancing past it;
// otherwise it reports an error without consuming anything.
func (p *Parser) expect(t token.Token) error {
	if p.curIs(token.EOF) {
		return &UnexpectedEOSError{}
	}
	if !p.curIs(t) {
		return p.unexpected()
	}
	return p.advance()
}

func (p *Parser) parseCommand() (ast.Command, error) {
	startPos := p.cur.Pos
	if p.curIs(token.EOF) {
		return nil, &UnexpectedEOSError{}
	}
	if !p.cur.Type.IsKeyword() {
		return nil, p.unexpected()
	}
	switch p.cur.Type {
	case token.CREATE:
		return p.parseCreate(startPos)
	case token.INSERT:
		return p.parseInsert(startPos)
	case token.SCAN:
		return p.parseScan(startPos)
	default:
		return nil, p.unexpected()
	}
}

// ref is the parsed `IDENT [INSIDE IDENT]` reference fragment shared by
// CREATE, INSERT, and SCAN.
type ref struct {
	first       string
	hasDatabase bool
	database    string
}

func (p *Parser) parseRef() (ref, error) {
	if p.curIs(token.EOF) {
		return ref{}, &UnexpectedEOSError{}
	}
	if p.cur.Type != token.IDENT && !p.cur.Type.IsKeyword() {
		return ref{}, p.unexpected()
	}
	first := p.cur.Value
	if err := p.advance(); err != nil {
		return ref{}, err
	}
	if !p.curIs(token.INSIDE) {
		return ref{first: first}, nil
	}
	if err := p.advance(); err != nil {
		return ref{}, err
	}
	if p.curIs(token.EOF) {
		return ref{}, &UnexpectedEOSError{}
	}
	if p.cur.Type != token.IDENT && !p.cur.Type.IsKeyword() {
		return ref{}, p.unexpected()
	}
	database := p.cur.Value
	if err := p.advance(); err != nil {
		return ref{}, err
	}
	return ref{first: first, hasDatabase: true, database: database}, nil
}

func (p *Parser) parseCreate(startPos token.Pos) (ast.Command, error) {
	if err := p.advance(); err != nil { // consume CREATE
		return nil, err
	}
	if p.curIs(token.EOF) {
		return nil, &UnexpectedEOSError{}
	}
	switch p.cur.Type {
	case token.DATABASE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.parseRef()
		if err != nil {
			return nil, err
		}
		if r.hasDatabase {
			return nil, &UnexpectedTokenError{Line: startPos.Line, Column: startPos.Column, Lexeme: "INSIDE"}
		}
		props, err := p.parseWith()
		if err != nil {
			return nil, err
		}
		return &ast.CreateDatabase{StartPos: startPos, Name: r.first, Properties: props}, nil
	case token.BUCKET:
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.parseRef()
		if err != nil {
			return nil, err
		}
		if !r.hasDatabase {
			if p.curIs(token.EOF) {
				return nil, &UnexpectedEOSError{}
			}
			return nil, p.unexpected()
		}
		props, err := p.parseWith()
		if err != nil {
			return nil, err
		}
		return &ast.CreateBucket{StartPos: startPos, Database: r.database, Name: r.first, Properties: props}, nil
	default:
		return nil, p.unexpected()
	}
}

func (p *Parser) parseInsert(startPos token.Pos) (ast.Command, error) {
	if err := p.advance(); err != nil { // consume INSERT
		return nil, err
	}
	if err := p.expect(token.INTO); err != nil {
		return nil, err
	}
	r, err := p.parseRef()
	if err != nil {
		return nil, err
	}
	if !r.hasDatabase {
		return nil, &NoBucketInInsertError{}
	}
	if err := p.expect(token.KEYS); err != nil {
		return nil, err
	}
	keys, err := p.parseVecList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.VALUES); err != nil {
		return nil, err
	}
	values, err := p.parseVecList()
	if err != nil {
		return nil, err
	}
	if len(keys) != len(values) {
		return nil, &KeyValueCountMismatchError{Keys: len(keys), Values: len(values)}
	}
	entries := make([]ast.Row, len(keys))
	for i := range keys {
		entries[i] = ast.Row{Key: keys[i], Value: values[i]}
	}
	props, err := p.parseWith()
	if err != nil {
		return nil, err
	}
	return &ast.Insert{StartPos: startPos, Database: r.database, Bucket: r.first, Entries: entries, Properties: props}, nil
}

func (p *Parser) parseScan(startPos token.Pos) (ast.Command, error) {
	if err := p.advance(); err != nil { // consume SCAN
		return nil, err
	}
	r, err := p.parseRef()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.QUERIES); err != nil {
		return nil, err
	}
	queries, err := p.parseVecList()
	if err != nil {
		return nil, err
	}
	props, err := p.parseWith()
	if err != nil {
		return nil, err
	}
	var target ast.ScanTarget
	var database string
	if r.hasDatabase {
		target = ast.NewScanTarget(r.first)
		database = r.database
	} else {
		target = ast.ScanTarget{Kind: ast.ScanAll}
		database = r.first
	}
	return &ast.Scan{StartPos: startPos, Database: database, Target: target, Queries: queries, Properties: props}, nil
}

// parseVecList parses `( vec (, vec)* )` or `( )`.
func (p *Parser) parseVecList() ([][]float32, error) {
	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var out [][]float32
	if p.curIs(token.RPAREN) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return out, nil
	}
	for {
		v, err := p.parseVec()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if p.curIs(token.COMMA) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return out, nil
}

// parseVec parses `[ NUMBER (, NUMBER)* ]` or `[ ]`.
func (p *Parser) parseVec() ([]float32, error) {
	if err := p.expect(token.LBRACKET); err != nil {
		return nil, err
	}
	var out []float32
	if p.curIs(token.RBRACKET) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return out, nil
	}
	for {
		if p.curIs(token.EOF) {
			return nil, &UnexpectedEOSError{}
		}
		if !p.curIs(token.NUMBER) {
			return nil, p.unexpected()
		}
		f, err := strconv.ParseFloat(p.cur.Value, 32)
		if err != nil {
			return nil, p.unexpected()
		}
		out = append(out, float32(f))
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.curIs(token.COMMA) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	return out, nil
}

// parseWith parses an optional `WITH name = number (AND name = number)*`.
func (p *Parser) parseWith() (ast.PropertyList, error) {
	if !p.curIs(token.WITH) {
		return nil, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	var props ast.PropertyList
	for {
		prop, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
		if p.curIs(token.AND) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return props, nil
}

// parseAssign parses `IDENT = NUMBER`.
func (p *Parser) parseAssign() (ast.Property, error) {
	if p.curIs(token.EOF) {
		return ast.Property{}, &UnexpectedEOSError{}
	}
	if p.cur.Type != token.IDENT {
		return ast.Property{}, p.unexpected()
	}
	name := p.cur.Value
	if err := p.advance(); err != nil {
		return ast.Property{}, err
	}
	if err := p.expect(token.EQ); err != nil {
		return ast.Property{}, err
	}
	if p.curIs(token.EOF) {
		return ast.Property{}, &UnexpectedEOSError{}
	}
	if !p.curIs(token.NUMBER) {
		return ast.Property{}, p.unexpected()
	}
	raw := p.cur.Value
	if err := p.advance(); err != nil {
		return ast.Property{}, err
	}
	if strings.Contains(raw, ".") {
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return ast.Property{}, &UnexpectedTokenError{Lexeme: raw}
		}
		return ast.Property{Name: name, Value: ast.PropertyValue{Kind: ast.PropertyFloat, Float: float32(f)}}, nil
	}
	i, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return ast.Property{}, &UnexpectedTokenError{Lexeme: raw}
	}
	return ast.Property{Name: name, Value: ast.PropertyValue{Kind: ast.PropertyInteger, Int: int32(i)}}, nil
}
