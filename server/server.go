// Package server implements qkvdb's TCP wire protocol: a single
// cooperative accept loop that serves one client's request to completion,
// one frame in and one frame out, then closes, before accepting the next.
// There is no parallelism across clients and none within a command,
// matching the single-threaded scheduling model the engine's mutation
// path assumes.
package server

import (
	"context"
	"fmt"
	"net"

	"github.com/rs/zerolog"

	"github.com/qkvdb/qkvdb/engine"
	"github.com/qkvdb/qkvdb/parser"
)

// DefaultAddress is the listen address used when none is configured.
const DefaultAddress = "127.0.0.1:7878"

// Server owns the listener and the engine every connection is served
// against.
type Server struct {
	engine *engine.Engine
	log    zerolog.Logger
}

// New builds a Server around eng, logging through log.
func New(eng *engine.Engine, log zerolog.Logger) *Server {
	return &Server{engine: eng, log: log}
}

// Serve listens on addr and runs the accept loop until ctx is canceled or
// listening fails.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	defer ln.Close()

	s.log.Info().Str("addr", addr).Msg("qkvdb server listening")

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}
		s.serveOne(conn)
	}
}

// serveOne handles exactly one request/response cycle on conn, then
// closes it. Errors reading or writing the frame are logged as
// "connection lost" and otherwise ignored, per the cooperative scheduling
// model's cancellation policy.
func (s *Server) serveOne(conn net.Conn) {
	defer conn.Close()

	payload, err := readFrame(conn)
	if err != nil {
		s.log.Info().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("connection lost")
		return
	}

	response := s.handleRequest(string(payload))

	if err := writeFrame(conn, []byte(response)); err != nil {
		s.log.Info().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("connection lost")
	}
}

// handleRequest parses and executes every command in payload. If any
// command fails to parse, that parse error is the response and no command
// of the request is executed. Otherwise the first execution error becomes
// the response; commands after it still run for their side effects, but
// their output is suppressed.
func (s *Server) handleRequest(payload string) string {
	commands, err := parser.ParseCommands(payload)
	if err != nil {
		return err.Error()
	}

	var firstErr error
	var lastResult engine.Result
	for _, cmd := range commands {
		result, execErr := s.engine.Execute(cmd)
		if execErr != nil {
			if firstErr == nil {
				firstErr = execErr
			}
			continue
		}
		if firstErr == nil {
			lastResult = result
		}
	}

	if firstErr != nil {
		return firstErr.Error()
	}
	return formatResult(lastResult)
}
