package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/qkvdb/qkvdb/config"
	"github.com/qkvdb/qkvdb/engine"
	"github.com/qkvdb/qkvdb/parser"
	"github.com/qkvdb/qkvdb/server"
	"github.com/qkvdb/qkvdb/storage"
)

type options struct {
	Config  string `short:"c" long:"config" description:"Path to the server configuration file" value-name:"path" default:"qkv-config.json"`
	Init    string `long:"init" description:"Path to a command script replayed once at startup" value-name:"path"`
	Address string `short:"a" long:"address" description:"Address to listen on" value-name:"host:port" default:"127.0.0.1:7878"`
}

func main() {
	var opts options
	p := flags.NewParser(&opts, flags.Default)
	p.Usage = "[OPTIONS]"
	if _, err := p.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	if err := run(opts, log); err != nil {
		log.Fatal().Err(err).Msg("qkvdb-server exiting")
	}
}

func run(opts options, log zerolog.Logger) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	store, err := storage.Open(cfg.DataDirectory)
	if err != nil {
		return fmt.Errorf("opening data directory %s: %w", cfg.DataDirectory, err)
	}

	eng := engine.New(store)

	if opts.Init != "" {
		if err := replayInitScript(eng, opts.Init, log); err != nil {
			return fmt.Errorf("replaying init script %s: %w", opts.Init, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(eng, log)
	return srv.Serve(ctx, opts.Address)
}

// replayInitScript executes every command in path against eng before the
// server starts accepting connections, useful for seeding a fresh data
// directory in development and in tests.
func replayInitScript(eng *engine.Engine, path string, log zerolog.Logger) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	commands, err := parser.ParseCommands(string(content))
	if err != nil {
		return err
	}
	for i, cmd := range commands {
		if _, err := eng.Execute(cmd); err != nil {
			log.Warn().Err(err).Int("command", i).Msg("init script command failed")
		}
	}
	return nil
}
