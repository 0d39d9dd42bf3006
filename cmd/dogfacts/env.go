package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/dogfacts/dogfacts/internal/config"
	"github.com/dogfacts/dogfacts/internal/logging"
	"github.com/dogfacts/dogfacts/internal/store"
)

// appEnv carries process inputs and the state built from them before a
// command runs.
type appEnv struct {
	getenv  func(string) string
	homeDir func() (string, error)

	cfg    *config.Config
	logger *zap.Logger
	store  store.Store
}

// baseDir returns DOGFACTS_HOME, or ~/.dogfacts.
func (e *appEnv) baseDir() (string, error) {
	if dir := strings.TrimSpace(e.getenv("DOGFACTS_HOME")); dir != "" {
		return dir, nil
	}
	home, err := e.homeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".dogfacts"), nil
}

// load builds config and logger. Precedence: flags, then environment,
// then config file, then defaults.
func (e *appEnv) load(c *cli.Context) error {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		var base string
		if base, err = e.baseDir(); err != nil {
			return err
		}
		cfg, err = config.Load(base)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.ApplyEnv(e.getenv)

	if v := c.String("store"); v != "" {
		cfg.Store = v
	}
	if v := c.String("facts-file"); v != "" {
		cfg.FactsPath = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return err
	}

	e.cfg = cfg
	e.logger = logger
	return nil
}

// openStore opens the configured store once per process.
func (e *appEnv) openStore() (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	st, err := store.Open(e.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", e.cfg.Store, err)
	}
	e.logger.Debug("store opened", zap.String("store", e.cfg.Store))
	e.store = st
	return st, nil
}

// close releases the store and flushes the logger.
func (e *appEnv) close() error {
	var err error
	if e.store != nil {
		err = e.store.Close()
		e.store = nil
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
	return err
}
