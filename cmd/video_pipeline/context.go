package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"vidpipe/internal/api"
	"vidpipe/internal/config"
	"vidpipe/internal/session"
)

type cliContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCLIContext(configFlag *string) *cliContext {
	return &cliContext{configFlag: configFlag}
}

func (c *cliContext) loadConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *cliContext) currentConfig() *config.Config {
	cfg, _ := c.loadConfig()
	return cfg
}

// withStore opens the session database for the duration of fn. Commands that
// only read or transition rows do not need the daemon; the store serializes
// concurrent writers itself.
func (c *cliContext) withStore(fn func(*session.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := session.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// daemonClient probes the configured API bind and returns a client when a
// server answers. A nil return means no daemon; callers fall back to the
// store directly.
func (c *cliContext) daemonClient(ctx context.Context) *api.Client {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil
	}
	client := api.NewClient(cfg.Paths.APIBind)
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := client.Status(probeCtx); err != nil {
		return nil
	}
	return client
}
