package main

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hafizmfadli/cinescope/internal/config"
	"github.com/hafizmfadli/cinescope/internal/data"
	"github.com/hafizmfadli/cinescope/internal/jsonlog"
)

// commandContext carries what the subcommands share: the loaded
// configuration, the logger and the database models.
type commandContext struct {
	configPath     string
	driverOverride string
	logOutput      io.Writer

	configOnce sync.Once
	config     *config.Config
	configErr  error

	// open is data.Open unless a test replaces it.
	open func(ctx context.Context, driver, uri, name string, maxPoolSize uint64, connectTimeout time.Duration) (data.Models, func(), error)
}

func newCommandContext() *commandContext {
	return &commandContext{
		logOutput: os.Stderr,
		open:      data.Open,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			c.configErr = err
			return
		}
		if c.driverOverride != "" {
			cfg.DB.Driver = c.driverOverride
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *jsonlog.Logger {
	level := jsonlog.LevelInfo
	if c.config != nil {
		level = jsonlog.ParseLevel(c.config.LogLevel)
	}
	return jsonlog.NewLogger(c.logOutput, level)
}

// withModels opens the configured database for the duration of fn.
func (c *commandContext) withModels(ctx context.Context, fn func(data.Models) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	models, closeFn, err := c.open(ctx, cfg.DB.Driver, cfg.DB.URI, cfg.DB.Name, cfg.DB.MaxPoolSize, cfg.DB.ConnectTimeout)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(models)
}
