package internal

import (
	"fmt"
	"time"
)

type Config struct {
	LogLevel        string        `env:"LOG_LEVEL,required=true"`
	Host            string        `env:"HOST,default=localhost"`
	Port            int           `env:"PORT,default=8080"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,required=true"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=1s"`
	DefaultDelay    time.Duration `env:"DEFAULT_DELAY,default=2500ms"`
	MaxDelay        time.Duration `env:"MAX_DELAY,default=1m"`
	LimitFetches    *int          `env:"LIMIT_FETCHES"`
	// DEMO_INTERVAL enables the built-in poller when set
	DemoInterval *time.Duration `env:"DEMO_INTERVAL"`
}

// Validate checks what the env tags cannot express.
func (c Config) Validate() error {
	if c.DefaultDelay < 0 {
		return fmt.Errorf("DEFAULT_DELAY must not be negative, got %s", c.DefaultDelay)
	}
	if c.MaxDelay < c.DefaultDelay {
		return fmt.Errorf("MAX_DELAY (%s) must be at least DEFAULT_DELAY (%s)", c.MaxDelay, c.DefaultDelay)
	}
	if c.LimitFetches != nil && *c.LimitFetches <= 0 {
		return fmt.Errorf("LIMIT_FETCHES must be positive, got %d", *c.LimitFetches)
	}
	if c.DemoInterval != nil && *c.DemoInterval <= 0 {
		return fmt.Errorf("DEMO_INTERVAL must be positive, got %s", *c.DemoInterval)
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
