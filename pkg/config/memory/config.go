package memory

import (
	"context"
	"sync"

	"github.com/code-payments/code-program/pkg/config"
)

// Config holds a single value in memory. It backs manual test overrides and
// lets tests script value changes and read failures.
type Config struct {
	mu       sync.RWMutex
	value    interface{}
	err      error
	reads    int
	shutdown bool
}

// NewConfig returns a Config holding value. A nil value reads as
// config.ErrNoValue.
func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

// Get implements config.Config.Get
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reads++

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.err != nil:
		return nil, c.err
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

// Shutdown implements config.Config.Shutdown
func (c *Config) Shutdown() {
	c.mu.Lock()
	c.shutdown = true
	c.mu.Unlock()
}

// Set replaces the held value. Set(nil) is equivalent to Clear.
func (c *Config) Set(value interface{}) {
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
}

// Clear drops the held value.
func (c *Config) Clear() {
	c.Set(nil)
}

// Fail makes subsequent reads return err until Fail(nil) is called.
func (c *Config) Fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// Reads returns how many times Get was called.
func (c *Config) Reads() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reads
}
