// Package settings holds values the node caches between boots and that the
// server may push while the node is awake.
package settings

import (
	"sync"

	"github.com/witsoft001/esp8266-smart-home/internal/config"
)

const fallbackTimeServer = "pool.ntp.org"

type Cache struct {
	mu          sync.RWMutex
	timeServer  string
	broker      string
	description string
}

func New(cfg *config.Config) *Cache {
	return &Cache{
		timeServer:  cfg.SNTPServer,
		broker:      cfg.Broker,
		description: cfg.Description,
	}
}

// TimeServer returns the SNTP server address, falling back to the public
// pool when none is configured.
func (c *Cache) TimeServer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.timeServer == "" {
		return fallbackTimeServer
	}
	return c.timeServer
}

func (c *Cache) SetTimeServer(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeServer = addr
}

func (c *Cache) Broker() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.broker
}

func (c *Cache) Description() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.description
}

func (c *Cache) SetDescription(desc string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.description = desc
}
