package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/witsoft001/esp8266-smart-home/internal/config"
)

func TestCacheSeededFromConfig(t *testing.T) {
	c := New(&config.Config{
		SNTPServer:  "10.0.0.2",
		Broker:      "tcp://10.0.0.2:1883",
		Description: "Hallway",
	})

	assert.Equal(t, "10.0.0.2", c.TimeServer())
	assert.Equal(t, "tcp://10.0.0.2:1883", c.Broker())
	assert.Equal(t, "Hallway", c.Description())
}

func TestTimeServerFallback(t *testing.T) {
	c := New(&config.Config{})
	assert.Equal(t, fallbackTimeServer, c.TimeServer())

	c.SetTimeServer("192.168.1.1")
	assert.Equal(t, "192.168.1.1", c.TimeServer())

	c.SetTimeServer("")
	assert.Equal(t, fallbackTimeServer, c.TimeServer())
}

func TestSetDescription(t *testing.T) {
	c := New(&config.Config{Description: "old"})
	c.SetDescription("new")
	assert.Equal(t, "new", c.Description())
}
