package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFlags_OverridesSelectedFields(t *testing.T) {
	old := os.Args
	os.Args = []string{"server", "-a", ":7070", "-b", "client-files", "-r", "redis:6379"}
	t.Cleanup(func() { os.Args = old })

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, ":7070", c.EndpointAddrHTTP)
	assert.Equal(t, "client-files", c.S3Bucket)
	assert.Equal(t, "redis:6379", c.RedisAddr)
	// untouched
	assert.Equal(t, "us-east-1", c.S3Region)
}

func TestParseFlags_IgnoresForeignFlags(t *testing.T) {
	old := os.Args
	os.Args = []string{"server", "-test.v", "-a", ":7071"}
	t.Cleanup(func() { os.Args = old })

	var c Config
	c.LoadDefaults()
	parseFlags(&c)

	assert.Equal(t, ":7071", c.EndpointAddrHTTP)
}
