package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/fairwaylog/internal/config"
)

func TestWriteConfig(t *testing.T) {
	t.Setenv("FAIRWAYLOG_ADDR", "")
	path := filepath.Join(t.TempDir(), "fairwaylog.yaml")

	c := config.DefaultConfig()
	c.Server.Addr = ":9090"
	require.NoError(t, writeConfig(path, c, false))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", loaded.Server.Addr)

	c.Server.Addr = ":7070"
	assert.Error(t, writeConfig(path, c, false), "existing file is kept")
	loaded, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", loaded.Server.Addr)

	require.NoError(t, writeConfig(path, c, true))
	loaded, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", loaded.Server.Addr)
}
