package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := AppFs
	AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { AppFs = prev })
	return AppFs
}

func TestLoadDefaults(t *testing.T) {
	withMemFs(t)
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load("/nowhere")
	require.NoError(t, err)
	assert.Equal(t, "schema.prisma", cfg.SchemaPath)
	assert.False(t, cfg.Strict)
	assert.Empty(t, cfg.File)
}

func TestSaveAndLoad(t *testing.T) {
	withMemFs(t)
	t.Setenv("DATABASE_URL", "")

	path, err := SaveConfig(&Config{
		SchemaPath:  "prisma/blog.prisma",
		DatabaseURL: "mysql://root@localhost/blog",
		Strict:      true,
		MetricsAddr: "127.0.0.1:9090",
	}, "/home/ada/.config/prisma-edge")
	require.NoError(t, err)
	assert.Equal(t, "/home/ada/.config/prisma-edge/.prisma-edge.yaml", path)

	cfg, err := Load("/home/ada/.config/prisma-edge")
	require.NoError(t, err)
	assert.Equal(t, "prisma/blog.prisma", cfg.SchemaPath)
	assert.Equal(t, "mysql://root@localhost/blog", cfg.DatabaseURL)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "127.0.0.1:9090", cfg.MetricsAddr)
	assert.Equal(t, path, cfg.File)
}

func TestEnvironmentOverrides(t *testing.T) {
	withMemFs(t)
	t.Setenv("PRISMA_EDGE_STRICT", "true")
	t.Setenv("PRISMA_EDGE_SCHEMA_PATH", "db.prisma")
	t.Setenv("DATABASE_URL", "mysql://app@db/shop")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "db.prisma", cfg.SchemaPath)
	assert.Equal(t, "mysql://app@db/shop", cfg.DatabaseURL)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	fs := withMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/cfg/.prisma-edge.yaml", []byte("strict: [unterminated"), 0o644))

	_, err := Load("/cfg")
	assert.Error(t, err)
}
