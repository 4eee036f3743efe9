package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.yaml")
	contents := []byte(`
master_name: "Test Master"
port: 12345
admins:
  - raptor
hidden_ips:
  - 10.0.0.1
motd:
  "": "welcome"
  "019f": "upgrade available"
`)
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "Test Master", cfg.MasterName)
	require.Equal(t, 12345, cfg.Port)
	require.True(t, cfg.IsAdmin("raptor"))
	require.False(t, cfg.IsAdmin("nobody"))
	require.True(t, cfg.IsHiddenIP("10.0.0.1"))
	require.Equal(t, "welcome", cfg.MOTDFor("unknown-build"))
	require.Equal(t, "upgrade available", cfg.MOTDFor("019f"))
}

func TestDatabaseConfigDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db.internal", Port: 5432, User: "u", Password: "p", DBName: "masterd", SSLMode: "disable",
		MaxConns: 10,
	}
	dsn := d.DSN()
	require.Contains(t, dsn, "postgres://u:p@db.internal:5432/masterd?sslmode=disable")
	require.Contains(t, dsn, "pool_max_conns=10")
}
