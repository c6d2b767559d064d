package db

import (
	"testing"

	"hotspot-voucherd/pkg/config"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestDialectSQLiteDSN(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Type = "sqlite"
	cfg.Database.Path = "vouchers.db"
	cfg.Database.BusyTimeoutMS = 5000

	d, err := Dialect(cfg)
	require.NoError(t, err)

	sq, ok := d.(*sqlite.Dialector)
	require.True(t, ok)
	require.Equal(t,
		"file:vouchers.db?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_txlock=immediate",
		sq.DSN)
}

func TestDialectDefaultsToSQLite(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Path = "x.db"
	cfg.Database.BusyTimeoutMS = 100

	d, err := Dialect(cfg)
	require.NoError(t, err)

	sq, ok := d.(*sqlite.Dialector)
	require.True(t, ok)
	require.Contains(t, sq.DSN, "_txlock=immediate", "writes must take the lock before the first read")
	require.Contains(t, sq.DSN, "_busy_timeout=100")
}

func TestDialectUnsupportedType(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Type = "oracle"

	_, err := Dialect(cfg)
	require.Error(t, err)
}
