package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks the variables a test may set. viper ignores empty
// environment values, so blank means unset.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

var envKeys = []string{
	"ERP_APP_NAME", "ERP_APP_ENV", "ERP_APP_PORT",
	"ERP_DATABASE_HOST", "ERP_DATABASE_PORT", "ERP_DATABASE_USER", "ERP_DATABASE_PASSWORD",
	"ERP_DATABASE_DBNAME", "ERP_DATABASE_SSLMODE", "ERP_DATABASE_MAX_OPEN_CONNS", "ERP_DATABASE_MAX_IDLE_CONNS",
	"ERP_SWAGGER_ENABLED", "ERP_SWAGGER_ALLOWED_IPS",
	"ERP_STORAGE_ENABLED", "ERP_STORAGE_BUCKET", "ERP_STORAGE_ACCESS_KEY", "ERP_STORAGE_SECRET_KEY",
	"ERP_LEDGER_RECEIVABLE_PREFIX", "ERP_LEDGER_PAYABLE_PREFIX", "ERP_LEDGER_OPERATION_TIMEOUT",
	"ERP_LEDGER_SCHEMA_VERSION", "ERP_LEDGER_VERIFY_SCHEMA",
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t, envKeys...)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "erp-ledger", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)

		assert.Equal(t, "PV", cfg.Ledger.ReceivablePrefix)
		assert.Equal(t, "OC", cfg.Ledger.PayablePrefix)
		assert.Equal(t, "pt-BR", cfg.Ledger.Locale)
		assert.Equal(t, "BRL", cfg.Ledger.Currency)
		assert.Equal(t, 15*time.Second, cfg.Ledger.OperationTimeout)
		assert.Equal(t, 2, cfg.Ledger.SchemaVersion)
		assert.False(t, cfg.Ledger.VerifySchema)
		assert.Equal(t, "settlements/", cfg.Storage.KeyPrefix)
	})

	t.Run("loads values from environment variables with ERP prefix", func(t *testing.T) {
		clearEnv(t, envKeys...)
		t.Setenv("ERP_APP_PORT", "9000")
		t.Setenv("ERP_DATABASE_HOST", "testdb.local")
		t.Setenv("ERP_DATABASE_PORT", "5433")
		t.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("ERP_LEDGER_RECEIVABLE_PREFIX", "VEN")
		t.Setenv("ERP_LEDGER_OPERATION_TIMEOUT", "3s")
		t.Setenv("ERP_LEDGER_SCHEMA_VERSION", "1")
		t.Setenv("ERP_LEDGER_VERIFY_SCHEMA", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "VEN", cfg.Ledger.ReceivablePrefix)
		assert.Equal(t, 3*time.Second, cfg.Ledger.OperationTimeout)
		assert.Equal(t, 1, cfg.Ledger.SchemaVersion)
		assert.True(t, cfg.Ledger.VerifySchema)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t, envKeys...)
		t.Setenv("ERP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv(t, envKeys...)
		t.Setenv("ERP_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("rejects negative schema version", func(t *testing.T) {
		clearEnv(t, envKeys...)
		t.Setenv("ERP_LEDGER_SCHEMA_VERSION", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger.schema_version")
	})

	t.Run("requires bucket and keys when storage is enabled", func(t *testing.T) {
		clearEnv(t, envKeys...)
		t.Setenv("ERP_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")

		t.Setenv("ERP_STORAGE_BUCKET", "receipts")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.access_key")

		t.Setenv("ERP_STORAGE_ACCESS_KEY", "key")
		t.Setenv("ERP_STORAGE_SECRET_KEY", "secret")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "receipts", cfg.Storage.Bucket)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t, envKeys...)
		t.Setenv("ERP_APP_ENV", "production")
		t.Setenv("ERP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("ERP_DATABASE_SSLMODE", "require")
		t.Setenv("ERP_SWAGGER_ENABLED", "false")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("ERP_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("ERP_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("fails if swagger enabled without IP restriction in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("ERP_SWAGGER_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger endpoint must be disabled or have IP restriction")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "testuser", Password: "testpass", DBName: "testdb", SSLMode: "disable"}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "/testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "user", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", cfg.Addr())
}
