package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every INVOICING_ variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix+"_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "invoicing-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "invoicing", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled())
		assert.Equal(t, "tlv", cfg.Compliance.Encoding)
		assert.False(t, cfg.Scheduler.OverdueSweepEnabled)
		assert.Equal(t, time.Hour, cfg.Scheduler.OverdueSweepInterval)
		assert.Equal(t, "http://localhost:3000/reset-password", cfg.ResetURL())
	})

	t.Run("loads values from environment variables with INVOICING prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INVOICING_APP_NAME", "test-app")
		t.Setenv("INVOICING_APP_ENV", "testing")
		t.Setenv("INVOICING_APP_PORT", "9000")
		t.Setenv("INVOICING_DATABASE_HOST", "testdb.local")
		t.Setenv("INVOICING_DATABASE_PORT", "5433")
		t.Setenv("INVOICING_DATABASE_USER", "testuser")
		t.Setenv("INVOICING_DATABASE_PASSWORD", "testpass")
		t.Setenv("INVOICING_DATABASE_DBNAME", "testdb")
		t.Setenv("INVOICING_DATABASE_SSLMODE", "require")
		t.Setenv("INVOICING_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("INVOICING_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("INVOICING_REDIS_HOST", "cache.local")
		t.Setenv("INVOICING_COMPLIANCE_ENCODING", "json")
		t.Setenv("INVOICING_SCHEDULER_OVERDUE_SWEEP_ENABLED", "true")
		t.Setenv("INVOICING_SCHEDULER_OVERDUE_SWEEP_INTERVAL", "10m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
		assert.Equal(t, "json", cfg.Compliance.Encoding)
		assert.True(t, cfg.Scheduler.OverdueSweepEnabled)
		assert.Equal(t, 10*time.Minute, cfg.Scheduler.OverdueSweepInterval)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INVOICING_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("INVOICING_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INVOICING_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INVOICING_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("rejects unknown compliance encoding", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INVOICING_COMPLIANCE_ENCODING", "xml")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "compliance.encoding")
	})

	t.Run("redis fan-out requires redis", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INVOICING_REALTIME_REDIS_FANOUT", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "realtime.redis_fanout")
	})

	t.Run("archive without a bucket is allowed in development", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INVOICING_RENDERING_ARCHIVE_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Rendering.ArchiveEnabled)
		assert.Empty(t, cfg.Storage.Bucket)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("INVOICING_APP_ENV", "production")
		t.Setenv("INVOICING_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("INVOICING_DATABASE_PASSWORD", "secure-password")
		t.Setenv("INVOICING_DATABASE_SSLMODE", "require")
		t.Setenv("INVOICING_REDIS_HOST", "redis")
	}

	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"requires jwt.secret", map[string]string{"INVOICING_JWT_SECRET": ""}, "jwt.secret is required in production"},
		{"requires a long jwt.secret", map[string]string{"INVOICING_JWT_SECRET": "short-secret"}, "jwt.secret must be at least 32 characters"},
		{"requires database.password", map[string]string{"INVOICING_DATABASE_PASSWORD": ""}, "database.password is required in production"},
		{"requires SSL", map[string]string{"INVOICING_DATABASE_SSLMODE": "disable"}, "database.sslmode cannot be 'disable' in production"},
		{"requires redis", map[string]string{"INVOICING_REDIS_HOST": ""}, "redis.host is required in production"},
		{"rejects wildcard CORS", map[string]string{"INVOICING_HTTP_CORS_ALLOW_ORIGINS": "*"}, "cors_allow_origins"},
		{"requires a bucket for archiving", map[string]string{"INVOICING_RENDERING_ARCHIVE_ENABLED": "true"}, "requires storage.bucket in production"},
		{"rejects full SQL logging", map[string]string{"INVOICING_TELEMETRY_DB_LOG_FULL_SQL": "true"}, "db_log_full_sql"},
		{"passes with valid production config", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidProductionBase(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "production", cfg.App.Env)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}
