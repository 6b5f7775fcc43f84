package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_ADDR", "localhost:6379")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout.Duration())
	assert.Equal(t, 60*time.Second, cfg.Redis.DefaultTTL.Duration())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL.Duration())
	assert.Equal(t, "taskhub", cfg.Auth.Issuer)
	assert.Equal(t, "taskhub", cfg.Mongo.Database)
	assert.Equal(t, 32, cfg.WS.SendBuffer)
	assert.Equal(t, 30*time.Second, cfg.WS.PingInterval.Duration())
	assert.Equal(t, []string{"*"}, cfg.HTTP.Origins())

	lvl, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestLoad_RedisURLOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("REDIS_URL", "redis://default:pw@redis.internal:6380/3")
	t.Setenv("HTTP_READ_TIMEOUT", "15")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "pw", cfg.Redis.Password)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout.Duration())
}

func TestLoad_DriverRequirements(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORE_DRIVER", "postgres")
	_, err := Load()
	assert.ErrorContains(t, err, "PG_DSN")

	t.Setenv("STORE_DRIVER", "mongo")
	_, err = Load()
	assert.ErrorContains(t, err, "MONGO_URI")

	t.Setenv("STORE_DRIVER", "sqlite")
	_, err = Load()
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestLoad_RejectsBadValues(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LOG_LEVEL", "chatty")
	t.Setenv("WS_SEND_BUFFER", "0")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "LOG_LEVEL")
	assert.ErrorContains(t, err, "WS_SEND_BUFFER")
}

func TestOrigins(t *testing.T) {
	h := HTTPConfig{AllowOrigins: "http://localhost:5173, https://app.example.com"}
	assert.Equal(t, []string{"http://localhost:5173", "https://app.example.com"}, h.Origins())
}
