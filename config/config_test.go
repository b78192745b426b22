package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AUTH_PROVIDER", "jwt")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 1.0, cfg.Ledger.CommissionRate)
	assert.Equal(t, 3, cfg.Ledger.RetryMaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Ledger.RetryBaseDelay)
	assert.Equal(t, 2*time.Second, cfg.Ledger.RetryMaxDelay)
	assert.Equal(t, "UTC", cfg.Ledger.RevenueTimezone)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "local", cfg.Storage.Provider)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_JWTNeedsSecret(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("AUTH_PROVIDER", "jwt")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestMaskMongoURI(t *testing.T) {
	assert.Equal(t, "mongodb://admin:***@db:27017/", maskMongoURI("mongodb://admin:s3cret@db:27017/"))
	assert.Equal(t, "mongodb://db:27017/", maskMongoURI("mongodb://db:27017/"))
}
