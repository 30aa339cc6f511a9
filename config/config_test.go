package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-jwt-secret")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "emporia", cfg.MongoDB)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "https://api.stripe.com", cfg.StripeAPIURL)
	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.Equal(t, "./static/uploads", cfg.MediaDir)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("MONGO_DB", "emporia_test")
	t.Setenv("STRIPE_API_URL", "http://localhost:12111")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "emporia_test", cfg.MongoDB)
	assert.Equal(t, "http://localhost:12111", cfg.StripeAPIURL)
}

func TestLoadRequiresSecrets(t *testing.T) {
	// t.Setenv registers the restore; the unset makes the var truly absent,
	// not merely empty.
	t.Setenv("JWT_SECRET", "placeholder")
	os.Unsetenv("JWT_SECRET")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")

	_, err := Load()
	assert.Error(t, err)
}

func TestInvoiceSecretFallsBackToJWTSecret(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test-jwt-secret", cfg.InvoiceSecret)

	t.Setenv("INVOICE_SECRET", "separate-invoice-secret")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "separate-invoice-secret", cfg.InvoiceSecret)
}
