package orders

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignOrderPayload(t *testing.T) {
	secret := []byte("invoice-secret")
	payload := signOrderPayload(secret, "order-1", "user-1")

	parts := strings.SplitN(payload, "|", 3)
	require.Len(t, parts, 3)
	assert.Equal(t, "order-1", parts[0])
	assert.Equal(t, "user-1", parts[1])

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte("order-1|user-1"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, parts[2])
}

func TestSignOrderPayloadDiffersPerSecret(t *testing.T) {
	a := signOrderPayload([]byte("secret-a"), "order-1", "user-1")
	b := signOrderPayload([]byte("secret-b"), "order-1", "user-1")
	assert.NotEqual(t, a, b)
}
