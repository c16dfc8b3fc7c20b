package password_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/password"
)

// TestHashAndVerify_RoundTrip verifica que a senha original valida contra o hash.
func TestHashAndVerify_RoundTrip(t *testing.T) {
	hash, err := password.Hash("senha-super-secreta")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, password.Verify("senha-super-secreta", hash))
}

// TestVerify_WrongPassword verifica que uma senha errada nunca valida.
func TestVerify_WrongPassword(t *testing.T) {
	hash, err := password.Hash("senha-correta")
	require.NoError(t, err)

	assert.False(t, password.Verify("senha-errada", hash))
}

// TestVerify_MalformedHash verifica o comportamento "fail closed":
// um hash malformado retorna false, sem pânico.
func TestVerify_MalformedHash(t *testing.T) {
	assert.False(t, password.Verify("qualquer-senha", "isto-nao-e-um-hash-bcrypt"))
	assert.False(t, password.Verify("qualquer-senha", ""))
}

// TestHash_SaltIsRandom verifica que o salt embutido torna cada hash único.
func TestHash_SaltIsRandom(t *testing.T) {
	hash1, err := password.Hash("mesma-senha")
	require.NoError(t, err)
	hash2, err := password.Hash("mesma-senha")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
	assert.True(t, password.Verify("mesma-senha", hash1))
	assert.True(t, password.Verify("mesma-senha", hash2))
}
