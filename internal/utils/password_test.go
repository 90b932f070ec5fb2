package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("swordfish", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "swordfish", hash)
	assert.True(t, VerifyPassword(hash, "swordfish"))
	assert.False(t, VerifyPassword(hash, "sword-fish"))
}
