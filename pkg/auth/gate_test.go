package auth

import (
	"testing"

	"github.com/mklimuk/kai/pkg/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDisabledGateIsOpen(t *testing.T) {
	g, err := NewGate(persist.NewMemoryKV(), "", "", nil)
	require.NoError(t, err)
	assert.False(t, g.Enabled())
	assert.True(t, g.Authenticated())
	assert.NoError(t, g.Login("anything"))
}

func TestLoginWithPlainPassword(t *testing.T) {
	kv := persist.NewMemoryKV()
	g, err := NewGate(kv, "", "your-secure-password", nil)
	require.NoError(t, err)
	require.True(t, g.Enabled())
	assert.False(t, g.Authenticated())

	assert.ErrorIs(t, g.Login("wrong"), ErrInvalidPassword)
	assert.False(t, g.Authenticated())

	require.NoError(t, g.Login("your-secure-password"))
	assert.True(t, g.Authenticated())

	v, err := kv.Get(persist.KeyAuth)
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	again, err := NewGate(kv, "", "your-secure-password", nil)
	require.NoError(t, err)
	assert.True(t, again.Authenticated(), "flag survives restart")

	require.NoError(t, g.Logout())
	assert.False(t, g.Authenticated())
	require.NoError(t, g.Logout(), "logout twice is fine")
}

func TestLoginWithHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	g, err := NewGate(persist.NewMemoryKV(), string(hash), "ignored", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, g.Login("ignored"), ErrInvalidPassword)
	assert.NoError(t, g.Login("s3cret"))
}

func TestInvalidHashRejected(t *testing.T) {
	_, err := NewGate(persist.NewMemoryKV(), "not-a-bcrypt-hash", "", nil)
	assert.Error(t, err)
}

func TestForeignFlagValueIsNotAuthenticated(t *testing.T) {
	kv := persist.NewMemoryKV()
	require.NoError(t, kv.Put(persist.KeyAuth, "yes"))
	g, err := NewGate(kv, "", "pw", nil)
	require.NoError(t, err)
	assert.False(t, g.Authenticated())
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("pw")))
}
