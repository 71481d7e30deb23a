package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore(keyring.NewArrayKeyring(nil))

	_, err := s.Get(TokenKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(TokenKey, "abc"))
	got, err := s.Get(TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	require.NoError(t, s.Delete(TokenKey))
	_, err = s.Get(TokenKey)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(TokenKey), "deleting twice is fine")
}
