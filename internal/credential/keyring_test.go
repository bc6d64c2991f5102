package credential

import (
	"alcyxob/fitlist/internal/session"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(keyring.NewArrayKeyring(nil))

	_, err := store.Load()
	require.ErrorIs(t, err, session.ErrNoToken)

	require.NoError(t, store.Save("abc"))
	token, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "abc", token)

	require.NoError(t, store.Save("def"))
	token, err = store.Load()
	require.NoError(t, err)
	require.Equal(t, "def", token)

	require.NoError(t, store.Clear())
	_, err = store.Load()
	require.ErrorIs(t, err, session.ErrNoToken)
}
