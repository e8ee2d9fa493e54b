package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTokenStoreContract runs a suite of tests to verify that a TokenStore implementation
// adheres to the defined interface contract.
func RunTokenStoreContract(t *testing.T, store TokenStore) {
	ctx := context.Background()
	const projectID = 4242

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, store.SetToken(ctx, projectID, "123:abc"))

		token, err := store.Token(ctx, projectID)
		require.NoError(t, err)
		assert.Equal(t, "123:abc", token)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.SetToken(ctx, projectID, "456:def"))

		token, err := store.Token(ctx, projectID)
		require.NoError(t, err)
		assert.Equal(t, "456:def", token)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Token(ctx, projectID+1)
		assert.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.DeleteToken(ctx, projectID))

		_, err := store.Token(ctx, projectID)
		assert.ErrorIs(t, err, ErrTokenNotFound, "Token after Delete should return ErrTokenNotFound")
	})
}
