package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Service = (*MemoryService)(nil)

func TestMemoryService_Lifecycle(t *testing.T) {
	s := NewMemoryService()
	ctx := context.Background()

	id, err := s.Create(ctx, "Coord@Example.com", "Abcdef12")
	require.NoError(t, err)
	assert.Empty(t, id.Token)
	assert.Equal(t, "coord@example.com", id.Email)

	_, err = s.Create(ctx, "coord@example.com", "Abcdef12")
	assert.ErrorIs(t, err, ErrEmailInUse)

	_, err = s.Verify(ctx, "coord@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	_, err = s.Verify(ctx, "nobody@example.com", "Abcdef12")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	signed, err := s.Verify(ctx, "coord@example.com", "Abcdef12")
	require.NoError(t, err)
	assert.NotEmpty(t, signed.Token)
	assert.False(t, signed.Verified)
	assert.Equal(t, 1, s.ActiveSessions())

	require.NoError(t, s.ResendVerification(ctx, signed))
	assert.Equal(t, 1, s.Resends(signed.ID))

	require.NoError(t, s.Invalidate(ctx, signed))
	assert.Equal(t, 0, s.ActiveSessions())
	assert.ErrorIs(t, s.ResendVerification(ctx, signed), ErrInvalidCredential)

	require.True(t, s.MarkVerified("coord@example.com"))
	again, err := s.Verify(ctx, "coord@example.com", "Abcdef12")
	require.NoError(t, err)
	assert.True(t, again.Verified)

	require.NoError(t, s.Delete(ctx, again))
	assert.ErrorIs(t, s.Delete(ctx, again), ErrNotFound)
	assert.Equal(t, 0, s.ActiveSessions())
}

func TestMemoryService_WeakPassword(t *testing.T) {
	_, err := NewMemoryService().Create(context.Background(), "a@b.com", "12345")
	assert.ErrorIs(t, err, ErrWeakPassword)
}
