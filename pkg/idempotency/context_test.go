package idempotency

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		ctx           func(t *testing.T) context.Context
		expectedKey   string
		expectedFound bool
	}{
		{
			name: "key present",
			ctx: func(t *testing.T) context.Context {
				return WithKey(t.Context(), "bump-doctors-de-0001")
			},
			expectedKey:   "bump-doctors-de-0001",
			expectedFound: true,
		},
		{
			name: "key absent",
			ctx: func(t *testing.T) context.Context {
				return t.Context()
			},
		},
		{
			name: "empty key treated as absent",
			ctx: func(t *testing.T) context.Context {
				return WithKey(t.Context(), "")
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			key, found := FromContext(tc.ctx(t))

			require.Equal(t, tc.expectedFound, found)
			require.Equal(t, tc.expectedKey, key)
		})
	}
}

func TestWithKey_Overwrites(t *testing.T) {
	t.Parallel()

	ctx := WithKey(t.Context(), "first-key-12345678")
	ctx = WithKey(ctx, "second-key-1234567")

	key, found := FromContext(ctx)

	require.True(t, found)
	require.Equal(t, "second-key-1234567", key)
}

func TestContextKey_DoesNotCollideWithSameLiteral(t *testing.T) {
	t.Parallel()

	type otherContextKey string
	otherKey := otherContextKey("idempotencyKey")

	ctx := context.WithValue(t.Context(), otherKey, "other-value")
	ctx = WithKey(ctx, "idempotency-value1")

	key, found := FromContext(ctx)
	require.True(t, found)
	require.Equal(t, "idempotency-value1", key)

	require.Equal(t, "other-value", ctx.Value(otherKey))
}
