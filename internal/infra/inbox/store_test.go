package inbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryForgetsOldest(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)
	for _, id := range []string{"a", "b"} {
		seen, err := m.Seen(ctx, id)
		require.NoError(t, err)
		require.False(t, seen)
	}
	seen, _ := m.Seen(ctx, "a")
	require.True(t, seen)

	_, _ = m.Seen(ctx, "c")
	seen, _ = m.Seen(ctx, "a")
	require.False(t, seen)
}
