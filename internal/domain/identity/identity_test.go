package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallerRoundTrip(t *testing.T) {
	ctx := WithCaller(context.Background(), Caller{UserID: "u-1", Email: "ops@example.com"})

	c, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u-1", c.UserID)
	assert.Equal(t, "u-1", ActorID(ctx))
}

func TestFromContext_Missing(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "anonymous", ActorID(context.Background()))

	_, ok = FromContext(WithCaller(context.Background(), Caller{}))
	assert.False(t, ok)
}
