package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"notaria/pkg/domain"
)

func TestPrincipalRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.True(t, Principal(ctx).IsZero())

	p := domain.Principal{ID: domain.UserID(uuid.New()), Role: domain.RoleGestor}
	ctx = WithPrincipal(ctx, p)
	assert.Equal(t, p, Principal(ctx))
	assert.Equal(t, p.ID, UserID(ctx))
}

func TestNowFallsBackToWallClock(t *testing.T) {
	before := time.Now()
	got := Now(context.Background())
	assert.False(t, got.Before(before))

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))
}

func TestClientMetadata(t *testing.T) {
	ctx := WithClientMetadata(context.Background(), "10.0.0.1", "curl/8.0")
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "curl/8.0", UserAgent(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.Equal(t, "req-1", RequestID(WithRequestID(ctx, "req-1")))
}
