package v1

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdnguyen/auth-service/internal/core/domain"
	"github.com/tdnguyen/auth-service/internal/core/memstore"
)

func uuidMustParse(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func newSessionFixture(t *testing.T, ttl time.Duration) (*SessionService, *domain.User) {
	t.Helper()
	store := memstore.New()
	user, err := store.Users().Create(context.Background(), &domain.User{
		Username: "alice",
		Email:    "a@x.com",
	})
	require.NoError(t, err)
	return NewSessionService(store.Sessions(), ttl), user
}

func TestSessionService_CreateExpiresTTLFromNow(t *testing.T) {
	t.Parallel()
	sessions, user := newSessionFixture(t, time.Minute)

	before := time.Now()
	session, err := sessions.Create(context.Background(), user)
	require.NoError(t, err)
	after := time.Now()

	assert.False(t, session.ExpireDate.Before(before.Add(time.Minute)))
	assert.False(t, session.ExpireDate.After(after.Add(time.Minute)))
	assert.Equal(t, user.ID, session.User.ID)
}

func TestSessionService_FindByID(t *testing.T) {
	t.Parallel()
	sessions, user := newSessionFixture(t, time.Hour)
	ctx := context.Background()

	session, err := sessions.Create(ctx, user)
	require.NoError(t, err)

	found, err := sessions.FindByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "alice", found.User.Username)
	assert.True(t, found.ExpireDate.After(time.Now()))

	missing, err := sessions.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSessionService_ExpiredIsNotFound(t *testing.T) {
	t.Parallel()
	sessions, user := newSessionFixture(t, -time.Second)
	ctx := context.Background()

	session, err := sessions.Create(ctx, user)
	require.NoError(t, err)

	found, err := sessions.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	// An expired session cannot be revived either.
	affected, err := sessions.ExtendExpiration(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestSessionService_ExtendExpirationSlidesForward(t *testing.T) {
	t.Parallel()
	sessions, user := newSessionFixture(t, time.Minute)
	ctx := context.Background()

	session, err := sessions.Create(ctx, user)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	affected, err := sessions.ExtendExpiration(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	extended, err := sessions.FindByID(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, extended)
	assert.True(t, extended.ExpireDate.After(session.ExpireDate),
		"extension must strictly increase the expire date")

	affected, err = sessions.ExtendExpiration(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}
