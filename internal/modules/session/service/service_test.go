package service

import (
	"context"
	"testing"
	"time"

	"fedlearn.dev/dashboard/internal/entity"
	sessionRepo "fedlearn.dev/dashboard/internal/modules/session/repository"
	"fedlearn.dev/dashboard/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newService(t *testing.T) (SessionService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewSessionService(sessionRepo.NewMemorySessionRepository(), 5*time.Minute, "test-secret")
	return WithClock(svc, clock.now), clock
}

var researcher = entity.User{ID: 12, Username: "rhea", Role: entity.RoleResearcher}

func TestSessionExpiresAfterIdleTimeout(t *testing.T) {
	svc, clock := newService(t)
	ctx := context.Background()

	sess, err := svc.Start(ctx, researcher)
	require.NoError(t, err)

	clock.advance(4 * time.Minute)
	_, err = svc.Check(ctx, sess.ID)
	require.NoError(t, err)

	clock.advance(2 * time.Minute)
	_, err = svc.Check(ctx, sess.ID)
	assert.ErrorIs(t, err, apperror.ErrSessionExpired)

	_, err = svc.Check(ctx, sess.ID)
	assert.ErrorIs(t, err, apperror.ErrSessionExpired, "expired record is cleared")
}

func TestTouchKeepsSessionAlive(t *testing.T) {
	svc, clock := newService(t)
	ctx := context.Background()
	sess, _ := svc.Start(ctx, researcher)

	for i := 0; i < 4; i++ {
		clock.advance(4 * time.Minute)
		_, err := svc.Touch(ctx, sess.ID)
		require.NoError(t, err)
	}

	got, err := svc.Check(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, clock.t, got.Timestamp)
}

func TestUpdateReplacesUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess, _ := svc.Start(ctx, researcher)

	updated := researcher
	updated.GDrive = &entity.GDriveConfig{ClientID: "cid"}
	_, err := svc.Update(ctx, sess.ID, updated)
	require.NoError(t, err)

	got, _ := svc.Check(ctx, sess.ID)
	assert.Equal(t, "cid", got.User.GDrive.ClientID)
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	svc, clock := newService(t)
	ctx := context.Background()

	_, _ = svc.Start(ctx, researcher)
	clock.advance(3 * time.Minute)
	fresh, _ := svc.Start(ctx, entity.User{ID: 20, Role: entity.RoleMember})
	clock.advance(3 * time.Minute)

	expired, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{12}, expired)

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, fresh.ID, active[0].ID)
}

func TestEndRemovesSession(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess, _ := svc.Start(ctx, researcher)

	require.NoError(t, svc.End(ctx, sess.ID))
	_, err := svc.Check(ctx, sess.ID)
	assert.ErrorIs(t, err, apperror.ErrSessionExpired)
}

func TestTokenRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	sess, _ := svc.Start(context.Background(), researcher)

	tok, err := svc.IssueToken(sess)
	require.NoError(t, err)

	id, err := svc.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, id)

	other := NewSessionService(sessionRepo.NewMemorySessionRepository(), time.Minute, "other-secret")
	_, err = other.ParseToken(tok)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.ParseToken("garbage")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestCheckEmptyID(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Check(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
