package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"fedlearn.dev/dashboard/internal/entity"
	"fedlearn.dev/dashboard/internal/modules/notification/dto"
	notifRepo "fedlearn.dev/dashboard/internal/modules/notification/repository"
	"fedlearn.dev/dashboard/internal/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var member = entity.User{ID: 3, Username: "mo", Role: entity.RoleMember}

type fixture struct {
	platform *testutil.Platform
	now      time.Time
	svc      NotificationService
}

func newFixture(t *testing.T, hub Hub) *fixture {
	p := testutil.NewPlatform(t)
	p.AddUser(member, "pw")
	p.AddNotification(member.ID, entity.Notification{ID: 1, Message: "Contribution approved"})
	p.AddNotification(member.ID, entity.Notification{ID: 2, Message: "Model published", IsRead: true})
	p.AddNotification(member.ID, entity.Notification{ID: 3, Message: "New comment"})

	f := &fixture{platform: p, now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	f.svc = WithClock(
		NewNotificationService(notifRepo.NewNotificationRepository(p.Client()), hub, 30*time.Second),
		func() time.Time { return f.now },
	)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestFetchIsDebounced(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	st, err := f.svc.Fetch(ctx, member, false)
	require.NoError(t, err)
	assert.Len(t, st.Items, 3)
	assert.Equal(t, 2, st.Unread)

	f.advance(20 * time.Second)
	_, err = f.svc.Fetch(ctx, member, false)
	require.NoError(t, err)
	assert.Equal(t, 1, f.platform.CallCount("GET /notifications/"))

	_, err = f.svc.Fetch(ctx, member, true)
	require.NoError(t, err)
	assert.Equal(t, 2, f.platform.CallCount("GET /notifications/"), "forced fetch ignores the window")

	f.advance(31 * time.Second)
	_, err = f.svc.Fetch(ctx, member, false)
	require.NoError(t, err)
	assert.Equal(t, 3, f.platform.CallCount("GET /notifications/"))
}

func TestFetchFailureClearsCache(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Fetch(ctx, member, true)
	require.NoError(t, err)

	f.platform.Fail("GET /notifications/", http.StatusInternalServerError, "", 1)
	st, err := f.svc.Fetch(ctx, member, true)
	require.Error(t, err)
	assert.Empty(t, st.Items)
	assert.Zero(t, st.Unread)
	assert.Equal(t, "Failed to fetch notifications", st.Error)
}

func TestMarkAsReadFailureRefetches(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Fetch(ctx, member, true)
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkAsRead(ctx, member, 1))
	assert.Equal(t, 1, f.svc.Snapshot(member.ID).Unread)

	f.platform.Fail("PUT /notifications/:id/read/", http.StatusInternalServerError, "Database unavailable", 1)
	err = f.svc.MarkAsRead(ctx, member, 3)
	require.EqualError(t, err, "Database unavailable")

	st := f.svc.Snapshot(member.ID)
	assert.Equal(t, 1, st.Unread, "refetched from the server, where 3 is still unread")
	assert.Equal(t, "Database unavailable", st.Error)
	assert.Equal(t, 2, f.platform.CallCount("GET /notifications/"))
}

func TestMarkAllAsReadRollsBack(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Fetch(ctx, member, true)
	require.NoError(t, err)

	f.platform.Fail("PUT /notifications/mark-all-read/", http.StatusBadGateway, "", 1)
	err = f.svc.MarkAllAsRead(ctx, member)
	require.EqualError(t, err, "Failed to mark all notifications as read")
	assert.Equal(t, 2, f.svc.Snapshot(member.ID).Unread)

	require.NoError(t, f.svc.MarkAllAsRead(ctx, member))
	assert.Zero(t, f.svc.Snapshot(member.ID).Unread)
	assert.Len(t, f.svc.Read(member.ID), 3)
}

func TestDeleteRollsBack(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Fetch(ctx, member, true)
	require.NoError(t, err)

	f.platform.Fail("DELETE /notifications/:id/delete/", http.StatusInternalServerError, "", 1)
	require.Error(t, f.svc.Delete(ctx, member, 1))
	assert.Len(t, f.svc.Snapshot(member.ID).Items, 3)

	require.NoError(t, f.svc.Delete(ctx, member, 1))
	st := f.svc.Snapshot(member.ID)
	assert.Len(t, st.Items, 2)
	assert.Equal(t, 1, st.Unread)
	assert.Len(t, f.platform.NotificationsOf(member.ID), 2)
}

func TestResetForgetsUser(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Fetch(context.Background(), member, true)
	require.NoError(t, err)

	f.svc.Reset(member.ID)
	st := f.svc.Snapshot(member.ID)
	assert.Empty(t, st.Items)
	assert.True(t, st.LastFetched.IsZero())
}

func TestPollPublishesNewUnread(t *testing.T) {
	f := newFixture(t, NewMemoryHub())
	ctx := context.Background()

	events, release, err := f.svc.Subscribe(ctx, member.ID)
	require.NoError(t, err)
	defer release()

	f.svc.Poll(ctx, []entity.User{member})
	select {
	case <-events:
		t.Fatal("first fetch only sets the baseline")
	default:
	}

	f.platform.AddNotification(member.ID, entity.Notification{ID: 9, Message: "Weights ready"})
	f.svc.Poll(ctx, []entity.User{member, member})
	assert.Equal(t, 2, f.platform.CallCount("GET /notifications/"), "duplicate users polled once")

	select {
	case payload := <-events:
		var ev dto.Event
		require.NoError(t, json.Unmarshal(payload, &ev))
		assert.Equal(t, int64(9), ev.Notification.ID)
		assert.Equal(t, 3, ev.UnreadCount)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestRedisHubDeliversAcrossSubscribers(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	hub := NewRedisHub(rdb)
	ctx := context.Background()

	events, release, err := hub.Subscribe(ctx, 42)
	require.NoError(t, err)
	defer release()

	require.NoError(t, hub.Publish(ctx, 42, []byte(`{"type":"notification"}`)))

	select {
	case payload := <-events:
		assert.JSONEq(t, `{"type":"notification"}`, string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("no message from redis")
	}
}
