package scheduler

import (
	"context"

	"fedlearn.dev/dashboard/internal/entity"
	modelService "fedlearn.dev/dashboard/internal/modules/model/service"
	notifService "fedlearn.dev/dashboard/internal/modules/notification/service"
	sessionService "fedlearn.dev/dashboard/internal/modules/session/service"
	"fedlearn.dev/dashboard/pkg/logger"
)

// SessionSweepJob removes idle sessions and drops the notification cache of
// their users.
type SessionSweepJob struct {
	Sessions      sessionService.SessionService
	Notifications notifService.NotificationService
	Cron          string
}

func (j *SessionSweepJob) Name() string     { return "session-sweep" }
func (j *SessionSweepJob) Schedule() string { return j.Cron }

func (j *SessionSweepJob) Run(ctx context.Context) error {
	expired, err := j.Sessions.Sweep(ctx)
	for _, userID := range expired {
		j.Notifications.Reset(userID)
	}
	return err
}

// NotificationPollJob refreshes the notification cache of every signed-in user.
type NotificationPollJob struct {
	Sessions      sessionService.SessionService
	Notifications notifService.NotificationService
	Cron          string
}

func (j *NotificationPollJob) Name() string     { return "notification-poll" }
func (j *NotificationPollJob) Schedule() string { return j.Cron }

func (j *NotificationPollJob) Run(ctx context.Context) error {
	sessions, err := j.Sessions.Active(ctx)
	if err != nil {
		return err
	}
	users := make([]entity.User, len(sessions))
	for i, sess := range sessions {
		users[i] = sess.User
	}
	j.Notifications.Poll(ctx, users)
	return nil
}

// SearchReindexJob rebuilds the model index on behalf of the most privileged
// signed-in user, since the platform scopes model listings per user. With no
// one signed in there is nothing to refresh.
type SearchReindexJob struct {
	Sessions sessionService.SessionService
	Models   modelService.ModelService
	Cron     string
}

func (j *SearchReindexJob) Name() string     { return "search-reindex" }
func (j *SearchReindexJob) Schedule() string { return j.Cron }

func (j *SearchReindexJob) Run(ctx context.Context) error {
	sessions, err := j.Sessions.Active(ctx)
	if err != nil {
		return err
	}

	var actor *entity.User
	for i := range sessions {
		u := sessions[i].User
		if actor == nil || u.Role.Effective() > actor.Role.Effective() {
			actor = &u
		}
	}
	if actor == nil {
		logger.For(logger.SEARCH).Debug("no live session, skipping reindex")
		return nil
	}
	return j.Models.Reindex(ctx, *actor)
}
