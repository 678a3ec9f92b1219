package consumerWorker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"matchmaker/internal/dto"
	"matchmaker/internal/model"
	"matchmaker/internal/repo"
)

// Queue is the slice of rabbit.Client the reader needs.
type Queue interface {
	Consume(ctx context.Context, handler func(context.Context, []byte) error) error
	Publish(ctx context.Context, message []byte, delay time.Duration) error
}

type Sender interface {
	SendNotification(recipient string, n model.Notification) error
}

type Reader struct {
	rmq    Queue
	repo   repo.Repository
	mail   Sender
	log    *zerolog.Logger
	now    func() time.Time
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq Queue, repo repo.Repository, mail Sender, log *zerolog.Logger) *Reader {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Reader{
		rmq:  rmq,
		repo: repo,
		mail: mail,
		log:  log,
		now:  time.Now,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.log.Info().Msg("notification reader started")

	go func() {
		defer close(r.done)

		if err := r.rmq.Consume(cctx, r.Handle); err != nil {
			r.log.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		r.log.Info().Msg("notification reader stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

// Handle processes one queue message. A returned error requeues the message.
func (r *Reader) Handle(ctx context.Context, body []byte) error {
	var msg dto.NotificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		r.log.Error().Err(err).Str("body", string(body)).Msg("dropping malformed message")
		return nil
	}

	// x-delay tops out below 25 days; longer waits hop through the exchange again.
	if wait := msg.DeliverAt.Sub(r.now()); wait > time.Second {
		if err := r.rmq.Publish(ctx, body, wait); err != nil {
			return fmt.Errorf("reschedule %s: %w", msg.Kind, err)
		}
		return nil
	}

	switch msg.Kind {
	case dto.KindDeliver:
		if msg.Notification == nil {
			r.log.Warn().Msg("deliver message without notification")
			return nil
		}
		return r.deliver(ctx, *msg.Notification)
	case dto.KindReminder:
		return r.scheduled(ctx, msg, model.NotificationReminder)
	case dto.KindThankYou:
		return r.scheduled(ctx, msg, model.NotificationThankYou)
	default:
		r.log.Warn().Str("kind", msg.Kind).Msg("dropping message of unknown kind")
		return nil
	}
}

func (r *Reader) scheduled(ctx context.Context, msg dto.NotificationMessage, t model.NotificationType) error {
	event, err := r.repo.GetEvent(ctx, msg.EventID)
	if errors.Is(err, repo.ErrEventNotFound) {
		r.log.Info().Str("event_id", msg.EventID).Msg("event is gone, skipping scheduled notification")
		return nil
	}
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	if !takesPart(*event, msg.UserID, t) {
		r.log.Info().
			Str("event_id", msg.EventID).
			Str("user_id", msg.UserID).
			Msg("user no longer takes part, skipping scheduled notification")
		return nil
	}

	n := repo.NewNotification(msg.UserID, t, *event, r.now())
	if err := r.repo.AddNotification(ctx, &n); err != nil {
		return fmt.Errorf("store %s notification: %w", t, err)
	}
	r.log.Info().
		Str("event_id", msg.EventID).
		Str("user_id", msg.UserID).
		Str("type", string(t)).
		Msg("scheduled notification stored")

	return r.deliver(ctx, n)
}

// deliver e-mails n. Mail failures are logged and not retried so the stored
// notification is never duplicated.
func (r *Reader) deliver(ctx context.Context, n model.Notification) error {
	user, err := r.repo.GetUser(ctx, n.UserID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if r.mail == nil || user.Email == "" {
		return nil
	}
	if err := r.mail.SendNotification(user.Email, n); err != nil {
		r.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to e-mail notification")
	}
	return nil
}

// takesPart reports whether userID should still get a t notification about e.
// Thank-you notes go to approved volunteers only.
func takesPart(e model.Event, userID string, t model.NotificationType) bool {
	lists := [][]string{e.Attendees, e.Volunteers}
	if t == model.NotificationThankYou {
		lists = lists[1:]
	}
	for _, list := range lists {
		for _, id := range list {
			if id == userID {
				return true
			}
		}
	}
	return false
}
