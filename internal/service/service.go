package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"matchmaker/internal/auth"
	"matchmaker/internal/dto"
	"matchmaker/internal/model"
	"matchmaker/internal/rabbit"
	"matchmaker/internal/repo"
)

type Service interface {
	Register(ctx *ginext.Context)
	Login(ctx *ginext.Context)
	Logout(ctx *ginext.Context)
	GetMe(ctx *ginext.Context)
	UpdateMe(ctx *ginext.Context)
	MyStats(ctx *ginext.Context)
	MyNotifications(ctx *ginext.Context)
	ReadNotifications(ctx *ginext.Context)
	Recommendations(ctx *ginext.Context)

	ListEvents(ctx *ginext.Context)
	GetEvent(ctx *ginext.Context)
	CreateEvent(ctx *ginext.Context)
	UpdateEvent(ctx *ginext.Context)
	DeleteEvent(ctx *ginext.Context)
	SignUp(ctx *ginext.Context)
	ApproveVolunteer(ctx *ginext.Context)
	DenyVolunteer(ctx *ginext.Context)
	Applicants(ctx *ginext.Context)

	PendingEvents(ctx *ginext.Context)
	ApproveEvent(ctx *ginext.Context)
	RejectEvent(ctx *ginext.Context)
	AdminStats(ctx *ginext.Context)
	ListUsers(ctx *ginext.Context)
}

type Recommender interface {
	Recommend(ctx context.Context, user model.User, events []model.Event) []model.Recommendation
}

type Deps struct {
	Repo        repo.Repository
	Log         *zerolog.Logger
	Issuer      *auth.Issuer
	Recommender Recommender
	// Publisher may be nil; notifications are then stored but not e-mailed or scheduled.
	Publisher rabbit.Publisher
	Now       func() time.Time
}

type service struct {
	repo repo.Repository
	log  *zerolog.Logger
	iss  *auth.Issuer
	rec  Recommender
	pub  rabbit.Publisher
	now  func() time.Time
}

func NewService(d Deps) Service {
	if d.Log == nil {
		nop := zerolog.Nop()
		d.Log = &nop
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &service{
		repo: d.Repo,
		log:  d.Log,
		iss:  d.Issuer,
		rec:  d.Recommender,
		pub:  d.Publisher,
		now:  d.Now,
	}
}

// caller loads the authenticated user. It writes the error response itself.
func (s *service) caller(ctx *ginext.Context) (*model.User, bool) {
	u, err := s.repo.GetUser(ctx, ctx.GetString(auth.UserIDKey))
	if errors.Is(err, repo.ErrUserNotFound) {
		dto.UnauthorizedError(ctx, "Account no longer exists")
		return nil, false
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load caller")
		dto.InternalServerError(ctx)
		return nil, false
	}
	return u, true
}

func canManage(u *model.User, e *model.Event) bool {
	return u.Role == model.RoleAdmin || (e.OrganizerID != "" && e.OrganizerID == u.ID)
}

// fail maps repository errors to responses.
func (s *service) fail(ctx *ginext.Context, err error, msg string) {
	switch {
	case errors.Is(err, repo.ErrEventNotFound):
		dto.EventNotFoundError(ctx)
	case errors.Is(err, repo.ErrUserNotFound):
		dto.UserNotFoundError(ctx)
	case errors.Is(err, repo.ErrEventFull):
		dto.EventFullError(ctx)
	case errors.Is(err, repo.ErrEventNotApproved):
		dto.EventNotApprovedError(ctx)
	case errors.Is(err, repo.ErrAlreadyRegistered):
		dto.AlreadyRegisteredError(ctx)
	case errors.Is(err, repo.ErrDuplicateEmail):
		dto.EmailTakenError(ctx)
	case errors.Is(err, repo.ErrNotPending):
		dto.NotPendingError(ctx)
	case errors.Is(err, repo.ErrInvalidRole):
		dto.FieldIncorrectError(ctx, "role")
	default:
		s.log.Error().Err(err).Msg(msg)
		dto.InternalServerError(ctx)
	}
}

func (s *service) publish(ctx context.Context, msg dto.NotificationMessage) {
	if s.pub == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal notification message")
		return
	}
	delay := msg.DeliverAt.Sub(s.now())
	if err := s.pub.Publish(ctx, payload, delay); err != nil {
		s.log.Error().Err(err).Str("kind", msg.Kind).Msg("failed to publish notification message")
	}
}

func (s *service) deliver(ctx context.Context, ns ...model.Notification) {
	for i := range ns {
		s.publish(ctx, dto.NotificationMessage{
			Kind:         dto.KindDeliver,
			Notification: &ns[i],
			UserID:       ns[i].UserID,
			EventID:      ns[i].EventID,
			DeliverAt:    s.now(),
		})
	}
}

// schedule queues the reminder and, for volunteers, the thank-you note.
func (s *service) schedule(ctx context.Context, e model.Event, userID string, volunteer bool) {
	now := s.now()
	remindAt, thankAt, ok := Schedule(e, now)
	if !ok {
		return
	}
	s.publish(ctx, dto.NotificationMessage{Kind: dto.KindReminder, EventID: e.ID, UserID: userID, DeliverAt: remindAt})
	if volunteer {
		s.publish(ctx, dto.NotificationMessage{Kind: dto.KindThankYou, EventID: e.ID, UserID: userID, DeliverAt: thankAt})
	}
}

// Schedule returns when to remind participants of e (a day before it starts,
// or now if that has passed) and when to thank its volunteers (the day after).
// ok is false for past or undated events.
func Schedule(e model.Event, now time.Time) (remindAt, thankAt time.Time, ok bool) {
	day, err := e.Day(now.Location())
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	y, m, d := now.Date()
	if day.Before(time.Date(y, m, d, 0, 0, 0, 0, now.Location())) {
		return time.Time{}, time.Time{}, false
	}
	remindAt = day.AddDate(0, 0, -1)
	if remindAt.Before(now) {
		remindAt = now
	}
	return remindAt, day.AddDate(0, 0, 1), true
}
