package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"matchmaker/internal/model"
	"matchmaker/internal/storage"
)

const (
	UsersKey         = "connecthub_users"
	EventsKey        = "connecthub_events"
	CurrentUserKey   = "connecthub_currentUser"
	NotificationsKey = "connecthub_notifications"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrEventFull         = errors.New("event is full")
	ErrEventNotApproved  = errors.New("event is not approved")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrDuplicateEmail    = errors.New("email already in use")
	ErrNotPending        = errors.New("no pending application")
	ErrInvalidRole       = errors.New("invalid participation role")
)

// Registration outcomes.
const (
	OutcomeRegistered = "registered"
	OutcomeWaitlisted = "waitlisted"
	OutcomePending    = "pending"
)

type Seed struct {
	Users         []model.User         `json:"users"`
	Events        []model.Event        `json:"events"`
	Notifications []model.Notification `json:"notifications"`
}

// Applicant is a pending volunteer application on one of an organizer's events.
type Applicant struct {
	User       model.User `json:"user"`
	EventID    string     `json:"eventId"`
	EventTitle string     `json:"eventTitle"`
}

type Repository interface {
	Initialize(ctx context.Context, seed Seed) error

	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	AddUser(ctx context.Context, u *model.User) error
	UpdateUser(ctx context.Context, u *model.User) error
	UpdateUserTx(ctx context.Context, id string, apply func(*model.User) error) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error

	GetCurrentUser(ctx context.Context) (*model.User, error)
	SetCurrentUser(ctx context.Context, u *model.User) error
	ClearCurrentUser(ctx context.Context) error

	ListEvents(ctx context.Context) ([]model.Event, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	AddEvent(ctx context.Context, e *model.Event) error
	UpdateEvent(ctx context.Context, e *model.Event) error
	UpdateEventTx(ctx context.Context, id string, apply func(*model.Event) error) (*model.Event, error)
	DeleteEvent(ctx context.Context, id string) ([]model.Notification, error)

	ListNotifications(ctx context.Context) ([]model.Notification, error)
	ListNotificationsForUser(ctx context.Context, userID string) ([]model.Notification, error)
	AddNotification(ctx context.Context, n *model.Notification) error
	MarkNotificationsRead(ctx context.Context, userID string) error

	RegisterForEventTx(ctx context.Context, eventID, userID string, role model.ParticipationRole) (string, error)
	ReviewVolunteerTx(ctx context.Context, eventID, userID string, approve bool) (*model.Notification, error)
	ApproveEventTx(ctx context.Context, id string) (*model.Event, error)
	PendingApplicants(ctx context.Context, organizerID string) ([]Applicant, error)
}

type Option func(*repository)

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *repository) { r.now = now }
}

type repository struct {
	store storage.Store
	log   *zerolog.Logger
	now   func() time.Time

	// serializes read-modify-write pairs within the process
	mu sync.Mutex
	// keys whose last read failed to parse
	corrupt sync.Map
}

func NewRepository(store storage.Store, log *zerolog.Logger, opts ...Option) (Repository, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	r := &repository{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// LoadSeed reads a JSON seed file.
func LoadSeed(path string) (Seed, error) {
	var seed Seed
	raw, err := os.ReadFile(path)
	if err != nil {
		return seed, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &seed); err != nil {
		return seed, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return seed, nil
}

func (r *repository) Initialize(ctx context.Context, seed Seed) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := []struct {
		key   string
		value any
	}{
		{UsersKey, nonNil(seed.Users)},
		{EventsKey, nonNil(seed.Events)},
		{NotificationsKey, nonNil(seed.Notifications)},
	}
	for _, rec := range records {
		_, err := r.store.Get(ctx, rec.key)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to check record %s: %w", rec.key, err)
		}
		if err := r.save(ctx, rec.key, rec.value); err != nil {
			return err
		}
		r.log.Info().Str("key", rec.key).Msg("record initialized")
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// get decodes key into dst. It reports false when the record is absent or unparsable.
func (r *repository) get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := r.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.log.Error().Err(err).Str("key", key).Msg("Error parsing stored record")
		r.corrupt.Store(key, struct{}{})
		return false, nil
	}
	r.corrupt.Delete(key)
	return true, nil
}

func (r *repository) save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if _, was := r.corrupt.LoadAndDelete(key); was {
		r.log.Warn().Str("key", key).Msg("unparsable record overwritten, its previous contents are lost")
	}
	return nil
}

func (r *repository) users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if _, err := r.get(ctx, UsersKey, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) events(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if _, err := r.get(ctx, EventsKey, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) notifications(ctx context.Context) ([]model.Notification, error) {
	var ns []model.Notification
	if _, err := r.get(ctx, NotificationsKey, &ns); err != nil {
		return nil, err
	}
	return ns, nil
}

func (r *repository) ListUsers(ctx context.Context) ([]model.User, error) {
	return r.users(ctx)
}

func (r *repository) GetUser(ctx context.Context, id string) (*model.User, error) {
	users, err := r.users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := r.users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *repository) AddUser(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.users(ctx)
	if err != nil {
		return err
	}
	for _, existing := range users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now()
	}
	return r.save(ctx, UsersKey, append(users, *u))
}

func (r *repository) UpdateUser(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.users(ctx)
	if err != nil {
		return err
	}
	idx := userIndex(users, u.ID)
	if idx < 0 {
		return ErrUserNotFound
	}
	users[idx] = *u
	return r.save(ctx, UsersKey, users)
}

func (r *repository) DeleteUser(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.users(ctx)
	if err != nil {
		return err
	}
	idx := userIndex(users, id)
	if idx < 0 {
		return ErrUserNotFound
	}
	return r.save(ctx, UsersKey, append(users[:idx], users[idx+1:]...))
}

// GetCurrentUser returns nil without error when nobody is signed in. The stored
// snapshot is refreshed from the users record when the id still resolves.
func (r *repository) GetCurrentUser(ctx context.Context) (*model.User, error) {
	var current model.User
	ok, err := r.get(ctx, CurrentUserKey, &current)
	if err != nil || !ok {
		return nil, err
	}
	fresh, err := r.GetUser(ctx, current.ID)
	if errors.Is(err, ErrUserNotFound) {
		return &current, nil
	}
	if err != nil {
		return nil, err
	}
	return fresh, nil
}

func (r *repository) SetCurrentUser(ctx context.Context, u *model.User) error {
	return r.save(ctx, CurrentUserKey, u)
}

func (r *repository) ClearCurrentUser(ctx context.Context) error {
	if err := r.store.Delete(ctx, CurrentUserKey); err != nil {
		return fmt.Errorf("failed to clear current user: %w", err)
	}
	return nil
}

func (r *repository) ListEvents(ctx context.Context) ([]model.Event, error) {
	return r.events(ctx)
}

func (r *repository) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	events, err := r.events(ctx)
	if err != nil {
		return nil, err
	}
	if idx := eventIndex(events, id); idx >= 0 {
		return &events[idx], nil
	}
	return nil, ErrEventNotFound
}

// AddEvent puts e in front of the stored list.
func (r *repository) AddEvent(ctx context.Context, e *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.events(ctx)
	if err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return r.save(ctx, EventsKey, append([]model.Event{*e}, events...))
}

func (r *repository) UpdateEvent(ctx context.Context, e *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.events(ctx)
	if err != nil {
		return err
	}
	idx := eventIndex(events, e.ID)
	if idx < 0 {
		return ErrEventNotFound
	}
	events[idx] = *e
	return r.save(ctx, EventsKey, events)
}

// DeleteEvent removes the event, notifies every distinct participant of the
// cancellation and strips the event from users' registered and pending lists.
// It returns the notifications it created.
func (r *repository) DeleteEvent(ctx context.Context, id string) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.events(ctx)
	if err != nil {
		return nil, err
	}
	idx := eventIndex(events, id)
	if idx < 0 {
		return nil, ErrEventNotFound
	}
	deleted := events[idx]

	created := make([]model.Notification, 0, len(deleted.Participants()))
	for _, userID := range deleted.Participants() {
		created = append(created, r.notice(userID, model.NotificationCancellation, deleted))
	}
	if len(created) > 0 {
		if err := r.prependNotifications(ctx, created...); err != nil {
			return nil, err
		}
	}

	users, err := r.users(ctx)
	if err != nil {
		return nil, err
	}
	changed := false
	for i := range users {
		reg := withoutEvent(users[i].RegisteredEvents, id)
		pending := withoutEvent(users[i].PendingEvents, id)
		if len(reg) != len(users[i].RegisteredEvents) || len(pending) != len(users[i].PendingEvents) {
			users[i].RegisteredEvents = reg
			users[i].PendingEvents = pending
			changed = true
		}
	}
	if changed {
		if err := r.save(ctx, UsersKey, users); err != nil {
			return nil, err
		}
	}

	if err := r.save(ctx, EventsKey, append(events[:idx], events[idx+1:]...)); err != nil {
		return nil, err
	}
	r.log.Info().Str("event_id", id).Int("notified", len(created)).Msg("event deleted")
	return created, nil
}

func (r *repository) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	return r.notifications(ctx)
}

// ListNotificationsForUser returns the user's notifications, newest first.
func (r *repository) ListNotificationsForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	all, err := r.notifications(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Notification, 0)
	for _, n := range all {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *repository) AddNotification(ctx context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = r.now()
	}
	return r.prependNotifications(ctx, *n)
}

func (r *repository) MarkNotificationsRead(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.notifications(ctx)
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].UserID == userID {
			all[i].Read = true
		}
	}
	return r.save(ctx, NotificationsKey, nonNil(all))
}

func (r *repository) prependNotifications(ctx context.Context, ns ...model.Notification) error {
	all, err := r.notifications(ctx)
	if err != nil {
		return err
	}
	merged := make([]model.Notification, 0, len(ns)+len(all))
	merged = append(merged, ns...)
	merged = append(merged, all...)
	return r.save(ctx, NotificationsKey, merged)
}

func userIndex(users []model.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

func eventIndex(events []model.Event, id string) int {
	for i := range events {
		if events[i].ID == id {
			return i
		}
	}
	return -1
}

func withoutEvent(list []model.Participation, eventID string) []model.Participation {
	out := make([]model.Participation, 0, len(list))
	for _, p := range list {
		if p.EventID != eventID {
			out = append(out, p)
		}
	}
	return out
}
