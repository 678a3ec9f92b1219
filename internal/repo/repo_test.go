package repo

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"matchmaker/internal/model"
	"matchmaker/internal/storage"
)

var fixedNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T, seed Seed) (Repository, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	r, err := NewRepository(store, nil, WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	if err := r.Initialize(context.Background(), seed); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return r, store
}

func testSeed() Seed {
	return Seed{
		Users: []model.User{
			{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: model.RoleVolunteer,
				RegisteredEvents: []model.Participation{{EventID: "e1", Role: model.ParticipationAttendee}}},
			{ID: "u2", Name: "Ben", Email: "ben@example.com", Role: model.RoleVolunteer,
				PendingEvents: []model.Participation{{EventID: "e1", Role: model.ParticipationVolunteer}}},
			{ID: "u3", Name: "Cleo", Email: "cleo@example.com", Role: model.RoleAttendee},
			{ID: "org", Name: "Org", Email: "org@example.com", Role: model.RoleOrganizer},
		},
		Events: []model.Event{
			{
				ID: "e1", Title: "River Cleanup Day", Date: "2026-10-25", Status: model.StatusApproved,
				MaxCapacity: 3, OrganizerID: "org",
				Attendees: []string{"u1"}, Volunteers: []string{"u3"}, PendingVolunteers: []string{"u2"},
			},
			{ID: "e2", Title: "Art Walk", Date: "2026-10-30", Status: model.StatusPending, MaxCapacity: 10, OrganizerID: "org"},
			{ID: "e3", Title: "Tiny Event", Date: "2026-11-02", Status: model.StatusApproved, MaxCapacity: 1},
		},
	}
}

func TestDeleteEventNotifiesEachParticipant(t *testing.T) {
	ctx := context.Background()
	seed := testSeed()
	// u1 also sits in the volunteers list; they must be notified once.
	seed.Events[0].Volunteers = append(seed.Events[0].Volunteers, "u1")
	r, _ := newTestRepo(t, seed)

	created, err := r.DeleteEvent(ctx, "e1")
	if err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}

	want := map[string]bool{"u1": true, "u3": true, "u2": true}
	if len(created) != len(want) {
		t.Fatalf("created %d notifications, want %d", len(created), len(want))
	}
	for _, n := range created {
		if !want[n.UserID] {
			t.Fatalf("unexpected notification for %s", n.UserID)
		}
		delete(want, n.UserID)
		if n.EventID != "e1" || n.Type != model.NotificationCancellation || n.Read {
			t.Fatalf("bad notification: %+v", n)
		}
		if n.Message != `The event "River Cleanup Day" has been cancelled by the organizer.` {
			t.Fatalf("message = %q", n.Message)
		}
	}

	stored, err := r.ListNotifications(ctx)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("stored %d notifications, want 3", len(stored))
	}

	if _, err := r.GetEvent(ctx, "e1"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("GetEvent after delete err = %v", err)
	}
	events, _ := r.ListEvents(ctx)
	if len(events) != 2 {
		t.Fatalf("events left = %d, want 2", len(events))
	}

	u1, _ := r.GetUser(ctx, "u1")
	u2, _ := r.GetUser(ctx, "u2")
	if len(u1.RegisteredEvents) != 0 || len(u2.PendingEvents) != 0 {
		t.Fatalf("deleted event still referenced: %+v / %+v", u1.RegisteredEvents, u2.PendingEvents)
	}
}

func TestDeleteEventWithoutParticipants(t *testing.T) {
	r, _ := newTestRepo(t, testSeed())
	created, err := r.DeleteEvent(context.Background(), "e2")
	if err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("created %d notifications, want 0", len(created))
	}
	if _, err := r.DeleteEvent(context.Background(), "e2"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("second delete err = %v, want ErrEventNotFound", err)
	}
}

func TestInitializeKeepsExistingRecords(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRepo(t, testSeed())

	r2, _ := NewRepository(store, nil)
	if err := r2.Initialize(ctx, Seed{}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	users, _ := r.ListUsers(ctx)
	if len(users) != 4 {
		t.Fatalf("users = %d, want seeded 4", len(users))
	}
}

func TestCorruptRecordTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRepo(t, testSeed())
	_ = store.Set(ctx, EventsKey, []byte("{not json"))

	events, err := r.ListEvents(ctx)
	if err != nil {
		t.Fatalf("ListEvents err = %v, want nil", err)
	}
	if len(events) != 0 {
		t.Fatalf("ListEvents = %d events, want 0", len(events))
	}
}

func TestOverwritingCorruptRecordWarns(t *testing.T) {
	ctx := context.Background()
	_, store := newTestRepo(t, testSeed())

	var buf bytes.Buffer
	log := zerolog.New(&buf)
	r, err := NewRepository(store, &log)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	if err := r.AddUser(ctx, &model.User{Name: "Dee", Email: "dee@example.com"}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if strings.Contains(buf.String(), "overwritten") {
		t.Fatalf("healthy write logged a warning: %s", buf.String())
	}

	_ = store.Set(ctx, UsersKey, []byte("[{broken"))
	if err := r.AddUser(ctx, &model.User{Name: "Eli", Email: "eli@example.com"}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, "overwritten") || !strings.Contains(out, UsersKey) {
		t.Fatalf("missing overwrite warning in log: %s", out)
	}

	users, _ := r.ListUsers(ctx)
	if len(users) != 1 || users[0].Email != "eli@example.com" {
		t.Fatalf("users after overwrite = %+v", users)
	}
}

func TestAddEventPrepends(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t, testSeed())

	e := &model.Event{Title: "Food Drive", Status: model.StatusPending}
	if err := r.AddEvent(ctx, e); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if e.ID == "" {
		t.Fatal("AddEvent did not assign an id")
	}
	events, _ := r.ListEvents(ctx)
	if events[0].ID != e.ID {
		t.Fatalf("first event = %s, want new event %s", events[0].ID, e.ID)
	}
}

func TestUpdateEvent(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t, testSeed())

	e, _ := r.GetEvent(ctx, "e2")
	e.Title = "Art Walk (rescheduled)"
	if err := r.UpdateEvent(ctx, e); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	got, _ := r.GetEvent(ctx, "e2")
	if got.Title != "Art Walk (rescheduled)" {
		t.Fatalf("title = %q", got.Title)
	}
	if err := r.UpdateEvent(ctx, &model.Event{ID: "nope"}); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("UpdateEvent(missing) err = %v", err)
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t, testSeed())

	dup := &model.User{Name: "Ana Again", Email: "ANA@example.com"}
	if err := r.AddUser(ctx, dup); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("AddUser(duplicate) err = %v", err)
	}

	u := &model.User{Name: "Dee", Email: "dee@example.com", Role: model.RoleAttendee}
	if err := r.AddUser(ctx, u); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if u.ID == "" || !u.CreatedAt.Equal(fixedNow) {
		t.Fatalf("AddUser did not stamp id/createdAt: %+v", u)
	}

	found, err := r.GetUserByEmail(ctx, "DEE@example.com")
	if err != nil || found.ID != u.ID {
		t.Fatalf("GetUserByEmail = %v, %v", found, err)
	}

	found.Bio = "Gardener"
	if err := r.UpdateUser(ctx, found); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if got, _ := r.GetUser(ctx, u.ID); got.Bio != "Gardener" {
		t.Fatalf("bio = %q", got.Bio)
	}

	if err := r.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := r.GetUser(ctx, u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("GetUser after delete err = %v", err)
	}
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t, testSeed())

	if u, err := r.GetCurrentUser(ctx); u != nil || err != nil {
		t.Fatalf("GetCurrentUser before login = %v, %v", u, err)
	}

	u, _ := r.GetUser(ctx, "u3")
	if err := r.SetCurrentUser(ctx, u); err != nil {
		t.Fatalf("SetCurrentUser: %v", err)
	}

	u.Bio = "updated elsewhere"
	_ = r.UpdateUser(ctx, u)

	current, err := r.GetCurrentUser(ctx)
	if err != nil || current == nil {
		t.Fatalf("GetCurrentUser = %v, %v", current, err)
	}
	if current.Bio != "updated elsewhere" {
		t.Fatalf("current user not refreshed: %q", current.Bio)
	}

	if err := r.ClearCurrentUser(ctx); err != nil {
		t.Fatalf("ClearCurrentUser: %v", err)
	}
	if u, _ := r.GetCurrentUser(ctx); u != nil {
		t.Fatalf("GetCurrentUser after clear = %v", u)
	}
}

func TestNotificationsForUser(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t, testSeed())

	older := &model.Notification{UserID: "u1", Message: "old", Type: model.NotificationReminder, Timestamp: fixedNow.Add(-time.Hour)}
	newer := &model.Notification{UserID: "u1", Message: "new", Type: model.NotificationThankYou, Timestamp: fixedNow}
	other := &model.Notification{UserID: "u2", Message: "other", Type: model.NotificationReminder}
	for _, n := range []*model.Notification{newer, older, other} {
		if err := r.AddNotification(ctx, n); err != nil {
			t.Fatalf("AddNotification: %v", err)
		}
	}

	got, err := r.ListNotificationsForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListNotificationsForUser: %v", err)
	}
	if len(got) != 2 || got[0].Message != "new" || got[1].Message != "old" {
		t.Fatalf("ListNotificationsForUser = %+v", got)
	}

	if err := r.MarkNotificationsRead(ctx, "u1"); err != nil {
		t.Fatalf("MarkNotificationsRead: %v", err)
	}
	all, _ := r.ListNotifications(ctx)
	for _, n := range all {
		if n.Read != (n.UserID == "u1") {
			t.Fatalf("read flag for %s = %v", n.UserID, n.Read)
		}
	}
}
