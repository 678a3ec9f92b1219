package consumerWorker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"matchmaker/internal/dto"
	"matchmaker/internal/model"
	"matchmaker/internal/repo"
	"matchmaker/internal/storage"
)

var fixedNow = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

type fakeQueue struct {
	published [][]byte
	delays    []time.Duration
	err       error
}

func (q *fakeQueue) Consume(context.Context, func(context.Context, []byte) error) error { return nil }

func (q *fakeQueue) Publish(_ context.Context, message []byte, delay time.Duration) error {
	q.published = append(q.published, message)
	q.delays = append(q.delays, delay)
	return q.err
}

type sent struct {
	to string
	n  model.Notification
}

type fakeSender struct {
	sent []sent
	err  error
}

func (f *fakeSender) SendNotification(to string, n model.Notification) error {
	f.sent = append(f.sent, sent{to, n})
	return f.err
}

func newReader(t *testing.T) (*Reader, repo.Repository, *fakeQueue, *fakeSender) {
	t.Helper()
	r, err := repo.NewRepository(storage.NewMemory(), nil, repo.WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	seed := repo.Seed{
		Users: []model.User{
			{ID: "u1", Email: "ana@example.com", Role: model.RoleVolunteer},
			{ID: "u2", Email: "ben@example.com", Role: model.RoleAttendee},
			{ID: "u3", Email: "cleo@example.com", Role: model.RoleVolunteer},
		},
		Events: []model.Event{{
			ID: "e1", Title: "River Cleanup Day", Date: "2026-10-20", Time: "9:00 AM - 12:00 PM",
			Status: model.StatusApproved, Volunteers: []string{"u1"}, Attendees: []string{"u2"},
		}},
	}
	if err := r.Initialize(context.Background(), seed); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	q := &fakeQueue{}
	mail := &fakeSender{}
	reader := NewReader(q, r, mail, nil)
	reader.now = func() time.Time { return fixedNow }
	return reader, r, q, mail
}

func encode(t *testing.T, msg dto.NotificationMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestHandleScheduled(t *testing.T) {
	tests := []struct {
		name      string
		msg       dto.NotificationMessage
		wantType  model.NotificationType
		wantEmail string
	}{
		{
			name:      "reminder for attendee",
			msg:       dto.NotificationMessage{Kind: dto.KindReminder, EventID: "e1", UserID: "u2"},
			wantType:  model.NotificationReminder,
			wantEmail: "ben@example.com",
		},
		{
			name:      "thank you for volunteer",
			msg:       dto.NotificationMessage{Kind: dto.KindThankYou, EventID: "e1", UserID: "u1"},
			wantType:  model.NotificationThankYou,
			wantEmail: "ana@example.com",
		},
		{
			name: "thank you skips attendee",
			msg:  dto.NotificationMessage{Kind: dto.KindThankYou, EventID: "e1", UserID: "u2"},
		},
		{
			name: "reminder skips user who left",
			msg:  dto.NotificationMessage{Kind: dto.KindReminder, EventID: "e1", UserID: "u3"},
		},
		{
			name: "cancelled event",
			msg:  dto.NotificationMessage{Kind: dto.KindReminder, EventID: "gone", UserID: "u1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, r, _, mail := newReader(t)
			ctx := context.Background()
			if err := reader.Handle(ctx, encode(t, tt.msg)); err != nil {
				t.Fatalf("Handle: %v", err)
			}

			notes, _ := r.ListNotificationsForUser(ctx, tt.msg.UserID)
			if tt.wantType == "" {
				if len(notes) != 0 || len(mail.sent) != 0 {
					t.Fatalf("expected nothing, got notes=%+v mail=%+v", notes, mail.sent)
				}
				return
			}
			if len(notes) != 1 || notes[0].Type != tt.wantType || notes[0].EventID != "e1" {
				t.Fatalf("notifications = %+v", notes)
			}
			if len(mail.sent) != 1 || mail.sent[0].to != tt.wantEmail || mail.sent[0].n.ID != notes[0].ID {
				t.Fatalf("mail = %+v", mail.sent)
			}
		})
	}
}

func TestHandleDeliver(t *testing.T) {
	reader, _, _, mail := newReader(t)
	n := model.Notification{ID: "n1", UserID: "u1", Type: model.NotificationCancellation, Message: "cancelled"}
	if err := reader.Handle(context.Background(), encode(t, dto.NotificationMessage{Kind: dto.KindDeliver, Notification: &n})); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(mail.sent) != 1 || mail.sent[0].to != "ana@example.com" || mail.sent[0].n.ID != "n1" {
		t.Fatalf("mail = %+v", mail.sent)
	}
}

func TestHandleMailFailureIsNotRetried(t *testing.T) {
	reader, r, _, mail := newReader(t)
	mail.err = errors.New("smtp down")
	msg := dto.NotificationMessage{Kind: dto.KindReminder, EventID: "e1", UserID: "u1"}
	if err := reader.Handle(context.Background(), encode(t, msg)); err != nil {
		t.Fatalf("Handle = %v, want nil", err)
	}
	notes, _ := r.ListNotificationsForUser(context.Background(), "u1")
	if len(notes) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notes))
	}
}

func TestHandleReschedulesEarlyMessage(t *testing.T) {
	reader, r, q, mail := newReader(t)
	msg := dto.NotificationMessage{Kind: dto.KindReminder, EventID: "e1", UserID: "u1", DeliverAt: fixedNow.Add(40 * 24 * time.Hour)}
	if err := reader.Handle(context.Background(), encode(t, msg)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(q.published) != 1 || q.delays[0] != 40*24*time.Hour {
		t.Fatalf("republished = %d with delays %v", len(q.published), q.delays)
	}
	notes, _ := r.ListNotificationsForUser(context.Background(), "u1")
	if len(notes) != 0 || len(mail.sent) != 0 {
		t.Fatal("early message was processed")
	}

	q.err = errors.New("channel closed")
	if err := reader.Handle(context.Background(), encode(t, msg)); err == nil {
		t.Fatal("expected requeue error when republish fails")
	}
}

func TestHandleDropsBadMessages(t *testing.T) {
	reader, _, _, mail := newReader(t)
	for _, body := range [][]byte{
		[]byte("{oops"),
		encode(t, dto.NotificationMessage{Kind: "mystery"}),
		encode(t, dto.NotificationMessage{Kind: dto.KindDeliver}),
	} {
		if err := reader.Handle(context.Background(), body); err != nil {
			t.Fatalf("Handle(%s) = %v, want nil", body, err)
		}
	}
	if len(mail.sent) != 0 {
		t.Fatalf("mail = %+v", mail.sent)
	}
}
