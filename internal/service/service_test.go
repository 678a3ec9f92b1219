package service

import (
	"testing"
	"time"

	"matchmaker/internal/model"
)

func TestSchedule(t *testing.T) {
	now := time.Date(2026, time.October, 21, 15, 0, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2026, time.October, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name       string
		date       string
		wantOK     bool
		wantRemind time.Time
		wantThank  time.Time
	}{
		{name: "next week", date: "2026-10-28", wantOK: true, wantRemind: day(27), wantThank: day(29)},
		{name: "tomorrow reminds now", date: "2026-10-22", wantOK: true, wantRemind: now, wantThank: day(23)},
		{name: "today", date: "2026-10-21", wantOK: true, wantRemind: now, wantThank: day(22)},
		{name: "past", date: "2026-10-20"},
		{name: "undated", date: "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remind, thank, ok := Schedule(model.Event{Date: tt.date}, now)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !remind.Equal(tt.wantRemind) || !thank.Equal(tt.wantThank) {
				t.Fatalf("Schedule = %v, %v; want %v, %v", remind, thank, tt.wantRemind, tt.wantThank)
			}
		})
	}
}

func TestCanManage(t *testing.T) {
	e := &model.Event{OrganizerID: "org"}
	tests := []struct {
		user model.User
		want bool
	}{
		{model.User{ID: "org", Role: model.RoleOrganizer}, true},
		{model.User{ID: "other", Role: model.RoleOrganizer}, false},
		{model.User{ID: "root", Role: model.RoleAdmin}, true},
	}
	for _, tt := range tests {
		if got := canManage(&tt.user, e); got != tt.want {
			t.Errorf("canManage(%s) = %v, want %v", tt.user.ID, got, tt.want)
		}
	}
	if canManage(&model.User{ID: "", Role: model.RoleOrganizer}, &model.Event{}) {
		t.Error("event without owner is manageable by an organizer with empty id")
	}
}
