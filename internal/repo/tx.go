package repo

import (
	"context"

	"matchmaker/internal/model"
)

// RegisterForEventTx signs userID up for an approved event. Attendees are
// waitlisted once attendees and volunteers fill the capacity; volunteers become
// pending applicants awaiting the organizer's review.
func (r *repository) RegisterForEventTx(ctx context.Context, eventID, userID string, role model.ParticipationRole) (string, error) {
	if role != model.ParticipationAttendee && role != model.ParticipationVolunteer {
		return "", ErrInvalidRole
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.events(ctx)
	if err != nil {
		return "", err
	}
	ei := eventIndex(events, eventID)
	if ei < 0 {
		return "", ErrEventNotFound
	}
	event := &events[ei]
	if event.Status != model.StatusApproved {
		return "", ErrEventNotApproved
	}

	users, err := r.users(ctx)
	if err != nil {
		return "", err
	}
	ui := userIndex(users, userID)
	if ui < 0 {
		return "", ErrUserNotFound
	}
	user := &users[ui]

	if contains(event.Attendees, userID) || contains(event.Volunteers, userID) ||
		contains(event.PendingVolunteers, userID) || contains(event.Waitlist, userID) {
		return "", ErrAlreadyRegistered
	}

	var outcome string
	switch role {
	case model.ParticipationAttendee:
		if isFull(*event) {
			event.Waitlist = append(event.Waitlist, userID)
			outcome = OutcomeWaitlisted
		} else {
			event.Attendees = append(event.Attendees, userID)
			user.RegisteredEvents = append(user.RegisteredEvents, model.Participation{EventID: eventID, Role: role})
			outcome = OutcomeRegistered
		}
	case model.ParticipationVolunteer:
		event.PendingVolunteers = append(event.PendingVolunteers, userID)
		user.PendingEvents = append(user.PendingEvents, model.Participation{EventID: eventID, Role: role})
		outcome = OutcomePending
	}

	if err := r.save(ctx, EventsKey, events); err != nil {
		return "", err
	}
	if outcome != OutcomeWaitlisted {
		if err := r.save(ctx, UsersKey, users); err != nil {
			return "", err
		}
	}

	r.log.Info().
		Str("event_id", eventID).
		Str("user_id", userID).
		Str("outcome", outcome).
		Msg("event registration recorded")
	return outcome, nil
}

// ReviewVolunteerTx approves or denies a pending volunteer application and
// records the matching notification for the applicant.
func (r *repository) ReviewVolunteerTx(ctx context.Context, eventID, userID string, approve bool) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.events(ctx)
	if err != nil {
		return nil, err
	}
	ei := eventIndex(events, eventID)
	if ei < 0 {
		return nil, ErrEventNotFound
	}
	event := &events[ei]
	if !contains(event.PendingVolunteers, userID) {
		return nil, ErrNotPending
	}
	if approve && isFull(*event) {
		return nil, ErrEventFull
	}

	event.PendingVolunteers = remove(event.PendingVolunteers, userID)
	kind := model.NotificationVolunteerDenied
	if approve {
		event.Volunteers = append(event.Volunteers, userID)
		kind = model.NotificationVolunteerApproved
	}

	users, err := r.users(ctx)
	if err != nil {
		return nil, err
	}
	if ui := userIndex(users, userID); ui >= 0 {
		user := &users[ui]
		user.PendingEvents = withoutEvent(user.PendingEvents, eventID)
		if approve {
			user.RegisteredEvents = append(user.RegisteredEvents, model.Participation{
				EventID: eventID,
				Role:    model.ParticipationVolunteer,
			})
		}
		if err := r.save(ctx, UsersKey, users); err != nil {
			return nil, err
		}
	}

	if err := r.save(ctx, EventsKey, events); err != nil {
		return nil, err
	}

	n := r.notice(userID, kind, *event)
	if err := r.prependNotifications(ctx, n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ApproveEventTx publishes a pending event. Approving an approved event is a no-op.
func (r *repository) ApproveEventTx(ctx context.Context, id string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.events(ctx)
	if err != nil {
		return nil, err
	}
	ei := eventIndex(events, id)
	if ei < 0 {
		return nil, ErrEventNotFound
	}
	if events[ei].Status == model.StatusApproved {
		return &events[ei], nil
	}
	events[ei].Status = model.StatusApproved
	if err := r.save(ctx, EventsKey, events); err != nil {
		return nil, err
	}
	return &events[ei], nil
}

// PendingApplicants lists pending volunteers on events owned by organizerID.
// An empty organizerID lists applicants on every event.
func (r *repository) PendingApplicants(ctx context.Context, organizerID string) ([]Applicant, error) {
	events, err := r.events(ctx)
	if err != nil {
		return nil, err
	}
	users, err := r.users(ctx)
	if err != nil {
		return nil, err
	}

	applicants := make([]Applicant, 0)
	for _, e := range events {
		if organizerID != "" && e.OrganizerID != organizerID {
			continue
		}
		for _, userID := range e.PendingVolunteers {
			ui := userIndex(users, userID)
			if ui < 0 {
				continue
			}
			applicants = append(applicants, Applicant{User: users[ui], EventID: e.ID, EventTitle: e.Title})
		}
	}
	return applicants, nil
}

// isFull treats a non-positive capacity as unlimited.
func isFull(e model.Event) bool {
	return e.MaxCapacity > 0 && e.Filled() >= e.MaxCapacity
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// UpdateEventTx runs apply on the stored event and saves the result in one
// locked step, so sign-ups landing meanwhile are not overwritten. An error from
// apply aborts the write and is returned as is.
func (r *repository) UpdateEventTx(ctx context.Context, id string, apply func(*model.Event) error) (*model.Event, error) {
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
	e := events[idx]
	if err := apply(&e); err != nil {
		return nil, err
	}
	e.ID = id
	events[idx] = e
	if err := r.save(ctx, EventsKey, events); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateUserTx is UpdateEventTx for user records.
func (r *repository) UpdateUserTx(ctx context.Context, id string, apply func(*model.User) error) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.users(ctx)
	if err != nil {
		return nil, err
	}
	idx := userIndex(users, id)
	if idx < 0 {
		return nil, ErrUserNotFound
	}
	u := users[idx]
	if err := apply(&u); err != nil {
		return nil, err
	}
	u.ID = id
	users[idx] = u
	if err := r.save(ctx, UsersKey, users); err != nil {
		return nil, err
	}
	return &u, nil
}
